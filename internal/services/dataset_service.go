package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"dataset-service/internal/database/minio"
	"dataset-service/internal/event"
	"dataset-service/internal/ingest"
	"dataset-service/internal/models"
	"dataset-service/utils"

	"github.com/google/uuid"
)

// maxAddressAttempts bounds the allocate-insert-retry loop for address
// collisions before giving up with ErrAddressExhausted.
const maxAddressAttempts = 5

// DatasetStore is the persistence surface the service works against. The
// sqlx-backed repository.DatasetRepository is the production
// implementation.
type DatasetStore interface {
	CreateDataset(ctx context.Context, dataset *models.Dataset) error
	GetDatasetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	GetDatasetByAddress(ctx context.Context, address string) (*models.Dataset, error)
	ListDatasetsByOwner(ctx context.Context, ownerID string) ([]models.Dataset, error)
	ListPublicDatasets(ctx context.Context) ([]models.Dataset, error)
	ReplaceDataset(ctx context.Context, id uuid.UUID, patch *models.DatasetPatch) error
	DeleteDataset(ctx context.Context, id uuid.UUID) (string, error)
}

type DatasetService struct {
	repo        DatasetStore
	minioClient *minio.MinioClient
	publisher   *event.DatasetPublisher
	baseURL     string
}

func NewDatasetService(repo DatasetStore, minioClient *minio.MinioClient, publisher *event.DatasetPublisher, baseURL string) *DatasetService {
	return &DatasetService{
		repo:        repo,
		minioClient: minioClient,
		publisher:   publisher,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

// ============================================================================
// CREATE
// ============================================================================

// CreateDataset runs the full ingestion path: parse the upload (a file
// wins over inline data when both are given), allocate an address, persist
// with a bounded collision retry, then archive the raw upload and signal
// collaborators. Archive and signal failures never undo the create.
func (s *DatasetService) CreateDataset(ctx context.Context, ownerID string, req models.CreateDatasetRequest, upload *models.UploadedFile) (*models.Dataset, error) {
	records, sourceFormat, err := s.parseUpload(req.Data, upload)
	if err != nil {
		return nil, err
	}

	parameters, err := models.StringifyDescriptor(req.Parameters)
	if err != nil {
		return nil, err
	}
	endpoints, err := models.StringifyDescriptor(req.Endpoints)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	dataset := &models.Dataset{
		ID:                   uuid.New(),
		OwnerID:              ownerID,
		DisplayName:          displayName,
		Description:          req.Description,
		Category:             defaultString(req.Category, "General"),
		Version:              defaultString(req.Version, "v1"),
		ParametersDescriptor: parameters,
		EndpointsDescriptor:  endpoints,
		Records:              records,
		SourceFormat:         sourceFormat,
		Visibility:           models.NormalizeVisibility(req.Visibility),
	}

	for attempt := 1; ; attempt++ {
		dataset.Address = ingest.AllocateAddress(displayName)
		dataset.ServingURL = s.servingURL(dataset.Address)
		dataset.ExampleSnippet = buildExampleSnippet(dataset.ServingURL)

		err = s.repo.CreateDataset(ctx, dataset)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrDuplicateAddress) {
			return nil, err
		}
		if attempt >= maxAddressAttempts {
			slog.Error("Address allocation retry budget exhausted",
				"display_name", displayName,
				"attempts", attempt)
			return nil, models.ErrAddressExhausted
		}
		slog.Warn("Retrying dataset address allocation",
			"display_name", displayName,
			"attempt", attempt)
	}

	s.archiveUpload(ctx, dataset.ID, upload)
	s.publishEvent(ctx, event.DatasetCreated, dataset)
	return dataset, nil
}

// ============================================================================
// READ
// ============================================================================

func (s *DatasetService) GetDatasetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	return s.repo.GetDatasetByID(ctx, id)
}

func (s *DatasetService) ListMyDatasets(ctx context.Context, ownerID string) ([]models.Dataset, error) {
	return s.repo.ListDatasetsByOwner(ctx, ownerID)
}

func (s *DatasetService) ListPublicDatasets(ctx context.Context) ([]models.Dataset, error) {
	return s.repo.ListPublicDatasets(ctx)
}

// ServeDataset resolves a dataset by its public address and runs the query
// engine over its records.
func (s *DatasetService) ServeDataset(ctx context.Context, address string, opts QueryOptions) (*models.ServeEnvelope, error) {
	dataset, err := s.repo.GetDatasetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	records, matched := ApplyDatasetQuery(dataset.Records, opts)
	return &models.ServeEnvelope{
		Message:       "Data fetched successfully",
		MatchedCount:  matched,
		Filters:       opts.Filters,
		ResultRecords: records,
	}, nil
}

// ============================================================================
// UPDATE / DELETE
// ============================================================================

// UpdateDataset merges provided metadata fields and, when a new upload (or
// inline payload) is present, replaces the record array and source format
// wholesale. The address never changes, even when the display name does;
// the example snippet is regenerated against the existing serving URL.
func (s *DatasetService) UpdateDataset(ctx context.Context, id uuid.UUID, req models.UpdateDatasetRequest, upload *models.UploadedFile) (*models.Dataset, error) {
	existing, err := s.repo.GetDatasetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch, err := buildUpdatePatch(existing, req, upload)
	if err != nil {
		return nil, err
	}

	if !patch.IsEmpty() {
		if err := s.repo.ReplaceDataset(ctx, id, patch); err != nil {
			return nil, err
		}
	}

	patch.Apply(existing)
	s.archiveUpload(ctx, existing.ID, upload)
	s.publishEvent(ctx, event.DatasetUpdated, existing)
	return existing, nil
}

// DeleteDataset removes the dataset, its archived uploads and announces
// the deletion. Cleanup of favorites or notifications belongs to the
// consumers of the deleted event.
func (s *DatasetService) DeleteDataset(ctx context.Context, id uuid.UUID) error {
	address, err := s.repo.DeleteDataset(ctx, id)
	if err != nil {
		return err
	}

	if s.minioClient != nil {
		if err := s.minioClient.RemoveObjectsWithPrefix(ctx, minio.Storage.DatasetUploads, id.String()+"/"); err != nil {
			slog.Warn("Failed to remove archived uploads", "dataset_id", id, "error", err)
		}
	}

	s.publishEvent(ctx, event.DatasetDeleted, &models.Dataset{ID: id, Address: address})
	return nil
}

// ============================================================================
// HELPERS
// ============================================================================

// parseUpload picks the ingestion source: the uploaded file when present,
// otherwise the inline payload, otherwise no records at all.
func (s *DatasetService) parseUpload(inline []byte, upload *models.UploadedFile) (utils.JSONMapSlice, models.SourceFormat, error) {
	if upload != nil {
		return ingest.Parse(upload.Data, upload.Name)
	}
	if len(inline) > 0 {
		return ingest.ParseInline(inline)
	}
	return nil, models.SourceFormatNone, nil
}

func buildUpdatePatch(existing *models.Dataset, req models.UpdateDatasetRequest, upload *models.UploadedFile) (*models.DatasetPatch, error) {
	patch := &models.DatasetPatch{
		DisplayName: trimmedOrNil(req.DisplayName),
		Description: req.Description,
		Category:    req.Category,
		Version:     req.Version,
	}

	if req.Parameters != nil {
		parameters, err := models.StringifyDescriptor(req.Parameters)
		if err != nil {
			return nil, err
		}
		patch.ParametersDescriptor = &parameters
	}
	if req.Endpoints != nil {
		endpoints, err := models.StringifyDescriptor(req.Endpoints)
		if err != nil {
			return nil, err
		}
		patch.EndpointsDescriptor = &endpoints
	}
	if req.Visibility != nil && *req.Visibility != "" {
		visibility := models.NormalizeVisibility(*req.Visibility)
		patch.Visibility = &visibility
	}

	if upload != nil {
		records, sourceFormat, err := ingest.Parse(upload.Data, upload.Name)
		if err != nil {
			return nil, err
		}
		patch.Records = &records
		patch.SourceFormat = &sourceFormat
	} else if len(req.Data) > 0 {
		records, sourceFormat, err := ingest.ParseInline(req.Data)
		if err != nil {
			return nil, err
		}
		patch.Records = &records
		patch.SourceFormat = &sourceFormat
	}

	// The serving URL is bound to the address assigned at creation, so a
	// renamed dataset keeps its URL; only the snippet text is refreshed.
	if patch.DisplayName != nil && *patch.DisplayName != existing.DisplayName {
		snippet := buildExampleSnippet(existing.ServingURL)
		patch.ExampleSnippet = &snippet
	}

	return patch, nil
}

func (s *DatasetService) servingURL(address string) string {
	return s.baseURL + "/serve/" + address
}

func buildExampleSnippet(servingURL string) string {
	return fmt.Sprintf(`// Example: Fetch data from your custom API
fetch(%q)
  .then(response => response.json())
  .then(data => console.log("Fetched data:", data))
  .catch(error => console.error("Error:", error));`, servingURL)
}

// archiveUpload keeps the original uploaded bytes for audit. Best-effort:
// a storage failure is logged and never fails the mutation.
func (s *DatasetService) archiveUpload(ctx context.Context, datasetID uuid.UUID, upload *models.UploadedFile) {
	if s.minioClient == nil || upload == nil {
		return
	}

	objectName := path.Join(datasetID.String(), fmt.Sprintf("%d_%s", time.Now().Unix(), upload.Name))
	err := s.minioClient.UploadBytes(ctx, minio.Storage.DatasetUploads, objectName, upload.Data, "application/octet-stream")
	if err != nil {
		slog.Warn("Failed to archive uploaded file",
			"dataset_id", datasetID,
			"object_name", objectName,
			"error", err)
		return
	}
	slog.Info("Archived uploaded file", "dataset_id", datasetID, "object_name", objectName)
}

// publishEvent signals external collaborators about a completed mutation.
// Best-effort: consumers own their retry policy.
func (s *DatasetService) publishEvent(ctx context.Context, eventType event.DatasetEventType, dataset *models.Dataset) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.PublishDatasetEvent(ctx, event.DatasetEventMessage{
		EventType:   eventType,
		DatasetID:   dataset.ID.String(),
		Address:     dataset.Address,
		OwnerID:     dataset.OwnerID,
		DisplayName: dataset.DisplayName,
		OccurredAt:  time.Now(),
	})
	if err != nil {
		slog.Warn("Failed to publish dataset event",
			"event_type", eventType,
			"dataset_id", dataset.ID,
			"error", err)
	}
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
