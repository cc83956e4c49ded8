package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dataset-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const (
	// uniqueViolation is the Postgres error code raised by the address
	// unique constraint.
	uniqueViolation = "23505"

	addressCachePrefix = "dataset:address:"
	addressCacheTTL    = 5 * time.Minute
)

type DatasetRepository struct {
	db          *sqlx.DB
	redisClient *redis.Client
}

func NewDatasetRepository(db *sqlx.DB, redisClient *redis.Client) *DatasetRepository {
	return &DatasetRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// ============================================================================
// CREATE OPERATIONS
// ============================================================================

// CreateDataset persists a new dataset. A collision on the address unique
// constraint is reported as models.ErrDuplicateAddress so the service can
// reallocate and retry; the constraint is what makes exactly one of two
// concurrent colliding creates win.
func (r *DatasetRepository) CreateDataset(ctx context.Context, dataset *models.Dataset) error {
	slog.Info("Creating dataset",
		"dataset_id", dataset.ID,
		"owner_id", dataset.OwnerID,
		"address", dataset.Address,
		"record_count", len(dataset.Records))
	start := time.Now()

	dataset.CreatedAt = time.Now()
	dataset.UpdatedAt = time.Now()

	query := `
		INSERT INTO datasets (
			id, owner_id, display_name, description, category, version,
			parameters_descriptor, endpoints_descriptor, records, source_format,
			visibility, address, serving_url, example_snippet,
			created_at, updated_at
		) VALUES (
			:id, :owner_id, :display_name, :description, :category, :version,
			:parameters_descriptor, :endpoints_descriptor, :records, :source_format,
			:visibility, :address, :serving_url, :example_snippet,
			:created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, dataset)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			slog.Warn("Dataset address collision",
				"dataset_id", dataset.ID,
				"address", dataset.Address)
			return models.ErrDuplicateAddress
		}
		slog.Error("Failed to create dataset",
			"dataset_id", dataset.ID,
			"error", err)
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	slog.Info("Successfully created dataset",
		"dataset_id", dataset.ID,
		"address", dataset.Address,
		"duration", time.Since(start))
	return nil
}

// ============================================================================
// READ OPERATIONS
// ============================================================================

func (r *DatasetRepository) GetDatasetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	var dataset models.Dataset
	query := `SELECT * FROM datasets WHERE id = $1`
	err := r.db.GetContext(ctx, &dataset, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("failed to get dataset by id: %w", err)
	}
	return &dataset, nil
}

// GetDatasetByAddress is the serving hot path: it reads through a short
// lived redis cache keyed by address. Cache failures fall back to the
// database and are only logged.
func (r *DatasetRepository) GetDatasetByAddress(ctx context.Context, address string) (*models.Dataset, error) {
	if cached := r.getCachedDataset(ctx, address); cached != nil {
		return cached, nil
	}

	var dataset models.Dataset
	query := `SELECT * FROM datasets WHERE address = $1`
	err := r.db.GetContext(ctx, &dataset, query, address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("failed to get dataset by address: %w", err)
	}

	r.cacheDataset(ctx, &dataset)
	return &dataset, nil
}

func (r *DatasetRepository) ListDatasetsByOwner(ctx context.Context, ownerID string) ([]models.Dataset, error) {
	var datasets []models.Dataset
	query := `SELECT * FROM datasets WHERE owner_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &datasets, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets by owner: %w", err)
	}
	return datasets, nil
}

// ListPublicDatasets returns discovery metadata only; the records column is
// deliberately not selected to bound the payload size.
func (r *DatasetRepository) ListPublicDatasets(ctx context.Context) ([]models.Dataset, error) {
	var datasets []models.Dataset
	query := `
		SELECT id, owner_id, display_name, description, category, version,
		       parameters_descriptor, endpoints_descriptor, source_format,
		       visibility, address, serving_url, example_snippet,
		       created_at, updated_at
		FROM datasets
		WHERE visibility = $1
		ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &datasets, query, models.VisibilityPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to list public datasets: %w", err)
	}
	return datasets, nil
}

// ============================================================================
// UPDATE / DELETE OPERATIONS
// ============================================================================

// ReplaceDataset applies the patch as one UPDATE statement so a concurrent
// replace on the same id resolves to one whole patch winning, never an
// interleaved mix of fields. Address and owner have no corresponding SET
// clause and therefore can never change here.
func (r *DatasetRepository) ReplaceDataset(ctx context.Context, id uuid.UUID, patch *models.DatasetPatch) error {
	setClauses := []string{}
	args := []any{}
	next := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.DisplayName != nil {
		setClauses = append(setClauses, "display_name = "+next(*patch.DisplayName))
	}
	if patch.Description != nil {
		setClauses = append(setClauses, "description = "+next(*patch.Description))
	}
	if patch.Category != nil {
		setClauses = append(setClauses, "category = "+next(*patch.Category))
	}
	if patch.Version != nil {
		setClauses = append(setClauses, "version = "+next(*patch.Version))
	}
	if patch.ParametersDescriptor != nil {
		setClauses = append(setClauses, "parameters_descriptor = "+next(*patch.ParametersDescriptor))
	}
	if patch.EndpointsDescriptor != nil {
		setClauses = append(setClauses, "endpoints_descriptor = "+next(*patch.EndpointsDescriptor))
	}
	if patch.Visibility != nil {
		setClauses = append(setClauses, "visibility = "+next(*patch.Visibility))
	}
	if patch.Records != nil {
		setClauses = append(setClauses, "records = "+next(*patch.Records))
	}
	if patch.SourceFormat != nil {
		setClauses = append(setClauses, "source_format = "+next(*patch.SourceFormat))
	}
	if patch.ExampleSnippet != nil {
		setClauses = append(setClauses, "example_snippet = "+next(*patch.ExampleSnippet))
	}
	setClauses = append(setClauses, "updated_at = "+next(time.Now()))

	query := fmt.Sprintf(`UPDATE datasets SET %s WHERE id = %s RETURNING address`,
		strings.Join(setClauses, ", "), next(id))

	var address string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrDatasetNotFound
		}
		slog.Error("Failed to replace dataset", "dataset_id", id, "error", err)
		return fmt.Errorf("failed to replace dataset: %w", err)
	}

	r.invalidateCachedDataset(ctx, address)
	slog.Info("Successfully replaced dataset", "dataset_id", id, "address", address)
	return nil
}

// DeleteDataset removes the dataset unconditionally and returns its
// address so callers can clean up derived resources.
func (r *DatasetRepository) DeleteDataset(ctx context.Context, id uuid.UUID) (string, error) {
	var address string
	query := `DELETE FROM datasets WHERE id = $1 RETURNING address`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", models.ErrDatasetNotFound
		}
		slog.Error("Failed to delete dataset", "dataset_id", id, "error", err)
		return "", fmt.Errorf("failed to delete dataset: %w", err)
	}

	r.invalidateCachedDataset(ctx, address)
	slog.Info("Successfully deleted dataset", "dataset_id", id, "address", address)
	return address, nil
}

// ============================================================================
// CACHE HELPERS
// ============================================================================

func (r *DatasetRepository) getCachedDataset(ctx context.Context, address string) *models.Dataset {
	if r.redisClient == nil {
		return nil
	}

	data, err := r.redisClient.Get(ctx, addressCachePrefix+address).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Dataset cache read failed", "address", address, "error", err)
		}
		return nil
	}

	var dataset models.Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		slog.Warn("Dataset cache entry corrupted", "address", address, "error", err)
		r.invalidateCachedDataset(ctx, address)
		return nil
	}
	return &dataset
}

func (r *DatasetRepository) cacheDataset(ctx context.Context, dataset *models.Dataset) {
	if r.redisClient == nil {
		return
	}

	data, err := json.Marshal(dataset)
	if err != nil {
		slog.Warn("Failed to encode dataset for cache", "dataset_id", dataset.ID, "error", err)
		return
	}
	if err := r.redisClient.Set(ctx, addressCachePrefix+dataset.Address, data, addressCacheTTL).Err(); err != nil {
		slog.Warn("Dataset cache write failed", "address", dataset.Address, "error", err)
	}
}

func (r *DatasetRepository) invalidateCachedDataset(ctx context.Context, address string) {
	if r.redisClient == nil {
		return
	}
	if err := r.redisClient.Del(ctx, addressCachePrefix+address).Err(); err != nil {
		slog.Warn("Dataset cache invalidation failed", "address", address, "error", err)
	}
}
