package services

import (
	"context"
	"errors"
	"testing"

	"dataset-service/internal/models"
	"dataset-service/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

// stubDatasetStore fakes the persistence layer for the create path. The
// embedded interface panics on any operation the test does not expect.
type stubDatasetStore struct {
	DatasetStore
	collisions int
	finalErr   error
	attempts   []string
}

func (s *stubDatasetStore) CreateDataset(_ context.Context, dataset *models.Dataset) error {
	s.attempts = append(s.attempts, dataset.Address)
	if len(s.attempts) <= s.collisions {
		return models.ErrDuplicateAddress
	}
	return s.finalErr
}

func existingDataset() *models.Dataset {
	return &models.Dataset{
		ID:           uuid.New(),
		OwnerID:      "user-1",
		DisplayName:  "Old Name",
		Category:     "General",
		Version:      "v1",
		Address:      "old-name-a1b2c3",
		ServingURL:   "http://localhost:8088/serve/old-name-a1b2c3",
		SourceFormat: models.SourceFormatJSON,
		Visibility:   models.VisibilityPublic,
		Records:      utils.JSONMapSlice{{"a": float64(1)}},
	}
}

// ============================================================================
// ADDRESS COLLISION RETRY
// ============================================================================

func TestCreateDataset_ReallocatesOnAddressCollision(t *testing.T) {
	store := &stubDatasetStore{collisions: 1}
	svc := NewDatasetService(store, nil, nil, "http://localhost:8088")

	dataset, err := svc.CreateDataset(context.Background(), "user-1", models.CreateDatasetRequest{DisplayName: "My Cool API"}, nil)
	require.NoError(t, err)

	require.Len(t, store.attempts, 2)
	assert.NotEqual(t, store.attempts[0], store.attempts[1], "a fresh address per attempt")
	assert.Equal(t, store.attempts[1], dataset.Address, "the persisted address is the one returned")
	assert.Equal(t, "http://localhost:8088/serve/"+dataset.Address, dataset.ServingURL)
	assert.Contains(t, dataset.ExampleSnippet, dataset.ServingURL, "snippet follows the winning address")
}

func TestCreateDataset_ExhaustedAfterBoundedRetries(t *testing.T) {
	store := &stubDatasetStore{collisions: 100}
	svc := NewDatasetService(store, nil, nil, "http://localhost:8088")

	_, err := svc.CreateDataset(context.Background(), "user-1", models.CreateDatasetRequest{DisplayName: "My Cool API"}, nil)

	assert.ErrorIs(t, err, models.ErrAddressExhausted)
	assert.Len(t, store.attempts, maxAddressAttempts, "one insert per attempt, nothing beyond the budget")
}

func TestCreateDataset_OtherStoreErrorsNotRetried(t *testing.T) {
	storeErr := errors.New("connection reset")
	store := &stubDatasetStore{finalErr: storeErr}
	svc := NewDatasetService(store, nil, nil, "http://localhost:8088")

	_, err := svc.CreateDataset(context.Background(), "user-1", models.CreateDatasetRequest{DisplayName: "My Cool API"}, nil)

	assert.ErrorIs(t, err, storeErr)
	assert.Len(t, store.attempts, 1, "only an address collision triggers reallocation")
}

// ============================================================================
// UPDATE PATCH SEMANTICS
// ============================================================================

func TestBuildUpdatePatch_RenameKeepsAddressAndURL(t *testing.T) {
	existing := existingDataset()
	newName := "Completely New Name"

	patch, err := buildUpdatePatch(existing, models.UpdateDatasetRequest{DisplayName: &newName}, nil)
	require.NoError(t, err)

	require.NotNil(t, patch.ExampleSnippet, "snippet is regenerated on rename")
	assert.Contains(t, *patch.ExampleSnippet, existing.ServingURL, "snippet still points at the original address")

	patch.Apply(existing)
	assert.Equal(t, "Completely New Name", existing.DisplayName)
	assert.Equal(t, "old-name-a1b2c3", existing.Address, "address never changes after creation")
	assert.Equal(t, "user-1", existing.OwnerID)
}

func TestBuildUpdatePatch_SameNameSkipsSnippet(t *testing.T) {
	existing := existingDataset()
	sameName := existing.DisplayName

	patch, err := buildUpdatePatch(existing, models.UpdateDatasetRequest{DisplayName: &sameName}, nil)
	require.NoError(t, err)

	assert.Nil(t, patch.ExampleSnippet)
}

func TestBuildUpdatePatch_AbsentFieldsLeftUntouched(t *testing.T) {
	existing := existingDataset()
	description := "refreshed"

	patch, err := buildUpdatePatch(existing, models.UpdateDatasetRequest{Description: &description}, nil)
	require.NoError(t, err)

	patch.Apply(existing)
	assert.Equal(t, "refreshed", existing.Description)
	assert.Equal(t, "Old Name", existing.DisplayName)
	assert.Equal(t, models.VisibilityPublic, existing.Visibility)
	assert.Len(t, existing.Records, 1, "records untouched without a new upload")
}

func TestBuildUpdatePatch_UploadReplacesRecordsWholesale(t *testing.T) {
	existing := existingDataset()
	upload := &models.UploadedFile{
		Name: "new.csv",
		Data: []byte("x,y\n1,2\n3,4\n"),
	}

	patch, err := buildUpdatePatch(existing, models.UpdateDatasetRequest{}, upload)
	require.NoError(t, err)

	require.NotNil(t, patch.Records)
	assert.Len(t, *patch.Records, 2)
	require.NotNil(t, patch.SourceFormat)
	assert.Equal(t, models.SourceFormatCSV, *patch.SourceFormat)
}

func TestBuildUpdatePatch_InlineDataReplacesRecords(t *testing.T) {
	existing := existingDataset()
	req := models.UpdateDatasetRequest{Data: []byte(`[{"k":"v1"},{"k":"v2"},{"k":"v3"}]`)}

	patch, err := buildUpdatePatch(existing, req, nil)
	require.NoError(t, err)

	require.NotNil(t, patch.Records)
	assert.Len(t, *patch.Records, 3)
	require.NotNil(t, patch.SourceFormat)
	assert.Equal(t, models.SourceFormatJSON, *patch.SourceFormat)
}

func TestBuildUpdatePatch_MalformedUploadFailsWithoutPatch(t *testing.T) {
	existing := existingDataset()
	upload := &models.UploadedFile{Name: "bad.json", Data: []byte("{broken")}

	patch, err := buildUpdatePatch(existing, models.UpdateDatasetRequest{}, upload)

	assert.ErrorIs(t, err, models.ErrMalformedInput)
	assert.Nil(t, patch)
}

// ============================================================================
// INGESTION SOURCE PRECEDENCE
// ============================================================================

func TestParseUpload_FileWinsOverInlineData(t *testing.T) {
	svc := &DatasetService{}
	upload := &models.UploadedFile{Name: "file.csv", Data: []byte("a\n1\n")}

	records, format, err := svc.parseUpload([]byte(`[{"b":2}]`), upload)

	require.NoError(t, err)
	assert.Equal(t, models.SourceFormatCSV, format)
	require.Len(t, records, 1)
	assert.Equal(t, "1", records[0]["a"])
}

func TestParseUpload_InlineDataWithoutFile(t *testing.T) {
	svc := &DatasetService{}

	records, format, err := svc.parseUpload([]byte(`{"b":2}`), nil)

	require.NoError(t, err)
	assert.Equal(t, models.SourceFormatJSON, format)
	assert.Len(t, records, 1)
}

func TestParseUpload_NothingSupplied(t *testing.T) {
	svc := &DatasetService{}

	records, format, err := svc.parseUpload(nil, nil)

	require.NoError(t, err)
	assert.Equal(t, models.SourceFormatNone, format)
	assert.Empty(t, records)
}

// ============================================================================
// SNIPPET AND URL HELPERS
// ============================================================================

func TestBuildExampleSnippet(t *testing.T) {
	snippet := buildExampleSnippet("http://localhost:8088/serve/my-api-abc123")

	assert.Contains(t, snippet, `fetch("http://localhost:8088/serve/my-api-abc123")`)
	assert.Contains(t, snippet, "response.json()")
}

func TestServingURL_TrailingSlashTrimmed(t *testing.T) {
	svc := NewDatasetService(nil, nil, nil, "http://api.example.com/")

	assert.Equal(t, "http://api.example.com/serve/my-api-abc123", svc.servingURL("my-api-abc123"))
}
