package services

import (
	"testing"

	"dataset-service/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func departmentRecords() utils.JSONMapSlice {
	return utils.JSONMapSlice{
		{"dept": "CS", "year": "1"},
		{"dept": "CS", "year": "2"},
		{"dept": "EE", "year": "1"},
	}
}

// ============================================================================
// ADDRESSING
// ============================================================================

func TestApplyDatasetQuery_NoSubPathReturnsAll(t *testing.T) {
	records := departmentRecords()

	result, matched := ApplyDatasetQuery(records, QueryOptions{})

	assert.Equal(t, 3, matched)
	assert.Equal(t, records, result)
}

func TestApplyDatasetQuery_SubPathIsDocumentationOnly(t *testing.T) {
	records := departmentRecords()

	result, matched := ApplyDatasetQuery(records, QueryOptions{SubPath: "students"})

	assert.Equal(t, 3, matched, "any sub-path resolves to the one stored collection")
	assert.Equal(t, records, result)
}

func TestApplyDatasetQuery_PositionalIndex(t *testing.T) {
	records := departmentRecords()

	result, matched := ApplyDatasetQuery(records, QueryOptions{SubPath: "students", Index: "1"})

	assert.Equal(t, 1, matched)
	require.Len(t, result, 1)
	assert.Equal(t, records[1], result[0], "index is zero-based")
}

func TestApplyDatasetQuery_IndexOutOfRangeIsEmptyNotError(t *testing.T) {
	result, matched := ApplyDatasetQuery(departmentRecords(), QueryOptions{SubPath: "students", Index: "5"})

	assert.Equal(t, 0, matched)
	assert.Empty(t, result)
	assert.NotNil(t, result)
}

func TestApplyDatasetQuery_NonNumericIndexFallsBackToAll(t *testing.T) {
	_, matched := ApplyDatasetQuery(departmentRecords(), QueryOptions{SubPath: "students", Index: "latest"})

	assert.Equal(t, 3, matched)
}

func TestApplyDatasetQuery_NegativeIndexFallsBackToAll(t *testing.T) {
	_, matched := ApplyDatasetQuery(departmentRecords(), QueryOptions{SubPath: "students", Index: "-1"})

	assert.Equal(t, 3, matched)
}

func TestApplyDatasetQuery_IndexWithoutSubPathIgnored(t *testing.T) {
	_, matched := ApplyDatasetQuery(departmentRecords(), QueryOptions{Index: "1"})

	assert.Equal(t, 3, matched, "a positional index only applies under a sub-path")
}

// ============================================================================
// FILTERS
// ============================================================================

func TestApplyDatasetQuery_FilterConjunction(t *testing.T) {
	records := departmentRecords()

	result, matched := ApplyDatasetQuery(records, QueryOptions{
		Filters: map[string]string{"dept": " cs ", "year": "1"},
	})

	assert.Equal(t, 1, matched, "comparison is case-insensitive and trimmed")
	require.Len(t, result, 1)
	assert.Equal(t, records[0], result[0])
}

func TestApplyDatasetQuery_FilterOnMissingFieldNeverMatches(t *testing.T) {
	_, matched := ApplyDatasetQuery(departmentRecords(), QueryOptions{
		Filters: map[string]string{"campus": "north"},
	})

	assert.Equal(t, 0, matched, "a missing field compares as empty string")
}

func TestApplyDatasetQuery_EmptyExpectedMatchesMissingField(t *testing.T) {
	_, matched := ApplyDatasetQuery(departmentRecords(), QueryOptions{
		Filters: map[string]string{"campus": ""},
	})

	assert.Equal(t, 3, matched)
}

func TestApplyDatasetQuery_FiltersApplyAfterPositionalIndex(t *testing.T) {
	result, matched := ApplyDatasetQuery(departmentRecords(), QueryOptions{
		SubPath: "students",
		Index:   "0",
		Filters: map[string]string{"dept": "EE"},
	})

	assert.Equal(t, 0, matched)
	assert.Empty(t, result)
}

func TestApplyDatasetQuery_NumericAndBooleanValuesCompareAsText(t *testing.T) {
	records := utils.JSONMapSlice{
		{"a": float64(1), "active": true},
		{"a": float64(2), "active": false},
	}

	_, matched := ApplyDatasetQuery(records, QueryOptions{
		Filters: map[string]string{"a": "1", "active": "TRUE"},
	})

	assert.Equal(t, 1, matched)
}

func TestApplyDatasetQuery_NullValueComparesAsEmpty(t *testing.T) {
	records := utils.JSONMapSlice{{"a": nil}}

	_, matched := ApplyDatasetQuery(records, QueryOptions{
		Filters: map[string]string{"a": ""},
	})

	assert.Equal(t, 1, matched)
}

func TestApplyDatasetQuery_EmptyDataset(t *testing.T) {
	result, matched := ApplyDatasetQuery(nil, QueryOptions{
		Filters: map[string]string{"x": "y"},
	})

	assert.Equal(t, 0, matched)
	assert.NotNil(t, result, "serving always returns an array, never null")
}
