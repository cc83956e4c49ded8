package services

import (
	"encoding/json"
	"strconv"
	"strings"

	"dataset-service/utils"
)

// QueryOptions is one serve request against a dataset's records: an
// optional sub-path segment, an optional positional index and any number
// of field-equality filters.
type QueryOptions struct {
	SubPath string
	Index   string
	Filters map[string]string
}

// ApplyDatasetQuery computes the served slice. Addressing rules, in order:
// a sub-path alone is documentation-only and resolves to the whole
// collection; a sub-path with a non-negative integer index selects the
// record at that zero-based offset (out of range yields an empty slice,
// not an error); a non-numeric index falls back to the whole collection.
// Filters are then applied as a conjunction over whatever was addressed.
func ApplyDatasetQuery(records utils.JSONMapSlice, opts QueryOptions) (utils.JSONMapSlice, int) {
	result := records

	if opts.SubPath != "" && opts.Index != "" {
		if idx, err := strconv.Atoi(opts.Index); err == nil && idx >= 0 {
			if idx < len(records) {
				result = utils.JSONMapSlice{records[idx]}
			} else {
				result = utils.JSONMapSlice{}
			}
		}
	}

	if len(opts.Filters) > 0 {
		filtered := make(utils.JSONMapSlice, 0, len(result))
		for _, record := range result {
			if recordMatches(record, opts.Filters) {
				filtered = append(filtered, record)
			}
		}
		result = filtered
	}

	if result == nil {
		result = utils.JSONMapSlice{}
	}
	return result, len(result)
}

// recordMatches requires every filter to hold: the record's field value,
// as normalized text, must equal the normalized expected value. A missing
// field compares as the empty string.
func recordMatches(record utils.JSONMap, filters map[string]string) bool {
	for field, expected := range filters {
		if normalizeFilterValue(fieldAsText(record[field])) != normalizeFilterValue(expected) {
			return false
		}
	}
	return true
}

func normalizeFilterValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// fieldAsText renders any record value as text for comparison. Numbers
// drop their insignificant fraction so a filter of "1" matches a numeric 1.
func fieldAsText(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case json.Number:
		return value.String()
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
