package models

// SourceFormat records how a dataset's records were produced. It is kept
// for audit and display only; serving never branches on it.
type SourceFormat string

const (
	SourceFormatCSV   SourceFormat = "csv"
	SourceFormatExcel SourceFormat = "excel"
	SourceFormatJSON  SourceFormat = "json"
	SourceFormatNone  SourceFormat = "none"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// NormalizeVisibility coerces anything that is not explicitly "private"
// to public, matching the create defaulting rule.
func NormalizeVisibility(v string) Visibility {
	if v == string(VisibilityPrivate) {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

func IsValidVisibility(v string) bool {
	switch Visibility(v) {
	case VisibilityPublic, VisibilityPrivate:
		return true
	default:
		return false
	}
}
