package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"dataset-service/utils"
)

func trimAndValidateString(str string, fieldName string, minLen, maxLen int) error {
	trimmed := strings.TrimSpace(str)
	if len(trimmed) < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if len(trimmed) > maxLen {
		return fmt.Errorf("%s must be %d characters or less", fieldName, maxLen)
	}
	return nil
}

// StringifyDescriptor accepts the parameters/endpoints descriptors either
// as plain text or as a structured value and always stores text.
func StringifyDescriptor(v any) (string, error) {
	switch d := v.(type) {
	case nil:
		return "", nil
	case string:
		return d, nil
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return "", fmt.Errorf("failed to encode descriptor: %w", err)
		}
		return string(b), nil
	}
}

// UploadedFile is the transport-independent form of an upload: named byte
// content, where the name suffix determines the parse format.
type UploadedFile struct {
	Name string
	Data []byte
}

type CreateDatasetRequest struct {
	DisplayName string          `json:"display_name" validate:"required,min=1,max=255"`
	Description string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    string          `json:"category,omitempty"`
	Version     string          `json:"version,omitempty"`
	Parameters  any             `json:"parameters,omitempty"`
	Endpoints   any             `json:"endpoints,omitempty"`
	Visibility  string          `json:"visibility,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

func (r CreateDatasetRequest) Validate() error {
	if err := trimAndValidateString(r.DisplayName, "display_name", 1, 255); err != nil {
		return err
	}
	if r.Visibility != "" && !IsValidVisibility(r.Visibility) {
		return fmt.Errorf("visibility must be one of: public, private")
	}
	return nil
}

type UpdateDatasetRequest struct {
	DisplayName *string         `json:"display_name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string         `json:"description,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Version     *string         `json:"version,omitempty"`
	Parameters  any             `json:"parameters,omitempty"`
	Endpoints   any             `json:"endpoints,omitempty"`
	Visibility  *string         `json:"visibility,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

func (r UpdateDatasetRequest) Validate() error {
	if r.DisplayName != nil {
		if err := trimAndValidateString(*r.DisplayName, "display_name", 1, 255); err != nil {
			return err
		}
	}
	if r.Visibility != nil && *r.Visibility != "" && !IsValidVisibility(*r.Visibility) {
		return fmt.Errorf("visibility must be one of: public, private")
	}
	return nil
}

// CreateDatasetResponse is what the create and update endpoints hand back:
// a message plus a summary of the dataset, never the full record payload.
type CreateDatasetResponse struct {
	Message string         `json:"message"`
	Dataset DatasetSummary `json:"dataset"`
}

// ServeEnvelope is the public serving contract. Generated example snippets
// point end users at this shape, so it is returned as-is rather than
// wrapped in the management success envelope.
type ServeEnvelope struct {
	Message       string             `json:"message"`
	MatchedCount  int                `json:"matchedCount"`
	Filters       map[string]string  `json:"filters"`
	ResultRecords utils.JSONMapSlice `json:"resultRecords"`
}
