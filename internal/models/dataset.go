package models

import (
	"time"

	"dataset-service/utils"

	"github.com/google/uuid"
)

// Dataset is the persisted unit: free-form metadata plus an ordered array
// of schema-less records stored in a single JSONB column. The address is
// assigned at creation and never changes afterwards.
type Dataset struct {
	ID                   uuid.UUID          `json:"id" db:"id"`
	OwnerID              string             `json:"owner_id" db:"owner_id"`
	DisplayName          string             `json:"display_name" db:"display_name"`
	Description          string             `json:"description" db:"description"`
	Category             string             `json:"category" db:"category"`
	Version              string             `json:"version" db:"version"`
	ParametersDescriptor string             `json:"parameters_descriptor" db:"parameters_descriptor"`
	EndpointsDescriptor  string             `json:"endpoints_descriptor" db:"endpoints_descriptor"`
	Records              utils.JSONMapSlice `json:"records,omitempty" db:"records"`
	SourceFormat         SourceFormat       `json:"source_format" db:"source_format"`
	Visibility           Visibility         `json:"visibility" db:"visibility"`
	Address              string             `json:"address" db:"address"`
	ServingURL           string             `json:"serving_url" db:"serving_url"`
	ExampleSnippet       string             `json:"example_snippet" db:"example_snippet"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`
}

// DatasetPatch is a partial update applied by the repository as a single
// UPDATE statement. Nil fields are left untouched. Address and owner are
// not patchable at all; attempts to change them are ignored upstream.
type DatasetPatch struct {
	DisplayName          *string
	Description          *string
	Category             *string
	Version              *string
	ParametersDescriptor *string
	EndpointsDescriptor  *string
	Visibility           *Visibility
	Records              *utils.JSONMapSlice
	SourceFormat         *SourceFormat
	ExampleSnippet       *string
}

// IsEmpty reports whether the patch would change nothing.
func (p *DatasetPatch) IsEmpty() bool {
	return p.DisplayName == nil &&
		p.Description == nil &&
		p.Category == nil &&
		p.Version == nil &&
		p.ParametersDescriptor == nil &&
		p.EndpointsDescriptor == nil &&
		p.Visibility == nil &&
		p.Records == nil &&
		p.SourceFormat == nil &&
		p.ExampleSnippet == nil
}

// Apply merges the patch onto a dataset copy so handlers can echo the
// updated entity without a second round trip. Address, owner and
// timestamps are deliberately left alone.
func (p *DatasetPatch) Apply(ds *Dataset) {
	if p.DisplayName != nil {
		ds.DisplayName = *p.DisplayName
	}
	if p.Description != nil {
		ds.Description = *p.Description
	}
	if p.Category != nil {
		ds.Category = *p.Category
	}
	if p.Version != nil {
		ds.Version = *p.Version
	}
	if p.ParametersDescriptor != nil {
		ds.ParametersDescriptor = *p.ParametersDescriptor
	}
	if p.EndpointsDescriptor != nil {
		ds.EndpointsDescriptor = *p.EndpointsDescriptor
	}
	if p.Visibility != nil {
		ds.Visibility = *p.Visibility
	}
	if p.Records != nil {
		ds.Records = *p.Records
	}
	if p.SourceFormat != nil {
		ds.SourceFormat = *p.SourceFormat
	}
	if p.ExampleSnippet != nil {
		ds.ExampleSnippet = *p.ExampleSnippet
	}
}

// DatasetSummary is the create/update response shape: enough to use the
// serving URL, without shipping the full record payload back.
type DatasetSummary struct {
	ID                   uuid.UUID  `json:"id"`
	DisplayName          string     `json:"display_name"`
	ServingURL           string     `json:"serving_url"`
	ParametersDescriptor string     `json:"parameters_descriptor"`
	EndpointsDescriptor  string     `json:"endpoints_descriptor"`
	Visibility           Visibility `json:"visibility"`
	RecordCount          int        `json:"record_count"`
	ExampleUsageSnippet  string     `json:"example_usage_snippet"`
}

func (ds *Dataset) Summary() DatasetSummary {
	return DatasetSummary{
		ID:                   ds.ID,
		DisplayName:          ds.DisplayName,
		ServingURL:           ds.ServingURL,
		ParametersDescriptor: ds.ParametersDescriptor,
		EndpointsDescriptor:  ds.EndpointsDescriptor,
		Visibility:           ds.Visibility,
		RecordCount:          len(ds.Records),
		ExampleUsageSnippet:  ds.ExampleSnippet,
	}
}
