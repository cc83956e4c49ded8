package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDatasetRequest_Validate(t *testing.T) {
	err := CreateDatasetRequest{}.Validate()
	assert.Error(t, err, "display_name is required")

	err = CreateDatasetRequest{DisplayName: "   "}.Validate()
	assert.Error(t, err, "whitespace-only display_name is rejected")

	err = CreateDatasetRequest{DisplayName: "ok", Visibility: "hidden"}.Validate()
	assert.Error(t, err)

	err = CreateDatasetRequest{DisplayName: "ok", Visibility: "private"}.Validate()
	assert.NoError(t, err)

	err = CreateDatasetRequest{DisplayName: "ok"}.Validate()
	assert.NoError(t, err)
}

func TestUpdateDatasetRequest_Validate(t *testing.T) {
	blank := "  "
	err := UpdateDatasetRequest{DisplayName: &blank}.Validate()
	assert.Error(t, err)

	bad := "internal"
	err = UpdateDatasetRequest{Visibility: &bad}.Validate()
	assert.Error(t, err)

	err = UpdateDatasetRequest{}.Validate()
	assert.NoError(t, err, "an all-absent patch is valid")
}

func TestStringifyDescriptor(t *testing.T) {
	s, err := StringifyDescriptor("plain text")
	require.NoError(t, err)
	assert.Equal(t, "plain text", s)

	s, err = StringifyDescriptor(map[string]any{"limit": 10})
	require.NoError(t, err)
	assert.JSONEq(t, `{"limit":10}`, s)

	s, err = StringifyDescriptor(nil)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestNormalizeVisibility(t *testing.T) {
	assert.Equal(t, VisibilityPrivate, NormalizeVisibility("private"))
	assert.Equal(t, VisibilityPublic, NormalizeVisibility("public"))
	assert.Equal(t, VisibilityPublic, NormalizeVisibility(""), "default is public")
	assert.Equal(t, VisibilityPublic, NormalizeVisibility("anything-else"))
}

func TestDatasetPatch_IsEmpty(t *testing.T) {
	assert.True(t, (&DatasetPatch{}).IsEmpty())

	name := "x"
	assert.False(t, (&DatasetPatch{DisplayName: &name}).IsEmpty())
}
