package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocateAddress_NormalizedBaseWithRandomSuffix(t *testing.T) {
	first := AllocateAddress("My Cool API")
	second := AllocateAddress("My Cool API")

	assert.True(t, strings.HasPrefix(first, "my-cool-api-"), "got %q", first)
	assert.True(t, strings.HasPrefix(second, "my-cool-api-"), "got %q", second)
	assert.NotEqual(t, first, second, "random suffix keeps repeated allocations apart")
	assert.Len(t, first, len("my-cool-api-")+addressSuffixBytes*2)
}

func TestAllocateAddress_FallbackForEmptyBase(t *testing.T) {
	for _, name := range []string{"", "   ", "!!!", "日本語"} {
		address := AllocateAddress(name)
		assert.True(t, strings.HasPrefix(address, "dataset-"), "name %q gave %q", name, address)
	}
}

func TestNormalizeBase(t *testing.T) {
	cases := map[string]string{
		"My Cool API":        "my-cool-api",
		"  --Weird__Name!! ": "weird-name",
		"already-fine-123":   "already-fine-123",
		"UPPER":              "upper",
		"a  b\tc":            "a-b-c",
	}

	for input, expected := range cases {
		assert.Equal(t, expected, normalizeBase(input), "input %q", input)
	}
}
