package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolbridge/crm-adapter/internal/models"
)

func TestProcessCategories_SingleStringRoundTrip(t *testing.T) {
	// A valid single string becomes a one-element array with exactly one
	// warning; the same value inside an array produces no warning.
	single := ProcessCategories(models.ResourceCompanies, "categories", "Technology")
	require.Empty(t, single.Errors)
	assert.Equal(t, []string{"Technology"}, single.Value)
	assert.Len(t, single.Warnings, 1)

	array := ProcessCategories(models.ResourceCompanies, "categories", []string{"Technology"})
	require.Empty(t, array.Errors)
	assert.Equal(t, []string{"Technology"}, array.Value)
	assert.Empty(t, array.Warnings)
}

func TestProcessCategories_PluralConversion(t *testing.T) {
	got := ProcessCategories(models.ResourceCompanies, "categories", []string{"Technologies"})
	require.Empty(t, got.Errors)
	assert.Equal(t, []string{"Technology"}, got.Value)
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "Technologies")
}

func TestProcessCategories_UnknownCollectsErrors(t *testing.T) {
	got := ProcessCategories(models.ResourceCompanies, "categories", []string{"SaaS", "Blorp"})
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "Blorp")
	// Valid entries survive; the caller decides whether to proceed.
	assert.Equal(t, []string{"SaaS"}, got.Value)
}

func TestProcessCategories_EmptyIsInvalid(t *testing.T) {
	for _, value := range []interface{}{"", []string{}, []interface{}{}, nil} {
		got := ProcessCategories(models.ResourceCompanies, "categories", value)
		assert.NotEmpty(t, got.Errors, "value %#v", value)
	}
}

func TestValidateCategories(t *testing.T) {
	ok := ValidateCategories([]string{"SaaS", "Finance"})
	assert.True(t, ok.IsValid)
	assert.Empty(t, ok.Errors)

	bad := ValidateCategories("Blorp")
	assert.False(t, bad.IsValid)
	require.Len(t, bad.Errors, 1)

	shape := ValidateCategories(42)
	assert.False(t, shape.IsValid)
}
