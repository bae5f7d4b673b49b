package mapping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolbridge/crm-adapter/internal/models"
)

func TestTransformFieldValue_BooleanSynonyms(t *testing.T) {
	tests := []struct {
		value interface{}
		want  bool
	}{
		{"done", true},
		{"DONE", true},
		{"complete", true},
		{"true", true},
		{"1", true},
		{"open", false},
		{"false", false},
		{"0", false},
		{true, true},
		{float64(1), true},
	}
	for _, tt := range tests {
		got, err := TransformFieldValue(models.ResourceTasks, "is_completed", tt.value)
		require.NoError(t, err, "value %v", tt.value)
		assert.Equal(t, tt.want, got, "value %v", tt.value)
	}
}

func TestTransformFieldValue_BooleanRejectsGarbage(t *testing.T) {
	_, err := TransformFieldValue(models.ResourceTasks, "is_completed", "maybe")
	assert.Error(t, err)
}

func TestTransformFieldValue_ScalarToArray(t *testing.T) {
	got, err := TransformFieldValue(models.ResourceTasks, "assignees", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com"}, got)

	got, err = TransformFieldValue(models.ResourcePeople, "email_addresses", []interface{}{"a@b.c", "d@e.f"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.c", "d@e.f"}, got)
}

func TestTransformFieldValue_DateNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-03-04", "2026-03-04"},
		{"2026/03/04", "2026-03-04"},
		{"03/04/2026", "2026-03-04"},
		{"Mar 4, 2026", "2026-03-04"},
		{"2026-03-04T10:30:00Z", "2026-03-04T10:30:00Z"},
	}
	for _, tt := range tests {
		got, err := TransformFieldValue(models.ResourceTasks, "deadline_at", tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := TransformFieldValue(models.ResourceTasks, "deadline_at", "next tuesday")
	assert.Error(t, err)
}

func TestTransformFieldValue_DealValue(t *testing.T) {
	got, err := TransformFieldValue(models.ResourceDeals, "value", "$1,200.50")
	require.NoError(t, err)
	d, ok := got.(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("1200.50")))

	got, err = TransformFieldValue(models.ResourceDeals, "value", float64(99))
	require.NoError(t, err)
	d = got.(decimal.Decimal)
	assert.True(t, d.Equal(decimal.NewFromInt(99)))

	_, err = TransformFieldValue(models.ResourceDeals, "value", "a lot")
	assert.Error(t, err)
}

func TestTransformFieldValue_NoRegisteredTransform(t *testing.T) {
	got, err := TransformFieldValue(models.ResourceCompanies, "name", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got, "fields with no transform pass through unchanged")
}
