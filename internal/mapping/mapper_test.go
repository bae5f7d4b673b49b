package mapping

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolbridge/crm-adapter/internal/models"
)

func TestMapFieldName(t *testing.T) {
	tests := []struct {
		rt        models.ResourceType
		field     string
		available []string
		want      string
	}{
		{models.ResourceCompanies, "website", nil, "domains"},
		{models.ResourceCompanies, "WEBSITE", nil, "domains"},
		{models.ResourceCompanies, "industry", nil, "categories"},
		{models.ResourceCompanies, "name", nil, "name"},
		{models.ResourceCompanies, "custom_field", nil, "custom_field"},
		{models.ResourceTasks, "title", nil, "content"},
		{models.ResourceTasks, "due_date", nil, "deadline_at"},
		{models.ResourcePeople, "email", nil, "email_addresses"},
		// Live schema: the literal field exists, trust it.
		{models.ResourceCompanies, "website", []string{"website", "domains"}, "website"},
		// Live schema: the mapped target does not exist, keep the original.
		{models.ResourceCompanies, "website", []string{"name"}, "website"},
		// Live schema: target exists and literal does not, apply the mapping.
		{models.ResourceCompanies, "website", []string{"domains", "name"}, "domains"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.rt, tt.field), func(t *testing.T) {
			assert.Equal(t, tt.want, MapFieldName(tt.rt, tt.field, tt.available))
		})
	}
}

// Mapping a canonical field never changes it: applying MapFieldName twice
// is the same as applying it once.
func TestMapFieldName_Idempotent(t *testing.T) {
	for _, rt := range models.AllResourceTypes() {
		table, ok := TableFor(rt)
		require.True(t, ok)
		for alias := range table.FieldMappings {
			canonical := MapFieldName(rt, alias, nil)
			assert.Equal(t, canonical, MapFieldName(rt, canonical, nil),
				"resource %s alias %s", rt, alias)
		}
	}
}

// Every mapping target must be a field the resource actually accepts;
// anything else is a configuration defect.
func TestMappingTables_TargetsAreValidFields(t *testing.T) {
	for _, rt := range models.AllResourceTypes() {
		table, ok := TableFor(rt)
		require.True(t, ok, "missing table for %s", rt)
		if table.OpenSchema {
			continue
		}
		for alias, target := range table.FieldMappings {
			assert.True(t, table.ValidFields[target],
				"resource %s maps %q to %q which is not a valid field", rt, alias, target)
		}
	}
}

func TestDetectFieldCollisions(t *testing.T) {
	report := DetectFieldCollisions(models.ResourceCompanies, map[string]interface{}{
		"website": "a.com",
		"url":     "a.com",
	})
	require.True(t, report.HasCollisions)
	assert.ElementsMatch(t, []string{"website", "url"}, report.Collisions["domains"])
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], `"url"`)
	assert.Contains(t, report.Errors[0], `"website"`)
	assert.Contains(t, report.Errors[0], `"domains"`)
}

func TestDetectFieldCollisions_DistinctTargets(t *testing.T) {
	report := DetectFieldCollisions(models.ResourceCompanies, map[string]interface{}{
		"website":  "a.com",
		"industry": "SaaS",
	})
	assert.False(t, report.HasCollisions)
	assert.Empty(t, report.Errors)
}

// For every pair of aliases in a resource's table: same target means a
// collision must be reported, distinct targets means none.
func TestDetectFieldCollisions_Symmetry(t *testing.T) {
	for _, rt := range models.AllResourceTypes() {
		table, _ := TableFor(rt)
		aliases := make([]string, 0, len(table.FieldMappings))
		for alias := range table.FieldMappings {
			aliases = append(aliases, alias)
		}
		for i := 0; i < len(aliases); i++ {
			for j := i + 1; j < len(aliases); j++ {
				a, b := aliases[i], aliases[j]
				report := DetectFieldCollisions(rt, map[string]interface{}{a: "x", b: "x"})
				sameTarget := table.FieldMappings[a] == table.FieldMappings[b]
				assert.Equal(t, sameTarget, report.HasCollisions,
					"resource %s fields %q and %q", rt, a, b)
			}
		}
	}
}

func TestMapRecordFields(t *testing.T) {
	result := MapRecordFields(models.ResourceCompanies, map[string]interface{}{
		"company_name": "Acme",
		"website":      "acme.com",
		"custom_score": 9,
	})
	require.Empty(t, result.Errors)
	assert.Equal(t, "Acme", result.Mapped["name"])
	assert.Equal(t, "acme.com", result.Mapped["domains"])
	assert.Equal(t, 9, result.Mapped["custom_score"], "unmapped fields pass through unchanged")
	assert.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], `"company_name"`)
}

func TestMapRecordFields_CollisionStillExplains(t *testing.T) {
	result := MapRecordFields(models.ResourceCompanies, map[string]interface{}{
		"website": "a.com",
		"url":     "b.com",
	})
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "domains")
}

func TestValidateResourceType(t *testing.T) {
	tests := []struct {
		input     string
		valid     bool
		resolved  models.ResourceType
		corrected models.ResourceType
	}{
		{"companies", true, models.ResourceCompanies, ""},
		{"Company", true, models.ResourceCompanies, ""},
		{"person", true, models.ResourcePeople, ""},
		{"TASKS", true, models.ResourceTasks, ""},
		{"comapny", false, "", models.ResourceCompanies},
		{"comapnies", false, "", models.ResourceCompanies},
		{"dealz", false, "", models.ResourceDeals},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v := ValidateResourceType(tt.input)
			assert.Equal(t, tt.valid, v.Valid)
			if tt.valid {
				assert.Equal(t, tt.resolved, v.Type)
			} else {
				assert.Equal(t, tt.corrected, v.Corrected)
			}
		})
	}
}

func TestValidateResourceType_Unknown(t *testing.T) {
	v := ValidateResourceType("spaceship")
	assert.False(t, v.Valid)
	assert.Empty(t, v.Corrected)
	assert.Contains(t, v.Suggestion, "companies")
	assert.Contains(t, v.Suggestion, "lists")
}

func TestFieldSuggestions(t *testing.T) {
	guidance := FieldSuggestions(models.ResourcePeople, "first_name")
	assert.Contains(t, guidance, `"name"`)

	nearMiss := FieldSuggestions(models.ResourceCompanies, "descriptionn")
	assert.Contains(t, nearMiss, `"description"`)

	generic := FieldSuggestions(models.ResourceDeals, "xyzzyquux")
	assert.Contains(t, generic, "Unknown field")
}

func TestValidateFields_EmptyCompanies(t *testing.T) {
	v := ValidateFields(models.ResourceCompanies, map[string]interface{}{})
	require.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], `Required field "name" is missing`)
}

func TestValidateFields_UnknownField(t *testing.T) {
	v := ValidateFields(models.ResourceTasks, map[string]interface{}{
		"content":  "call Acme",
		"priority": "high",
	})
	require.False(t, v.Valid)
	assert.Contains(t, v.Errors[0], `"priority"`)
	require.NotEmpty(t, v.Suggestions)
	assert.Contains(t, v.Suggestions[0], "priority")
}

func TestValidateFields_AliasSatisfiesRequired(t *testing.T) {
	v := ValidateFields(models.ResourceCompanies, map[string]interface{}{
		"company_name": "Acme",
	})
	assert.True(t, v.Valid)
}

func TestValidateFields_OpenSchema(t *testing.T) {
	v := ValidateFields(models.ResourceRecords, map[string]interface{}{
		"anything": "goes",
	})
	assert.True(t, v.Valid)
}

func TestValidateFieldsWithSchema_LiveAttributeAdmitsCustomField(t *testing.T) {
	v := ValidateFieldsWithSchema(models.ResourceCompanies, map[string]interface{}{
		"name":       "Acme",
		"arr_growth": 0.4,
	}, true, []string{"arr_growth"})
	assert.True(t, v.Valid)
}

func TestValidateFieldsWithSchema_NoRequiredOnUpdate(t *testing.T) {
	v := ValidateFieldsWithSchema(models.ResourceCompanies, map[string]interface{}{
		"description": "updated",
	}, false, nil)
	assert.True(t, v.Valid)
}
