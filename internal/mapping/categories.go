// internal/mapping/categories.go
package mapping

import (
	"fmt"
	"strings"

	"github.com/toolbridge/crm-adapter/internal/models"
)

// canonicalCategories is the controlled vocabulary for company categories,
// keyed by lower-cased form for case-insensitive lookup.
var canonicalCategories = buildCategoryIndex([]string{
	"Technology",
	"SaaS",
	"Software",
	"E-commerce",
	"Finance",
	"Financial Services",
	"Healthcare",
	"Health & Wellness",
	"Education",
	"Manufacturing",
	"Retail",
	"Real Estate",
	"Media",
	"Marketing",
	"Consulting",
	"Logistics",
	"Energy",
	"Agriculture",
	"Hospitality",
	"Telecommunications",
	"Biotechnology",
	"Insurance",
	"Automotive",
	"Construction",
	"Entertainment",
	"Government",
	"Non-profit",
})

func buildCategoryIndex(categories []string) map[string]string {
	index := make(map[string]string, len(categories))
	for _, c := range categories {
		index[strings.ToLower(c)] = c
	}
	return index
}

// CategoryResult reports whether a category value is structurally and
// semantically valid.
type CategoryResult struct {
	IsValid bool
	Errors  []string
}

// ProcessedCategories is the normalized category payload: always an array
// on the way out, with warnings for every convenience conversion applied.
type ProcessedCategories struct {
	Value    []string
	Warnings []string
	Errors   []string
}

// ValidateCategories accepts a single string or an array of strings and
// collects errors without transforming. Empty input is explicitly invalid.
func ValidateCategories(value interface{}) CategoryResult {
	items, err := categoryItems(value)
	if err != nil {
		return CategoryResult{Errors: []string{err.Error()}}
	}

	result := CategoryResult{IsValid: true}
	for _, item := range items {
		if _, _, ok := lookupCategory(item); !ok {
			result.IsValid = false
			result.Errors = append(result.Errors, unknownCategoryError(item))
		}
	}
	return result
}

// ProcessCategories normalizes a category value for a resource field.
// A single valid string is auto-converted to a one-element array with a
// warning (arrays are the canonical on-wire shape). Unknown values are
// reported as errors but never panic; the caller decides whether to
// proceed.
func ProcessCategories(rt models.ResourceType, field string, value interface{}) ProcessedCategories {
	var result ProcessedCategories

	items, err := categoryItems(value)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if _, isString := value.(string); isString {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Converted single %s value %q to an array", field, items[0]))
	}

	for _, item := range items {
		canonical, converted, ok := lookupCategory(item)
		if !ok {
			result.Errors = append(result.Errors, unknownCategoryError(item))
			continue
		}
		if converted {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Converted category %q to %q", item, canonical))
		}
		result.Value = append(result.Value, canonical)
	}
	return result
}

// categoryItems extracts the string items from a category value, rejecting
// empty input and non-string shapes.
func categoryItems(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("category value cannot be empty")
		}
		return []string{v}, nil
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("category value cannot be empty")
		}
		return v, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("category value cannot be empty")
		}
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("category array elements must be strings, got %T", item)
			}
			items = append(items, s)
		}
		return items, nil
	case nil:
		return nil, fmt.Errorf("category value cannot be empty")
	}
	return nil, fmt.Errorf("categories must be a string or an array of strings, got %T", value)
}

// lookupCategory resolves an input against the controlled vocabulary,
// trying the literal form first and then singular/plural variants. The
// second return reports whether a variant conversion was applied.
func lookupCategory(input string) (string, bool, bool) {
	lower := strings.ToLower(strings.TrimSpace(input))
	if canonical, ok := canonicalCategories[lower]; ok {
		return canonical, canonical != input, true
	}
	for _, variant := range singularPluralVariants(lower) {
		if canonical, ok := canonicalCategories[variant]; ok {
			return canonical, true, true
		}
	}
	return "", false, false
}

func singularPluralVariants(lower string) []string {
	var variants []string
	if strings.HasSuffix(lower, "ies") {
		variants = append(variants, strings.TrimSuffix(lower, "ies")+"y")
	}
	if strings.HasSuffix(lower, "s") {
		variants = append(variants, strings.TrimSuffix(lower, "s"))
	}
	if strings.HasSuffix(lower, "y") {
		variants = append(variants, strings.TrimSuffix(lower, "y")+"ies")
	}
	variants = append(variants, lower+"s")
	return variants
}

func unknownCategoryError(input string) string {
	return fmt.Sprintf(
		"Unknown category %q; valid categories include Technology, SaaS, Finance, Healthcare, Education", input)
}
