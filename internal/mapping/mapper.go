// internal/mapping/mapper.go
package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toolbridge/crm-adapter/internal/models"
)

// ============================================
// Results
// ============================================

// MappingResult is the outcome of mapping a whole input record. Mapped
// contains only canonical field names plus pass-through custom fields;
// Warnings records every substitution performed; Errors is non-empty
// exactly when a field collision was detected, which invalidates the
// operation even though mapping proceeded far enough to explain why.
type MappingResult struct {
	Mapped   map[string]interface{}
	Warnings []string
	Errors   []string
}

// CollisionReport describes aliases in one input that resolve to the same
// canonical field. HasCollisions is true iff Collisions is non-empty.
type CollisionReport struct {
	HasCollisions bool
	Collisions    map[string][]string
	Errors        []string
}

// ResourceTypeValidation is the three-tier outcome of resource type
// validation: valid as-is, confidently corrected, or unknown with a
// suggestion listing the closed set.
type ResourceTypeValidation struct {
	Valid      bool
	Type       models.ResourceType
	Corrected  models.ResourceType
	Suggestion string
}

// FieldValidation is the outcome of validating a set of input fields
// against a resource's schema and required fields.
type FieldValidation struct {
	Valid       bool
	Errors      []string
	Suggestions []string
}

// ============================================
// Field Name Mapping
// ============================================

// MapFieldName resolves a caller-supplied field name to its canonical
// field. Static tables are a best-effort default; when live attribute
// slugs are supplied they take precedence in both directions: a literal
// field present in the live schema is trusted as-is, and a static mapping
// whose target the live schema does not expose is not applied.
func MapFieldName(rt models.ResourceType, field string, availableAttributes []string) string {
	table, ok := tables[rt]
	if !ok {
		return field
	}
	mapped, ok := table.FieldMappings[strings.ToLower(field)]
	if !ok {
		return field
	}
	if availableAttributes != nil {
		if containsFold(availableAttributes, field) {
			return field
		}
		if !containsFold(availableAttributes, mapped) {
			return field
		}
	}
	return mapped
}

// DetectFieldCollisions groups the keys of recordData by their mapped
// target and reports every target claimed by two or more distinct source
// fields. Runs before any merge so that a collision is never silently
// resolved by last-write-wins.
func DetectFieldCollisions(rt models.ResourceType, recordData map[string]interface{}) CollisionReport {
	report := CollisionReport{Collisions: map[string][]string{}}

	byTarget := map[string][]string{}
	for key := range recordData {
		target := MapFieldName(rt, key, nil)
		byTarget[target] = append(byTarget[target], key)
	}

	targets := make([]string, 0, len(byTarget))
	for target, sources := range byTarget {
		if len(sources) >= 2 {
			targets = append(targets, target)
		}
	}
	sort.Strings(targets)

	for _, target := range targets {
		sources := byTarget[target]
		sort.Strings(sources)
		report.Collisions[target] = sources
		report.Errors = append(report.Errors, fmt.Sprintf(
			"Field collision: %s all map to %q. Provide only one of them.",
			quoteJoin(sources), target))
	}
	report.HasCollisions = len(report.Collisions) > 0
	return report
}

// MapRecordFields maps every field of recordData via MapFieldName,
// collecting one warning per substitution and merging collision errors.
// Fields with no applicable mapping pass through unchanged.
func MapRecordFields(rt models.ResourceType, recordData map[string]interface{}) MappingResult {
	result := MappingResult{Mapped: make(map[string]interface{}, len(recordData))}

	collisions := DetectFieldCollisions(rt, recordData)
	result.Errors = append(result.Errors, collisions.Errors...)

	// Deterministic order so warning output is stable.
	keys := make([]string, 0, len(recordData))
	for key := range recordData {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		mapped := MapFieldName(rt, key, nil)
		if mapped != key {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Mapped field %q to %q", key, mapped))
		}
		result.Mapped[mapped] = recordData[key]
	}
	return result
}

// ============================================
// Resource Type Validation
// ============================================

// maxCorrectionDistance is the edit distance up to which a misspelled
// resource type is auto-corrected rather than rejected.
const maxCorrectionDistance = 2

// ValidateResourceType checks input against the closed resource type set.
// Exact matches (case-insensitive, singular forms included) are valid; a
// near miss within edit distance 2 is returned as a correction; anything
// else gets a suggestion enumerating the valid set.
func ValidateResourceType(input string) ResourceTypeValidation {
	normalized := strings.ToLower(strings.TrimSpace(input))

	for _, rt := range models.AllResourceTypes() {
		if normalized == string(rt) {
			return ResourceTypeValidation{Valid: true, Type: rt}
		}
	}
	if rt, ok := models.SingularForms[normalized]; ok {
		return ResourceTypeValidation{Valid: true, Type: rt}
	}

	if len(normalized) >= 4 {
		best := models.ResourceType("")
		bestDist := maxCorrectionDistance + 1
		for _, rt := range models.AllResourceTypes() {
			if d := levenshtein(normalized, string(rt)); d < bestDist {
				best, bestDist = rt, d
			}
		}
		for singular, rt := range models.SingularForms {
			if d := levenshtein(normalized, singular); d < bestDist {
				best, bestDist = rt, d
			}
		}
		if bestDist <= maxCorrectionDistance {
			return ResourceTypeValidation{Corrected: best}
		}
	}

	names := make([]string, 0, len(models.AllResourceTypes()))
	for _, rt := range models.AllResourceTypes() {
		names = append(names, string(rt))
	}
	return ResourceTypeValidation{
		Suggestion: "Valid resource types are: " + strings.Join(names, ", "),
	}
}

// ============================================
// Field Suggestions / Validation
// ============================================

// FieldSuggestions produces actionable guidance for an unrecognized field:
// common-mistake advice when registered, otherwise ranked near matches from
// the resource's valid fields, otherwise a generic unknown-field message.
func FieldSuggestions(rt models.ResourceType, attemptedField string) string {
	table, ok := tables[rt]
	if !ok {
		return fmt.Sprintf("Unknown field %q", attemptedField)
	}

	lower := strings.ToLower(attemptedField)
	if guidance, ok := table.CommonMistakes[lower]; ok {
		return guidance
	}

	type candidate struct {
		field string
		score int
	}
	var candidates []candidate
	for field := range table.ValidFields {
		score := levenshtein(lower, field)
		if strings.Contains(field, lower) || strings.Contains(lower, field) {
			score = 1
		}
		if score <= 3 {
			candidates = append(candidates, candidate{field, score})
		}
	}
	if len(candidates) == 0 {
		return fmt.Sprintf("Unknown field %q for resource type %q", attemptedField, rt)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].field < candidates[j].field
	})
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = fmt.Sprintf("%q", c.field)
	}
	return fmt.Sprintf("Unknown field %q. Did you mean %s?", attemptedField, strings.Join(names, ", "))
}

// ValidateFields checks that every (mapped) key is accepted by the
// resource and that resource-specific required fields are present. Empty
// input fails with per-required-field messages rather than a generic
// empty-payload error.
func ValidateFields(rt models.ResourceType, fields map[string]interface{}) FieldValidation {
	return ValidateFieldsWithSchema(rt, fields, true, nil)
}

// ValidateFieldsWithSchema is ValidateFields with two extra knobs: whether
// required fields are enforced (updates touch a subset) and an optional
// live attribute list that admits workspace-defined fields the static
// tables do not know about.
func ValidateFieldsWithSchema(rt models.ResourceType, fields map[string]interface{}, enforceRequired bool, availableAttributes []string) FieldValidation {
	table, ok := tables[rt]
	if !ok {
		return FieldValidation{Valid: false, Errors: []string{fmt.Sprintf("Unknown resource type %q", rt)}}
	}

	validation := FieldValidation{Valid: true}

	mapped := map[string]bool{}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		target := MapFieldName(rt, key, nil)
		mapped[target] = true
		if table.OpenSchema {
			continue
		}
		if table.ValidFields[target] {
			continue
		}
		if availableAttributes != nil && (containsFold(availableAttributes, target) || containsFold(availableAttributes, key)) {
			continue
		}
		validation.Valid = false
		validation.Errors = append(validation.Errors, fmt.Sprintf("Field %q is not valid for resource type %q", key, rt))
		validation.Suggestions = append(validation.Suggestions, FieldSuggestions(rt, key))
	}

	if enforceRequired {
		for _, required := range table.RequiredFields {
			if !mapped[required] {
				validation.Valid = false
				validation.Errors = append(validation.Errors, fmt.Sprintf("Required field %q is missing", required))
			}
		}
	}
	return validation
}

// ============================================
// Helpers
// ============================================

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func quoteJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, " and ")
}

// levenshtein computes the edit distance between two strings. Kept local;
// the inputs are short field and type names.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
