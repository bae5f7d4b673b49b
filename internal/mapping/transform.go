// internal/mapping/transform.go
package mapping

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/toolbridge/crm-adapter/internal/models"
)

// transformFunc coerces one field value into the canonical downstream
// representation. Returning an error marks the value invalid; it never
// panics on odd input shapes.
type transformFunc func(value interface{}) (interface{}, error)

// transforms is the per-(resource, canonical field) coercion table.
// Fields with no registered transform pass through unchanged; that is the
// default, not an error.
var transforms = map[models.ResourceType]map[string]transformFunc{
	models.ResourceCompanies: {
		"domains":    toStringSlice,
		"categories": toStringSlice,
	},
	models.ResourcePeople: {
		"email_addresses": toStringSlice,
		"phone_numbers":   toStringSlice,
	},
	models.ResourceTasks: {
		"is_completed":   toBoolean,
		"deadline_at":    normalizeDate,
		"assignees":      toStringSlice,
		"linked_records": toStringSlice,
	},
	models.ResourceDeals: {
		"value":             toDecimal,
		"associated_people": toStringSlice,
	},
}

// TransformFieldValue applies the registered coercion for (rt, field), if
// any. The field name is expected to already be canonical.
func TransformFieldValue(rt models.ResourceType, field string, value interface{}) (interface{}, error) {
	byField, ok := transforms[rt]
	if !ok {
		return value, nil
	}
	fn, ok := byField[strings.ToLower(field)]
	if !ok {
		return value, nil
	}
	return fn(value)
}

// ============================================
// Coercions
// ============================================

var trueSynonyms = map[string]bool{
	"true": true, "yes": true, "1": true,
	"done": true, "complete": true, "completed": true,
}

var falseSynonyms = map[string]bool{
	"false": true, "no": true, "0": true,
	"open": true, "todo": true, "incomplete": true,
}

// toBoolean coerces boolean synonyms: done|complete|true|1 → true,
// open|false|0 → false, case-insensitive. Real booleans and 0/1 numbers
// pass through.
func toBoolean(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if trueSynonyms[s] {
			return true, nil
		}
		if falseSynonyms[s] {
			return false, nil
		}
		return nil, fmt.Errorf("cannot interpret %q as a boolean", v)
	case float64:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	case int:
		if v == 0 || v == 1 {
			return v == 1, nil
		}
	}
	return nil, fmt.Errorf("cannot interpret %v as a boolean", value)
}

// toStringSlice wraps a scalar into a one-element array; arrays pass
// through with each element stringified only if already strings.
func toStringSlice(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string array element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected string or array of strings, got %T", value)
}

// dateLayouts are tried in order; the first match wins. Ambiguous numeric
// layouts are interpreted as US month-first, matching the backing API.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// normalizeDate normalizes date strings to ISO 2006-01-02. Timestamps with
// a time component stay RFC3339.
func normalizeDate(value interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected date string, got %T", value)
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(time.RFC3339), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return nil, fmt.Errorf("cannot parse %q as a date", s)
}

// toDecimal normalizes monetary values: accepts numbers or strings with
// optional currency symbol and thousands separators.
func toDecimal(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case string:
		s := strings.TrimSpace(v)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as a monetary value", v)
		}
		return d, nil
	case decimal.Decimal:
		return v, nil
	}
	return nil, fmt.Errorf("expected numeric value, got %T", value)
}
