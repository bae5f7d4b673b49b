// internal/mapping/tables.go
package mapping

import "github.com/toolbridge/crm-adapter/internal/models"

// FieldMapping is the static per-resource mapping configuration: known
// alias → canonical field substitutions, the closed set of fields the
// resource accepts, and advisory guidance for frequent mistakes that have
// no mechanical fix. Tables are declarative data, loaded once and never
// mutated; adding a resource type is a data addition, not a control-flow
// change.
type FieldMapping struct {
	// FieldMappings maps a lower-cased alias to its canonical field.
	// No alias maps to more than one canonical field.
	FieldMappings map[string]string

	// ValidFields is the closed set of canonical fields the resource
	// accepts. Every FieldMappings value must appear here.
	ValidFields map[string]bool

	// CommonMistakes maps a lower-cased alias to human guidance. Advisory
	// only; never consulted for mapping itself.
	CommonMistakes map[string]string

	// RequiredFields must be present (post-mapping) on create.
	RequiredFields []string

	// OpenSchema disables unknown-field rejection for resource types whose
	// attribute set is workspace-defined rather than fixed.
	OpenSchema bool
}

var tables = map[models.ResourceType]FieldMapping{
	models.ResourceCompanies: {
		FieldMappings: map[string]string{
			"website":      "domains",
			"url":          "domains",
			"domain":       "domains",
			"web":          "domains",
			"company_name": "name",
			"company":      "name",
			// Policy decision: "industry" maps to "categories" directly in
			// the table; category vocabulary checking happens afterwards.
			"industry": "categories",
			"sector":   "categories",
			"category": "categories",
			"about":    "description",
			"summary":  "description",
			"location": "primary_location",
			"address":  "primary_location",
			"city":     "primary_location",
			"founded":  "foundation_date",
			"size":     "employee_range",
		},
		ValidFields: map[string]bool{
			"name":             true,
			"domains":          true,
			"description":      true,
			"categories":       true,
			"primary_location": true,
			"foundation_date":  true,
			"employee_range":   true,
			"team":             true,
		},
		CommonMistakes: map[string]string{
			"employees": `There is no "employees" field; use "team" for people linked to the company or "employee_range" for headcount`,
			"revenue":   `Revenue is not a standard company field; store it as a custom attribute on the record`,
		},
		RequiredFields: []string{"name"},
	},

	models.ResourcePeople: {
		FieldMappings: map[string]string{
			"email":         "email_addresses",
			"emails":        "email_addresses",
			"email_address": "email_addresses",
			"mail":          "email_addresses",
			"phone":         "phone_numbers",
			"phone_number":  "phone_numbers",
			"phones":        "phone_numbers",
			"title":         "job_title",
			"position":      "job_title",
			"role":          "job_title",
			"employer":      "company",
			"organization":  "company",
			"org":           "company",
			"full_name":     "name",
			"address":       "location",
		},
		ValidFields: map[string]bool{
			"name":            true,
			"email_addresses": true,
			"phone_numbers":   true,
			"job_title":       true,
			"company":         true,
			"description":     true,
			"location":        true,
		},
		CommonMistakes: map[string]string{
			"first_name": `Person names are a single "name" field; pass the full name rather than separate parts`,
			"last_name":  `Person names are a single "name" field; pass the full name rather than separate parts`,
		},
		RequiredFields: []string{"name"},
	},

	models.ResourceDeals: {
		FieldMappings: map[string]string{
			"amount":     "value",
			"price":      "value",
			"deal_value": "value",
			"status":     "stage",
			"deal_stage": "stage",
			"phase":      "stage",
			"assignee":   "owner",
			"owner_email": "owner",
			"company":    "associated_company",
			"account":    "associated_company",
			"contacts":   "associated_people",
			"people":     "associated_people",
		},
		ValidFields: map[string]bool{
			"name":               true,
			"stage":              true,
			"owner":              true,
			"value":              true,
			"associated_people":  true,
			"associated_company": true,
		},
		CommonMistakes: map[string]string{
			"currency": `Deal values carry the workspace currency; a separate "currency" field is not accepted`,
			"probability": `Win probability is not a standard deal field; model it as a custom attribute`,
		},
		RequiredFields: []string{"name"},
	},

	models.ResourceTasks: {
		FieldMappings: map[string]string{
			"title":         "content",
			"description":   "content",
			"body":          "content",
			"text":          "content",
			"due":           "deadline_at",
			"due_date":      "deadline_at",
			"deadline":      "deadline_at",
			"due_at":        "deadline_at",
			"assignee":      "assignees",
			"assigned_to":   "assignees",
			"owner":         "assignees",
			"status":        "is_completed",
			"done":          "is_completed",
			"completed":     "is_completed",
			"complete":      "is_completed",
			"record":        "linked_records",
			"records":       "linked_records",
			"linked_record": "linked_records",
		},
		ValidFields: map[string]bool{
			"content":        true,
			"format":         true,
			"deadline_at":    true,
			"is_completed":   true,
			"assignees":      true,
			"linked_records": true,
		},
		CommonMistakes: map[string]string{
			"priority": `Tasks have no priority field; encode urgency in the content or the deadline`,
		},
		RequiredFields: []string{"content"},
	},

	models.ResourceNotes: {
		FieldMappings: map[string]string{
			"body":      "content",
			"text":      "content",
			"note":      "content",
			"record_id": "parent_record_id",
			"parent":    "parent_record_id",
			"record":    "parent_record_id",
			"object":    "parent_object",
			"author":    "created_by",
			"creator":   "created_by",
		},
		ValidFields: map[string]bool{
			"title":            true,
			"content":          true,
			"format":           true,
			"parent_object":    true,
			"parent_record_id": true,
			"created_by":       true,
		},
		CommonMistakes: map[string]string{
			"tags": `Notes do not support tags; link the note to records instead`,
		},
		RequiredFields: []string{"parent_record_id", "content"},
	},

	models.ResourceLists: {
		FieldMappings: map[string]string{
			"title":       "name",
			"list_name":   "name",
			"object":      "parent_object",
			"object_type": "parent_object",
			"slug":        "api_slug",
		},
		ValidFields: map[string]bool{
			"name":             true,
			"parent_object":    true,
			"api_slug":         true,
			"workspace_access": true,
		},
		CommonMistakes: map[string]string{
			"entries": `List entries are managed through the entries endpoints, not as a field on the list`,
		},
		RequiredFields: []string{"name"},
	},

	// Generic records carry workspace-defined attributes; nothing to map
	// or reject statically.
	models.ResourceRecords: {
		FieldMappings:  map[string]string{},
		ValidFields:    map[string]bool{},
		CommonMistakes: map[string]string{},
		OpenSchema:     true,
	},
}

// TableFor returns the mapping table for a resource type.
func TableFor(rt models.ResourceType) (FieldMapping, bool) {
	t, ok := tables[rt]
	return t, ok
}

// RequiredFields returns the create-time required fields for a resource type.
func RequiredFields(rt models.ResourceType) []string {
	return tables[rt].RequiredFields
}
