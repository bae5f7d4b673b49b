// internal/models/models.go
package models

import "strings"

// ============================================
// Resource Types
// ============================================

// ResourceType identifies one of the record collections the CRM backend
// exposes. Every mapping table, transformer, and validator is keyed by
// exactly one ResourceType.
type ResourceType string

const (
	ResourceCompanies ResourceType = "companies"
	ResourcePeople    ResourceType = "people"
	ResourceDeals     ResourceType = "deals"
	ResourceTasks     ResourceType = "tasks"
	ResourceRecords   ResourceType = "records"
	ResourceNotes     ResourceType = "notes"
	ResourceLists     ResourceType = "lists"
)

// AllResourceTypes returns the closed set of valid resource types, in a
// stable order suitable for error messages.
func AllResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceCompanies,
		ResourcePeople,
		ResourceDeals,
		ResourceTasks,
		ResourceRecords,
		ResourceNotes,
		ResourceLists,
	}
}

// SingularForms maps accepted singular spellings to their resource type.
var SingularForms = map[string]ResourceType{
	"company": ResourceCompanies,
	"person":  ResourcePeople,
	"deal":    ResourceDeals,
	"task":    ResourceTasks,
	"record":  ResourceRecords,
	"note":    ResourceNotes,
	"list":    ResourceLists,
}

// ============================================
// Operations
// ============================================

type Operation string

const (
	OperationCreate Operation = "create"
	OperationGet    Operation = "get"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	OperationSearch Operation = "search"
	OperationBatch  Operation = "batch"
)

// ValidOperation reports whether op is one of the dispatchable operations.
func ValidOperation(op Operation) bool {
	switch op {
	case OperationCreate, OperationGet, OperationUpdate, OperationDelete, OperationSearch, OperationBatch:
		return true
	}
	return false
}

// ============================================
// Tool Request / Response Envelope
// ============================================

// ToolRequest is the generic dispatch request: which resource, which
// operation, and an operation-specific parameter object.
type ToolRequest struct {
	ID           string                 `json:"id,omitempty"`
	ResourceType string                 `json:"resource_type"`
	Operation    Operation              `json:"operation"`
	Params       map[string]interface{} `json:"params"`
}

// ErrorInfo carries the classified error inside an envelope.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Envelope is the uniform response shape for every dispatched operation.
// IsError is true iff Error is present; Content is always an array
// (possibly empty) on success.
type Envelope struct {
	IsError   bool          `json:"isError"`
	Content   []interface{} `json:"content"`
	Warnings  []string      `json:"warnings,omitempty"`
	Error     *ErrorInfo    `json:"error,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// SuccessEnvelope builds a success envelope around the given content items.
func SuccessEnvelope(content ...interface{}) Envelope {
	if content == nil {
		content = []interface{}{}
	}
	return Envelope{IsError: false, Content: content}
}

// ErrorEnvelope builds an error envelope with an empty content array.
func ErrorEnvelope(code, message, errType string) Envelope {
	return Envelope{
		IsError: true,
		Content: []interface{}{},
		Error:   &ErrorInfo{Code: code, Message: message, Type: errType},
	}
}

// ============================================
// Workspace Members
// ============================================

// WorkspaceMember is a member of the CRM workspace. Identity is the UUID;
// email is the natural external key but the backing search over members is
// fuzzy, so exact filtering happens client-side.
type WorkspaceMember struct {
	ID        string `json:"id"`
	Email     string `json:"email_address"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// FullName joins the non-empty name parts with a single space.
func (m WorkspaceMember) FullName() string {
	parts := make([]string, 0, 2)
	if m.FirstName != "" {
		parts = append(parts, m.FirstName)
	}
	if m.LastName != "" {
		parts = append(parts, m.LastName)
	}
	return strings.Join(parts, " ")
}

// ============================================
// Attribute Discovery
// ============================================

// AttributeDescriptor describes one live attribute of a resource type, as
// reported by the backend's attribute-discovery endpoint.
type AttributeDescriptor struct {
	Slug  string `json:"api_slug"`
	Title string `json:"title"`
	Type  string `json:"type"`
}
