// internal/crm/crm.go
package crm

import (
	"context"
	"fmt"

	"github.com/toolbridge/crm-adapter/internal/models"
)

// ============================================
// Records
// ============================================

// Record is a single record as returned by the backing CRM API: a stable
// identifier plus a values object keyed by canonical field name.
type Record struct {
	ID     string                 `json:"id"`
	Values map[string]interface{} `json:"values"`
}

// ============================================
// Collaborator Interfaces
// ============================================

// RecordAPI is the record search/CRUD backend.
type RecordAPI interface {
	SearchRecords(ctx context.Context, rt models.ResourceType, query string, filters map[string]interface{}) ([]Record, error)
	GetRecord(ctx context.Context, rt models.ResourceType, id string) (*Record, error)
	CreateRecord(ctx context.Context, rt models.ResourceType, values map[string]interface{}) (*Record, error)
	UpdateRecord(ctx context.Context, rt models.ResourceType, id string, values map[string]interface{}) (*Record, error)
	DeleteRecord(ctx context.Context, rt models.ResourceType, id string) error
}

// AttributeAPI exposes live attribute discovery for a resource type.
type AttributeAPI interface {
	ListAttributes(ctx context.Context, rt models.ResourceType) ([]models.AttributeDescriptor, error)
}

// MemberAPI searches workspace members. The search is fuzzy and may
// over-return; exact filtering is the caller's job.
type MemberAPI interface {
	SearchWorkspaceMembers(ctx context.Context, query string) ([]models.WorkspaceMember, error)
}

// ============================================
// Errors
// ============================================

// APIError is an error reported by the CRM backend, carrying the HTTP
// status so callers can classify it without string matching.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm api error (%d) on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}
