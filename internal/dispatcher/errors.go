// internal/dispatcher/errors.go
package dispatcher

import (
	"errors"
	"net/http"

	"github.com/toolbridge/crm-adapter/internal/crm"
	"github.com/toolbridge/crm-adapter/internal/resolver"
)

// Error codes of the dispatch envelope. Validation kinds are detected
// before any call reaches the backend; upstream kinds are classified
// strictly from the collaborator's reported status.
const (
	CodeInvalidResourceType  = "invalid_resource_type"
	CodeFieldCollision       = "field_collision"
	CodeMissingRequiredField = "missing_required_field"
	CodeInvalidFieldValue    = "invalid_field_value"
	CodeActorNotFound        = "actor_not_found"
	CodeActorAmbiguous       = "actor_ambiguous"
	CodeUpstreamNotFound     = "upstream_not_found"
	CodeUpstreamAuth         = "upstream_auth"
	CodeUpstreamRateLimited  = "upstream_rate_limited"
	CodeUpstreamUnknown      = "upstream_unknown"
)

const (
	errTypeValidation = "validation"
	errTypeUpstream   = "upstream"
)

// classify maps an error from a handler or the resolver onto the envelope
// taxonomy. Auth and rate-limit statuses are never reinterpreted as
// not-found, and non-HTTP failures are never misreported as a 404; both
// indicate systemic rather than per-record problems.
func classify(err error) (code, errType string) {
	var notFound *resolver.NotFoundError
	if errors.As(err, &notFound) {
		return CodeActorNotFound, errTypeValidation
	}
	var ambiguous *resolver.AmbiguousError
	if errors.As(err, &ambiguous) {
		return CodeActorAmbiguous, errTypeValidation
	}
	var search *resolver.SearchError
	if errors.As(err, &search) {
		// The search transport failed; surfaced as the same validation
		// kind with the underlying message preserved.
		return CodeActorNotFound, errTypeValidation
	}

	var apiErr *crm.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return CodeUpstreamAuth, errTypeUpstream
		case http.StatusNotFound:
			return CodeUpstreamNotFound, errTypeUpstream
		case http.StatusTooManyRequests:
			return CodeUpstreamRateLimited, errTypeUpstream
		default:
			return CodeUpstreamUnknown, errTypeUpstream
		}
	}
	return CodeUpstreamUnknown, errTypeUpstream
}
