// internal/dispatcher/dispatcher.go
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toolbridge/crm-adapter/internal/crm"
	"github.com/toolbridge/crm-adapter/internal/mapping"
	"github.com/toolbridge/crm-adapter/internal/models"
	"github.com/toolbridge/crm-adapter/internal/resolver"
	"github.com/toolbridge/crm-adapter/internal/schema"
)

// actorFields names the canonical fields per resource type whose values
// are workspace-member references (email or display name) and must be
// resolved to member UUIDs before dispatch.
var actorFields = map[models.ResourceType][]string{
	models.ResourceTasks: {"assignees"},
	models.ResourceDeals: {"owner"},
	models.ResourceNotes: {"created_by"},
}

// Dispatcher is the single entry point of the universal tools layer. It is
// stateless across requests and safe to invoke concurrently; the only
// per-request state (member resolutions, 404 memoization) lives in a
// request-scoped struct.
type Dispatcher struct {
	records    crm.RecordAPI
	resolver   *resolver.Resolver
	attrs      *schema.AttributeCache
	sanitizer  *Sanitizer
	logger     *zap.Logger
	batchLimit int
}

// New builds a dispatcher. attrs may be nil (no live-schema mode);
// batchLimit bounds concurrent batch fan-out and defaults to 5 when
// non-positive.
func New(records crm.RecordAPI, memberResolver *resolver.Resolver, attrs *schema.AttributeCache, sanitizer *Sanitizer, logger *zap.Logger, batchLimit int) *Dispatcher {
	if batchLimit <= 0 {
		batchLimit = 5
	}
	return &Dispatcher{
		records:    records,
		resolver:   memberResolver,
		attrs:      attrs,
		sanitizer:  sanitizer,
		logger:     logger,
		batchLimit: batchLimit,
	}
}

// requestState is scoped to one top-level Execute call. Batch items share
// it so member resolutions and futile lookups are not repeated within a
// logical request; it is discarded afterwards.
type requestState struct {
	members *resolver.MemberCache

	mu       sync.Mutex
	notFound map[string]string // rt/id -> memoized error message
}

func newRequestState() *requestState {
	return &requestState{
		members:  resolver.NewMemberCache(),
		notFound: make(map[string]string),
	}
}

func (s *requestState) memoNotFound(key, message string) {
	s.mu.Lock()
	s.notFound[key] = message
	s.mu.Unlock()
}

func (s *requestState) knownNotFound(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.notFound[key]
	return msg, ok
}

// Execute validates, maps, transforms, and dispatches one tool request,
// returning the uniform envelope. Handler errors never escape as raw
// errors; every exit is an envelope.
func (d *Dispatcher) Execute(ctx context.Context, req models.ToolRequest) models.Envelope {
	state := newRequestState()

	var env models.Envelope
	if req.Operation == models.OperationBatch {
		env = d.executeBatch(ctx, req, state)
	} else {
		env = d.executeOne(ctx, req, state)
	}

	env.RequestID = req.ID
	if env.RequestID == "" {
		env.RequestID = uuid.NewString()
	}
	return env
}

func (d *Dispatcher) executeOne(ctx context.Context, req models.ToolRequest, state *requestState) models.Envelope {
	if !models.ValidOperation(req.Operation) || req.Operation == models.OperationBatch {
		return models.ErrorEnvelope(CodeInvalidFieldValue,
			fmt.Sprintf("Unknown operation %q; valid operations are create, get, update, delete, search, batch", req.Operation),
			errTypeValidation)
	}

	var warnings []string

	validation := mapping.ValidateResourceType(req.ResourceType)
	rt := validation.Type
	switch {
	case validation.Valid:
	case validation.Corrected != "":
		rt = validation.Corrected
		warnings = append(warnings, fmt.Sprintf("Corrected resource type %q to %q", req.ResourceType, rt))
	default:
		return models.ErrorEnvelope(CodeInvalidResourceType,
			fmt.Sprintf("Invalid resource type %q. %s", req.ResourceType, validation.Suggestion),
			errTypeValidation)
	}

	d.logger.Debug("dispatching",
		zap.String("resource_type", string(rt)),
		zap.String("operation", string(req.Operation)))

	switch req.Operation {
	case models.OperationCreate:
		return d.executeWrite(ctx, rt, req, state, warnings, true)
	case models.OperationUpdate:
		return d.executeWrite(ctx, rt, req, state, warnings, false)
	case models.OperationGet:
		return d.executeGet(ctx, rt, req, state, warnings)
	case models.OperationDelete:
		return d.executeDelete(ctx, rt, req, warnings)
	case models.OperationSearch:
		return d.executeSearch(ctx, rt, req, warnings)
	}
	return models.ErrorEnvelope(CodeUpstreamUnknown, "unreachable operation", errTypeUpstream)
}

// ============================================
// Create / Update
// ============================================

func (d *Dispatcher) executeWrite(ctx context.Context, rt models.ResourceType, req models.ToolRequest, state *requestState, warnings []string, isCreate bool) models.Envelope {
	data := mapParam(req.Params, "data")
	if data == nil {
		data = map[string]interface{}{}
	}
	if !isCreate && len(data) == 0 {
		return models.ErrorEnvelope(CodeMissingRequiredField, `Required field "data" is missing`, errTypeValidation)
	}

	result := mapping.MapRecordFields(rt, data)
	warnings = append(warnings, result.Warnings...)
	if len(result.Errors) > 0 {
		return models.ErrorEnvelope(CodeFieldCollision, strings.Join(result.Errors, "; "), errTypeValidation)
	}

	var available []string
	if d.attrs != nil {
		available = d.attrs.Slugs(ctx, rt)
	}
	fieldCheck := mapping.ValidateFieldsWithSchema(rt, result.Mapped, isCreate, available)
	if !fieldCheck.Valid {
		code := CodeInvalidFieldValue
		for _, e := range fieldCheck.Errors {
			if strings.Contains(e, "Required field") {
				code = CodeMissingRequiredField
				break
			}
		}
		message := strings.Join(fieldCheck.Errors, "; ")
		if len(fieldCheck.Suggestions) > 0 {
			message += ". " + strings.Join(fieldCheck.Suggestions, ". ")
		}
		return models.ErrorEnvelope(code, message, errTypeValidation)
	}

	payload, env, ok := d.canonicalize(ctx, rt, result.Mapped, state, &warnings)
	if !ok {
		return env
	}

	if isCreate {
		return d.callRecords(rt, warnings, func() (interface{}, error) {
			return d.records.CreateRecord(ctx, rt, payload)
		})
	}

	id := stringParam(req.Params, "record_id", "id")
	if id == "" {
		return models.ErrorEnvelope(CodeMissingRequiredField, `Required field "record_id" is missing`, errTypeValidation)
	}
	return d.callRecords(rt, warnings, func() (interface{}, error) {
		return d.records.UpdateRecord(ctx, rt, id, payload)
	})
}

// canonicalize applies per-field value transforms, category processing,
// and actor resolution to an already-mapped payload.
func (d *Dispatcher) canonicalize(ctx context.Context, rt models.ResourceType, mapped map[string]interface{}, state *requestState, warnings *[]string) (map[string]interface{}, models.Envelope, bool) {
	payload := make(map[string]interface{}, len(mapped))
	for field, value := range mapped {
		payload[field] = value
	}

	if value, ok := payload["categories"]; ok && rt == models.ResourceCompanies {
		processed := mapping.ProcessCategories(rt, "categories", value)
		*warnings = append(*warnings, processed.Warnings...)
		if len(processed.Errors) > 0 {
			return nil, models.ErrorEnvelope(CodeInvalidFieldValue, strings.Join(processed.Errors, "; "), errTypeValidation), false
		}
		payload["categories"] = processed.Value
	}

	for field, value := range payload {
		transformed, err := mapping.TransformFieldValue(rt, field, value)
		if err != nil {
			return nil, models.ErrorEnvelope(CodeInvalidFieldValue,
				fmt.Sprintf("Invalid value for field %q: %v", field, err), errTypeValidation), false
		}
		payload[field] = transformed
	}

	for _, field := range actorFields[rt] {
		value, ok := payload[field]
		if !ok {
			continue
		}
		resolved, err := d.resolveActors(ctx, value, state)
		if err != nil {
			code, errType := classify(err)
			return nil, models.ErrorEnvelope(code, err.Error(), errType), false
		}
		payload[field] = resolved
	}

	return payload, models.Envelope{}, true
}

// resolveActors substitutes member identifiers with UUIDs, preserving the
// scalar-vs-array shape of the input. Identifiers that already look like
// UUIDs pass through untouched.
func (d *Dispatcher) resolveActors(ctx context.Context, value interface{}, state *requestState) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return d.resolveActor(ctx, v, state)
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			id, err := d.resolveActor(ctx, item, state)
			if err != nil {
				return nil, err
			}
			out[i] = id
		}
		return out, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &resolver.NotFoundError{Identifier: fmt.Sprintf("%v", item)}
			}
			id, err := d.resolveActor(ctx, s, state)
			if err != nil {
				return nil, err
			}
			out = append(out, id)
		}
		return out, nil
	}
	return value, nil
}

func (d *Dispatcher) resolveActor(ctx context.Context, identifier string, state *requestState) (string, error) {
	if _, err := uuid.Parse(identifier); err == nil {
		return identifier, nil
	}
	return d.resolver.ResolveWorkspaceMember(ctx, identifier, state.members)
}

// ============================================
// Get / Delete / Search
// ============================================

func (d *Dispatcher) executeGet(ctx context.Context, rt models.ResourceType, req models.ToolRequest, state *requestState, warnings []string) models.Envelope {
	id := stringParam(req.Params, "record_id", "id")
	if id == "" {
		return models.ErrorEnvelope(CodeMissingRequiredField, `Required field "record_id" is missing`, errTypeValidation)
	}

	memoKey := string(rt) + "/" + id
	if msg, ok := state.knownNotFound(memoKey); ok {
		return models.ErrorEnvelope(CodeUpstreamNotFound, msg, errTypeUpstream)
	}

	env := d.callRecords(rt, warnings, func() (interface{}, error) {
		return d.records.GetRecord(ctx, rt, id)
	})
	if env.IsError && env.Error.Code == CodeUpstreamNotFound {
		state.memoNotFound(memoKey, env.Error.Message)
	}
	return env
}

func (d *Dispatcher) executeDelete(ctx context.Context, rt models.ResourceType, req models.ToolRequest, warnings []string) models.Envelope {
	id := stringParam(req.Params, "record_id", "id")
	if id == "" {
		return models.ErrorEnvelope(CodeMissingRequiredField, `Required field "record_id" is missing`, errTypeValidation)
	}
	return d.callRecords(rt, warnings, func() (interface{}, error) {
		if err := d.records.DeleteRecord(ctx, rt, id); err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": id, "deleted": true}, nil
	})
}

func (d *Dispatcher) executeSearch(ctx context.Context, rt models.ResourceType, req models.ToolRequest, warnings []string) models.Envelope {
	query := stringParam(req.Params, "query", "q")
	filters := mapParam(req.Params, "filters")

	if len(filters) > 0 {
		result := mapping.MapRecordFields(rt, filters)
		warnings = append(warnings, result.Warnings...)
		if len(result.Errors) > 0 {
			return models.ErrorEnvelope(CodeFieldCollision, strings.Join(result.Errors, "; "), errTypeValidation)
		}
		filters = result.Mapped
	}

	return d.callRecords(rt, warnings, func() (interface{}, error) {
		records, err := d.records.SearchRecords(ctx, rt, query, filters)
		if err != nil {
			return nil, err
		}
		items := make([]interface{}, len(records))
		for i, r := range records {
			items[i] = r
		}
		return items, nil
	})
}

// ============================================
// Batch
// ============================================

func (d *Dispatcher) executeBatch(ctx context.Context, req models.ToolRequest, state *requestState) models.Envelope {
	raw, ok := req.Params["items"]
	if !ok {
		return models.ErrorEnvelope(CodeMissingRequiredField, `Required field "items" is missing`, errTypeValidation)
	}
	items, err := decodeBatchItems(raw)
	if err != nil {
		return models.ErrorEnvelope(CodeInvalidFieldValue, err.Error(), errTypeValidation)
	}
	if len(items) == 0 {
		return models.ErrorEnvelope(CodeInvalidFieldValue, "batch requires at least one item", errTypeValidation)
	}

	results := make([]models.Envelope, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.batchLimit)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if item.Operation == models.OperationBatch {
				results[i] = models.ErrorEnvelope(CodeInvalidFieldValue,
					"nested batch operations are not supported", errTypeValidation)
				return nil
			}
			results[i] = d.executeOne(gctx, item, state)
			results[i].RequestID = item.ID
			return nil
		})
	}
	// Item failures land in their own envelopes; the group never errors.
	_ = g.Wait()

	content := make([]interface{}, len(results))
	for i, r := range results {
		content[i] = r
	}
	return models.SuccessEnvelope(content...)
}

func decodeBatchItems(raw interface{}) ([]models.ToolRequest, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf(`field "items" must be an array of tool requests`)
	}
	var items []models.ToolRequest
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf(`field "items" must be an array of tool requests`)
	}
	return items, nil
}

// ============================================
// Handler Boundary
// ============================================

// callRecords invokes a handler and normalizes its result or error into
// an envelope. Panics are caught and classified as upstream_unknown; a
// bug in a handler must never surface as a raw exception or be mistaken
// for a 404.
func (d *Dispatcher) callRecords(rt models.ResourceType, warnings []string, fn func() (interface{}, error)) (env models.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic",
				zap.String("resource_type", string(rt)),
				zap.Any("panic", r))
			env = models.ErrorEnvelope(CodeUpstreamUnknown,
				d.sanitizer.Sanitize(fmt.Sprintf("internal error: %v", r)), errTypeUpstream)
		}
	}()

	result, err := fn()
	if err != nil {
		code, errType := classify(err)
		message := err.Error()
		if errType == errTypeUpstream {
			message = d.sanitizer.Sanitize(message)
		}
		return models.ErrorEnvelope(code, message, errType)
	}

	switch v := result.(type) {
	case []interface{}:
		env = models.SuccessEnvelope(v...)
	case nil:
		env = models.SuccessEnvelope()
	default:
		env = models.SuccessEnvelope(v)
	}
	env.Warnings = warnings
	return env
}

// ============================================
// Param Helpers
// ============================================

func stringParam(params map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := params[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

func mapParam(params map[string]interface{}, key string) map[string]interface{} {
	if v, ok := params[key]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}
