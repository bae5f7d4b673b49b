// internal/resolver/resolver.go
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/toolbridge/crm-adapter/internal/crm"
	"github.com/toolbridge/crm-adapter/internal/models"
)

// maxAmbiguousCandidates bounds how many matches an ambiguity error lists.
const maxAmbiguousCandidates = 5

// ============================================
// Errors
// ============================================

// NotFoundError reports that no workspace member exactly matched the
// identifier.
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("workspace member %q not found", e.Identifier)
}

// AmbiguousError reports that more than one member exactly matched. It
// lists up to maxAmbiguousCandidates candidates so a human can resolve
// the ambiguity; the resolver never guesses.
type AmbiguousError struct {
	Identifier string
	Candidates []string
	Total      int
}

func (e *AmbiguousError) Error() string {
	msg := fmt.Sprintf("ambiguous workspace member %q: matches %s",
		e.Identifier, strings.Join(e.Candidates, ", "))
	if e.Total > len(e.Candidates) {
		msg += fmt.Sprintf(" ...and %d more", e.Total-len(e.Candidates))
	}
	return msg
}

// SearchError wraps a failure of the underlying member search call,
// preserving the original message for diagnostics.
type SearchError struct {
	Identifier string
	Err        error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("workspace member search for %q failed: %v", e.Identifier, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// ============================================
// Member Cache
// ============================================

// MemberCache memoizes identifier → UUID resolutions, keyed by normalized
// identifier. Instances are caller-owned and fully independent; there is
// no shared global cache, so resolved identities never leak across
// logical requests. Safe for concurrent use if a caller chooses to share
// one instance; last writer wins on a key, which is harmless since a
// resolution is stable once discovered.
type MemberCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemberCache returns an independent, empty cache.
func NewMemberCache() *MemberCache {
	return &MemberCache{entries: make(map[string]string)}
}

func (c *MemberCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[key]
	return id, ok
}

func (c *MemberCache) set(key, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = id
}

// Len reports how many resolutions the cache holds.
func (c *MemberCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ============================================
// Resolver
// ============================================

// Resolver turns free-form member identifiers (email or display name)
// into stable member UUIDs. It holds no persistent state of its own; all
// memoization lives in the caller-supplied cache.
type Resolver struct {
	members crm.MemberAPI
	logger  *zap.Logger
}

func New(members crm.MemberAPI, logger *zap.Logger) *Resolver {
	return &Resolver{members: members, logger: logger}
}

// ResolveWorkspaceMember resolves identifier to a member UUID. The search
// call is fuzzy and may over-return; results are filtered to an exact
// match on email (when the identifier looks like one) or on normalized
// full name otherwise. cache may be nil.
func (r *Resolver) ResolveWorkspaceMember(ctx context.Context, identifier string, cache *MemberCache) (string, error) {
	key := normalizeIdentifier(identifier)

	if cache != nil {
		if id, ok := cache.get(key); ok {
			return id, nil
		}
	}

	// The search gets the raw identifier; normalization is cache-key only.
	results, err := r.members.SearchWorkspaceMembers(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return "", &SearchError{Identifier: identifier, Err: err}
	}

	matches := filterExact(identifier, results)
	switch len(matches) {
	case 0:
		return "", &NotFoundError{Identifier: identifier}
	case 1:
		id := matches[0].ID
		if cache != nil {
			cache.set(key, id)
		}
		r.logger.Debug("resolved workspace member",
			zap.String("identifier", key),
			zap.String("member_id", id))
		return id, nil
	default:
		candidates := make([]string, 0, maxAmbiguousCandidates)
		for i, m := range matches {
			if i == maxAmbiguousCandidates {
				break
			}
			candidates = append(candidates, fmt.Sprintf("%s <%s>", m.FullName(), m.Email))
		}
		return "", &AmbiguousError{Identifier: identifier, Candidates: candidates, Total: len(matches)}
	}
}

// filterExact keeps only members whose email or normalized full name
// exactly matches the identifier.
func filterExact(identifier string, members []models.WorkspaceMember) []models.WorkspaceMember {
	var matches []models.WorkspaceMember
	if looksLikeEmail(identifier) {
		want := normalizeIdentifier(identifier)
		for _, m := range members {
			if strings.ToLower(m.Email) == want {
				matches = append(matches, m)
			}
		}
		return matches
	}
	want := normalizeName(identifier)
	for _, m := range members {
		if normalizeName(m.FullName()) == want {
			matches = append(matches, m)
		}
	}
	return matches
}

func looksLikeEmail(s string) bool {
	return strings.Contains(s, "@")
}

// normalizeIdentifier lower-cases and trims; this is the cache key form.
func normalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeName additionally strips diacritics and collapses inner
// whitespace so "José  García" matches "jose garcia".
func normalizeName(s string) string {
	s = stripDiacritics(normalizeIdentifier(s))
	return strings.Join(strings.Fields(s), " ")
}

// stripDiacritics decomposes to NFD and drops combining marks.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
