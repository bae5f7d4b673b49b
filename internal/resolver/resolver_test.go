package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toolbridge/crm-adapter/internal/models"
)

type fakeMemberAPI struct {
	results []models.WorkspaceMember
	err     error
	calls   int
}

func (f *fakeMemberAPI) SearchWorkspaceMembers(ctx context.Context, query string) ([]models.WorkspaceMember, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func newResolver(api *fakeMemberAPI) *Resolver {
	return New(api, zap.NewNop())
}

func TestResolveWorkspaceMember_ExactEmailAmongFuzzyResults(t *testing.T) {
	api := &fakeMemberAPI{results: []models.WorkspaceMember{
		{ID: "aaa", Email: "martina@shapescale.com", FirstName: "Martina", LastName: "Rossi"},
		{ID: "bbb", Email: "martin@shapescale.com", FirstName: "Martin", LastName: "Perez"},
		{ID: "ccc", Email: "other@shapescale.com", FirstName: "Other", LastName: "Person"},
	}}
	r := newResolver(api)

	id, err := r.ResolveWorkspaceMember(context.Background(), "martin@shapescale.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "bbb", id)
}

func TestResolveWorkspaceMember_CacheHitSkipsSearch(t *testing.T) {
	api := &fakeMemberAPI{results: []models.WorkspaceMember{
		{ID: "bbb", Email: "martin@shapescale.com"},
	}}
	r := newResolver(api)
	cache := NewMemberCache()

	id1, err := r.ResolveWorkspaceMember(context.Background(), "Martin@Shapescale.com ", cache)
	require.NoError(t, err)
	// Differs only by case and whitespace: must not hit the backend again.
	id2, err := r.ResolveWorkspaceMember(context.Background(), "martin@shapescale.com", cache)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 1, cache.Len())
}

func TestResolveWorkspaceMember_IndependentCaches(t *testing.T) {
	api := &fakeMemberAPI{results: []models.WorkspaceMember{
		{ID: "bbb", Email: "martin@shapescale.com"},
	}}
	r := newResolver(api)

	_, err := r.ResolveWorkspaceMember(context.Background(), "martin@shapescale.com", NewMemberCache())
	require.NoError(t, err)
	_, err = r.ResolveWorkspaceMember(context.Background(), "martin@shapescale.com", NewMemberCache())
	require.NoError(t, err)

	assert.Equal(t, 2, api.calls, "distinct cache instances share nothing")
}

func TestResolveWorkspaceMember_ByNameWithDiacritics(t *testing.T) {
	api := &fakeMemberAPI{results: []models.WorkspaceMember{
		{ID: "ddd", Email: "jose@example.com", FirstName: "José", LastName: "García"},
	}}
	r := newResolver(api)

	id, err := r.ResolveWorkspaceMember(context.Background(), "jose garcia", nil)
	require.NoError(t, err)
	assert.Equal(t, "ddd", id)
}

func TestResolveWorkspaceMember_NotFound(t *testing.T) {
	api := &fakeMemberAPI{results: []models.WorkspaceMember{
		{ID: "aaa", Email: "someone@else.com"},
	}}
	r := newResolver(api)

	_, err := r.ResolveWorkspaceMember(context.Background(), "missing@example.com", nil)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, err.Error(), "missing@example.com")
}

func TestResolveWorkspaceMember_AmbiguousListsAtMostFive(t *testing.T) {
	var members []models.WorkspaceMember
	for i := 0; i < 7; i++ {
		members = append(members, models.WorkspaceMember{
			ID:        fmt.Sprintf("id-%d", i),
			Email:     fmt.Sprintf("john%d@example.com", i),
			FirstName: "John",
			LastName:  "Smith",
		})
	}
	r := newResolver(&fakeMemberAPI{results: members})

	_, err := r.ResolveWorkspaceMember(context.Background(), "John Smith", nil)
	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Candidates, 5)
	assert.Equal(t, 7, ambiguous.Total)
	assert.Contains(t, err.Error(), "...and 2 more")
	assert.Contains(t, err.Error(), "John Smith <john0@example.com>")
}

func TestResolveWorkspaceMember_AmbiguousSmallSetListsAll(t *testing.T) {
	members := []models.WorkspaceMember{
		{ID: "1", Email: "a@x.com", FirstName: "Ana", LastName: "Lee"},
		{ID: "2", Email: "b@x.com", FirstName: "Ana", LastName: "Lee"},
	}
	r := newResolver(&fakeMemberAPI{results: members})

	_, err := r.ResolveWorkspaceMember(context.Background(), "Ana Lee", nil)
	var ambiguous *AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Candidates, 2)
	assert.NotContains(t, err.Error(), "more")
}

func TestResolveWorkspaceMember_SearchFailureWrapped(t *testing.T) {
	cause := errors.New("connection refused")
	r := newResolver(&fakeMemberAPI{err: cause})

	_, err := r.ResolveWorkspaceMember(context.Background(), "martin@shapescale.com", nil)
	var searchErr *SearchError
	require.ErrorAs(t, err, &searchErr)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestResolveWorkspaceMember_FailedResolutionNotCached(t *testing.T) {
	api := &fakeMemberAPI{}
	r := newResolver(api)
	cache := NewMemberCache()

	_, err := r.ResolveWorkspaceMember(context.Background(), "ghost@example.com", cache)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	_, _ = r.ResolveWorkspaceMember(context.Background(), "ghost@example.com", cache)
	assert.Equal(t, 2, api.calls)
}
