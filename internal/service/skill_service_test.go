package service

import (
	"context"
	"errors"
	"testing"

	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearchIndex mirrors the visibility rule of the real index service:
// hidden listings are removed instead of indexed.
type fakeSearchIndex struct {
	indexed map[string]bool
}

func newFakeSearchIndex() *fakeSearchIndex {
	return &fakeSearchIndex{indexed: make(map[string]bool)}
}

func (f *fakeSearchIndex) IndexListing(listing *model.SkillListing) error {
	if !listing.Visible() {
		return f.DeleteListing(listing.ID.String())
	}
	f.indexed[listing.ID.String()] = true
	return nil
}

func (f *fakeSearchIndex) DeleteListing(id string) error {
	delete(f.indexed, id)
	return nil
}

func TestToggleListing(t *testing.T) {
	skillRepo := newFakeSkillRepo()
	search := newFakeSearchIndex()
	svc := NewSkillService(skillRepo, &fakeActivityRepo{}, &fakeNotifier{}, search)

	owner := uuid.New()
	listing := skillRepo.add(owner, true)
	require.NoError(t, search.IndexListing(listing))

	// Hiding deactivates the listing and drops it from the search index.
	hidden, err := svc.ToggleListing(context.Background(), owner, listing.ID, RequestMeta{})
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)
	assert.Equal(t, model.ListingInactive, hidden.Status)
	assert.False(t, hidden.Visible())
	assert.NotContains(t, search.indexed, listing.ID.String())

	// Toggling again restores visibility and the index entry.
	restored, err := svc.ToggleListing(context.Background(), owner, listing.ID, RequestMeta{})
	require.NoError(t, err)
	assert.True(t, restored.Visible())
	assert.Contains(t, search.indexed, listing.ID.String())
}

func TestToggleListingNotOwner(t *testing.T) {
	skillRepo := newFakeSkillRepo()
	svc := NewSkillService(skillRepo, &fakeActivityRepo{}, &fakeNotifier{}, nil)

	owner := uuid.New()
	listing := skillRepo.add(owner, true)

	_, err := svc.ToggleListing(context.Background(), uuid.New(), listing.ID, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}
