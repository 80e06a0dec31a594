package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/pkg/apperror"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeSwapRepo keeps swaps in memory and mirrors the guarded semantics of the
// real repository: idempotent create and compare-and-set transitions.
type fakeSwapRepo struct {
	swaps   map[uuid.UUID]*model.SwapRequest
	reviews map[uuid.UUID][]*model.SwapReview
	txns    map[uuid.UUID]*model.SwapTransaction
}

func newFakeSwapRepo() *fakeSwapRepo {
	return &fakeSwapRepo{
		swaps:   make(map[uuid.UUID]*model.SwapRequest),
		reviews: make(map[uuid.UUID][]*model.SwapReview),
		txns:    make(map[uuid.UUID]*model.SwapTransaction),
	}
}

func (r *fakeSwapRepo) CreateIdempotent(ctx context.Context, swap *model.SwapRequest) (bool, *model.SwapRequest, error) {
	for _, existing := range r.swaps {
		if existing.RequestingUserID == swap.RequestingUserID &&
			existing.RequestingSkillID == swap.RequestingSkillID &&
			existing.Status == model.SwapPending {
			return false, existing, nil
		}
	}
	swap.ID = uuid.New()
	r.swaps[swap.ID] = swap
	return true, swap, nil
}

func (r *fakeSwapRepo) FindPending(ctx context.Context, requesterID, requestingSkillID uuid.UUID) (*model.SwapRequest, error) {
	for _, existing := range r.swaps {
		if existing.RequestingUserID == requesterID &&
			existing.RequestingSkillID == requestingSkillID &&
			existing.Status == model.SwapPending {
			return existing, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSwapRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	swap, ok := r.swaps[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := *swap
	return &copy, nil
}

func (r *fakeSwapRepo) FindForUser(ctx context.Context, userID uuid.UUID, filter dto.SwapFilter) ([]model.SwapRequest, int64, error) {
	var out []model.SwapRequest
	for _, swap := range r.swaps {
		if swap.Involves(userID) {
			out = append(out, *swap)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSwapRepo) Transition(ctx context.Context, id uuid.UUID, from, to model.SwapStatus) error {
	swap, ok := r.swaps[id]
	if !ok || swap.Status != from {
		return repository.ErrStatusConflict
	}
	swap.Status = to
	if to == model.SwapAccepted && swap.AcceptedAt == nil {
		now := time.Now()
		swap.AcceptedAt = &now
	}
	return nil
}

func (r *fakeSwapRepo) Complete(ctx context.Context, swap *model.SwapRequest, txn *model.SwapTransaction) error {
	stored, ok := r.swaps[swap.ID]
	if !ok || stored.Status != model.SwapAccepted {
		return repository.ErrStatusConflict
	}
	stored.Status = model.SwapCompleted
	now := time.Now()
	stored.CompletedAt = &now
	txn.ID = uuid.New()
	r.txns[swap.ID] = txn
	return nil
}

func (r *fakeSwapRepo) CreateReview(ctx context.Context, review *model.SwapReview) error {
	for _, existing := range r.reviews[review.SwapRequestID] {
		if existing.ReviewerID == review.ReviewerID {
			return repository.ErrDuplicateReview
		}
	}
	review.ID = uuid.New()
	r.reviews[review.SwapRequestID] = append(r.reviews[review.SwapRequestID], review)
	return nil
}

func (r *fakeSwapRepo) HasReviewed(ctx context.Context, swapID, reviewerID uuid.UUID) (bool, error) {
	for _, review := range r.reviews[swapID] {
		if review.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSwapRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.swaps)), nil
}

func (r *fakeSwapRepo) CountByStatus(ctx context.Context, status model.SwapStatus) (int64, error) {
	var n int64
	for _, swap := range r.swaps {
		if swap.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeSkillRepo struct {
	listings map[uuid.UUID]*model.SkillListing
}

func newFakeSkillRepo() *fakeSkillRepo {
	return &fakeSkillRepo{listings: make(map[uuid.UUID]*model.SkillListing)}
}

func (r *fakeSkillRepo) add(ownerID uuid.UUID, active bool) *model.SkillListing {
	listing := &model.SkillListing{
		ID:        uuid.New(),
		UserID:    ownerID,
		Title:     "Guitar lessons",
		SkillType: model.SkillTypeOffer,
		IsActive:  active,
		Status:    model.ListingActive,
		User:      model.User{ID: ownerID, IsActive: true},
	}
	if !active {
		listing.Status = model.ListingInactive
	}
	r.listings[listing.ID] = listing
	return listing
}

func (r *fakeSkillRepo) Create(ctx context.Context, listing *model.SkillListing) error { return nil }

func (r *fakeSkillRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SkillListing, error) {
	listing, ok := r.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return listing, nil
}

func (r *fakeSkillRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID, page dto.PageQuery) ([]model.SkillListing, int64, error) {
	return nil, 0, nil
}
func (r *fakeSkillRepo) Update(ctx context.Context, listing *model.SkillListing) error { return nil }
func (r *fakeSkillRepo) Delete(ctx context.Context, id uuid.UUID) error                { return nil }
func (r *fakeSkillRepo) Search(ctx context.Context, filter dto.ListingFilter) ([]model.SkillListing, int64, error) {
	return nil, 0, nil
}
func (r *fakeSkillRepo) AverageRating(ctx context.Context, listingID uuid.UUID) (float64, int64, error) {
	return 0, 0, nil
}
func (r *fakeSkillRepo) CreateReview(ctx context.Context, review *model.SkillReview) error {
	return nil
}
func (r *fakeSkillRepo) FindReviews(ctx context.Context, listingID uuid.UUID, page dto.PageQuery) ([]model.SkillReview, int64, error) {
	return nil, 0, nil
}
func (r *fakeSkillRepo) FindCategories(ctx context.Context) ([]model.Category, error) {
	return nil, nil
}
func (r *fakeSkillRepo) FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeSkillRepo) CreateCategory(ctx context.Context, category *model.Category) error {
	return nil
}
func (r *fakeSkillRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error { return nil }
func (r *fakeSkillRepo) CountActive(ctx context.Context) (int64, error)         { return 0, nil }
func (r *fakeSkillRepo) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, nil
}

type fakeActivityRepo struct {
	activities []*model.UserActivity
	failing    bool
}

func (r *fakeActivityRepo) Create(ctx context.Context, activity *model.UserActivity) error {
	if r.failing {
		return errors.New("activity insert failed")
	}
	r.activities = append(r.activities, activity)
	return nil
}
func (r *fakeActivityRepo) Find(ctx context.Context, filter dto.ActivityFilter) ([]model.UserActivity, int64, error) {
	return nil, 0, nil
}
func (r *fakeActivityRepo) FindRecent(ctx context.Context, limit int) ([]model.UserActivity, error) {
	return nil, nil
}
func (r *fakeActivityRepo) TopUsers(ctx context.Context, limit int) ([]dto.TopUser, error) {
	return nil, nil
}

type fakeNotifier struct {
	sent []*model.Notification
}

func (n *fakeNotifier) CreateNotification(ctx context.Context, notification *model.Notification) error {
	n.sent = append(n.sent, notification)
	return nil
}
func (n *fakeNotifier) Notify(ctx context.Context, notification *model.Notification) {
	n.sent = append(n.sent, notification)
}
func (n *fakeNotifier) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error) {
	return nil, nil
}
func (n *fakeNotifier) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error  { return nil }
func (n *fakeNotifier) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error   { return nil }
func (n *fakeNotifier) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type swapFixture struct {
	svc       SwapService
	swapRepo  *fakeSwapRepo
	skillRepo *fakeSkillRepo
	notifier  *fakeNotifier
	activity  *fakeActivityRepo
}

func newSwapFixture() *swapFixture {
	swapRepo := newFakeSwapRepo()
	skillRepo := newFakeSkillRepo()
	notifier := &fakeNotifier{}
	activity := &fakeActivityRepo{}
	svc := NewSwapService(swapRepo, skillRepo, activity, notifier, nil, 10*time.Second)
	return &swapFixture{
		svc:       svc,
		swapRepo:  swapRepo,
		skillRepo: skillRepo,
		notifier:  notifier,
		activity:  activity,
	}
}

func createInput(requested, offered *model.SkillListing) dto.CreateSwapRequest {
	return dto.CreateSwapRequest{
		RequestedSkillID:  requested.ID.String(),
		RequestingSkillID: offered.ID.String(),
		Message:           "let's swap",
		ProposedDuration:  5,
	}
}

func TestSwapCreate(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, true)
	offered := f.skillRepo.add(requester, true)

	swap, created, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.SwapPending, swap.Status)
	assert.Equal(t, owner, swap.RequestedUserID)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, model.NotificationSwapRequest, f.notifier.sent[0].Type)
	assert.Equal(t, owner, f.notifier.sent[0].UserID)
}

func TestSwapCreateIdempotent(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, true)
	offered := f.skillRepo.add(requester, true)

	first, created, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// Only the first create notifies the recipient.
	assert.Len(t, f.notifier.sent, 1)
}

func TestSwapCreateIdempotentWithRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	swapRepo := newFakeSwapRepo()
	skillRepo := newFakeSkillRepo()
	svc := NewSwapService(swapRepo, skillRepo, &fakeActivityRepo{}, &fakeNotifier{}, rdb, time.Minute)

	requester := uuid.New()
	owner := uuid.New()
	requested := skillRepo.add(owner, true)
	offered := skillRepo.add(requester, true)

	first, created, err := svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)
	require.True(t, created)

	// Resubmitting inside the rate window returns the existing request
	// instead of tripping the limiter.
	second, created, err := svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// A genuinely new request inside the window is still limited.
	otherOffered := skillRepo.add(requester, true)
	_, _, err = svc.Create(context.Background(), requester, createInput(requested, otherOffered), RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrRateLimitExceeded))
}

func TestSwapCreateActivityFailureLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := zlog.Logger
	zlog.Logger = zerolog.New(&buf)
	defer func() { zlog.Logger = prev }()

	swapRepo := newFakeSwapRepo()
	skillRepo := newFakeSkillRepo()
	svc := NewSwapService(swapRepo, skillRepo, &fakeActivityRepo{failing: true}, &fakeNotifier{}, nil, time.Minute)

	requester := uuid.New()
	owner := uuid.New()
	requested := skillRepo.add(owner, true)
	offered := skillRepo.add(requester, true)

	// A failed audit write never fails the swap itself, but it is logged.
	_, created, err := svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, buf.String(), "failed to record activity")
}

func TestSwapCreateOwnListing(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	requested := f.skillRepo.add(requester, true)
	offered := f.skillRepo.add(requester, true)

	_, _, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
}

func TestSwapCreateWantedListing(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, true)
	requested.SkillType = model.SkillTypeRequest
	offered := f.skillRepo.add(requester, true)

	_, _, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
}

func TestSwapCreateOfferedSkillNotOwned(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, true)
	offered := f.skillRepo.add(uuid.New(), true)

	_, _, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestSwapCreateHiddenListing(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, false)
	offered := f.skillRepo.add(requester, true)

	_, _, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestSwapAccept(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, true)
	offered := f.skillRepo.add(requester, true)

	swap, _, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)

	// The requester cannot accept their own request.
	_, err = f.svc.Accept(context.Background(), requester, swap.ID, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	accepted, err := f.svc.Accept(context.Background(), owner, swap.ID, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.SwapAccepted, accepted.Status)
	assert.NotNil(t, accepted.AcceptedAt)

	// Create + accept notifications.
	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, model.NotificationSwapAccepted, f.notifier.sent[1].Type)
	assert.Equal(t, requester, f.notifier.sent[1].UserID)
}

func TestSwapRejectAfterAccept(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, true)
	offered := f.skillRepo.add(requester, true)

	swap, _, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)

	_, err = f.svc.Accept(context.Background(), owner, swap.ID, RequestMeta{})
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), owner, swap.ID, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestSwapCancelOnlyRequester(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, true)
	offered := f.skillRepo.add(requester, true)

	swap, _, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), owner, swap.ID, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	cancelled, err := f.svc.Cancel(context.Background(), requester, swap.ID, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.SwapCancelled, cancelled.Status)
}

func TestSwapComplete(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, true)
	offered := f.skillRepo.add(requester, true)

	swap, _, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)

	input := dto.CompleteSwapRequest{
		StartDate:      time.Now().AddDate(0, 0, -7),
		EndDate:        time.Now(),
		ActualDuration: 6,
		Notes:          "went well",
	}

	// Pending swaps cannot be completed.
	_, err = f.svc.Complete(context.Background(), requester, swap.ID, input, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	_, err = f.svc.Accept(context.Background(), owner, swap.ID, RequestMeta{})
	require.NoError(t, err)

	completed, err := f.svc.Complete(context.Background(), requester, swap.ID, input, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, model.SwapCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	txn := f.swapRepo.txns[swap.ID]
	require.NotNil(t, txn)
	assert.Equal(t, 6, txn.ActualDuration)

	// Completing twice conflicts.
	_, err = f.svc.Complete(context.Background(), owner, swap.ID, input, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestSwapReview(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, true)
	offered := f.skillRepo.add(requester, true)

	swap, _, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)

	input := dto.CreateSwapReviewRequest{Rating: 5, Comment: "great teacher"}

	// Only completed swaps can be reviewed.
	_, err = f.svc.CreateReview(context.Background(), requester, swap.ID, input, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))

	_, err = f.svc.Accept(context.Background(), owner, swap.ID, RequestMeta{})
	require.NoError(t, err)
	_, err = f.svc.Complete(context.Background(), requester, swap.ID, dto.CompleteSwapRequest{
		StartDate:      time.Now().AddDate(0, 0, -1),
		EndDate:        time.Now(),
		ActualDuration: 2,
	}, RequestMeta{})
	require.NoError(t, err)

	review, err := f.svc.CreateReview(context.Background(), requester, swap.ID, input, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, owner, review.ReviewedUserID)

	// One review per party per swap.
	_, err = f.svc.CreateReview(context.Background(), requester, swap.ID, input, RequestMeta{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	// The counterparty can still review.
	other, err := f.svc.CreateReview(context.Background(), owner, swap.ID, input, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, requester, other.ReviewedUserID)
}

func TestSwapVisibility(t *testing.T) {
	f := newSwapFixture()
	requester := uuid.New()
	owner := uuid.New()
	requested := f.skillRepo.add(owner, true)
	offered := f.skillRepo.add(requester, true)

	swap, _, err := f.svc.Create(context.Background(), requester, createInput(requested, offered), RequestMeta{})
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), uuid.New(), swap.ID, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	got, err := f.svc.Get(context.Background(), uuid.New(), swap.ID, true)
	require.NoError(t, err)
	assert.Equal(t, swap.ID, got.ID)
}
