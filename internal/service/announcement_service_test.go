package service

import (
	"context"
	"testing"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeAnnouncementRepo struct {
	announcements map[uuid.UUID]*model.Announcement
	reads         map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeAnnouncementRepo() *fakeAnnouncementRepo {
	return &fakeAnnouncementRepo{
		announcements: make(map[uuid.UUID]*model.Announcement),
		reads:         make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (r *fakeAnnouncementRepo) Create(ctx context.Context, announcement *model.Announcement) error {
	announcement.ID = uuid.New()
	r.announcements[announcement.ID] = announcement
	return nil
}

func (r *fakeAnnouncementRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	announcement, ok := r.announcements[id]
	if !ok || !announcement.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return announcement, nil
}

func (r *fakeAnnouncementRepo) FindActive(ctx context.Context, page dto.PageQuery) ([]model.Announcement, int64, error) {
	var out []model.Announcement
	for _, announcement := range r.announcements {
		if announcement.IsActive {
			out = append(out, *announcement)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAnnouncementRepo) MarkRead(ctx context.Context, userID, announcementID uuid.UUID) error {
	if r.reads[userID] == nil {
		r.reads[userID] = make(map[uuid.UUID]bool)
	}
	r.reads[userID][announcementID] = true
	return nil
}

func (r *fakeAnnouncementRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for id, announcement := range r.announcements {
		if announcement.IsActive && !r.reads[userID][id] {
			count++
		}
	}
	return count, nil
}

func TestAnnouncementFanOut(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	users := newFakeUserRepo()
	notifier := &fakeNotifier{}
	svc := NewAnnouncementService(repo, users, notifier)

	staff := &model.User{ID: uuid.New(), IsActive: true, IsStaff: true}
	users.users[staff.ID] = staff
	for i := 0; i < 3; i++ {
		id := uuid.New()
		users.users[id] = &model.User{ID: id, IsActive: true}
	}
	inactive := uuid.New()
	users.users[inactive] = &model.User{ID: inactive, IsActive: false}

	announcement, err := svc.Create(context.Background(), staff.ID, dto.CreateAnnouncementRequest{
		Title:   "Scheduled maintenance",
		Content: "The platform will be down briefly.",
		Type:    "maintenance",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AnnouncementMaintenance, announcement.Type)
	assert.NotNil(t, announcement.CreatedByID)

	// Every active user gets a notification; the deactivated one does not.
	assert.Len(t, notifier.sent, 4)
	for _, n := range notifier.sent {
		assert.Equal(t, model.NotificationAnnouncement, n.Type)
		assert.NotEqual(t, inactive, n.UserID)
	}
}

func TestAnnouncementReadTracking(t *testing.T) {
	repo := newFakeAnnouncementRepo()
	users := newFakeUserRepo()
	svc := NewAnnouncementService(repo, users, &fakeNotifier{})

	staff := &model.User{ID: uuid.New(), IsActive: true, IsStaff: true}
	users.users[staff.ID] = staff

	announcement, err := svc.Create(context.Background(), staff.ID, dto.CreateAnnouncementRequest{
		Title:   "Welcome",
		Content: "New features shipped.",
	})
	require.NoError(t, err)

	reader := uuid.New()
	count, err := svc.UnreadCount(context.Background(), reader)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Viewing marks it read; repeating is a no-op.
	_, err = svc.Get(context.Background(), reader, announcement.ID)
	require.NoError(t, err)
	require.NoError(t, svc.MarkRead(context.Background(), reader, announcement.ID))

	count, err = svc.UnreadCount(context.Background(), reader)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
