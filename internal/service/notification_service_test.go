package service

import (
	"context"
	"errors"
	"testing"

	"anoa.com/skillexchange/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNotificationRepo struct {
	stored  []*model.Notification
	failing bool
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *model.Notification) error {
	if r.failing {
		return errors.New("insert failed")
	}
	notification.ID = uuid.New()
	r.stored = append(r.stored, notification)
	return nil
}

func (r *fakeNotificationRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range r.stored {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) FindUnreadByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range r.stored {
		if n.UserID == userID && !n.IsRead && len(out) < limit {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	for _, n := range r.stored {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	for _, n := range r.stored {
		if n.ID == id {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	for _, n := range r.stored {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range r.stored {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func TestNotifyPersists(t *testing.T) {
	repo := &fakeNotificationRepo{}
	activity := &fakeActivityRepo{}
	svc := NewNotificationService(repo, activity, nil)

	userID := uuid.New()
	svc.Notify(context.Background(), &model.Notification{
		UserID: userID,
		Type:   model.NotificationSystem,
		Title:  "hello",
	})

	require.Len(t, repo.stored, 1)
	assert.Empty(t, activity.activities)

	count, err := svc.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

// A failed delivery must not surface to the caller; it leaves an audit
// record instead.
func TestNotifyFailureIsAudited(t *testing.T) {
	repo := &fakeNotificationRepo{failing: true}
	activity := &fakeActivityRepo{}
	svc := NewNotificationService(repo, activity, nil)

	userID := uuid.New()
	svc.Notify(context.Background(), &model.Notification{
		UserID: userID,
		Type:   model.NotificationSwapRequest,
		Title:  "New swap request",
	})

	assert.Empty(t, repo.stored)
	require.Len(t, activity.activities, 1)
	assert.Equal(t, model.ActivityNotifyFailed, activity.activities[0].Type)
	assert.Equal(t, userID, activity.activities[0].UserID)
}

func TestMarkAsReadOwnership(t *testing.T) {
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, &fakeActivityRepo{}, nil)

	owner := uuid.New()
	notification := &model.Notification{UserID: owner, Type: model.NotificationSystem, Title: "x"}
	require.NoError(t, svc.CreateNotification(context.Background(), notification))

	// Another user cannot mark it read.
	err := svc.MarkAsRead(context.Background(), uuid.New(), notification.ID)
	require.Error(t, err)

	require.NoError(t, svc.MarkAsRead(context.Background(), owner, notification.ID))
	count, err := svc.UnreadCount(context.Background(), owner)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}
