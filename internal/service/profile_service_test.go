package service

import (
	"context"
	"testing"

	"anoa.com/skillexchange/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardUnreadNotificationsOnly(t *testing.T) {
	users := newFakeUserRepo()
	notifRepo := &fakeNotificationRepo{}
	svc := NewProfileService(users, newFakeSkillRepo(), newFakeSwapRepo(), newFakeConversationRepo(), notifRepo, &fakeActivityRepo{}, nil)

	userID := uuid.New()
	users.users[userID] = &model.User{ID: userID, IsActive: true}

	unread := &model.Notification{UserID: userID, Type: model.NotificationSystem, Title: "pending"}
	require.NoError(t, notifRepo.Create(context.Background(), unread))
	read := &model.Notification{UserID: userID, Type: model.NotificationSystem, Title: "seen"}
	require.NoError(t, notifRepo.Create(context.Background(), read))
	require.NoError(t, notifRepo.MarkAsRead(context.Background(), read.ID))

	dashboard, err := svc.Dashboard(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, dashboard.UnreadNotifications, 1)
	assert.Equal(t, unread.ID, dashboard.UnreadNotifications[0].ID)
}
