package service

import (
	"context"
	"encoding/json"
	"fmt"

	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/pkg/apperror"
	"anoa.com/skillexchange/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *model.Notification) error
	// Notify is the best-effort variant used as a side effect of other writes:
	// failures are logged and audited but never returned to the caller.
	Notify(ctx context.Context, notification *model.Notification)
	GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo         repository.NotificationRepository
	activityRepo repository.ActivityRepository
	redisClient  *redis.Client
}

func NewNotificationService(repo repository.NotificationRepository, activityRepo repository.ActivityRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:         repo,
		activityRepo: activityRepo,
		redisClient:  redisClient,
	}
}

// NotificationChannel is the redis pub/sub channel carrying a user's
// notifications to connected websocket clients.
func NotificationChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_notifications:%s", userID.String())
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *model.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	// Publish to Redis if Redis is available
	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err == nil {
			s.redisClient.Publish(ctx, NotificationChannel(notification.UserID), payload)
		}
	}

	return nil
}

func (s *notificationService) Notify(ctx context.Context, notification *model.Notification) {
	if err := s.CreateNotification(ctx, notification); err != nil {
		log := logger.Component("notification")
		log.Error().Err(err).
			Str("user_id", notification.UserID.String()).
			Str("type", string(notification.Type)).
			Msg("notification delivery failed")

		audit := &model.UserActivity{
			UserID:      notification.UserID,
			Type:        model.ActivityNotifyFailed,
			Description: fmt.Sprintf("failed to deliver %s notification: %s", notification.Type, notification.Title),
		}
		if notification.RelatedObjectID != nil {
			audit.RelatedObjectID = notification.RelatedObjectID
			audit.RelatedObjectType = notification.RelatedObjectType
		}
		if auditErr := s.activityRepo.Create(ctx, audit); auditErr != nil {
			log.Error().Err(auditErr).Msg("failed to record notification failure")
		}
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, error) {
	return s.repo.FindByUserID(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperror.NotFound("notification not found")
	}
	if notification.UserID != userID {
		return apperror.NotFound("notification not found")
	}
	return s.repo.MarkAsRead(ctx, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}
