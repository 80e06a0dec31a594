package service

import (
	"context"
	"errors"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/pkg/apperror"
	"anoa.com/skillexchange/pkg/logger"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

type AnnouncementService interface {
	// Create publishes a platform announcement and fans a notification out to
	// every active user. Fan-out is best-effort.
	Create(ctx context.Context, staffID uuid.UUID, input dto.CreateAnnouncementRequest) (*model.Announcement, error)
	List(ctx context.Context, page dto.PageQuery) ([]model.Announcement, dto.PaginationMeta, error)
	// Get returns an active announcement and marks it read for the viewer.
	Get(ctx context.Context, userID, announcementID uuid.UUID) (*model.Announcement, error)
	MarkRead(ctx context.Context, userID, announcementID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type announcementService struct {
	repo          repository.AnnouncementRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	sanitizer     *bluemonday.Policy
}

func NewAnnouncementService(
	repo repository.AnnouncementRepository,
	userRepo repository.UserRepository,
	notifications NotificationService,
) AnnouncementService {
	return &announcementService{
		repo:          repo,
		userRepo:      userRepo,
		notifications: notifications,
		sanitizer:     bluemonday.UGCPolicy(),
	}
}

func (s *announcementService) Create(ctx context.Context, staffID uuid.UUID, input dto.CreateAnnouncementRequest) (*model.Announcement, error) {
	kind := model.AnnouncementPlatform
	if input.Type != "" {
		kind = model.AnnouncementType(input.Type)
	}

	announcement := &model.Announcement{
		Title:       s.sanitizer.Sanitize(input.Title),
		Content:     s.sanitizer.Sanitize(input.Content),
		Type:        kind,
		IsActive:    true,
		CreatedByID: &staffID,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, err
	}

	s.fanOut(ctx, announcement)

	return announcement, nil
}

func (s *announcementService) fanOut(ctx context.Context, announcement *model.Announcement) {
	userIDs, err := s.userRepo.FindActiveIDs(ctx)
	if err != nil {
		logger.Component("announcement").Error().Err(err).Msg("failed to list recipients for announcement fan-out")
		return
	}

	for _, userID := range userIDs {
		s.notifications.Notify(ctx, &model.Notification{
			UserID:            userID,
			Type:              model.NotificationAnnouncement,
			Title:             announcement.Title,
			Message:           truncate(announcement.Content, 200),
			RelatedObjectID:   &announcement.ID,
			RelatedObjectType: "announcement",
		})
	}
}

func (s *announcementService) List(ctx context.Context, page dto.PageQuery) ([]model.Announcement, dto.PaginationMeta, error) {
	page.Normalize(20, 100)
	announcements, total, err := s.repo.FindActive(ctx, page)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}
	return announcements, dto.NewPaginationMeta(total, page.Page, page.Limit), nil
}

func (s *announcementService) Get(ctx context.Context, userID, announcementID uuid.UUID) (*model.Announcement, error) {
	announcement, err := s.repo.FindByID(ctx, announcementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("announcement not found")
		}
		return nil, err
	}

	if err := s.repo.MarkRead(ctx, userID, announcementID); err != nil {
		return nil, err
	}

	return announcement, nil
}

func (s *announcementService) MarkRead(ctx context.Context, userID, announcementID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, announcementID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("announcement not found")
		}
		return err
	}
	return s.repo.MarkRead(ctx, userID, announcementID)
}

func (s *announcementService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}
