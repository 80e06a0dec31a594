package service

import (
	"context"
	"errors"
	"io"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/pkg/apperror"
	"anoa.com/skillexchange/pkg/logger"
	"anoa.com/skillexchange/pkg/storage"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

type ProfileService interface {
	GetUser(ctx context.Context, viewerID, targetID uuid.UUID, viewerIsStaff bool) (*model.User, error)
	SearchUsers(ctx context.Context, filter dto.UserFilter, viewerID uuid.UUID) (*dto.PaginatedUserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileRequest, meta RequestMeta) (*model.User, error)
	UploadProfilePicture(ctx context.Context, userID uuid.UUID, r io.Reader, fileName string) (*model.User, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*dto.UserDashboard, error)
}

type profileService struct {
	userRepo     repository.UserRepository
	skillRepo    repository.SkillRepository
	swapRepo     repository.SwapRepository
	convRepo     repository.ConversationRepository
	notifRepo    repository.NotificationRepository
	activityRepo repository.ActivityRepository
	imageStorage storage.ImageStorage
	sanitizer    *bluemonday.Policy
}

func NewProfileService(
	userRepo repository.UserRepository,
	skillRepo repository.SkillRepository,
	swapRepo repository.SwapRepository,
	convRepo repository.ConversationRepository,
	notifRepo repository.NotificationRepository,
	activityRepo repository.ActivityRepository,
	imageStorage storage.ImageStorage,
) ProfileService {
	return &profileService{
		userRepo:     userRepo,
		skillRepo:    skillRepo,
		swapRepo:     swapRepo,
		convRepo:     convRepo,
		notifRepo:    notifRepo,
		activityRepo: activityRepo,
		imageStorage: imageStorage,
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

// GetUser returns a profile. Private or deactivated accounts are reported as
// not found to everyone except the owner and staff, so their existence does
// not leak.
func (s *profileService) GetUser(ctx context.Context, viewerID, targetID uuid.UUID, viewerIsStaff bool) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, err
	}

	if viewerID != targetID && !viewerIsStaff {
		if !user.IsActive || user.IsPrivate {
			return nil, apperror.NotFound("user not found")
		}
	}

	return user, nil
}

func (s *profileService) SearchUsers(ctx context.Context, filter dto.UserFilter, viewerID uuid.UUID) (*dto.PaginatedUserResponse, error) {
	filter.Normalize(20, 100)

	users, total, err := s.userRepo.Search(ctx, filter, viewerID)
	if err != nil {
		return nil, err
	}

	return &dto.PaginatedUserResponse{
		Data: users,
		Meta: dto.NewPaginationMeta(total, filter.Page, filter.Limit),
	}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileRequest, meta RequestMeta) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.NotFound("user not found")
	}

	if input.FirstName != "" {
		user.FirstName = s.sanitizer.Sanitize(input.FirstName)
	}
	if input.LastName != "" {
		user.LastName = s.sanitizer.Sanitize(input.LastName)
	}
	if input.Bio != "" {
		user.Bio = s.sanitizer.Sanitize(input.Bio)
	}
	if input.Location != "" {
		user.Location = s.sanitizer.Sanitize(input.Location)
	}
	if input.Availability != "" {
		user.Availability = s.sanitizer.Sanitize(input.Availability)
	}
	if input.IsPrivate != nil {
		user.IsPrivate = *input.IsPrivate
	}

	profile := user.Profile
	if profile == nil {
		profile = &model.Profile{UserID: user.ID}
	}
	if input.Phone != "" {
		profile.Phone = input.Phone
	}
	if input.Website != "" {
		profile.Website = input.Website
	}
	if input.SocialMedia != nil {
		profile.SocialMedia = input.SocialMedia
	}

	if err := s.userRepo.Update(ctx, user, profile); err != nil {
		return nil, err
	}

	if err := s.activityRepo.Create(ctx, &model.UserActivity{
		UserID:      userID,
		Type:        model.ActivityProfileUpdate,
		Description: "profile updated",
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
	}); err != nil {
		logger.Component("profile").Warn().Err(err).Msg("failed to record activity")
	}

	user.Profile = profile
	return user, nil
}

func (s *profileService) UploadProfilePicture(ctx context.Context, userID uuid.UUID, r io.Reader, fileName string) (*model.User, error) {
	if s.imageStorage == nil {
		return nil, apperror.New(503, "image storage is not configured", apperror.ErrInternal)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.NotFound("user not found")
	}

	url, err := s.imageStorage.UploadImage(ctx, r, "profile_pics", fileName)
	if err != nil {
		return nil, err
	}

	oldURL := user.ProfilePictureURL
	user.ProfilePictureURL = &url
	if err := s.userRepo.Update(ctx, user, nil); err != nil {
		return nil, err
	}

	if oldURL != nil && *oldURL != "" {
		if delErr := s.imageStorage.DeleteImage(ctx, *oldURL); delErr != nil {
			logger.Component("profile").Warn().Err(delErr).Msg("failed to delete previous profile picture")
		}
	}

	return user, nil
}

func (s *profileService) Dashboard(ctx context.Context, userID uuid.UUID) (*dto.UserDashboard, error) {
	page := dto.PageQuery{Page: 1, Limit: 5}

	skills, _, err := s.skillRepo.FindByOwner(ctx, userID, page)
	if err != nil {
		return nil, err
	}

	received, _, err := s.swapRepo.FindForUser(ctx, userID, dto.SwapFilter{
		Role:      "received",
		Status:    string(model.SwapPending),
		PageQuery: page,
	})
	if err != nil {
		return nil, err
	}

	sent, _, err := s.swapRepo.FindForUser(ctx, userID, dto.SwapFilter{
		Role:      "sent",
		PageQuery: page,
	})
	if err != nil {
		return nil, err
	}

	notifications, err := s.notifRepo.FindUnreadByUserID(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	conversations, _, err := s.convRepo.FindForUser(ctx, userID, page)
	if err != nil {
		return nil, err
	}

	return &dto.UserDashboard{
		Skills:              skills,
		ReceivedRequests:    received,
		SentRequests:        sent,
		UnreadNotifications: notifications,
		Conversations:       conversations,
	}, nil
}
