package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/pkg/apperror"
	"anoa.com/skillexchange/pkg/logger"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type SwapService interface {
	// Create files a swap request. Repeating the same pending request returns
	// the existing one instead of a duplicate.
	Create(ctx context.Context, requesterID uuid.UUID, input dto.CreateSwapRequest, meta RequestMeta) (*model.SwapRequest, bool, error)
	Get(ctx context.Context, userID, swapID uuid.UUID, isStaff bool) (*model.SwapRequest, error)
	List(ctx context.Context, userID uuid.UUID, filter dto.SwapFilter) ([]model.SwapRequest, dto.PaginationMeta, error)
	Accept(ctx context.Context, userID, swapID uuid.UUID, meta RequestMeta) (*model.SwapRequest, error)
	Reject(ctx context.Context, userID, swapID uuid.UUID, meta RequestMeta) (*model.SwapRequest, error)
	Cancel(ctx context.Context, userID, swapID uuid.UUID, meta RequestMeta) (*model.SwapRequest, error)
	Complete(ctx context.Context, userID, swapID uuid.UUID, input dto.CompleteSwapRequest, meta RequestMeta) (*model.SwapRequest, error)
	CreateReview(ctx context.Context, reviewerID, swapID uuid.UUID, input dto.CreateSwapReviewRequest, meta RequestMeta) (*model.SwapReview, error)
}

type swapService struct {
	repo          repository.SwapRepository
	skillRepo     repository.SkillRepository
	activityRepo  repository.ActivityRepository
	notifications NotificationService
	redisClient   *redis.Client
	rateWindow    time.Duration
	sanitizer     *bluemonday.Policy
}

func NewSwapService(
	repo repository.SwapRepository,
	skillRepo repository.SkillRepository,
	activityRepo repository.ActivityRepository,
	notifications NotificationService,
	redisClient *redis.Client,
	rateWindow time.Duration,
) SwapService {
	return &swapService{
		repo:          repo,
		skillRepo:     skillRepo,
		activityRepo:  activityRepo,
		notifications: notifications,
		redisClient:   redisClient,
		rateWindow:    rateWindow,
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

func (s *swapService) Create(ctx context.Context, requesterID uuid.UUID, input dto.CreateSwapRequest, meta RequestMeta) (*model.SwapRequest, bool, error) {
	requestedSkillID, err := uuid.Parse(input.RequestedSkillID)
	if err != nil {
		return nil, false, apperror.Invalid("invalid requested skill id")
	}
	requestingSkillID, err := uuid.Parse(input.RequestingSkillID)
	if err != nil {
		return nil, false, apperror.Invalid("invalid requesting skill id")
	}

	requestedSkill, err := s.skillRepo.FindByID(ctx, requestedSkillID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperror.NotFound("requested skill not found")
		}
		return nil, false, err
	}
	if !requestedSkill.Visible() || !requestedSkill.User.IsActive {
		return nil, false, apperror.NotFound("requested skill not found")
	}
	if requestedSkill.UserID == requesterID {
		return nil, false, apperror.Invalid("you cannot request a swap on your own listing")
	}
	if requestedSkill.SkillType != model.SkillTypeOffer {
		return nil, false, apperror.Invalid("swaps can only be requested on offered skills")
	}

	requestingSkill, err := s.skillRepo.FindByID(ctx, requestingSkillID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperror.NotFound("offered skill not found")
		}
		return nil, false, err
	}
	if requestingSkill.UserID != requesterID {
		return nil, false, apperror.Forbidden("the offered skill must be one of your own listings")
	}
	if !requestingSkill.Visible() {
		return nil, false, apperror.Invalid("the offered skill is not active")
	}

	// Resubmitting an identical request returns the existing one and must
	// not consume the rate-limit slot.
	if existing, err := s.repo.FindPending(ctx, requesterID, requestingSkillID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, requesterID, "swap_create", s.rateWindow)
	if err != nil {
		return nil, false, err
	}
	if !allowed {
		return nil, false, apperror.New(429, "you are sending swap requests too quickly", apperror.ErrRateLimitExceeded)
	}

	swap := &model.SwapRequest{
		RequestingUserID:  requesterID,
		RequestedUserID:   requestedSkill.UserID,
		RequestingSkillID: requestingSkillID,
		RequestedSkillID:  requestedSkillID,
		Message:           s.sanitizer.Sanitize(input.Message),
		ProposedDuration:  input.ProposedDuration,
		Status:            model.SwapPending,
	}

	created, result, err := s.repo.CreateIdempotent(ctx, swap)
	if err != nil {
		return nil, false, err
	}
	if !created {
		return result, false, nil
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:            result.RequestedUserID,
		Type:              model.NotificationSwapRequest,
		Title:             "New swap request",
		Message:           fmt.Sprintf("You received a swap request for \"%s\".", requestedSkill.Title),
		RelatedObjectID:   &result.ID,
		RelatedObjectType: "swap_request",
	})
	s.recordActivity(ctx, requesterID, model.ActivitySwapRequest, "swap requested for: "+requestedSkill.Title, result.ID, meta)

	return result, true, nil
}

func (s *swapService) Get(ctx context.Context, userID, swapID uuid.UUID, isStaff bool) (*model.SwapRequest, error) {
	swap, err := s.findVisible(ctx, userID, swapID, isStaff)
	if err != nil {
		return nil, err
	}
	return swap, nil
}

func (s *swapService) List(ctx context.Context, userID uuid.UUID, filter dto.SwapFilter) ([]model.SwapRequest, dto.PaginationMeta, error) {
	filter.Normalize(20, 100)
	swaps, total, err := s.repo.FindForUser(ctx, userID, filter)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}
	return swaps, dto.NewPaginationMeta(total, filter.Page, filter.Limit), nil
}

// Accept moves a pending request to accepted. Only the recipient may accept.
func (s *swapService) Accept(ctx context.Context, userID, swapID uuid.UUID, meta RequestMeta) (*model.SwapRequest, error) {
	swap, err := s.findVisible(ctx, userID, swapID, false)
	if err != nil {
		return nil, err
	}
	if swap.RequestedUserID != userID {
		return nil, apperror.Forbidden("only the recipient can accept a swap request")
	}

	if err := s.transition(ctx, swap, model.SwapPending, model.SwapAccepted); err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:            swap.RequestingUserID,
		Type:              model.NotificationSwapAccepted,
		Title:             "Swap request accepted",
		Message:           "Your swap request was accepted.",
		RelatedObjectID:   &swap.ID,
		RelatedObjectType: "swap_request",
	})
	s.recordActivity(ctx, userID, model.ActivitySwapAccept, "swap accepted", swap.ID, meta)

	return s.repo.FindByID(ctx, swapID)
}

// Reject moves a pending request to rejected. Only the recipient may reject.
func (s *swapService) Reject(ctx context.Context, userID, swapID uuid.UUID, meta RequestMeta) (*model.SwapRequest, error) {
	swap, err := s.findVisible(ctx, userID, swapID, false)
	if err != nil {
		return nil, err
	}
	if swap.RequestedUserID != userID {
		return nil, apperror.Forbidden("only the recipient can reject a swap request")
	}

	if err := s.transition(ctx, swap, model.SwapPending, model.SwapRejected); err != nil {
		return nil, err
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:            swap.RequestingUserID,
		Type:              model.NotificationSwapRejected,
		Title:             "Swap request declined",
		Message:           "Your swap request was declined.",
		RelatedObjectID:   &swap.ID,
		RelatedObjectType: "swap_request",
	})
	s.recordActivity(ctx, userID, model.ActivitySwapReject, "swap rejected", swap.ID, meta)

	return s.repo.FindByID(ctx, swapID)
}

// Cancel withdraws a pending request. Only the requester may cancel.
func (s *swapService) Cancel(ctx context.Context, userID, swapID uuid.UUID, meta RequestMeta) (*model.SwapRequest, error) {
	swap, err := s.findVisible(ctx, userID, swapID, false)
	if err != nil {
		return nil, err
	}
	if swap.RequestingUserID != userID {
		return nil, apperror.Forbidden("only the requester can cancel a swap request")
	}

	if err := s.transition(ctx, swap, model.SwapPending, model.SwapCancelled); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, userID, model.ActivitySwapCancel, "swap cancelled", swap.ID, meta)

	return s.repo.FindByID(ctx, swapID)
}

// Complete marks an accepted swap as done: it records the transaction and
// bumps both users' swap counters in one database transaction. Either party
// may complete.
func (s *swapService) Complete(ctx context.Context, userID, swapID uuid.UUID, input dto.CompleteSwapRequest, meta RequestMeta) (*model.SwapRequest, error) {
	swap, err := s.findVisible(ctx, userID, swapID, false)
	if err != nil {
		return nil, err
	}

	if !swap.Status.CanTransition(model.SwapCompleted) {
		return nil, apperror.Conflict(fmt.Sprintf("a %s swap cannot be completed", swap.Status))
	}

	txn := &model.SwapTransaction{
		SwapRequestID:  swap.ID,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		ActualDuration: input.ActualDuration,
		Notes:          s.sanitizer.Sanitize(input.Notes),
	}

	if err := s.repo.Complete(ctx, swap, txn); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperror.Conflict("swap was already completed or is no longer accepted")
		}
		return nil, err
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:            swap.OtherParty(userID),
		Type:              model.NotificationSystem,
		Title:             "Swap completed",
		Message:           "Your swap was marked as completed.",
		RelatedObjectID:   &swap.ID,
		RelatedObjectType: "swap_request",
	})
	s.recordActivity(ctx, userID, model.ActivitySwapComplete, "swap completed", swap.ID, meta)

	return s.repo.FindByID(ctx, swapID)
}

// CreateReview lets each party review the other once per completed swap.
func (s *swapService) CreateReview(ctx context.Context, reviewerID, swapID uuid.UUID, input dto.CreateSwapReviewRequest, meta RequestMeta) (*model.SwapReview, error) {
	swap, err := s.findVisible(ctx, reviewerID, swapID, false)
	if err != nil {
		return nil, err
	}
	if swap.Status != model.SwapCompleted {
		return nil, apperror.Invalid("only completed swaps can be reviewed")
	}

	review := &model.SwapReview{
		SwapRequestID:  swapID,
		ReviewerID:     reviewerID,
		ReviewedUserID: swap.OtherParty(reviewerID),
		Rating:         input.Rating,
		Comment:        s.sanitizer.Sanitize(input.Comment),
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperror.Conflict("you have already reviewed this swap")
		}
		return nil, err
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:            review.ReviewedUserID,
		Type:              model.NotificationReview,
		Title:             "New review",
		Message:           "You received a review for a completed swap.",
		RelatedObjectID:   &swapID,
		RelatedObjectType: "swap_request",
	})
	s.recordActivity(ctx, reviewerID, model.ActivityReviewPosted, "swap review posted", swapID, meta)

	return review, nil
}

// findVisible loads a swap and hides it from everyone but its two parties
// and staff.
func (s *swapService) findVisible(ctx context.Context, userID, swapID uuid.UUID, isStaff bool) (*model.SwapRequest, error) {
	swap, err := s.repo.FindByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("swap request not found")
		}
		return nil, err
	}
	if !swap.Involves(userID) && !isStaff {
		return nil, apperror.NotFound("swap request not found")
	}
	return swap, nil
}

func (s *swapService) transition(ctx context.Context, swap *model.SwapRequest, from, to model.SwapStatus) error {
	if !swap.Status.CanTransition(to) {
		return apperror.Conflict(fmt.Sprintf("a %s swap cannot become %s", swap.Status, to))
	}
	if err := s.repo.Transition(ctx, swap.ID, from, to); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return apperror.Conflict("swap status changed concurrently, reload and retry")
		}
		return err
	}
	swap.Status = to
	return nil
}

func (s *swapService) recordActivity(ctx context.Context, userID uuid.UUID, kind model.ActivityType, description string, objectID uuid.UUID, meta RequestMeta) {
	if err := s.activityRepo.Create(ctx, &model.UserActivity{
		UserID:            userID,
		Type:              kind,
		Description:       description,
		IPAddress:         meta.IPAddress,
		UserAgent:         meta.UserAgent,
		RelatedObjectID:   &objectID,
		RelatedObjectType: "swap_request",
	}); err != nil {
		logger.Component("swap").Warn().Err(err).Msg("failed to record activity")
	}
}
