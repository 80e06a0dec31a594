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

type SkillService interface {
	CreateListing(ctx context.Context, userID uuid.UUID, input dto.CreateListingRequest, meta RequestMeta) (*model.SkillListing, error)
	UpdateListing(ctx context.Context, userID, listingID uuid.UUID, input dto.UpdateListingRequest, meta RequestMeta) (*model.SkillListing, error)
	DeleteListing(ctx context.Context, userID, listingID uuid.UUID, isStaff bool, meta RequestMeta) error
	// ToggleListing flips the owner's listing between active and hidden.
	// Hidden listings drop out of public search and the search index.
	ToggleListing(ctx context.Context, userID, listingID uuid.UUID, meta RequestMeta) (*model.SkillListing, error)
	GetListing(ctx context.Context, viewerID, listingID uuid.UUID, viewerIsStaff bool) (*dto.ListingResponse, error)
	Search(ctx context.Context, filter dto.ListingFilter) (*dto.PaginatedListingResponse, error)
	MyListings(ctx context.Context, userID uuid.UUID, page dto.PageQuery) ([]model.SkillListing, dto.PaginationMeta, error)

	CreateReview(ctx context.Context, reviewerID, listingID uuid.UUID, input dto.CreateSkillReviewRequest, meta RequestMeta) (*model.SkillReview, error)
	GetReviews(ctx context.Context, listingID uuid.UUID, page dto.PageQuery) ([]model.SkillReview, dto.PaginationMeta, error)

	GetCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type skillService struct {
	repo          repository.SkillRepository
	activityRepo  repository.ActivityRepository
	notifications NotificationService
	search        MeiliSearchService
	sanitizer     *bluemonday.Policy
}

func NewSkillService(
	repo repository.SkillRepository,
	activityRepo repository.ActivityRepository,
	notifications NotificationService,
	search MeiliSearchService,
) SkillService {
	return &skillService{
		repo:          repo,
		activityRepo:  activityRepo,
		notifications: notifications,
		search:        search,
		sanitizer:     bluemonday.StrictPolicy(),
	}
}

func (s *skillService) CreateListing(ctx context.Context, userID uuid.UUID, input dto.CreateListingRequest, meta RequestMeta) (*model.SkillListing, error) {
	categoryID, err := uuid.Parse(input.CategoryID)
	if err != nil {
		return nil, apperror.Invalid("invalid category id")
	}
	if _, err := s.repo.FindCategoryByID(ctx, categoryID); err != nil {
		return nil, apperror.NotFound("category not found")
	}

	listing := &model.SkillListing{
		UserID:          userID,
		CategoryID:      categoryID,
		Title:           s.sanitizer.Sanitize(input.Title),
		Description:     s.sanitizer.Sanitize(input.Description),
		SkillType:       model.SkillType(input.SkillType),
		DifficultyLevel: model.DifficultyLevel(input.DifficultyLevel),
		Tags:            sanitizeTags(s.sanitizer, input.Tags),
		IsActive:        true,
		Status:          model.ListingActive,
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, err
	}

	s.indexListing(listing)
	s.recordActivity(ctx, userID, model.ActivitySkillCreate, "listing created: "+listing.Title, listing.ID, meta)

	return listing, nil
}

func (s *skillService) UpdateListing(ctx context.Context, userID, listingID uuid.UUID, input dto.UpdateListingRequest, meta RequestMeta) (*model.SkillListing, error) {
	listing, err := s.findOwned(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != "" {
		categoryID, err := uuid.Parse(input.CategoryID)
		if err != nil {
			return nil, apperror.Invalid("invalid category id")
		}
		if _, err := s.repo.FindCategoryByID(ctx, categoryID); err != nil {
			return nil, apperror.NotFound("category not found")
		}
		listing.CategoryID = categoryID
	}
	if input.Title != "" {
		listing.Title = s.sanitizer.Sanitize(input.Title)
	}
	if input.Description != "" {
		listing.Description = s.sanitizer.Sanitize(input.Description)
	}
	if input.DifficultyLevel != "" {
		listing.DifficultyLevel = model.DifficultyLevel(input.DifficultyLevel)
	}
	if input.Tags != nil {
		listing.Tags = sanitizeTags(s.sanitizer, input.Tags)
	}

	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, err
	}

	s.indexListing(listing)
	s.recordActivity(ctx, userID, model.ActivitySkillEdit, "listing updated: "+listing.Title, listing.ID, meta)

	return listing, nil
}

func (s *skillService) ToggleListing(ctx context.Context, userID, listingID uuid.UUID, meta RequestMeta) (*model.SkillListing, error) {
	listing, err := s.findOwned(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}

	if listing.Visible() {
		listing.IsActive = false
		listing.Status = model.ListingInactive
	} else {
		listing.IsActive = true
		listing.Status = model.ListingActive
	}

	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, err
	}

	s.indexListing(listing)

	description := "listing hidden: " + listing.Title
	if listing.IsActive {
		description = "listing reactivated: " + listing.Title
	}
	s.recordActivity(ctx, userID, model.ActivitySkillEdit, description, listing.ID, meta)

	return listing, nil
}

func (s *skillService) DeleteListing(ctx context.Context, userID, listingID uuid.UUID, isStaff bool, meta RequestMeta) error {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("listing not found")
		}
		return err
	}
	if listing.UserID != userID && !isStaff {
		return apperror.Forbidden("you do not own this listing")
	}

	if err := s.repo.Delete(ctx, listingID); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.DeleteListing(listingID.String()); err != nil {
			logger.Component("skill").Warn().Err(err).Str("listing_id", listingID.String()).Msg("failed to remove listing from search index")
		}
	}
	s.recordActivity(ctx, userID, model.ActivitySkillDelete, "listing deleted: "+listing.Title, listingID, meta)

	return nil
}

// GetListing resolves a single listing. Hidden listings are reported as not
// found to everyone except the owner and staff.
func (s *skillService) GetListing(ctx context.Context, viewerID, listingID uuid.UUID, viewerIsStaff bool) (*dto.ListingResponse, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("listing not found")
		}
		return nil, err
	}

	hidden := !listing.Visible() || !listing.User.IsActive || listing.User.IsPrivate
	if hidden && listing.UserID != viewerID && !viewerIsStaff {
		return nil, apperror.NotFound("listing not found")
	}

	resp, err := s.toResponse(ctx, listing)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *skillService) Search(ctx context.Context, filter dto.ListingFilter) (*dto.PaginatedListingResponse, error) {
	filter.Normalize(20, 100)

	listings, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ListingResponse, 0, len(listings))
	for i := range listings {
		resp, err := s.toResponse(ctx, &listings[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}

	return &dto.PaginatedListingResponse{
		Data: out,
		Meta: dto.NewPaginationMeta(total, filter.Page, filter.Limit),
	}, nil
}

func (s *skillService) MyListings(ctx context.Context, userID uuid.UUID, page dto.PageQuery) ([]model.SkillListing, dto.PaginationMeta, error) {
	page.Normalize(20, 100)
	listings, total, err := s.repo.FindByOwner(ctx, userID, page)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}
	return listings, dto.NewPaginationMeta(total, page.Page, page.Limit), nil
}

func (s *skillService) CreateReview(ctx context.Context, reviewerID, listingID uuid.UUID, input dto.CreateSkillReviewRequest, meta RequestMeta) (*model.SkillReview, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("listing not found")
		}
		return nil, err
	}
	if listing.UserID == reviewerID {
		return nil, apperror.Forbidden("you cannot review your own listing")
	}

	review := &model.SkillReview{
		SkillListingID: listingID,
		ReviewerID:     reviewerID,
		Rating:         input.Rating,
		Comment:        s.sanitizer.Sanitize(input.Comment),
	}

	if err := s.repo.CreateReview(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperror.Conflict("you have already reviewed this listing")
		}
		return nil, err
	}

	s.notifications.Notify(ctx, &model.Notification{
		UserID:            listing.UserID,
		Type:              model.NotificationReview,
		Title:             "New review on your listing",
		Message:           "Your listing \"" + listing.Title + "\" received a new review.",
		RelatedObjectID:   &listingID,
		RelatedObjectType: "skill_listing",
	})
	s.recordActivity(ctx, reviewerID, model.ActivityReviewPosted, "reviewed listing: "+listing.Title, listingID, meta)

	return review, nil
}

func (s *skillService) GetReviews(ctx context.Context, listingID uuid.UUID, page dto.PageQuery) ([]model.SkillReview, dto.PaginationMeta, error) {
	page.Normalize(20, 100)
	reviews, total, err := s.repo.FindReviews(ctx, listingID, page)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}
	return reviews, dto.NewPaginationMeta(total, page.Page, page.Limit), nil
}

func (s *skillService) GetCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.FindCategories(ctx)
}

func (s *skillService) CreateCategory(ctx context.Context, category *model.Category) error {
	return s.repo.CreateCategory(ctx, category)
}

func (s *skillService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *skillService) findOwned(ctx context.Context, userID, listingID uuid.UUID) (*model.SkillListing, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("listing not found")
		}
		return nil, err
	}
	if listing.UserID != userID {
		return nil, apperror.Forbidden("you do not own this listing")
	}
	return listing, nil
}

func (s *skillService) toResponse(ctx context.Context, listing *model.SkillListing) (*dto.ListingResponse, error) {
	avg, count, err := s.repo.AverageRating(ctx, listing.ID)
	if err != nil {
		return nil, err
	}

	return &dto.ListingResponse{
		ID:              listing.ID,
		Title:           listing.Title,
		Description:     listing.Description,
		SkillType:       string(listing.SkillType),
		DifficultyLevel: string(listing.DifficultyLevel),
		Tags:            listing.Tags,
		CategoryName:    listing.Category.Name,
		OwnerID:         listing.UserID,
		OwnerName:       listing.User.FullName(),
		AverageRating:   avg,
		ReviewCount:     count,
		IsActive:        listing.IsActive,
		Status:          string(listing.Status),
		CreatedAt:       listing.CreatedAt,
	}, nil
}

func (s *skillService) indexListing(listing *model.SkillListing) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexListing(listing); err != nil {
		logger.Component("skill").Warn().Err(err).Str("listing_id", listing.ID.String()).Msg("failed to index listing")
	}
}

func (s *skillService) recordActivity(ctx context.Context, userID uuid.UUID, kind model.ActivityType, description string, objectID uuid.UUID, meta RequestMeta) {
	if err := s.activityRepo.Create(ctx, &model.UserActivity{
		UserID:            userID,
		Type:              kind,
		Description:       description,
		IPAddress:         meta.IPAddress,
		UserAgent:         meta.UserAgent,
		RelatedObjectID:   &objectID,
		RelatedObjectType: "skill_listing",
	}); err != nil {
		logger.Component("skill").Warn().Err(err).Msg("failed to record activity")
	}
}

func sanitizeTags(p *bluemonday.Policy, tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if clean := p.Sanitize(t); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
