package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateReview is returned when a reviewer already reviewed the target.
var ErrDuplicateReview = errors.New("duplicate review")

type SkillRepository interface {
	Create(ctx context.Context, listing *model.SkillListing) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SkillListing, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID, page dto.PageQuery) ([]model.SkillListing, int64, error)
	Update(ctx context.Context, listing *model.SkillListing) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, filter dto.ListingFilter) ([]model.SkillListing, int64, error)
	AverageRating(ctx context.Context, listingID uuid.UUID) (float64, int64, error)

	CreateReview(ctx context.Context, review *model.SkillReview) error
	FindReviews(ctx context.Context, listingID uuid.UUID, page dto.PageQuery) ([]model.SkillReview, int64, error)

	FindCategories(ctx context.Context) ([]model.Category, error)
	FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CountActive(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

type skillRepository struct {
	db *gorm.DB
}

func NewSkillRepository(db *gorm.DB) SkillRepository {
	return &skillRepository{db: db}
}

func (r *skillRepository) Create(ctx context.Context, listing *model.SkillListing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *skillRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SkillListing, error) {
	var listing model.SkillListing
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Category").
		Where("id = ?", id).
		First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *skillRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, page dto.PageQuery) ([]model.SkillListing, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.SkillListing{}).
		Where("user_id = ?", ownerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listings []model.SkillListing
	if err := query.
		Preload("Category").
		Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

func (r *skillRepository) Update(ctx context.Context, listing *model.SkillListing) error {
	return r.db.WithContext(ctx).Save(listing).Error
}

func (r *skillRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.SkillListing{}, "id = ?", id).Error
}

// Search applies the public visibility rules and every supplied filter
// conjunctively. The free-text query matches title, description, tags and the
// owner's name case-insensitively; the rating filter compares the mean review
// rating against the threshold with a subquery.
func (r *skillRepository) Search(ctx context.Context, filter dto.ListingFilter) ([]model.SkillListing, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.SkillListing{}).
		Joins("JOIN users ON users.id = skill_listings.user_id").
		Where("skill_listings.is_active = ? AND skill_listings.status = ?", true, model.ListingActive).
		Where("users.is_active = ? AND users.is_private = ?", true, false)

	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where(
			"skill_listings.title ILIKE ? OR skill_listings.description ILIKE ? OR skill_listings.tags::text ILIKE ? OR users.first_name ILIKE ? OR users.last_name ILIKE ?",
			like, like, like, like, like,
		)
	}

	if filter.CategoryID != "" {
		query = query.Where("skill_listings.category_id = ?", filter.CategoryID)
	}

	if filter.SkillType != "" {
		query = query.Where("skill_listings.skill_type = ?", filter.SkillType)
	}

	if filter.DifficultyLevel != "" {
		query = query.Where("skill_listings.difficulty_level = ?", filter.DifficultyLevel)
	}

	if filter.MinRating > 0 {
		query = query.Where(
			"(SELECT COALESCE(AVG(rating), 0) FROM skill_reviews WHERE skill_reviews.skill_listing_id = skill_listings.id) >= ?",
			filter.MinRating,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var listings []model.SkillListing
	if err := query.
		Preload("User").
		Preload("Category").
		Order("skill_listings.created_at DESC").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&listings).Error; err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

func (r *skillRepository) AverageRating(ctx context.Context, listingID uuid.UUID) (float64, int64, error) {
	var result struct {
		Avg   float64
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.SkillReview{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("skill_listing_id = ?", listingID).
		Scan(&result).Error
	return result.Avg, result.Count, err
}

// CreateReview inserts a review, enforcing one review per (listing, reviewer)
// inside a single transaction.
func (r *skillRepository) CreateReview(ctx context.Context, review *model.SkillReview) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.SkillReview{}).
			Where("skill_listing_id = ? AND reviewer_id = ?", review.SkillListingID, review.ReviewerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateReview
		}
		return tx.Create(review).Error
	})
}

func (r *skillRepository) FindReviews(ctx context.Context, listingID uuid.UUID, page dto.PageQuery) ([]model.SkillReview, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.SkillReview{}).
		Where("skill_listing_id = ?", listingID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []model.SkillReview
	if err := query.
		Preload("Reviewer").
		Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *skillRepository) FindCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("name").Find(&categories).Error
	return categories, err
}

func (r *skillRepository) FindCategoryByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *skillRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *skillRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Category{}, "id = ?", id).Error
}

func (r *skillRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SkillListing{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

func (r *skillRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SkillListing{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}
