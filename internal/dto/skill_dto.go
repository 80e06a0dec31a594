package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateListingRequest struct {
	CategoryID      string   `json:"category_id" binding:"required,uuid"`
	Title           string   `json:"title" binding:"required,max=200"`
	Description     string   `json:"description" binding:"required"`
	SkillType       string   `json:"skill_type" binding:"required,oneof=offer request"`
	DifficultyLevel string   `json:"difficulty_level" binding:"required,oneof=beginner intermediate advanced expert"`
	Tags            []string `json:"tags" binding:"max=10,dive,max=50"`
}

type UpdateListingRequest struct {
	CategoryID      string   `json:"category_id" binding:"omitempty,uuid"`
	Title           string   `json:"title" binding:"omitempty,max=200"`
	Description     string   `json:"description"`
	DifficultyLevel string   `json:"difficulty_level" binding:"omitempty,oneof=beginner intermediate advanced expert"`
	Tags            []string `json:"tags" binding:"omitempty,max=10,dive,max=50"`
}

// ListingFilter carries the public search filters; absent fields are skipped
// and present ones compose with AND.
type ListingFilter struct {
	Query           string  `form:"q"`
	CategoryID      string  `form:"category_id"`
	SkillType       string  `form:"skill_type" binding:"omitempty,oneof=offer request"`
	DifficultyLevel string  `form:"difficulty_level" binding:"omitempty,oneof=beginner intermediate advanced expert"`
	MinRating       float64 `form:"min_rating" binding:"omitempty,gte=0,lte=5"`
	PageQuery
}

type ListingResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	SkillType       string    `json:"skill_type"`
	DifficultyLevel string    `json:"difficulty_level"`
	Tags            []string  `json:"tags"`
	CategoryName    string    `json:"category_name"`
	OwnerID         uuid.UUID `json:"owner_id"`
	OwnerName       string    `json:"owner_name"`
	AverageRating   float64   `json:"average_rating"`
	ReviewCount     int64     `json:"review_count"`
	IsActive        bool      `json:"is_active"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

type PaginatedListingResponse struct {
	Data []ListingResponse `json:"data"`
	Meta PaginationMeta    `json:"meta"`
}

type CreateSkillReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment string `json:"comment" binding:"required"`
}
