package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:50" json:"icon"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

type SkillType string

const (
	SkillTypeOffer   SkillType = "offer"
	SkillTypeRequest SkillType = "request"
)

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
	DifficultyExpert       DifficultyLevel = "expert"
)

type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingInactive ListingStatus = "inactive"
	ListingPending  ListingStatus = "pending"
)

type SkillListing struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User            User            `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CategoryID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"category_id"`
	Category        Category        `gorm:"constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Title           string          `gorm:"size:200;not null" json:"title"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	SkillType       SkillType       `gorm:"type:varchar(10);not null" json:"skill_type"`
	DifficultyLevel DifficultyLevel `gorm:"type:varchar(20);not null" json:"difficulty_level"`
	Tags            []string        `gorm:"serializer:json;type:jsonb" json:"tags"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	Status          ListingStatus   `gorm:"type:varchar(20);default:'active'" json:"status"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Reviews         []SkillReview   `gorm:"foreignKey:SkillListingID" json:"reviews,omitempty"`
}

func (l *SkillListing) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}

// Visible reports whether the listing shows up in public search results.
func (l *SkillListing) Visible() bool {
	return l.IsActive && l.Status == ListingActive
}

type SkillReview struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SkillListingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_listing_reviewer" json:"skill_listing_id"`
	ReviewerID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_listing_reviewer" json:"reviewer_id"`
	Reviewer       User      `gorm:"foreignKey:ReviewerID;constraint:OnDelete:CASCADE" json:"reviewer,omitempty"`
	Rating         int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment        string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *SkillReview) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
