package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username          string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email             string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash      string    `gorm:"size:255;not null" json:"-"`
	FirstName         string    `gorm:"size:100" json:"first_name"`
	LastName          string    `gorm:"size:100" json:"last_name"`
	Bio               string    `gorm:"size:500" json:"bio"`
	Location          string    `gorm:"size:100" json:"location"`
	Availability      string    `gorm:"size:200" json:"availability"`
	ProfilePictureURL *string   `gorm:"type:text" json:"profile_picture_url,omitempty"`
	IsVerified        bool      `gorm:"default:false" json:"is_verified"`
	IsPrivate         bool      `gorm:"default:false" json:"is_private"`
	IsStaff           bool      `gorm:"default:false" json:"is_staff"`
	IsActive          bool      `gorm:"default:true" json:"is_active"`
	Rating            float64   `gorm:"type:decimal(3,2);default:0" json:"rating"`
	TotalSwaps        int       `gorm:"default:0" json:"total_swaps"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Profile           *Profile  `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID, err = uuid.NewV7()
	}
	return
}

// FullName returns the display name, falling back to email when no name is set.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

type Profile struct {
	UserID      uuid.UUID         `gorm:"type:uuid;primaryKey" json:"user_id"`
	Phone       string            `gorm:"size:20" json:"phone"`
	Website     string            `gorm:"size:200" json:"website"`
	SocialMedia map[string]string `gorm:"serializer:json;type:jsonb" json:"social_media"`
	DateOfBirth *time.Time        `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}
