package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationSwapRequest  NotificationType = "swap_request"
	NotificationSwapAccepted NotificationType = "swap_accepted"
	NotificationSwapRejected NotificationType = "swap_rejected"
	NotificationMessage      NotificationType = "message"
	NotificationAnnouncement NotificationType = "announcement"
	NotificationReview       NotificationType = "review"
	NotificationSystem       NotificationType = "system"
)

// Notification is always created as a side effect of another write
// (swap transition, message, review, announcement), never by a user directly.
type Notification struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type              NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title             string           `gorm:"size:200;not null" json:"title"`
	Message           string           `gorm:"type:text" json:"message"`
	IsRead            bool             `gorm:"default:false" json:"is_read"`
	RelatedObjectID   *uuid.UUID       `gorm:"type:uuid" json:"related_object_id,omitempty"`
	RelatedObjectType string           `gorm:"size:50" json:"related_object_type"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}
