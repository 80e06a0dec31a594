package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Conversation struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Participants []User    `gorm:"many2many:conversation_participants;" json:"participants,omitempty"`
	Messages     []Message `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

// HasParticipant reports whether the user belongs to the conversation.
// Participants must be preloaded.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterparty in a two-person conversation.
func (c *Conversation) OtherParticipant(userID uuid.UUID) *User {
	for i := range c.Participants {
		if c.Participants[i].ID != userID {
			return &c.Participants[i]
		}
	}
	return nil
}

type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Sender         User      `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"default:false" json:"is_read"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

type AnnouncementType string

const (
	AnnouncementGeneral     AnnouncementType = "general"
	AnnouncementPlatform    AnnouncementType = "announcement"
	AnnouncementUpdate      AnnouncementType = "update"
	AnnouncementMaintenance AnnouncementType = "maintenance"
	AnnouncementFeature     AnnouncementType = "feature"
)

// Announcement is a staff-authored platform-wide message.
type Announcement struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string           `gorm:"size:200;not null" json:"title"`
	Content     string           `gorm:"type:text;not null" json:"content"`
	Type        AnnouncementType `gorm:"type:varchar(20);default:'announcement'" json:"type"`
	IsActive    bool             `gorm:"default:true" json:"is_active"`
	CreatedByID *uuid.UUID       `gorm:"type:uuid" json:"created_by_id,omitempty"`
	CreatedBy   *User            `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

// AnnouncementRead marks an announcement as seen by a user.
type AnnouncementRead struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_announcement" json:"user_id"`
	AnnouncementID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_announcement" json:"announcement_id"`
	ReadAt         time.Time `gorm:"autoCreateTime" json:"read_at"`
}

func (r *AnnouncementRead) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
