package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapAccepted  SwapStatus = "accepted"
	SwapRejected  SwapStatus = "rejected"
	SwapCompleted SwapStatus = "completed"
	SwapCancelled SwapStatus = "cancelled"
)

// swapTransitions is the closed set of legal status edges. Rejected, cancelled
// and completed are terminal.
var swapTransitions = map[SwapStatus][]SwapStatus{
	SwapPending:  {SwapAccepted, SwapRejected, SwapCancelled},
	SwapAccepted: {SwapCompleted},
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s SwapStatus) CanTransition(next SwapStatus) bool {
	for _, allowed := range swapTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s SwapStatus) Terminal() bool {
	return len(swapTransitions[s]) == 0
}

type SwapRequest struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RequestingUserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"requesting_user_id"`
	RequestingUser   User       `gorm:"foreignKey:RequestingUserID;constraint:OnDelete:CASCADE" json:"requesting_user,omitempty"`
	RequestedUserID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"requested_user_id"`
	RequestedUser    User       `gorm:"foreignKey:RequestedUserID;constraint:OnDelete:CASCADE" json:"requested_user,omitempty"`
	RequestingSkillID uuid.UUID `gorm:"type:uuid;not null" json:"requesting_skill_id"`
	RequestingSkill  SkillListing `gorm:"foreignKey:RequestingSkillID;constraint:OnDelete:CASCADE" json:"requesting_skill,omitempty"`
	RequestedSkillID uuid.UUID  `gorm:"type:uuid;not null" json:"requested_skill_id"`
	RequestedSkill   SkillListing `gorm:"foreignKey:RequestedSkillID;constraint:OnDelete:CASCADE" json:"requested_skill,omitempty"`
	Message          string     `gorm:"type:text" json:"message"`
	ProposedDuration int        `gorm:"not null" json:"proposed_duration"`
	Status           SwapStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	AcceptedAt       *time.Time `json:"accepted_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Transaction *SwapTransaction `gorm:"foreignKey:SwapRequestID" json:"transaction,omitempty"`
	Reviews     []SwapReview     `gorm:"foreignKey:SwapRequestID" json:"reviews,omitempty"`
}

func (s *SwapRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}

// Involves reports whether the user is one of the two parties.
func (s *SwapRequest) Involves(userID uuid.UUID) bool {
	return s.RequestingUserID == userID || s.RequestedUserID == userID
}

// OtherParty returns the counterparty of the given user.
func (s *SwapRequest) OtherParty(userID uuid.UUID) uuid.UUID {
	if s.RequestingUserID == userID {
		return s.RequestedUserID
	}
	return s.RequestingUserID
}

// SwapTransaction records the actual exchange; created only when a swap
// transitions from accepted to completed.
type SwapTransaction struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SwapRequestID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"swap_request_id"`
	StartDate      time.Time `gorm:"not null" json:"start_date"`
	EndDate        time.Time `gorm:"not null" json:"end_date"`
	ActualDuration int       `gorm:"not null" json:"actual_duration"`
	Notes          string    `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *SwapTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}

type SwapReview struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SwapRequestID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_swap_reviewer" json:"swap_request_id"`
	ReviewerID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_swap_reviewer" json:"reviewer_id"`
	Reviewer       User      `gorm:"foreignKey:ReviewerID;constraint:OnDelete:CASCADE" json:"reviewer,omitempty"`
	ReviewedUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"reviewed_user_id"`
	ReviewedUser   User      `gorm:"foreignKey:ReviewedUserID;constraint:OnDelete:CASCADE" json:"reviewed_user,omitempty"`
	Rating         int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment        string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *SwapReview) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
