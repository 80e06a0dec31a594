package dto

import "time"

type CreateSwapRequest struct {
	RequestedSkillID  string `json:"requested_skill_id" binding:"required,uuid"`
	RequestingSkillID string `json:"requesting_skill_id" binding:"required,uuid"`
	Message           string `json:"message"`
	ProposedDuration  int    `json:"proposed_duration" binding:"required,gte=1"`
}

// CompleteSwapRequest is the transaction form submitted when marking an
// accepted swap as completed.
type CompleteSwapRequest struct {
	StartDate      time.Time `json:"start_date" binding:"required"`
	EndDate        time.Time `json:"end_date" binding:"required,gtefield=StartDate"`
	ActualDuration int       `json:"actual_duration" binding:"required,gte=1"`
	Notes          string    `json:"notes"`
}

type CreateSwapReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment string `json:"comment" binding:"required"`
}

type SwapFilter struct {
	// Role filters to requests the user sent or received; empty means both.
	Role   string `form:"role" binding:"omitempty,oneof=sent received"`
	Status string `form:"status" binding:"omitempty,oneof=pending accepted rejected completed cancelled"`
	PageQuery
}
