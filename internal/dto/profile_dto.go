package dto

import "anoa.com/skillexchange/internal/model"

type UpdateProfileRequest struct {
	FirstName    string            `json:"first_name" form:"first_name" binding:"omitempty,max=100"`
	LastName     string            `json:"last_name" form:"last_name" binding:"omitempty,max=100"`
	Bio          string            `json:"bio" form:"bio" binding:"omitempty,max=500"`
	Location     string            `json:"location" form:"location" binding:"omitempty,max=100"`
	Availability string            `json:"availability" form:"availability" binding:"omitempty,max=200"`
	IsPrivate    *bool             `json:"is_private" form:"is_private"`
	Phone        string            `json:"phone" form:"phone" binding:"omitempty,max=20"`
	Website      string            `json:"website" form:"website" binding:"omitempty,url,max=200"`
	SocialMedia  map[string]string `json:"social_media" form:"-"`
}

// UserFilter carries the public user directory search filters.
type UserFilter struct {
	Query        string  `form:"q"`
	Location     string  `form:"location"`
	MinRating    float64 `form:"min_rating" binding:"omitempty,gte=0,lte=5"`
	VerifiedOnly bool    `form:"verified_only"`
	PageQuery
}

type PaginatedUserResponse struct {
	Data []*model.User  `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// UserDashboard is the authenticated landing payload.
type UserDashboard struct {
	Skills              []model.SkillListing `json:"skills"`
	ReceivedRequests    []model.SwapRequest  `json:"received_requests"`
	SentRequests        []model.SwapRequest  `json:"sent_requests"`
	UnreadNotifications []model.Notification `json:"unread_notifications"`
	Conversations       []model.Conversation `json:"conversations"`
}
