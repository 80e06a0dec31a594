package dto

import (
	"time"

	"anoa.com/skillexchange/internal/model"
)

type CreateReportRequest struct {
	Type              string `json:"type" binding:"required,oneof=user skill swap message platform other"`
	Title             string `json:"title" binding:"required,max=200"`
	Description       string `json:"description" binding:"required"`
	RelatedUserID     string `json:"related_user_id" binding:"omitempty,uuid"`
	RelatedObjectID   string `json:"related_object_id" binding:"omitempty,uuid"`
	RelatedObjectType string `json:"related_object_type" binding:"max=50"`
}

// UpdateReportRequest is the staff-only resolution form.
type UpdateReportRequest struct {
	Status     string `json:"status" binding:"required,oneof=pending investigating resolved dismissed"`
	AdminNotes string `json:"admin_notes"`
}

type ReportFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=pending investigating resolved dismissed"`
	Type   string `form:"type" binding:"omitempty,oneof=user skill swap message platform other"`
	PageQuery
}

type ActivityFilter struct {
	// User filters by reporter email substring, Type by activity kind.
	User string `form:"user"`
	Type string `form:"type"`
	PageQuery
}

type TopUser struct {
	User          *model.User `json:"user"`
	ActivityCount int64       `json:"activity_count"`
}

type DashboardResponse struct {
	Today            *model.DailyAnalytics  `json:"today"`
	Recent           []model.DailyAnalytics `json:"recent"`
	TotalUsers       int64                  `json:"total_users"`
	TotalSkills      int64                  `json:"total_skills"`
	TotalSwaps       int64                  `json:"total_swaps"`
	CompletedSwaps   int64                  `json:"completed_swaps"`
	PendingReports   int64                  `json:"pending_reports"`
	RecentActivities []model.UserActivity   `json:"recent_activities"`
	TopUsers         []TopUser              `json:"top_users"`
}

// AnalyticsSummary compares today against yesterday for the dashboard header.
type AnalyticsSummary struct {
	Date           time.Time `json:"date"`
	TotalUsers     int64     `json:"total_users"`
	TotalSkills    int64     `json:"total_skills"`
	TotalSwaps     int64     `json:"total_swaps"`
	CompletedSwaps int64     `json:"completed_swaps"`
	PendingReports int64     `json:"pending_reports"`
	UserGrowth     float64   `json:"user_growth"`
	SkillGrowth    float64   `json:"skill_growth"`
	SwapGrowth     float64   `json:"swap_growth"`
}
