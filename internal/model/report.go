package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportType string

const (
	ReportUser     ReportType = "user"
	ReportSkill    ReportType = "skill"
	ReportSwap     ReportType = "swap"
	ReportMessage  ReportType = "message"
	ReportPlatform ReportType = "platform"
	ReportOther    ReportType = "other"
)

type ReportStatus string

const (
	ReportPending       ReportStatus = "pending"
	ReportInvestigating ReportStatus = "investigating"
	ReportResolved      ReportStatus = "resolved"
	ReportDismissed     ReportStatus = "dismissed"
)

type Report struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ReporterID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reporter          User         `gorm:"foreignKey:ReporterID;constraint:OnDelete:CASCADE" json:"reporter,omitempty"`
	Type              ReportType   `gorm:"type:varchar(20);not null" json:"type"`
	Title             string       `gorm:"size:200;not null" json:"title"`
	Description       string       `gorm:"type:text;not null" json:"description"`
	Status            ReportStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	AdminNotes        string       `gorm:"type:text" json:"admin_notes"`
	ResolvedByID      *uuid.UUID   `gorm:"type:uuid" json:"resolved_by_id,omitempty"`
	ResolvedBy        *User        `gorm:"foreignKey:ResolvedByID;constraint:OnDelete:SET NULL" json:"resolved_by,omitempty"`
	ResolvedAt        *time.Time   `json:"resolved_at,omitempty"`
	RelatedUserID     *uuid.UUID   `gorm:"type:uuid" json:"related_user_id,omitempty"`
	RelatedObjectID   *uuid.UUID   `gorm:"type:uuid" json:"related_object_id,omitempty"`
	RelatedObjectType string       `gorm:"size:50" json:"related_object_type"`
	CreatedAt         time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}

type ActivityType string

const (
	ActivityLogin         ActivityType = "login"
	ActivityRegister      ActivityType = "register"
	ActivitySkillCreate   ActivityType = "skill_create"
	ActivitySkillEdit     ActivityType = "skill_edit"
	ActivitySkillDelete   ActivityType = "skill_delete"
	ActivitySwapRequest   ActivityType = "swap_request"
	ActivitySwapAccept    ActivityType = "swap_accept"
	ActivitySwapReject    ActivityType = "swap_reject"
	ActivitySwapCancel    ActivityType = "swap_cancel"
	ActivitySwapComplete  ActivityType = "swap_complete"
	ActivityMessageSent   ActivityType = "message_sent"
	ActivityReviewPosted  ActivityType = "review_posted"
	ActivityReportFiled   ActivityType = "report_filed"
	ActivityProfileUpdate ActivityType = "profile_update"
	ActivityNotifyFailed  ActivityType = "notify_failed"
)

// UserActivity is an append-only audit record.
type UserActivity struct {
	ID                uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	User              User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Type              ActivityType `gorm:"type:varchar(20);not null;index" json:"type"`
	Description       string       `gorm:"type:text" json:"description"`
	IPAddress         string       `gorm:"size:45" json:"ip_address"`
	UserAgent         string       `gorm:"type:text" json:"user_agent"`
	RelatedObjectID   *uuid.UUID   `gorm:"type:uuid" json:"related_object_id,omitempty"`
	RelatedObjectType string       `gorm:"size:50" json:"related_object_type"`
	CreatedAt         time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (a *UserActivity) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

// DailyAnalytics aggregates platform counters, one row per calendar day.
type DailyAnalytics struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Date           time.Time `gorm:"type:date;uniqueIndex;not null" json:"date"`
	TotalUsers     int64     `gorm:"default:0" json:"total_users"`
	ActiveUsers    int64     `gorm:"default:0" json:"active_users"`
	NewUsers       int64     `gorm:"default:0" json:"new_users"`
	TotalSkills    int64     `gorm:"default:0" json:"total_skills"`
	NewSkills      int64     `gorm:"default:0" json:"new_skills"`
	TotalSwaps     int64     `gorm:"default:0" json:"total_swaps"`
	CompletedSwaps int64     `gorm:"default:0" json:"completed_swaps"`
	TotalMessages  int64     `gorm:"default:0" json:"total_messages"`
	TotalReports   int64     `gorm:"default:0" json:"total_reports"`
	PendingReports int64     `gorm:"default:0" json:"pending_reports"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (a *DailyAnalytics) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}
