package repository

import (
	"context"
	"time"

	"anoa.com/skillexchange/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnalyticsRepository interface {
	// Upsert writes the snapshot for its date, replacing an existing row.
	Upsert(ctx context.Context, snapshot *model.DailyAnalytics) error
	FindByDate(ctx context.Context, date time.Time) (*model.DailyAnalytics, error)
	FindRange(ctx context.Context, from, to time.Time) ([]model.DailyAnalytics, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) Upsert(ctx context.Context, snapshot *model.DailyAnalytics) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_users", "active_users", "new_users",
				"total_skills", "new_skills",
				"total_swaps", "completed_swaps",
				"total_messages", "total_reports", "pending_reports",
			}),
		}).
		Create(snapshot).Error
}

func (r *analyticsRepository) FindByDate(ctx context.Context, date time.Time) (*model.DailyAnalytics, error) {
	var snapshot model.DailyAnalytics
	if err := r.db.WithContext(ctx).
		Where("date = ?", date.Format("2006-01-02")).
		First(&snapshot).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *analyticsRepository) FindRange(ctx context.Context, from, to time.Time) ([]model.DailyAnalytics, error) {
	var snapshots []model.DailyAnalytics
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("date ASC").
		Find(&snapshots).Error
	return snapshots, err
}
