package repository

import (
	"context"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(ctx context.Context, activity *model.UserActivity) error
	Find(ctx context.Context, filter dto.ActivityFilter) ([]model.UserActivity, int64, error)
	FindRecent(ctx context.Context, limit int) ([]model.UserActivity, error)
	// TopUsers returns the most active users ordered by activity count.
	TopUsers(ctx context.Context, limit int) ([]dto.TopUser, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *model.UserActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) Find(ctx context.Context, filter dto.ActivityFilter) ([]model.UserActivity, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.UserActivity{})

	if filter.User != "" {
		query = query.
			Joins("JOIN users ON users.id = user_activities.user_id").
			Where("users.email ILIKE ?", "%"+filter.User+"%")
	}
	if filter.Type != "" {
		query = query.Where("user_activities.type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var activities []model.UserActivity
	if err := query.
		Preload("User").
		Order("user_activities.created_at DESC").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

func (r *activityRepository) FindRecent(ctx context.Context, limit int) ([]model.UserActivity, error) {
	var activities []model.UserActivity
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

func (r *activityRepository) TopUsers(ctx context.Context, limit int) ([]dto.TopUser, error) {
	var rows []struct {
		UserID uuid.UUID
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&model.UserActivity{}).
		Select("user_id, COUNT(*) AS count").
		Group("user_id").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]dto.TopUser, 0, len(rows))
	for _, row := range rows {
		var user model.User
		if err := r.db.WithContext(ctx).Where("id = ?", row.UserID).First(&user).Error; err != nil {
			continue
		}
		result = append(result, dto.TopUser{User: &user, ActivityCount: row.Count})
	}
	return result, nil
}
