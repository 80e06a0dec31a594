package repository

import (
	"context"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnnouncementRepository interface {
	Create(ctx context.Context, announcement *model.Announcement) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error)
	FindActive(ctx context.Context, page dto.PageQuery) ([]model.Announcement, int64, error)
	// MarkRead records the read mark once; repeated calls are no-ops.
	MarkRead(ctx context.Context, userID, announcementID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type announcementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

func (r *announcementRepository) Create(ctx context.Context, announcement *model.Announcement) error {
	return r.db.WithContext(ctx).Create(announcement).Error
}

func (r *announcementRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	var announcement model.Announcement
	if err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Where("id = ? AND is_active = ?", id, true).
		First(&announcement).Error; err != nil {
		return nil, err
	}
	return &announcement, nil
}

func (r *announcementRepository) FindActive(ctx context.Context, page dto.PageQuery) ([]model.Announcement, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Announcement{}).
		Where("is_active = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var announcements []model.Announcement
	if err := query.
		Preload("CreatedBy").
		Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&announcements).Error; err != nil {
		return nil, 0, err
	}

	return announcements, total, nil
}

func (r *announcementRepository) MarkRead(ctx context.Context, userID, announcementID uuid.UUID) error {
	read := model.AnnouncementRead{UserID: userID, AnnouncementID: announcementID}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND announcement_id = ?", userID, announcementID).
		FirstOrCreate(&read).Error
}

func (r *announcementRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Announcement{}).
		Where("is_active = ?", true).
		Where("id NOT IN (?)",
			r.db.Model(&model.AnnouncementRead{}).
				Select("announcement_id").
				Where("user_id = ?", userID),
		).
		Count(&count).Error
	return count, err
}
