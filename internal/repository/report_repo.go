package repository

import (
	"context"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error)
	FindByReporter(ctx context.Context, reporterID uuid.UUID, page dto.PageQuery) ([]model.Report, int64, error)
	FindAll(ctx context.Context, filter dto.ReportFilter) ([]model.Report, int64, error)
	Update(ctx context.Context, report *model.Report) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.ReportStatus) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	var report model.Report
	if err := r.db.WithContext(ctx).
		Preload("Reporter").
		Preload("ResolvedBy").
		Where("id = ?", id).
		First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) FindByReporter(ctx context.Context, reporterID uuid.UUID, page dto.PageQuery) ([]model.Report, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Report{}).
		Where("reporter_id = ?", reporterID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []model.Report
	if err := query.
		Order("created_at DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

func (r *reportRepository) FindAll(ctx context.Context, filter dto.ReportFilter) ([]model.Report, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Report{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []model.Report
	if err := query.
		Preload("Reporter").
		Order("created_at DESC").
		Offset(filter.Offset()).Limit(filter.Limit).
		Find(&reports).Error; err != nil {
		return nil, 0, err
	}

	return reports, total, nil
}

func (r *reportRepository) Update(ctx context.Context, report *model.Report) error {
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *reportRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Report{}).Count(&count).Error
	return count, err
}

func (r *reportRepository) CountByStatus(ctx context.Context, status model.ReportStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Report{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
