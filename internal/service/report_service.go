package service

import (
	"context"
	"errors"
	"time"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/pkg/apperror"
	"anoa.com/skillexchange/pkg/logger"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ReportService interface {
	Create(ctx context.Context, reporterID uuid.UUID, input dto.CreateReportRequest, meta RequestMeta) (*model.Report, error)
	MyReports(ctx context.Context, reporterID uuid.UUID, page dto.PageQuery) ([]model.Report, dto.PaginationMeta, error)

	// Staff-only operations.
	List(ctx context.Context, filter dto.ReportFilter) ([]model.Report, dto.PaginationMeta, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Report, error)
	Update(ctx context.Context, staffID, id uuid.UUID, input dto.UpdateReportRequest) (*model.Report, error)
}

type reportService struct {
	repo         repository.ReportRepository
	activityRepo repository.ActivityRepository
	redisClient  *redis.Client
	rateWindow   time.Duration
	sanitizer    *bluemonday.Policy
}

func NewReportService(
	repo repository.ReportRepository,
	activityRepo repository.ActivityRepository,
	redisClient *redis.Client,
	rateWindow time.Duration,
) ReportService {
	return &reportService{
		repo:         repo,
		activityRepo: activityRepo,
		redisClient:  redisClient,
		rateWindow:   rateWindow,
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

func (s *reportService) Create(ctx context.Context, reporterID uuid.UUID, input dto.CreateReportRequest, meta RequestMeta) (*model.Report, error) {
	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, reporterID, "report_create", s.rateWindow)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.New(429, "you are filing reports too quickly", apperror.ErrRateLimitExceeded)
	}

	report := &model.Report{
		ReporterID:        reporterID,
		Type:              model.ReportType(input.Type),
		Title:             s.sanitizer.Sanitize(input.Title),
		Description:       s.sanitizer.Sanitize(input.Description),
		Status:            model.ReportPending,
		RelatedObjectType: input.RelatedObjectType,
	}
	if input.RelatedUserID != "" {
		id, err := uuid.Parse(input.RelatedUserID)
		if err != nil {
			return nil, apperror.Invalid("invalid related user id")
		}
		report.RelatedUserID = &id
	}
	if input.RelatedObjectID != "" {
		id, err := uuid.Parse(input.RelatedObjectID)
		if err != nil {
			return nil, apperror.Invalid("invalid related object id")
		}
		report.RelatedObjectID = &id
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}

	if err := s.activityRepo.Create(ctx, &model.UserActivity{
		UserID:            reporterID,
		Type:              model.ActivityReportFiled,
		Description:       "report filed: " + report.Title,
		IPAddress:         meta.IPAddress,
		UserAgent:         meta.UserAgent,
		RelatedObjectID:   &report.ID,
		RelatedObjectType: "report",
	}); err != nil {
		logger.Component("report").Warn().Err(err).Msg("failed to record activity")
	}

	return report, nil
}

func (s *reportService) MyReports(ctx context.Context, reporterID uuid.UUID, page dto.PageQuery) ([]model.Report, dto.PaginationMeta, error) {
	page.Normalize(20, 100)
	reports, total, err := s.repo.FindByReporter(ctx, reporterID, page)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}
	return reports, dto.NewPaginationMeta(total, page.Page, page.Limit), nil
}

func (s *reportService) List(ctx context.Context, filter dto.ReportFilter) ([]model.Report, dto.PaginationMeta, error) {
	filter.Normalize(20, 100)
	reports, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}
	return reports, dto.NewPaginationMeta(total, filter.Page, filter.Limit), nil
}

func (s *reportService) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("report not found")
		}
		return nil, err
	}
	return report, nil
}

// Update applies a staff resolution. Moving into resolved or dismissed stamps
// the resolver and resolution time once.
func (s *reportService) Update(ctx context.Context, staffID, id uuid.UUID, input dto.UpdateReportRequest) (*model.Report, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report.Status = model.ReportStatus(input.Status)
	if input.AdminNotes != "" {
		report.AdminNotes = s.sanitizer.Sanitize(input.AdminNotes)
	}

	switch report.Status {
	case model.ReportResolved, model.ReportDismissed:
		if report.ResolvedAt == nil {
			now := time.Now()
			report.ResolvedAt = &now
			report.ResolvedByID = &staffID
		}
	default:
		report.ResolvedAt = nil
		report.ResolvedByID = nil
	}

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}
