package service

import (
	"context"
	"errors"
	"time"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/repository"
	"gorm.io/gorm"
)

type AnalyticsService interface {
	// SnapshotToday recomputes today's counters from the live tables and
	// upserts the daily row.
	SnapshotToday(ctx context.Context) (*model.DailyAnalytics, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	Summary(ctx context.Context) (*dto.AnalyticsSummary, error)
}

type analyticsService struct {
	repo         repository.AnalyticsRepository
	userRepo     repository.UserRepository
	skillRepo    repository.SkillRepository
	swapRepo     repository.SwapRepository
	convRepo     repository.ConversationRepository
	reportRepo   repository.ReportRepository
	activityRepo repository.ActivityRepository
}

func NewAnalyticsService(
	repo repository.AnalyticsRepository,
	userRepo repository.UserRepository,
	skillRepo repository.SkillRepository,
	swapRepo repository.SwapRepository,
	convRepo repository.ConversationRepository,
	reportRepo repository.ReportRepository,
	activityRepo repository.ActivityRepository,
) AnalyticsService {
	return &analyticsService{
		repo:         repo,
		userRepo:     userRepo,
		skillRepo:    skillRepo,
		swapRepo:     swapRepo,
		convRepo:     convRepo,
		reportRepo:   reportRepo,
		activityRepo: activityRepo,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *analyticsService) SnapshotToday(ctx context.Context) (*model.DailyAnalytics, error) {
	today := startOfDay(time.Now().UTC())

	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	activeUsers, err := s.userRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	newUsers, err := s.userRepo.CountCreatedSince(ctx, today)
	if err != nil {
		return nil, err
	}
	totalSkills, err := s.skillRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	newSkills, err := s.skillRepo.CountCreatedSince(ctx, today)
	if err != nil {
		return nil, err
	}
	totalSwaps, err := s.swapRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	completedSwaps, err := s.swapRepo.CountByStatus(ctx, model.SwapCompleted)
	if err != nil {
		return nil, err
	}
	totalMessages, err := s.convRepo.CountMessages(ctx)
	if err != nil {
		return nil, err
	}
	totalReports, err := s.reportRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	pendingReports, err := s.reportRepo.CountByStatus(ctx, model.ReportPending)
	if err != nil {
		return nil, err
	}

	snapshot := &model.DailyAnalytics{
		Date:           today,
		TotalUsers:     totalUsers,
		ActiveUsers:    activeUsers,
		NewUsers:       newUsers,
		TotalSkills:    totalSkills,
		NewSkills:      newSkills,
		TotalSwaps:     totalSwaps,
		CompletedSwaps: completedSwaps,
		TotalMessages:  totalMessages,
		TotalReports:   totalReports,
		PendingReports: pendingReports,
	}

	if err := s.repo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *analyticsService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	today, err := s.SnapshotToday(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	recent, err := s.repo.FindRange(ctx, startOfDay(now.AddDate(0, 0, -30)), startOfDay(now))
	if err != nil {
		return nil, err
	}

	activities, err := s.activityRepo.FindRecent(ctx, 20)
	if err != nil {
		return nil, err
	}
	topUsers, err := s.activityRepo.TopUsers(ctx, 10)
	if err != nil {
		return nil, err
	}

	return &dto.DashboardResponse{
		Today:            today,
		Recent:           recent,
		TotalUsers:       today.TotalUsers,
		TotalSkills:      today.TotalSkills,
		TotalSwaps:       today.TotalSwaps,
		CompletedSwaps:   today.CompletedSwaps,
		PendingReports:   today.PendingReports,
		RecentActivities: activities,
		TopUsers:         topUsers,
	}, nil
}

func (s *analyticsService) Summary(ctx context.Context) (*dto.AnalyticsSummary, error) {
	today, err := s.SnapshotToday(ctx)
	if err != nil {
		return nil, err
	}

	summary := &dto.AnalyticsSummary{
		Date:           today.Date,
		TotalUsers:     today.TotalUsers,
		TotalSkills:    today.TotalSkills,
		TotalSwaps:     today.TotalSwaps,
		CompletedSwaps: today.CompletedSwaps,
		PendingReports: today.PendingReports,
	}

	yesterday, err := s.repo.FindByDate(ctx, startOfDay(time.Now().UTC().AddDate(0, 0, -1)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return summary, nil
		}
		return nil, err
	}

	summary.UserGrowth = growth(yesterday.TotalUsers, today.TotalUsers)
	summary.SkillGrowth = growth(yesterday.TotalSkills, today.TotalSkills)
	summary.SwapGrowth = growth(yesterday.TotalSwaps, today.TotalSwaps)

	return summary, nil
}

// growth returns the day-over-day percentage change.
func growth(prev, curr int64) float64 {
	if prev == 0 {
		if curr == 0 {
			return 0
		}
		return 100
	}
	return float64(curr-prev) / float64(prev) * 100
}
