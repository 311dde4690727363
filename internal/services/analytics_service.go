package services

import (
	"context"

	"github.com/jmoiron/sqlx"

	"foodloop/internal/domain"
	"foodloop/internal/repos"
)

// DailyWindow is how many daily rollups the dashboard shows.
const DailyWindow = 30

type AnalyticsService struct {
	Analytics *repos.AnalyticsRepo
}

func NewAnalyticsService(db *sqlx.DB) *AnalyticsService {
	return &AnalyticsService{Analytics: repos.NewAnalyticsRepo(db)}
}

func (s *AnalyticsService) Overview(ctx context.Context) (domain.AnalyticsOverview, error) {
	return s.Analytics.Overview(ctx)
}

// Daily returns up to days rollups, newest first.
func (s *AnalyticsService) Daily(ctx context.Context, days int) ([]domain.DailyAnalytics, error) {
	if days <= 0 || days > DailyWindow {
		days = DailyWindow
	}
	return s.Analytics.Latest(ctx, days)
}
