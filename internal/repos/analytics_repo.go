package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"foodloop/internal/domain"
)

type AnalyticsRepo struct{ db sqlx.ExtContext }

func NewAnalyticsRepo(db sqlx.ExtContext) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

// RecordCompletion upserts the rollup for day, adding one completed claim,
// one meal and co2 to it. Rows are only ever incremented.
func (r *AnalyticsRepo) RecordCompletion(ctx context.Context, day string, co2 float64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO analytics (day, total_completed, meals_saved, co2_reduced)
		VALUES (?, 1, 1, ?)
		ON CONFLICT (day) DO UPDATE SET
		  total_completed = analytics.total_completed + 1,
		  meals_saved     = analytics.meals_saved + 1,
		  co2_reduced     = analytics.co2_reduced + excluded.co2_reduced
	`), day, co2)
	return err
}

// Day returns sql.ErrNoRows when nothing was recorded for day.
func (r *AnalyticsRepo) Day(ctx context.Context, day string) (*domain.DailyAnalytics, error) {
	var d domain.DailyAnalytics
	err := sqlx.GetContext(ctx, r.db, &d, r.db.Rebind(`
		SELECT day, total_listings, total_claims, total_completed, meals_saved, co2_reduced
		FROM analytics WHERE day = ?
	`), day)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *AnalyticsRepo) Latest(ctx context.Context, limit int) ([]domain.DailyAnalytics, error) {
	if limit <= 0 {
		limit = 30
	}
	out := []domain.DailyAnalytics{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT day, total_listings, total_claims, total_completed, meals_saved, co2_reduced
		FROM analytics
		ORDER BY day DESC
		LIMIT ?
	`), limit)
	return out, err
}

func (r *AnalyticsRepo) Overview(ctx context.Context) (domain.AnalyticsOverview, error) {
	var o domain.AnalyticsOverview
	if err := sqlx.GetContext(ctx, r.db, &o, `
		SELECT
		  COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS total_completed,
		  COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS meals_saved,
		  COUNT(DISTINCT donor_id) AS active_donors
		FROM listings
	`); err != nil {
		return o, err
	}
	if err := sqlx.GetContext(ctx, r.db, &o.CompletedDeliveries, `SELECT COUNT(*) FROM claims`); err != nil {
		return o, err
	}
	err := sqlx.GetContext(ctx, r.db, &o.CO2Reduced, `SELECT COALESCE(SUM(co2_reduced), 0) FROM analytics`)
	return o, err
}
