package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"foodloop/internal/domain"
)

const listingCols = `l.id, l.donor_id, l.food_type, l.quantity, l.description, l.latitude, l.longitude,
	l.address, l.contact, l.expiry_time, l.status, l.food_category, l.image_url, l.created_at, l.updated_at`

type ListingRepo struct{ db sqlx.ExtContext }

func NewListingRepo(db sqlx.ExtContext) *ListingRepo { return &ListingRepo{db: db} }

// ListingFilter selects listings by status that have not expired at Now.
// When HasBand is set only listings inside [MinLat, MaxLat] are returned.
type ListingFilter struct {
	Status         string
	Now            time.Time
	HasBand        bool
	MinLat, MaxLat float64
}

// ListingPatch holds optional fields for a partial update; nil leaves a column unchanged.
type ListingPatch struct {
	Status      *string
	FoodType    *string
	Quantity    *string
	Description *string
}

func (r *ListingRepo) Insert(ctx context.Context, l *domain.Listing) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO listings
		  (id, donor_id, food_type, quantity, description, latitude, longitude, address, contact,
		   expiry_time, status, food_category, image_url, created_at, updated_at)
		VALUES
		  (:id, :donor_id, :food_type, :quantity, :description, :latitude, :longitude, :address, :contact,
		   :expiry_time, :status, :food_category, :image_url, :created_at, :updated_at)
	`, l)
	return err
}

// Get returns one listing with donor details, or sql.ErrNoRows.
func (r *ListingRepo) Get(ctx context.Context, id string) (*domain.ListingView, error) {
	var v domain.ListingView
	err := sqlx.GetContext(ctx, r.db, &v, r.db.Rebind(`
		SELECT `+listingCols+`,
		       u.name AS donor_name, u.organization AS donor_organization,
		       u.phone AS donor_phone, u.email AS donor_email
		FROM listings l
		JOIN users u ON u.id = l.donor_id
		WHERE l.id = ?
	`), id)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns matching listings, newest first.
func (r *ListingRepo) List(ctx context.Context, f ListingFilter) ([]domain.ListingView, error) {
	query := `
		SELECT ` + listingCols + `,
		       u.name AS donor_name, u.organization AS donor_organization, u.phone AS donor_phone
		FROM listings l
		JOIN users u ON u.id = l.donor_id
		WHERE l.status = ? AND l.expiry_time > ?`
	args := []any{f.Status, f.Now}
	if f.HasBand {
		query += ` AND l.latitude BETWEEN ? AND ?`
		args = append(args, f.MinLat, f.MaxLat)
	}
	query += ` ORDER BY l.created_at DESC`

	out := []domain.ListingView{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(query), args...)
	return out, err
}

// MarkClaimed flips an available, unexpired listing to claimed. It reports
// false when the listing is missing, already taken or expired; the row lock
// taken by the UPDATE is what keeps two claimers from both succeeding.
func (r *ListingRepo) MarkClaimed(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE listings SET status = 'claimed', updated_at = ?
		WHERE id = ? AND status = 'available' AND expiry_time > ?
	`), now, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// SetStatus moves a listing to status when its current status is one of from.
func (r *ListingRepo) SetStatus(ctx context.Context, id, status string, now time.Time, from ...string) (bool, error) {
	query, args, err := sqlx.In(`UPDATE listings SET status = ?, updated_at = ? WHERE id = ? AND status IN (?)`,
		status, now, id, from)
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// DonorOf returns the owner of a listing, or sql.ErrNoRows.
func (r *ListingRepo) DonorOf(ctx context.Context, id string) (string, error) {
	var donorID string
	err := sqlx.GetContext(ctx, r.db, &donorID, r.db.Rebind(`SELECT donor_id FROM listings WHERE id = ?`), id)
	return donorID, err
}

// Patch applies p to a listing owned by donorID. A status change only applies
// to an available listing; false means no such owned listing in that state.
func (r *ListingRepo) Patch(ctx context.Context, id, donorID string, p ListingPatch, now time.Time) (bool, error) {
	query := `
		UPDATE listings
		SET status      = COALESCE(?, status),
		    food_type   = COALESCE(?, food_type),
		    quantity    = COALESCE(?, quantity),
		    description = COALESCE(?, description),
		    updated_at  = ?
		WHERE id = ? AND donor_id = ?`
	if p.Status != nil {
		query += ` AND status = 'available'`
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), p.Status, p.FoodType, p.Quantity, p.Description, now, id, donorID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Delete removes a listing owned by donorID. Dependent claims and
// notifications must be removed first in the same transaction.
func (r *ListingRepo) Delete(ctx context.Context, id, donorID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM listings WHERE id = ? AND donor_id = ?`), id, donorID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ExpireStale marks available listings past their expiry as expired.
func (r *ListingRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE listings SET status = 'expired', updated_at = ?
		WHERE status = 'available' AND expiry_time <= ?
	`), now, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
