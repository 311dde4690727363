package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"foodloop/internal/domain"
)

const claimCols = `c.id, c.listing_id, c.claimer_id, c.claimed_at, c.completed_at, c.cancelled_at,
	c.status, c.proof_url, c.notes, c.rating, c.feedback`

type ClaimRepo struct{ db sqlx.ExtContext }

func NewClaimRepo(db sqlx.ExtContext) *ClaimRepo { return &ClaimRepo{db: db} }

// Completion carries the optional pickup evidence recorded on completion.
type Completion struct {
	ProofURL *string
	Rating   *int
	Feedback *string
}

func (r *ClaimRepo) Insert(ctx context.Context, c *domain.Claim) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO claims (id, listing_id, claimer_id, claimed_at, status, notes)
		VALUES (:id, :listing_id, :claimer_id, :claimed_at, :status, :notes)
	`, c)
	return err
}

// Get returns sql.ErrNoRows when the claim does not exist.
func (r *ClaimRepo) Get(ctx context.Context, id string) (*domain.Claim, error) {
	var c domain.Claim
	err := sqlx.GetContext(ctx, r.db, &c, r.db.Rebind(`SELECT `+claimCols+` FROM claims c WHERE c.id = ?`), id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// StatusFor returns the status of a claim owned by claimerID, or sql.ErrNoRows.
func (r *ClaimRepo) StatusFor(ctx context.Context, id, claimerID string) (string, error) {
	var status string
	err := sqlx.GetContext(ctx, r.db, &status,
		r.db.Rebind(`SELECT status FROM claims WHERE id = ? AND claimer_id = ?`), id, claimerID)
	return status, err
}

// Complete closes an in-progress claim owned by claimerID. False means no
// such claim is open; the status guard keeps a claim from completing twice.
func (r *ClaimRepo) Complete(ctx context.Context, id, claimerID string, in Completion, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE claims
		SET status = 'completed', completed_at = ?, proof_url = ?, rating = ?, feedback = ?
		WHERE id = ? AND claimer_id = ? AND status = 'in-progress'
	`), now, in.ProofURL, in.Rating, in.Feedback, id, claimerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Cancel withdraws an in-progress claim owned by claimerID.
func (r *ClaimRepo) Cancel(ctx context.Context, id, claimerID string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE claims SET status = 'cancelled', cancelled_at = ?
		WHERE id = ? AND claimer_id = ? AND status = 'in-progress'
	`), now, id, claimerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ListByClaimer returns a claimer's claims with pickup details, newest first.
func (r *ClaimRepo) ListByClaimer(ctx context.Context, claimerID string) ([]domain.ClaimView, error) {
	out := []domain.ClaimView{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(`
		SELECT `+claimCols+`,
		       l.food_type, l.quantity, l.description, l.address, l.contact, l.latitude, l.longitude,
		       u.name AS donor_name, u.phone AS donor_phone
		FROM claims c
		JOIN listings l ON l.id = c.listing_id
		JOIN users u ON u.id = l.donor_id
		WHERE c.claimer_id = ?
		ORDER BY c.claimed_at DESC
	`), claimerID)
	return out, err
}

// CountForListing is used to check the one-claim-per-listing invariant.
func (r *ClaimRepo) CountForListing(ctx context.Context, listingID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, r.db, &n, r.db.Rebind(`SELECT COUNT(*) FROM claims WHERE listing_id = ?`), listingID)
	return n, err
}

func (r *ClaimRepo) DeleteByListing(ctx context.Context, listingID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM claims WHERE listing_id = ?`), listingID)
	return err
}
