package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"foodloop/internal/domain"
	"foodloop/internal/repos"
	"foodloop/internal/validate"
)

type ClaimService struct {
	DB        *sqlx.DB
	TxTimeout time.Duration
	Claims    *repos.ClaimRepo
	Now       func() time.Time
}

func NewClaimService(db *sqlx.DB, txTimeout time.Duration) *ClaimService {
	return &ClaimService{DB: db, TxTimeout: txTimeout, Claims: repos.NewClaimRepo(db)}
}

// CompleteInput is the optional pickup evidence a claimer submits.
type CompleteInput struct {
	ProofURL *string
	Rating   *int
	Feedback *string
}

// Create claims an available listing for claimerID and tells the donor.
// Exactly one of any number of concurrent callers wins; the rest get
// ErrNotAvailable (or ErrConflictRetry when Postgres aborts the loser).
func (s *ClaimService) Create(ctx context.Context, listingID, claimerID string, notes *string) (*domain.Claim, error) {
	v := validate.Violations{}
	id, ok := validate.ID(listingID)
	if !ok {
		v.Add("listing_id", "listing_id is required")
	}
	notes = optionalText(v, "notes", notes, 1000)
	if err := invalid(v); err != nil {
		return nil, err
	}

	now := clock(s.Now)
	c := &domain.Claim{
		ID:        uuid.NewString(),
		ListingID: id,
		ClaimerID: claimerID,
		ClaimedAt: now,
		Status:    domain.ClaimInProgress,
		Notes:     notes,
	}
	err := repos.WithTx(ctx, s.DB, s.TxTimeout, func(tx *sqlx.Tx) error {
		listings := repos.NewListingRepo(tx)
		ok, err := listings.MarkClaimed(ctx, id, now)
		if err != nil {
			return fmt.Errorf("mark claimed: %w", err)
		}
		if !ok {
			return ErrNotAvailable
		}
		l, err := listings.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load listing: %w", err)
		}
		if err := repos.NewClaimRepo(tx).Insert(ctx, c); err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}
		return repos.NewNotificationRepo(tx).Insert(ctx, &domain.Notification{
			ID:               uuid.NewString(),
			UserID:           l.DonorID,
			Title:            "Food Claimed!",
			Message:          fmt.Sprintf("Your %s has been claimed", l.FoodType),
			Type:             domain.NotifyClaim,
			RelatedListingID: &l.ID,
			CreatedAt:        now,
		})
	})
	if err != nil {
		return nil, txErr(err)
	}
	return c, nil
}

// Complete closes an in-progress claim owned by claimerID, marks its listing
// completed and adds one meal to today's analytics, all or nothing.
func (s *ClaimService) Complete(ctx context.Context, claimID, claimerID string, in CompleteInput) (*domain.Claim, error) {
	v := validate.Violations{}
	id, ok := validate.ID(claimID)
	if !ok {
		v.Add("id", "invalid claim id")
	}
	if in.Rating != nil && !validate.Rating(*in.Rating) {
		v.Add("rating", "rating must be between 1 and 5")
	}
	if in.ProofURL != nil && *in.ProofURL != "" {
		u, ok := validate.URL(*in.ProofURL)
		if !ok {
			v.Add("proof_url", "proof_url must be an http(s) URL")
		}
		in.ProofURL = &u
	} else {
		in.ProofURL = nil
	}
	in.Feedback = optionalText(v, "feedback", in.Feedback, 2000)
	if err := invalid(v); err != nil {
		return nil, err
	}

	now := clock(s.Now)
	var out *domain.Claim
	err := repos.WithTx(ctx, s.DB, s.TxTimeout, func(tx *sqlx.Tx) error {
		claims := repos.NewClaimRepo(tx)
		ok, err := claims.Complete(ctx, id, claimerID, repos.Completion(in), now)
		if err != nil {
			return fmt.Errorf("complete claim: %w", err)
		}
		if !ok {
			return closedOrMissing(ctx, claims, id, claimerID)
		}
		if out, err = claims.Get(ctx, id); err != nil {
			return err
		}
		ok, err = repos.NewListingRepo(tx).SetStatus(ctx, out.ListingID, domain.ListingCompleted, now, domain.ListingClaimed)
		if err != nil {
			return fmt.Errorf("complete listing: %w", err)
		}
		if !ok {
			return ErrNotAvailable
		}
		return repos.NewAnalyticsRepo(tx).RecordCompletion(ctx, now.Format("2006-01-02"), domain.CO2PerMeal)
	})
	if err != nil {
		return nil, txErr(err)
	}
	return out, nil
}

// Cancel withdraws an in-progress claim. The listing becomes available again
// and the donor is told.
func (s *ClaimService) Cancel(ctx context.Context, claimID, claimerID string) (*domain.Claim, error) {
	id, ok := validate.ID(claimID)
	if !ok {
		return nil, invalid(validate.Violations{"id": "invalid claim id"})
	}

	now := clock(s.Now)
	var out *domain.Claim
	err := repos.WithTx(ctx, s.DB, s.TxTimeout, func(tx *sqlx.Tx) error {
		claims := repos.NewClaimRepo(tx)
		ok, err := claims.Cancel(ctx, id, claimerID, now)
		if err != nil {
			return fmt.Errorf("cancel claim: %w", err)
		}
		if !ok {
			return closedOrMissing(ctx, claims, id, claimerID)
		}
		if out, err = claims.Get(ctx, id); err != nil {
			return err
		}
		listings := repos.NewListingRepo(tx)
		if _, err := listings.SetStatus(ctx, out.ListingID, domain.ListingAvailable, now, domain.ListingClaimed); err != nil {
			return fmt.Errorf("release listing: %w", err)
		}
		l, err := listings.Get(ctx, out.ListingID)
		if err != nil {
			return fmt.Errorf("load listing: %w", err)
		}
		return repos.NewNotificationRepo(tx).Insert(ctx, &domain.Notification{
			ID:               uuid.NewString(),
			UserID:           l.DonorID,
			Title:            "Claim Cancelled",
			Message:          fmt.Sprintf("The claim on your %s was cancelled; it is available again", l.FoodType),
			Type:             domain.NotifyClaimCancelled,
			RelatedListingID: &l.ID,
			CreatedAt:        now,
		})
	})
	if err != nil {
		return nil, txErr(err)
	}
	return out, nil
}

func (s *ClaimService) MyClaims(ctx context.Context, claimerID string) ([]domain.ClaimView, error) {
	return s.Claims.ListByClaimer(ctx, claimerID)
}

// closedOrMissing explains why a guarded claim update matched nothing.
func closedOrMissing(ctx context.Context, claims *repos.ClaimRepo, id, claimerID string) error {
	_, err := claims.StatusFor(ctx, id, claimerID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return err
	}
	return ErrClaimClosed
}

// optionalText trims an optional free-text field; blank becomes nil.
func optionalText(v validate.Violations, field string, s *string, limit int) *string {
	if s == nil {
		return nil
	}
	t, ok := validate.Text(*s, limit)
	if t == "" {
		return nil
	}
	if !ok {
		v.Add(field, fmt.Sprintf("%s must be at most %d characters", field, limit))
	}
	return &t
}
