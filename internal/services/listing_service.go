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
	applog "foodloop/internal/log"
	"foodloop/internal/repos"
	"foodloop/internal/validate"
)

// MaxSearchRadiusKm caps client supplied search radii.
const MaxSearchRadiusKm = 500.0

type ListingService struct {
	DB        *sqlx.DB
	TxTimeout time.Duration
	Listings  *repos.ListingRepo
	Notifier  *NotificationService
	Now       func() time.Time
}

func NewListingService(db *sqlx.DB, txTimeout time.Duration, notifier *NotificationService) *ListingService {
	return &ListingService{DB: db, TxTimeout: txTimeout, Listings: repos.NewListingRepo(db), Notifier: notifier}
}

// ListingQuery filters ListAvailable. A nil Center disables the distance filter.
type ListingQuery struct {
	Center   *domain.Point
	RadiusKm float64
	Status   string
}

// ListingInput is what a donor submits to post surplus food.
type ListingInput struct {
	FoodType     string
	Quantity     string
	Description  *string
	Latitude     float64
	Longitude    float64
	Address      string
	Contact      string
	ExpiryHours  float64
	FoodCategory *string
	ImageURL     *string
}

// ListingUpdate is a partial update; nil fields are left as they are.
type ListingUpdate struct {
	Status      *string
	FoodType    *string
	Quantity    *string
	Description *string
}

// ListAvailable returns unexpired listings with q.Status, newest first. When a
// center is given only listings within RadiusKm (inclusive) are kept and each
// carries its distance.
func (s *ListingService) ListAvailable(ctx context.Context, q ListingQuery) ([]domain.ListingView, error) {
	v := validate.Violations{}
	if q.Status == "" {
		q.Status = domain.ListingAvailable
	}
	if !domain.ValidListingStatus(q.Status) {
		v.Add("status", "unknown listing status")
	}
	if q.RadiusKm <= 0 {
		q.RadiusKm = domain.NearbyRadiusKm
	}
	if q.RadiusKm > MaxSearchRadiusKm {
		v.Add("radius", fmt.Sprintf("radius must be at most %.0f km", MaxSearchRadiusKm))
	}
	if q.Center != nil {
		if !validate.Latitude(q.Center.Lat) {
			v.Add("latitude", "latitude must be between -90 and 90")
		}
		if !validate.Longitude(q.Center.Lon) {
			v.Add("longitude", "longitude must be between -180 and 180")
		}
	}
	if err := invalid(v); err != nil {
		return nil, err
	}

	now := clock(s.Now)
	f := repos.ListingFilter{Status: q.Status, Now: now}
	if q.Center != nil {
		f.HasBand = true
		f.MinLat, f.MaxLat = domain.LatitudeBand(*q.Center, q.RadiusKm)
	}
	rows, err := s.Listings.List(ctx, f)
	if err != nil {
		return nil, err
	}

	out := rows[:0]
	for _, l := range rows {
		if q.Center != nil {
			d := domain.HaversineKm(*q.Center, domain.Point{Lat: l.Latitude, Lon: l.Longitude})
			if d > q.RadiusKm {
				continue
			}
			l.DistanceKm = &d
		}
		l.TimeRemainingSeconds = remaining(l.ExpiryTime, now)
		out = append(out, l)
	}
	return out, nil
}

func (s *ListingService) Get(ctx context.Context, id string) (*domain.ListingView, error) {
	id, ok := validate.ID(id)
	if !ok {
		return nil, ErrNotFound
	}
	l, err := s.Listings.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	l.TimeRemainingSeconds = remaining(l.ExpiryTime, clock(s.Now))
	return l, nil
}

// Create posts a listing for donor and then notifies nearby receivers.
// Notification failures are logged and never undo the listing.
func (s *ListingService) Create(ctx context.Context, donor *domain.User, in ListingInput) (*domain.Listing, error) {
	if donor.Role != domain.RoleDonor {
		return nil, ErrForbidden
	}

	v := validate.Violations{}
	foodType, ok := validate.Text(in.FoodType, 255)
	if !ok {
		v.Add("food_type", "food_type is required (max 255 characters)")
	}
	quantity, ok := validate.Text(in.Quantity, 100)
	if !ok {
		v.Add("quantity", "quantity is required (max 100 characters)")
	}
	address, ok := validate.Text(in.Address, 500)
	if !ok {
		v.Add("address", "address is required (max 500 characters)")
	}
	contact, ok := validate.Phone(in.Contact)
	if !ok {
		v.Add("contact", "contact must be a phone number with 10-15 digits")
	}
	if !validate.Latitude(in.Latitude) {
		v.Add("latitude", "latitude must be between -90 and 90")
	}
	if !validate.Longitude(in.Longitude) {
		v.Add("longitude", "longitude must be between -180 and 180")
	}
	hours, ok := validate.ExpiryHours(in.ExpiryHours)
	if !ok {
		v.Add("expiry_hours", fmt.Sprintf("expiry_hours must be between 0 and %d", domain.MaxExpiryHours))
	}
	description := optionalText(v, "description", in.Description, 2000)
	category := optionalText(v, "food_category", in.FoodCategory, 100)
	var image *string
	if in.ImageURL != nil && *in.ImageURL != "" {
		u, ok := validate.URL(*in.ImageURL)
		if !ok {
			v.Add("image_url", "image_url must be an http(s) URL")
		}
		image = &u
	}
	if err := invalid(v); err != nil {
		return nil, err
	}

	now := clock(s.Now)
	l := &domain.Listing{
		ID:           uuid.NewString(),
		DonorID:      donor.ID,
		FoodType:     foodType,
		Quantity:     quantity,
		Description:  description,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Address:      address,
		Contact:      contact,
		ExpiryTime:   now.Add(time.Duration(hours * float64(time.Hour))).Truncate(time.Microsecond),
		Status:       domain.ListingAvailable,
		FoodCategory: category,
		ImageURL:     image,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Listings.Insert(ctx, l); err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}

	if s.Notifier != nil {
		n, err := s.Notifier.NotifyNearby(ctx, l)
		if err != nil {
			applog.Error(nil, "notify_nearby", err, map[string]any{"listing_id": l.ID})
		} else {
			applog.Info(nil, "notify_nearby", map[string]any{"listing_id": l.ID, "notified": n})
		}
	}
	return l, nil
}

// Update applies a partial update to a listing owned by donorID. Donors may
// only move an available listing to cancelled or expired; anything already
// claimed or closed is ErrNotAvailable.
func (s *ListingService) Update(ctx context.Context, donorID, id string, in ListingUpdate) (*domain.ListingView, error) {
	id, ok := validate.ID(id)
	if !ok {
		return nil, ErrNotFound
	}
	v := validate.Violations{}
	if in.Status != nil && *in.Status != domain.ListingCancelled && *in.Status != domain.ListingExpired {
		v.Add("status", "status may only be set to cancelled or expired")
	}
	p := repos.ListingPatch{Status: in.Status}
	if in.FoodType != nil {
		t, ok := validate.Text(*in.FoodType, 255)
		if !ok {
			v.Add("food_type", "food_type must be 1-255 characters")
		}
		p.FoodType = &t
	}
	if in.Quantity != nil {
		t, ok := validate.Text(*in.Quantity, 100)
		if !ok {
			v.Add("quantity", "quantity must be 1-100 characters")
		}
		p.Quantity = &t
	}
	p.Description = optionalText(v, "description", in.Description, 2000)
	if err := invalid(v); err != nil {
		return nil, err
	}

	if err := s.checkOwner(ctx, s.Listings, id, donorID); err != nil {
		return nil, err
	}
	ok, err := s.Listings.Patch(ctx, id, donorID, p, clock(s.Now))
	if err != nil {
		return nil, err
	}
	if !ok {
		if p.Status != nil {
			return nil, ErrNotAvailable
		}
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes a listing owned by donorID together with its claims and
// notifications.
func (s *ListingService) Delete(ctx context.Context, donorID, id string) error {
	id, ok := validate.ID(id)
	if !ok {
		return ErrNotFound
	}
	err := repos.WithTx(ctx, s.DB, s.TxTimeout, func(tx *sqlx.Tx) error {
		listings := repos.NewListingRepo(tx)
		if err := s.checkOwner(ctx, listings, id, donorID); err != nil {
			return err
		}
		if err := repos.NewNotificationRepo(tx).DeleteByListing(ctx, id); err != nil {
			return fmt.Errorf("delete notifications: %w", err)
		}
		if err := repos.NewClaimRepo(tx).DeleteByListing(ctx, id); err != nil {
			return fmt.Errorf("delete claims: %w", err)
		}
		ok, err := listings.Delete(ctx, id, donorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	})
	return txErr(err)
}

// ExpireStale marks available listings whose expiry has passed as expired.
func (s *ListingService) ExpireStale(ctx context.Context) (int64, error) {
	return s.Listings.ExpireStale(ctx, clock(s.Now))
}

func (s *ListingService) checkOwner(ctx context.Context, listings *repos.ListingRepo, id, donorID string) error {
	owner, err := listings.DonorOf(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != donorID {
		return ErrForbidden
	}
	return nil
}

func remaining(expiry, now time.Time) int64 {
	if d := expiry.Sub(now); d > 0 {
		return int64(d / time.Second)
	}
	return 0
}
