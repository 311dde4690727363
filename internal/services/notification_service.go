package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"foodloop/internal/domain"
	"foodloop/internal/repos"
	"foodloop/internal/validate"
)

// notifyChunk bounds rows per INSERT so bind variables stay under SQLite's limit.
const notifyChunk = 500

type NotificationService struct {
	DB            *sqlx.DB
	TxTimeout     time.Duration
	Users         *repos.UserRepo
	Notifications *repos.NotificationRepo
	Now           func() time.Time
}

func NewNotificationService(db *sqlx.DB, txTimeout time.Duration) *NotificationService {
	return &NotificationService{
		DB:            db,
		TxTimeout:     txTimeout,
		Users:         repos.NewUserRepo(db),
		Notifications: repos.NewNotificationRepo(db),
	}
}

// NotifyNearby tells every receiver and volunteer within NearbyRadiusKm of the
// listing about it and returns how many were notified.
func (s *NotificationService) NotifyNearby(ctx context.Context, l *domain.Listing) (int, error) {
	center := domain.Point{Lat: l.Latitude, Lon: l.Longitude}
	minLat, maxLat := domain.LatitudeBand(center, domain.NearbyRadiusKm)
	candidates, err := s.Users.InLatitudeBand(ctx,
		[]string{domain.RoleReceiver, domain.RoleVolunteer}, minLat, maxLat, l.DonorID)
	if err != nil {
		return 0, fmt.Errorf("nearby users: %w", err)
	}

	now := clock(s.Now)
	var batch []domain.Notification
	for _, u := range candidates {
		if !domain.Within(center, domain.Point{Lat: u.Latitude, Lon: u.Longitude}, domain.NearbyRadiusKm) {
			continue
		}
		batch = append(batch, domain.Notification{
			ID:               uuid.NewString(),
			UserID:           u.ID,
			Title:            "New Food Available!",
			Message:          fmt.Sprintf("%s - %s available near you", l.FoodType, l.Quantity),
			Type:             domain.NotifyNewListing,
			RelatedListingID: &l.ID,
			CreatedAt:        now,
		})
	}
	if len(batch) == 0 {
		return 0, nil
	}

	err = repos.WithTx(ctx, s.DB, s.TxTimeout, func(tx *sqlx.Tx) error {
		notifications := repos.NewNotificationRepo(tx)
		for start := 0; start < len(batch); start += notifyChunk {
			end := min(start+notifyChunk, len(batch))
			if err := notifications.InsertBatch(ctx, batch[start:end]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, txErr(err)
	}
	return len(batch), nil
}

func (s *NotificationService) ForUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.Notifications.ListByUser(ctx, userID, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	id, ok := validate.ID(id)
	if !ok {
		return invalid(validate.Violations{"id": "invalid notification id"})
	}
	found, err := s.Notifications.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
