package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"foodloop/internal/domain"
)

const insertNotification = `
	INSERT INTO notifications (id, user_id, title, message, type, read, related_listing_id, created_at)
	VALUES (:id, :user_id, :title, :message, :type, :read, :related_listing_id, :created_at)`

type NotificationRepo struct{ db sqlx.ExtContext }

func NewNotificationRepo(db sqlx.ExtContext) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Insert(ctx context.Context, n *domain.Notification) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, insertNotification, n)
	return err
}

// InsertBatch writes all rows with a single multi-row INSERT.
func (r *NotificationRepo) InsertBatch(ctx context.Context, ns []domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, r.db, insertNotification, ns)
	return err
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, read, related_listing_id, created_at
		FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	out := []domain.Notification{}
	err := sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(query), userID)
	return out, err
}

// MarkRead flags a notification owned by userID; false means no such notification.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE notifications SET read = TRUE WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *NotificationRepo) DeleteByListing(ctx context.Context, listingID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM notifications WHERE related_listing_id = ?`), listingID)
	return err
}
