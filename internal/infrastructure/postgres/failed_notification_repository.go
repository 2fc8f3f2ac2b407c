package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sngm3741/revision-landing-services/api/internal/notify"
)

// FailedNotificationRepository keeps undelivered staff notifications.
type FailedNotificationRepository struct {
	db *DB
}

func NewFailedNotificationRepository(db *DB) *FailedNotificationRepository {
	return &FailedNotificationRepository{db: db}
}

func (r *FailedNotificationRepository) SaveFailure(ctx context.Context, n *notify.FailedNotification) error {
	id := uuid.New()
	status := n.Status
	if status == "" {
		status = notify.StatusPending
	}
	_, err := r.db.Pool.Exec(ctx, `INSERT INTO failed_notifications
		(id, target, lead_id, identifier, text, error, attempts, status, created_at, last_tried_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, n.Target, n.LeadID, n.Identifier, n.Text, n.Error, n.Attempts, status, n.CreatedAt, n.LastTriedAt,
	)
	if err != nil {
		return fmt.Errorf("insert failed notification: %w", err)
	}
	n.ID = id.String()
	return nil
}

func (r *FailedNotificationRepository) ListPending(ctx context.Context, limit int) ([]notify.FailedNotification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Pool.Query(ctx, `SELECT id, target, coalesce(lead_id, ''), identifier, text, error,
		attempts, status, created_at, last_tried_at
		FROM failed_notifications WHERE status = $1 ORDER BY created_at LIMIT $2`, notify.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]notify.FailedNotification, 0)
	for rows.Next() {
		var (
			n  notify.FailedNotification
			id uuid.UUID
		)
		if err := rows.Scan(&id, &n.Target, &n.LeadID, &n.Identifier, &n.Text, &n.Error,
			&n.Attempts, &n.Status, &n.CreatedAt, &n.LastTriedAt); err != nil {
			return nil, err
		}
		n.ID = id.String()
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *FailedNotificationRepository) UpdateAttempt(ctx context.Context, id string, attempts int, status, lastError string, triedAt time.Time) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid failed notification id %q: %w", id, err)
	}
	_, err = r.db.Pool.Exec(ctx, `UPDATE failed_notifications
		SET attempts = $2, status = $3, last_tried_at = $4, error = CASE WHEN $5 = '' THEN error ELSE $5 END
		WHERE id = $1`, parsed, attempts, status, triedAt, lastError)
	return err
}
