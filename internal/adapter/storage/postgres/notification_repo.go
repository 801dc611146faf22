package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NotificationRepo implements ports.NotificationRepository. Writes are
// best-effort from the caller's perspective; a failure here must never roll
// back a committed money movement.
type NotificationRepo struct {
	pool Pool
}

// NewNotificationRepo creates a new NotificationRepo.
func NewNotificationRepo(pool Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Create inserts a notification row.
func (r *NotificationRepo) Create(ctx context.Context, userID uuid.UUID, title, body string) error {
	query := `INSERT INTO notifications (id, user_id, title, body, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, uuid.New(), userID, title, body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
