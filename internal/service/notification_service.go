package service

import (
	"context"

	"payvault/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StoredNotifier implements ports.Notifier by persisting notifications.
// Delivery is strictly best-effort: a failed write is logged and swallowed
// so it can never unwind a committed money movement.
type StoredNotifier struct {
	repo ports.NotificationRepository
	log  zerolog.Logger
}

// NewStoredNotifier creates a new StoredNotifier.
func NewStoredNotifier(repo ports.NotificationRepository, log zerolog.Logger) *StoredNotifier {
	return &StoredNotifier{repo: repo, log: log}
}

// Notify records a notification for the user.
func (n *StoredNotifier) Notify(ctx context.Context, userID uuid.UUID, title, body string) {
	if err := n.repo.Create(ctx, userID, title, body); err != nil {
		n.log.Warn().Err(err).
			Str("user_id", userID.String()).
			Str("title", title).
			Msg("notification write failed")
	}
}
