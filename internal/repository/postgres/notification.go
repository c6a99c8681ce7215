package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidmey/commune/internal/models"
)

type NotificationStore struct {
	pool *pgxpool.Pool
}

func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

func (s *NotificationStore) Create(ctx context.Context, userID uuid.UUID, kind string, roomID uuid.UUID, messageID int64, actorID uuid.UUID) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, kind, room_id, message_id, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, user_id, kind, room_id, message_id, actor_id, read_at, created_at`

	var n models.Notification
	err := s.pool.QueryRow(ctx, query, userID, kind, roomID, messageID, actorID).Scan(
		&n.ID,
		&n.UserID,
		&n.Kind,
		&n.RoomID,
		&n.MessageID,
		&n.ActorID,
		&n.ReadAt,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return &n, nil
}

func (s *NotificationStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, kind, room_id, message_id, actor_id, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Kind,
			&n.RoomID,
			&n.MessageID,
			&n.ActorID,
			&n.ReadAt,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead scopes the update to the owning user so one user cannot mark
// another's notifications.
func (s *NotificationStore) MarkRead(ctx context.Context, notificationID int64, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_at = now()
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL`

	_, err := s.pool.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
