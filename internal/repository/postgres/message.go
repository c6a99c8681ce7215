package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidmey/commune/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func (s *MessageStore) Create(ctx context.Context, roomID, senderID uuid.UUID, body string, preview *models.LinkPreview) (*models.ChatMessage, error) {
	// The link preview is optional JSONB; NULL when the message carries
	// no URL or resolution failed.
	var previewJSON []byte
	if preview != nil {
		var err error
		previewJSON, err = json.Marshal(preview)
		if err != nil {
			return nil, fmt.Errorf("marshal link preview: %w", err)
		}
	}

	query := `
		INSERT INTO messages (room_id, sender_id, body, link_preview, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, room_id, sender_id, body, link_preview, created_at`

	return s.scanRow(s.pool.QueryRow(ctx, query, roomID, senderID, body, previewJSON))
}

func (s *MessageStore) GetByID(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
	query := `
		SELECT id, room_id, sender_id, body, link_preview, created_at
		FROM messages
		WHERE id = $1`

	msg, err := s.scanRow(s.pool.QueryRow(ctx, query, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

func (s *MessageStore) ListByRoom(ctx context.Context, roomID uuid.UUID, before int64, limit int) ([]models.ChatMessage, error) {
	// Cursor pagination on the bigserial ID: before=0 is the first page
	// (newest), before=N means "older than message N". Clients use this
	// to re-sync history after a dropped socket.
	var query string
	var args []any

	if before > 0 {
		query = `
			SELECT id, room_id, sender_id, body, link_preview, created_at
			FROM messages
			WHERE room_id = $1 AND id < $2
			ORDER BY id DESC
			LIMIT $3`
		args = []any{roomID, before, limit}
	} else {
		query = `
			SELECT id, room_id, sender_id, body, link_preview, created_at
			FROM messages
			WHERE room_id = $1
			ORDER BY id DESC
			LIMIT $2`
		args = []any{roomID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		msg, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

func (s *MessageStore) Delete(ctx context.Context, messageID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (s *MessageStore) scanRow(row pgx.Row) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	var previewJSON []byte
	err := row.Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.SenderID,
		&msg.Body,
		&previewJSON,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan message: %w", err)
	}
	if len(previewJSON) > 0 {
		var preview models.LinkPreview
		if err := json.Unmarshal(previewJSON, &preview); err != nil {
			return nil, fmt.Errorf("unmarshal link preview: %w", err)
		}
		msg.LinkPreview = &preview
	}
	return &msg, nil
}
