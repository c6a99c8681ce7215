package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davidmey/commune/internal/models"
)

type RoomStore struct {
	pool *pgxpool.Pool
}

func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

func (s *RoomStore) Create(ctx context.Context, name, accessMode string) (*models.Room, error) {
	query := `
		INSERT INTO rooms (id, name, access_mode, is_active, created_at)
		VALUES (uuid_generate_v4(), $1, $2, true, now())
		RETURNING id, name, access_mode, is_active, created_at`

	var r models.Room
	err := s.pool.QueryRow(ctx, query, name, accessMode).Scan(
		&r.ID,
		&r.Name,
		&r.AccessMode,
		&r.IsActive,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	return &r, nil
}

func (s *RoomStore) GetByID(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	query := `
		SELECT id, name, access_mode, is_active, created_at
		FROM rooms
		WHERE id = $1`

	var r models.Room
	err := s.pool.QueryRow(ctx, query, roomID).Scan(
		&r.ID,
		&r.Name,
		&r.AccessMode,
		&r.IsActive,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &r, nil
}

func (s *RoomStore) List(ctx context.Context) ([]models.Room, error) {
	query := `
		SELECT id, name, access_mode, is_active, created_at
		FROM rooms
		WHERE is_active = true
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	roomList := make([]models.Room, 0)
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(
			&r.ID,
			&r.Name,
			&r.AccessMode,
			&r.IsActive,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		roomList = append(roomList, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	return roomList, nil
}

// Deactivate soft-deletes the room and hard-deletes its messages and
// memberships. One transaction so a crash can't leave orphan rows behind
// an inactive room.
func (s *RoomStore) Deactivate(ctx context.Context, roomID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin deactivate: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("delete room messages: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM memberships WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("delete room memberships: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE rooms SET is_active = false WHERE id = $1`, roomID); err != nil {
		return fmt.Errorf("deactivate room: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit deactivate: %w", err)
	}
	return nil
}
