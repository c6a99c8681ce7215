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

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

func (s *MembershipStore) Add(ctx context.Context, roomID, userID uuid.UUID) error {
	// ON CONFLICT DO NOTHING makes the auto-join path idempotent: two
	// racing first-messages from the same user both succeed.
	query := `
		INSERT INTO memberships (room_id, user_id, is_muted, joined_at)
		VALUES ($1, $2, false, now())
		ON CONFLICT (room_id, user_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query, roomID, userID)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *MembershipStore) Remove(ctx context.Context, roomID, userID uuid.UUID) error {
	query := `
		DELETE FROM memberships
		WHERE room_id = $1 AND user_id = $2`

	_, err := s.pool.Exec(ctx, query, roomID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *MembershipStore) Get(ctx context.Context, roomID, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT room_id, user_id, is_muted, joined_at
		FROM memberships
		WHERE room_id = $1 AND user_id = $2`

	var m models.Membership
	err := s.pool.QueryRow(ctx, query, roomID, userID).Scan(
		&m.RoomID,
		&m.UserID,
		&m.IsMuted,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

func (s *MembershipStore) List(ctx context.Context, roomID uuid.UUID) ([]models.Membership, error) {
	query := `
		SELECT room_id, user_id, is_muted, joined_at
		FROM memberships
		WHERE room_id = $1
		ORDER BY joined_at`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.Membership, 0)
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.IsMuted, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}

func (s *MembershipStore) SetMuted(ctx context.Context, roomID, userID uuid.UUID, muted bool) error {
	query := `
		UPDATE memberships
		SET is_muted = $3
		WHERE room_id = $1 AND user_id = $2`

	_, err := s.pool.Exec(ctx, query, roomID, userID, muted)
	if err != nil {
		return fmt.Errorf("set muted: %w", err)
	}
	return nil
}
