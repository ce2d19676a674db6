package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quest/internal/domain"
)

// Store keeps the player and progress slots in Postgres for durability
// across service restarts. Progress is stored as a JSONB document so the
// record layout matches the other backends byte for byte.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) SavePlayerName(ctx context.Context, deviceID, name string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO players (device_id, name) VALUES ($1, $2)
		 ON CONFLICT (device_id) DO UPDATE SET name = EXCLUDED.name`,
		deviceID, name)
	if err != nil {
		return fmt.Errorf("save player name: %w", err)
	}
	return nil
}

func (s *Store) GetPlayerName(ctx context.Context, deviceID string) (string, bool, error) {
	var name string
	err := s.pool.QueryRow(ctx, `SELECT name FROM players WHERE device_id = $1`, deviceID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get player name: %w", err)
	}
	return name, true, nil
}

func (s *Store) ClearPlayerName(ctx context.Context, deviceID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM players WHERE device_id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("clear player name: %w", err)
	}
	return nil
}

func (s *Store) SaveProgress(ctx context.Context, deviceID string, progress domain.Progress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO progress (device_id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (device_id) DO UPDATE SET data = EXCLUDED.data`,
		deviceID, string(data))
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// GetProgress returns the saved snapshot. An unparsable record is logged
// and reported absent rather than failing the caller.
func (s *Store) GetProgress(ctx context.Context, deviceID string) (domain.Progress, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM progress WHERE device_id = $1`, deviceID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Progress{}, false, nil
	}
	if err != nil {
		return domain.Progress{}, false, fmt.Errorf("get progress: %w", err)
	}
	var progress domain.Progress
	if err := json.Unmarshal(raw, &progress); err != nil {
		log.Printf("discarding malformed progress for %s: %v", deviceID, err)
		return domain.Progress{}, false, nil
	}
	return progress, true, nil
}

func (s *Store) ClearProgress(ctx context.Context, deviceID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM progress WHERE device_id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
