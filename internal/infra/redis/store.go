package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-quest/internal/domain"
)

// Store keeps the player and progress slots in Redis, keyed per device.
// Player names have no expiry; progress records optionally expire after
// progressTTL so abandoned attempts do not pile up (0 disables expiry).
type Store struct {
	client      *redis.Client
	progressTTL time.Duration
}

func NewStore(client *redis.Client, progressTTL time.Duration) *Store {
	return &Store{client: client, progressTTL: progressTTL}
}

func (s *Store) SavePlayerName(ctx context.Context, deviceID, name string) error {
	return s.client.Set(ctx, playerKey(deviceID), name, 0).Err()
}

func (s *Store) GetPlayerName(ctx context.Context, deviceID string) (string, bool, error) {
	name, err := s.client.Get(ctx, playerKey(deviceID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (s *Store) ClearPlayerName(ctx context.Context, deviceID string) error {
	return s.client.Del(ctx, playerKey(deviceID)).Err()
}

func (s *Store) SaveProgress(ctx context.Context, deviceID string, progress domain.Progress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, progressKey(deviceID), data, s.progressTTL).Err()
}

// GetProgress returns the saved snapshot. An unparsable record is logged
// and reported absent rather than failing the caller.
func (s *Store) GetProgress(ctx context.Context, deviceID string) (domain.Progress, bool, error) {
	raw, err := s.client.Get(ctx, progressKey(deviceID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Progress{}, false, nil
	}
	if err != nil {
		return domain.Progress{}, false, err
	}
	var progress domain.Progress
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		log.Printf("discarding malformed progress for %s: %v", deviceID, err)
		return domain.Progress{}, false, nil
	}
	return progress, true, nil
}

func (s *Store) ClearProgress(ctx context.Context, deviceID string) error {
	return s.client.Del(ctx, progressKey(deviceID)).Err()
}

func playerKey(deviceID string) string {
	return "device:" + deviceID + ":player"
}

func progressKey(deviceID string) string {
	return "device:" + deviceID + ":progress"
}
