package memory

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"trivia-quest/internal/domain"
)

// Store is an in-memory implementation of the player and progress slots.
// Progress is kept as its serialized form so the malformed-record recovery
// path behaves exactly like the durable backends.
type Store struct {
	mu       sync.RWMutex
	names    map[string]string
	progress map[string]string
}

func NewStore() *Store {
	return &Store{
		names:    make(map[string]string),
		progress: make(map[string]string),
	}
}

func (s *Store) SavePlayerName(_ context.Context, deviceID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[deviceID] = name
	return nil
}

func (s *Store) GetPlayerName(_ context.Context, deviceID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[deviceID]
	return name, ok, nil
}

func (s *Store) ClearPlayerName(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.names, deviceID)
	return nil
}

func (s *Store) SaveProgress(_ context.Context, deviceID string, progress domain.Progress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[deviceID] = string(data)
	return nil
}

// GetProgress returns the saved snapshot. A record that no longer parses
// is logged and reported absent so the caller starts fresh.
func (s *Store) GetProgress(_ context.Context, deviceID string) (domain.Progress, bool, error) {
	s.mu.RLock()
	raw, ok := s.progress[deviceID]
	s.mu.RUnlock()
	if !ok {
		return domain.Progress{}, false, nil
	}
	var progress domain.Progress
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		log.Printf("discarding malformed progress for %s: %v", deviceID, err)
		return domain.Progress{}, false, nil
	}
	return progress, true, nil
}

func (s *Store) ClearProgress(_ context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, deviceID)
	return nil
}

// SetRawProgress writes an arbitrary string into the progress slot,
// bypassing serialization. Used by tests to simulate corruption.
func (s *Store) SetRawProgress(deviceID, raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[deviceID] = raw
}
