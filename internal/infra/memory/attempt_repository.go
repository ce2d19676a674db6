package memory

import (
	"sync"

	"trivia-quest/internal/app"
)

// AttemptRepository is an in-memory implementation of app.AttemptRepository.
// One live attempt per device; a new attempt replaces the old one.
type AttemptRepository struct {
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{
		attempts: make(map[string]*app.Attempt),
	}
}

func (r *AttemptRepository) Put(deviceID string, attempt *app.Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[deviceID] = attempt
}

func (r *AttemptRepository) Get(deviceID string) (*app.Attempt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempt, ok := r.attempts[deviceID]
	return attempt, ok
}

func (r *AttemptRepository) Delete(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, deviceID)
}
