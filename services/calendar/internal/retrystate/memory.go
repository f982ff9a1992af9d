package retrystate

import (
	"context"
	"sync"
)

type memoryEntry struct {
	state State
	token string
}

type MemoryTracker struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{entries: make(map[string]memoryEntry)}
}

func (t *MemoryTracker) Begin(_ context.Context, key string) (Attempt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.entries[key].state.Phase == PhaseInFlight {
		return Attempt{}, ErrInFlight
	}
	attempt := newAttempt(key)
	t.entries[key] = memoryEntry{state: State{Phase: PhaseInFlight}, token: attempt.Token}
	return attempt, nil
}

func (t *MemoryTracker) Succeed(_ context.Context, attempt Attempt, url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.holds(attempt) {
		return ErrSuperseded
	}
	t.entries[attempt.Key] = memoryEntry{state: State{Phase: PhaseSucceeded, URL: url}}
	return nil
}

func (t *MemoryTracker) Reset(_ context.Context, attempt Attempt) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.holds(attempt) {
		return ErrSuperseded
	}
	delete(t.entries, attempt.Key)
	return nil
}

func (t *MemoryTracker) Get(_ context.Context, key string) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		return State{Phase: PhaseIdle}, nil
	}
	return entry.state, nil
}

func (t *MemoryTracker) holds(attempt Attempt) bool {
	entry := t.entries[attempt.Key]
	return entry.state.Phase == PhaseInFlight && entry.token == attempt.Token
}
