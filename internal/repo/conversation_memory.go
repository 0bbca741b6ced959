package repo

import (
	"context"
	"sync"
	"time"

	"github.com/terrainnova-ai/server/internal/model"
)

// MemoryContextRepository keeps context in process memory. It is the fallback used
// while Redis is unavailable; its contents are lost on restart.
type MemoryContextRepository struct {
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
}

type memoryEntry struct {
	turns   []model.Turn
	touched time.Time
}

func NewMemoryContextRepository(ttl time.Duration, maxTurns int) *MemoryContextRepository {
	return &MemoryContextRepository{
		entries:  make(map[string]*memoryEntry),
		ttl:      ttl,
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

// entry returns the live entry for userID, dropping it if expired. Caller holds mu.
func (m *MemoryContextRepository) entry(userID string) *memoryEntry {
	e, ok := m.entries[userID]
	if !ok {
		return nil
	}
	if m.ttl > 0 && m.now().Sub(e.touched) > m.ttl {
		delete(m.entries, userID)
		return nil
	}
	return e
}

func (m *MemoryContextRepository) Load(_ context.Context, userID string) ([]model.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entry(userID)
	if e == nil {
		return []model.Turn{}, nil
	}
	out := make([]model.Turn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

func (m *MemoryContextRepository) Append(_ context.Context, userID string, turns ...model.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entry(userID)
	if e == nil {
		e = &memoryEntry{}
		m.entries[userID] = e
	}

	merged := append(e.turns, turns...)
	if m.maxTurns > 0 && len(merged) > m.maxTurns {
		merged = merged[len(merged)-m.maxTurns:]
	}
	// copy so the retained slice never aliases a caller's backing array
	e.turns = append([]model.Turn(nil), merged...)
	e.touched = m.now()
	return nil
}

func (m *MemoryContextRepository) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, userID)
	return nil
}

// Users returns how many users currently hold context.
func (m *MemoryContextRepository) Users() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// Close drops every entry. The repository stays usable afterwards.
func (m *MemoryContextRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]*memoryEntry)
	return nil
}

var _ model.ContextRepository = (*MemoryContextRepository)(nil)
