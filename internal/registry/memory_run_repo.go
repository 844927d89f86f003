package registry

import (
	"context"
	"sync"
	"time"

	"github.com/replyforge/email-responder/internal/domain"
)

// MemoryRunRepository is a mutex-guarded in-memory RunRepository.
// It is the default when no database is configured, and doubles as the
// test double — no mock-generation library needed.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]*domain.Run

	// Optional error overrides — set in tests to simulate failure paths.
	CreateErr  error
	GetByIDErr error
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]*domain.Run)}
}

func (m *MemoryRunRepository) Create(_ context.Context, run *domain.Run) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *run
	m.runs[run.ID] = &clone
	return nil
}

func (m *MemoryRunRepository) GetByID(_ context.Context, id string) (*domain.Run, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	clone := *run
	return &clone, nil
}

func (m *MemoryRunRepository) SetEmailCount(_ context.Context, id string, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[id]; ok {
		run.EmailCount = count
	}
	return nil
}

func (m *MemoryRunRepository) MarkCompleted(_ context.Context, id string, counters domain.Counters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return domain.ErrRunNotFound
	}
	now := time.Now().UTC()
	run.State = domain.RunStateCompleted
	run.Counters = counters
	run.FinishedAt = &now
	return nil
}

func (m *MemoryRunRepository) MarkFailed(_ context.Context, id string, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return domain.ErrRunNotFound
	}
	now := time.Now().UTC()
	run.State = domain.RunStateFailed
	run.ErrorMessage = &errMsg
	run.FinishedAt = &now
	return nil
}

func (m *MemoryRunRepository) Counts(_ context.Context) (running, completed, failed int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, run := range m.runs {
		switch run.State {
		case domain.RunStateRunning:
			running++
		case domain.RunStateCompleted:
			completed++
		case domain.RunStateFailed:
			failed++
		}
	}
	return running, completed, failed, nil
}

var _ RunRepository = (*MemoryRunRepository)(nil)
