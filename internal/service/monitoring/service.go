package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/sos-sentinel/internal/domain/monitoring"
	"github.com/oshokin/sos-sentinel/internal/logger"
	repo "github.com/oshokin/sos-sentinel/internal/repository/state"
)

// Service caches the monitoring flag and persists every change.
type Service struct {
	// repo handles persistent storage of the flag.
	repo repo.Repository
	// now stamps transitions.
	now func() time.Time
	// state is the current in-memory flag.
	state *domain.State
	// mu protects state.
	mu sync.RWMutex
}

// New creates a service backed by the provided repository and loads the saved flag.
// A missing flag means monitoring was never armed.
func New(ctx context.Context, repository repo.Repository) (*Service, error) {
	s := &Service{
		repo:  repository,
		now:   time.Now,
		state: domain.Disarmed(time.Now()),
	}

	if repository == nil {
		return s, nil
	}

	state, err := repository.Load(ctx)
	switch {
	case err == nil:
		if state != nil {
			s.state = state
		}
	case errors.Is(err, repo.ErrNotFound):
		// Keep default state.
	default:
		return nil, fmt.Errorf("load monitoring state: %w", err)
	}

	return s, nil
}

// IsArmed reports the cached flag.
func (s *Service) IsArmed(_ context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.IsArmed()
}

// State returns a copy of the current flag.
func (s *Service) State(_ context.Context) *domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Clone()
}

// Arm enables monitoring.
func (s *Service) Arm(ctx context.Context, actor *domain.Actor) (*domain.State, error) {
	return s.SetArmed(ctx, actor, true)
}

// Disarm disables monitoring.
func (s *Service) Disarm(ctx context.Context, actor *domain.Actor) (*domain.State, error) {
	return s.SetArmed(ctx, actor, false)
}

// SetArmed flips the flag and persists it. The cached flag only changes when
// the write succeeds.
func (s *Service) SetArmed(ctx context.Context, actor *domain.Actor, armed bool) (*domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Set(actor, s.now(), armed)

	if s.repo != nil {
		if err := s.repo.Save(ctx, next); err != nil {
			logger.Errorf(ctx, "Failed to persist monitoring state: %v", err)

			return nil, fmt.Errorf("persist monitoring state: %w", err)
		}
	}

	s.state = next

	logger.InfoKV(ctx, "Monitoring state updated", "armed", next.Armed, "actor", next.LastActor.String())

	return next.Clone(), nil
}
