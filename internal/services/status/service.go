package status

import (
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mailticket/internal/common"
)

// AppState represents the application state
type AppState string

const (
	StateIdle AppState = "idle"
	StateBusy AppState = "busy"
)

// Operations that run at most once at a time
const (
	OpExtract = "extract"
	OpSubmit  = "submit"
)

// Service tracks in-flight operations. Each operation may run at most once at a time.
type Service struct {
	mu        sync.RWMutex
	active    map[string]time.Time
	startedAt time.Time
	logger    arbor.ILogger
}

// NewService creates a new StatusService
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		active:    make(map[string]time.Time),
		startedAt: time.Now(),
		logger:    logger,
	}
}

// Begin marks op as running. It returns false if op is already running.
func (s *Service) Begin(op string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.active[op]; running {
		s.logger.Debug().Str("operation", op).Msg("Operation already in flight")
		return false
	}
	s.active[op] = time.Now()
	return true
}

// End marks op as finished
func (s *Service) End(op string) {
	s.mu.Lock()
	started, ok := s.active[op]
	delete(s.active, op)
	s.mu.Unlock()

	if ok {
		s.logger.Debug().Str("operation", op).Dur("duration", time.Since(started)).Msg("Operation finished")
	}
}

// GetState returns the current application state (thread-safe)
func (s *Service) GetState() AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.active) == 0 {
		return StateIdle
	}
	return StateBusy
}

// GetStatus returns the full status including state, running operations and version
func (s *Service) GetStatus() map[string]interface{} {
	s.mu.RLock()
	active := make([]string, 0, len(s.active))
	for op := range s.active {
		active = append(active, op)
	}
	s.mu.RUnlock()
	sort.Strings(active)

	state := StateIdle
	if len(active) > 0 {
		state = StateBusy
	}

	return map[string]interface{}{
		"state":     string(state),
		"active":    active,
		"version":   common.GetVersion(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"timestamp": time.Now(),
	}
}
