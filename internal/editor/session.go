// Package editor holds the editing session of one open portfolio: gestures are
// applied to the local section collection first, then persisted in the background.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/modulux/internal/sections"
	"go.uber.org/zap"
)

// DefaultPersistTimeout bounds a single save call.
const DefaultPersistTimeout = 10 * time.Second

// State is the lifecycle of a session.
type State string

const (
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateNotFound State = "not_found"
	// StateConflict keeps local edits but stops persisting until Reload.
	StateConflict State = "conflict"
	// StateFailed means the initial load hit a backend error.
	StateFailed State = "failed"
)

var (
	errMissingBackend     = errors.New("editor: backend is required")
	errMissingPortfolioID = errors.New("editor: portfolio id is required")
	noOpLogger            = zap.NewNop()
)

type Config struct {
	Backend        Backend
	PortfolioID    string
	IDSource       sections.IDSource
	PersistTimeout time.Duration
	Logger         *zap.Logger
}

// Session owns the section collection of one open portfolio. Every gesture
// reads and writes the collection under one lock, so gestures never interleave.
// At most one save is in flight; edits made meanwhile coalesce into the next save.
type Session struct {
	backend        Backend
	portfolioID    string
	ids            sections.IDSource
	persistTimeout time.Duration
	logger         *zap.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	mu         sync.Mutex
	state      State
	name       string
	collection []sections.Section
	version    int64
	pending    bool
	inFlight   bool
	idle       chan struct{}
	lastErr    error
}

// Open constructs a session and loads the portfolio.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Backend == nil {
		return nil, errMissingBackend
	}
	if cfg.PortfolioID == "" {
		return nil, errMissingPortfolioID
	}
	ids := cfg.IDSource
	if ids == nil {
		ids = sections.NewUUIDSource()
	}
	timeout := cfg.PersistTimeout
	if timeout <= 0 {
		timeout = DefaultPersistTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	session := &Session{
		backend:        cfg.Backend,
		portfolioID:    cfg.PortfolioID,
		ids:            ids,
		persistTimeout: timeout,
		logger:         logger.With(zap.String("portfolio_id", cfg.PortfolioID)),
		baseCtx:        baseCtx,
		cancel:         cancel,
		state:          StateLoading,
		collection:     []sections.Section{},
		idle:           idle,
	}
	if err := session.Reload(ctx); err != nil {
		return session, err
	}
	return session, nil
}

// Reload waits for any in-flight save, then replaces local state with the stored
// portfolio. It is the way out of StateConflict; unsaved local edits are discarded.
// Gestures are ignored while the reload runs.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	previous, previousPending := s.state, s.pending
	s.state = StateLoading
	s.pending = false
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		s.mu.Lock()
		if s.state == StateLoading {
			s.state = previous
			if previous == StateReady && previousPending {
				s.schedulePersistLocked()
			}
		}
		s.mu.Unlock()
		return ctx.Err()
	}
	snapshot, found, err := s.backend.Fetch(ctx, s.portfolioID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if err != nil {
		s.state = StateFailed
		s.lastErr = err
		s.logger.Error("portfolio load failed", zap.Error(err))
		return err
	}
	if !found {
		s.state = StateNotFound
		s.lastErr = ErrNotFound
		s.collection = []sections.Section{}
		return nil
	}
	s.state = StateReady
	s.lastErr = nil
	s.name = snapshot.Name
	s.version = snapshot.Version
	s.collection = sections.CloneAll(snapshot.Sections)
	if s.collection == nil {
		s.collection = []sections.Section{}
	}
	return nil
}

// Close stops background persistence. In-flight saves are cancelled.
func (s *Session) Close() {
	s.cancel()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Name is the portfolio name at load time.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Sections returns a copy of the local collection.
func (s *Session) Sections() []sections.Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sections.CloneAll(s.collection)
}

// Version is the last stored version acknowledged by the backend.
func (s *Session) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Err returns the most recent load or persist failure, cleared by the next successful save.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Saving reports whether a save is in flight or queued.
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight || s.pending
}

// Wait blocks until no save is in flight or ctx ends.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddSection creates a section of kind from its default template and appends it.
// Types outside the catalog are rejected.
func (s *Session) AddSection(kind sections.Type) (sections.Section, bool) {
	if !kind.Valid() {
		s.logger.Warn("gesture rejected", zap.String("gesture", "add"), zap.String("section_type", string(kind)))
		return sections.Section{}, false
	}
	var created sections.Section
	applied := s.mutate("add", func(current []sections.Section) ([]sections.Section, error) {
		created = sections.Create(kind, len(current), s.ids)
		return sections.Insert(current, created), nil
	})
	return created, applied
}

// DeleteSection removes the section and renumbers the rest.
func (s *Session) DeleteSection(sectionID string) bool {
	return s.mutate("delete", func(current []sections.Section) ([]sections.Section, error) {
		return sections.Delete(current, sectionID), nil
	})
}

// DuplicateSection appends a copy of the section under a new id.
func (s *Session) DuplicateSection(sectionID string) bool {
	return s.mutate("duplicate", func(current []sections.Section) ([]sections.Section, error) {
		return sections.Duplicate(current, sectionID, s.ids), nil
	})
}

// Reorder moves fromID to the position of toID.
func (s *Session) Reorder(fromID, toID string) bool {
	return s.mutate("reorder", func(current []sections.Section) ([]sections.Section, error) {
		return sections.Reorder(current, fromID, toID), nil
	})
}

// UpdateField merges patch into the data of the section.
func (s *Session) UpdateField(sectionID string, patch sections.Patch) bool {
	return s.mutate("update", func(current []sections.Section) ([]sections.Section, error) {
		return sections.UpdateData(current, sectionID, patch)
	})
}

// mutate applies a gesture to the local collection and schedules a save. It
// reports whether the gesture was applied; rejected gestures are logged.
func (s *Session) mutate(gesture string, apply func([]sections.Section) ([]sections.Section, error)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady && s.state != StateConflict {
		s.logger.Warn("gesture ignored", zap.String("gesture", gesture), zap.String("state", string(s.state)))
		return false
	}
	next, err := apply(s.collection)
	if err != nil {
		s.logger.Warn("gesture rejected", zap.String("gesture", gesture), zap.Error(err))
		return false
	}
	if sameCollection(s.collection, next) {
		return false
	}
	s.collection = next
	if s.state == StateReady {
		s.schedulePersistLocked()
	}
	return true
}

func (s *Session) schedulePersistLocked() {
	s.pending = true
	if s.inFlight {
		return
	}
	s.inFlight = true
	s.idle = make(chan struct{})
	go s.persistLoop(s.idle)
}

func (s *Session) persistLoop(done chan struct{}) {
	defer close(done)
	for {
		s.mu.Lock()
		if !s.pending || s.state != StateReady {
			s.pending = false
			s.inFlight = false
			s.mu.Unlock()
			return
		}
		collection := sections.CloneAll(s.collection)
		expectedVersion := s.version
		s.pending = false
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(s.baseCtx, s.persistTimeout)
		version, err := s.backend.SaveSections(ctx, s.portfolioID, collection, expectedVersion)
		cancel()

		s.mu.Lock()
		switch {
		case err == nil:
			s.version = version
			s.lastErr = nil
		case errors.Is(err, ErrConflict):
			if s.state == StateReady {
				s.state = StateConflict
			}
			s.lastErr = err
			s.logger.Warn("portfolio save conflicted", zap.Int64("expected_version", expectedVersion))
		case errors.Is(err, ErrNotFound):
			if s.state == StateReady {
				s.state = StateNotFound
			}
			s.lastErr = err
			s.logger.Warn("portfolio disappeared while saving")
		default:
			s.lastErr = err
			s.logger.Error("portfolio save failed", zap.Error(err), zap.Int("sections", len(collection)))
		}
		s.mu.Unlock()
	}
}

// sameCollection detects the no-op results of the editing functions, which hand
// back their input slice.
func sameCollection(current, next []sections.Section) bool {
	if len(current) != len(next) {
		return false
	}
	if len(current) == 0 {
		return true
	}
	return &current[0] == &next[0]
}
