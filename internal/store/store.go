// Package store owns the project collection. Changes arrive as intents,
// are applied to a private copy and published as a new immutable snapshot.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gantt2svg/internal/metrics"
	"gantt2svg/pkg/plan"
)

// Snapshot is one published version of the project collection.
// It must not be modified once published.
type Snapshot struct {
	Version  uint64
	Projects []plan.Project
	At       time.Time
}

// Project returns a copy of the project with the given id.
func (s *Snapshot) Project(id string) (plan.Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return plan.Project{}, false
}

// Result describes a successfully applied intent.
type Result struct {
	Snapshot *Snapshot
	// ID of the record created or changed, empty for bulk intents.
	ID string
}

// Store holds the current snapshot and fans new ones out to subscribers.
type Store struct {
	mu      sync.Mutex
	current *Snapshot
	subs    map[int]chan *Snapshot
	nextSub int

	persister Persister
	logger    *zap.Logger
	now       func() time.Time
	newID     func(prefix string) string
}

// Option configures a Store.
type Option func(*Store)

// WithPersister saves every published snapshot through p.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithClock replaces time.Now for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID-based id generator.
func WithIDGenerator(newID func(prefix string) string) Option {
	return func(s *Store) { s.newID = newID }
}

func newUUID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// New creates a store whose first snapshot holds a copy of projects.
func New(projects []plan.Project, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		subs:   make(map[int]chan *Snapshot),
		logger: logger,
		now:    time.Now,
		newID:  newUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = &Snapshot{Version: 1, Projects: cloneAll(projects), At: s.now()}
	return s
}

// Open creates a store seeded from the persister. If the persister holds no
// projects, fallback seeds the store instead.
func Open(ctx context.Context, p Persister, fallback []plan.Project, logger *zap.Logger, opts ...Option) (*Store, error) {
	projects, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	seeded := len(projects) == 0 && len(fallback) > 0
	if seeded {
		projects = fallback
	}
	logger.Info("Project store opened",
		zap.Int("projects", len(projects)),
		zap.Bool("seeded", seeded),
	)

	s := New(projects, logger, append(opts, WithPersister(p))...)
	if seeded {
		s.persist(ctx, s.current)
	}
	return s, nil
}

func cloneAll(projects []plan.Project) []plan.Project {
	out := make([]plan.Project, len(projects))
	for i, p := range projects {
		out[i] = p.Clone()
	}
	return out
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Dispatch applies an intent and publishes the resulting snapshot.
// Validation and lookup failures are returned and publish nothing.
func (s *Store) Dispatch(ctx context.Context, intent Intent) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := &working{
		projects: cloneAll(s.current.Projects),
		now:      s.now(),
		newID:    s.newID,
	}
	id, err := intent.apply(w)
	if err != nil {
		metrics.RecordIntent(intent.Name(), resultLabel(err))
		s.logger.Debug("Intent rejected",
			zap.String("intent", intent.Name()),
			zap.Error(err),
		)
		return Result{}, err
	}

	next := &Snapshot{Version: s.current.Version + 1, Projects: w.projects, At: w.now}
	s.current = next
	metrics.RecordIntent(intent.Name(), "ok")
	s.logger.Info("Intent applied",
		zap.String("intent", intent.Name()),
		zap.String("id", id),
		zap.Uint64("version", next.Version),
	)

	s.publish(next)
	s.persist(ctx, next)
	return Result{Snapshot: next, ID: id}, nil
}

func resultLabel(err error) string {
	var verr *plan.ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, plan.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// persist saves a snapshot. Failures are logged and swallowed so that a
// broken backend never blocks editing.
func (s *Store) persist(ctx context.Context, snap *Snapshot) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, snap.Projects); err != nil {
		metrics.PersistFailures.Inc()
		s.logger.Error("Failed to persist snapshot",
			zap.Uint64("version", snap.Version),
			zap.Error(err),
		)
	}
}

// Subscribe returns a channel that receives every snapshot published after
// the call. Slow readers only see the latest one. The channel is closed
// when ctx is done.
func (s *Store) Subscribe(ctx context.Context) <-chan *Snapshot {
	ch := make(chan *Snapshot, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// publish must be called with s.mu held.
func (s *Store) publish(snap *Snapshot) {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Close releases the persister.
func (s *Store) Close() error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Close()
}
