// Package store holds the workout state for one client screen: the loaded
// plan, the selected day and the per-day completion index derived from the
// exercises' completion flags.
//
// All mutation goes through SelectDay and ToggleExerciseCompletion. Readers
// get deep-copied snapshots, either on demand or through Subscribe.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/fitplan/internal/models"
)

// DefaultDay is the selection before a plan is loaded, and after loading a
// plan with no days.
const DefaultDay = 1

// Source produces the plan a store serves.
type Source interface {
	Load(ctx context.Context) (*models.Plan, error)
}

// Status is the load state of a store.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Outcome is the result of a mutating call. Anything other than OK leaves
// the state unchanged.
type Outcome int

const (
	OK Outcome = iota
	NoSuchDay
	NoSuchExercise
	Closed
	NotLoaded
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case NoSuchDay:
		return "no_such_day"
	case NoSuchExercise:
		return "no_such_exercise"
	case Closed:
		return "closed"
	case NotLoaded:
		return "not_loaded"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Snapshot is a read-only copy of the store's state. Mutating it has no
// effect on the store.
type Snapshot struct {
	Version     uint64       `json:"version"`
	Status      Status       `json:"status"`
	LoadError   string       `json:"load_error,omitempty"`
	Plan        *models.Plan `json:"plan"`
	SelectedDay int          `json:"selected_day"`
	CurrentDay  *models.Day  `json:"current_day"`
	Completion  map[int]bool `json:"completion"`
}

// Store is the single source of truth for one screen's workout state.
type Store struct {
	src Source
	log *slog.Logger

	mu         sync.Mutex
	plan       *models.Plan
	selected   int
	completion map[int]bool
	status     Status
	loadErr    string
	version    uint64
	closed     bool
	subs       map[int]chan Snapshot
	nextSub    int

	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	loadDone  chan struct{}
}

// New creates a store over src. Nothing is read until Start or Load.
func New(src Source, log *slog.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		src:        src,
		log:        log,
		selected:   DefaultDay,
		completion: map[int]bool{},
		status:     StatusPending,
		subs:       make(map[int]chan Snapshot),
		ctx:        ctx,
		cancel:     cancel,
		loadDone:   make(chan struct{}),
	}
}

// Start runs the initial load on a background goroutine. Only the first call
// has an effect. The load is bound to both ctx and the store's lifetime.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go func() {
			defer close(s.loadDone)
			loadCtx, cancel := context.WithCancel(s.ctx)
			defer cancel()
			stop := context.AfterFunc(ctx, cancel)
			defer stop()

			err := s.Load(loadCtx)
			if err == nil || errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
				return
			}
			s.log.Warn("plan load failed", "error", err)
		}()
	})
}

// Wait blocks until the load started by Start has finished or ctx is done.
func (s *Store) Wait(ctx context.Context) error {
	select {
	case <-s.loadDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Load reads the plan from the source and replaces the store's state. On
// failure the plan is absent, the selection keeps its current value and the
// completion index is empty. Panics in the source are reported as errors.
func (s *Store) Load(ctx context.Context) error {
	plan, err := s.read(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err != nil {
		s.plan = nil
		s.completion = map[int]bool{}
		s.status = StatusFailed
		s.loadErr = err.Error()
		s.publishLocked()
		return err
	}

	s.plan = plan
	s.completion = s.plan.RefreshCompletion()
	s.selected = DefaultDay
	if len(plan.Workouts) > 0 {
		s.selected = plan.Workouts[0].Day
	}
	s.status = StatusReady
	s.loadErr = ""
	s.publishLocked()
	s.log.Info("plan loaded", "days", len(plan.Workouts), "selected_day", s.selected)
	return nil
}

// ErrClosed is returned by Load on a closed store.
var ErrClosed = errors.New("store closed")

// read calls the source, converting a panic into an error.
func (s *Store) read(ctx context.Context) (plan *models.Plan, err error) {
	defer func() {
		if r := recover(); r != nil {
			plan, err = nil, fmt.Errorf("plan source panicked: %v", r)
		}
	}()
	plan, err = s.src.Load(ctx)
	if err == nil && plan == nil {
		err = errors.New("plan source returned no plan")
	}
	return plan, err
}

// SelectDay puts day in focus. Unknown days leave the state unchanged, as
// does any call made while the initial load is still pending.
func (s *Store) SelectDay(day int) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Closed
	}
	if s.status == StatusPending {
		return NotLoaded
	}
	if s.plan.Find(day) < 0 {
		return NoSuchDay
	}
	if s.selected == day {
		return OK
	}
	s.selected = day
	s.publishLocked()
	return OK
}

// ToggleExerciseCompletion flips the completion flag of one exercise and
// recomputes the completion index before any snapshot is published.
func (s *Store) ToggleExerciseCompletion(day, exerciseID int) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Closed
	}
	if s.status == StatusPending {
		return NotLoaded
	}
	di := s.plan.Find(day)
	if di < 0 {
		return NoSuchDay
	}
	d := &s.plan.Workouts[di]
	ei := d.Exercise(exerciseID)
	if ei < 0 {
		return NoSuchExercise
	}

	d.Workout[ei].IsCompleted = !d.Workout[ei].IsCompleted
	s.completion = s.plan.RefreshCompletion()
	s.publishLocked()
	return OK
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// IsDayCompleted reports the derived completion flag for day. The second
// result is false when the day is not in the plan.
func (s *Store) IsDayCompleted(day int) (completed, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	completed, ok = s.completion[day]
	return completed, ok
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:     s.version,
		Status:      s.status,
		LoadError:   s.loadErr,
		Plan:        s.plan.Clone(),
		SelectedDay: s.selected,
		Completion:  make(map[int]bool, len(s.completion)),
	}
	for k, v := range s.completion {
		snap.Completion[k] = v
	}
	if i := snap.Plan.Find(s.selected); i >= 0 {
		d := snap.Plan.Workouts[i].Clone()
		snap.CurrentDay = &d
	}
	return snap
}

// Subscribe returns a stream of snapshots starting with the current one.
// The stream keeps only the latest value, so a slow reader skips
// intermediate states but never sees them out of order. The cancel func
// unsubscribes and closes the channel; Close does the same for every
// subscriber.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// publishLocked bumps the version and hands the new snapshot to every
// subscriber, replacing any value the subscriber has not read yet.
func (s *Store) publishLocked() {
	s.version++
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Close tears the store down: an in-flight load is cancelled and its result
// discarded, and all subscriptions end. Close is idempotent.
func (s *Store) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
