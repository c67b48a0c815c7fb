package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SaveFunc persists the current editor state. It is invoked outside the
// scheduler lock.
type SaveFunc func(ctx context.Context) error

// Scheduler debounces persistence: every edit restarts a quiet window, and
// the save runs once the window elapses with no further edits. A failed save
// keeps the state dirty so the next settle retries it.
type Scheduler struct {
	window time.Duration
	clock  Clock
	save   SaveFunc
	logger *slog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	deadline time.Time
	dirty    bool
	closed   bool
}

func NewScheduler(window time.Duration, clock Clock, save SaveFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		window: window,
		clock:  clock,
		save:   save,
		logger: logger,
	}
}

// Touch records an edit and restarts the quiet window.
func (s *Scheduler) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.dirty = true
	s.deadline = s.clock.Now().Add(s.window)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.window, s.fire)
}

// fire runs when the timer elapses. Edits may have arrived after the timer
// was armed, so the deadline is rechecked against the clock and the timer
// re-armed for the remainder if the window has not yet settled.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed || !s.dirty {
		s.mu.Unlock()
		return
	}
	if remaining := s.deadline.Sub(s.clock.Now()); remaining > 0 {
		s.timer = time.AfterFunc(remaining, s.fire)
		s.mu.Unlock()
		return
	}
	s.dirty = false
	s.mu.Unlock()

	if err := s.save(context.Background()); err != nil {
		s.logger.Error("autosave failed", "error", err)
		s.mu.Lock()
		if !s.closed {
			s.dirty = true
		}
		s.mu.Unlock()
	}
}

// Flush persists any pending state immediately, bypassing the quiet window.
func (s *Scheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.dirty = false
	s.mu.Unlock()

	if err := s.save(ctx); err != nil {
		s.mu.Lock()
		if !s.closed {
			s.dirty = true
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// Dirty reports whether an unsaved edit is pending.
func (s *Scheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Close stops the scheduler. Pending state is not saved; call Flush first.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
