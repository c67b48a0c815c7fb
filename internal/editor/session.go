package editor

import (
	"context"
	"log/slog"
	"time"

	"github.com/clipforge/clipforge-server/internal/logging"
	"github.com/clipforge/clipforge-server/internal/project"
	"github.com/clipforge/clipforge-server/internal/timeline"
)

// Session is the in-memory editing state for one project: the timeline
// model, its edit engine, the playback cursor, and the autosave scheduler.
// Edits go through Engine, which notifies the scheduler after every
// successful mutation.
type Session struct {
	ProjectID string

	Model  *timeline.Model
	Engine *timeline.Engine
	Cursor *timeline.Cursor

	scheduler *Scheduler
	repo      project.Repository
	logger    *slog.Logger
}

func NewSession(projectID string, repo project.Repository, window time.Duration, clock Clock, logger *slog.Logger) *Session {
	model := timeline.NewModel()
	s := &Session{
		ProjectID: projectID,
		Model:     model,
		Engine:    timeline.NewEngine(model),
		Cursor:    timeline.NewCursor(model),
		repo:      repo,
		logger:    logging.WithProjectID(logger, projectID),
	}
	s.scheduler = NewScheduler(window, clock, s.persist, s.logger)
	s.Engine.SetOnChange(s.scheduler.Touch)
	return s
}

// Rehydrate loads the persisted timeline into the model. Called once when
// the session is opened; the loaded state is considered clean.
func (s *Session) Rehydrate(ctx context.Context) error {
	items, err := s.repo.LoadTimeline(ctx, s.ProjectID)
	if err != nil {
		return err
	}
	return s.Model.Load(items)
}

// Snapshot returns a deep copy of the current timeline, frozen for export.
func (s *Session) Snapshot() []timeline.Item {
	return s.Model.Snapshot()
}

// Flush persists any pending edits immediately.
func (s *Session) Flush(ctx context.Context) error {
	return s.scheduler.Flush(ctx)
}

// Close flushes pending edits and stops the autosave scheduler.
func (s *Session) Close(ctx context.Context) error {
	err := s.scheduler.Flush(ctx)
	s.scheduler.Close()
	return err
}

func (s *Session) persist(ctx context.Context) error {
	snapshot := s.Model.Snapshot()
	if err := s.repo.SaveTimeline(ctx, s.ProjectID, snapshot); err != nil {
		return err
	}
	s.logger.Debug("timeline saved", "items", len(snapshot))
	return nil
}
