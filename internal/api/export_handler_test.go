package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/clipforge/clipforge-server/internal/export"
	"github.com/clipforge/clipforge-server/internal/project"
)

type failingExecutor struct{}

func (failingExecutor) Render(ctx context.Context, graph *export.Graph, outputPath string) (*export.OutputDescriptor, error) {
	return nil, errors.New("no such filter")
}

func waitForExportStatus(t *testing.T, router http.Handler, jobID, want string) ExportResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		rr := doJSON(t, router, http.MethodGet, "/exports/"+jobID, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("get export status = %d", rr.Code)
		}
		got := decode[ExportResponse](t, rr)
		if got.Status == want {
			return got
		}
		if got.Status == "completed" || got.Status == "failed" {
			t.Fatalf("export ended %s, want %s (error %q)", got.Status, want, got.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("export stuck in %s", got.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestExport_FailureRestoresPriorStatus(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Planner = export.NewPlanner(cfg.Assets, failingExecutor{}, time.Minute, cfg.Logger)
	router := NewRouter(cfg)

	id := createProject(t, router)
	attachBase(t, router, id)

	// A previous export already completed; the next one failing must not
	// demote the project back to draft.
	ctx := context.Background()
	p, err := cfg.Repo.GetProject(ctx, id)
	if err != nil || p == nil {
		t.Fatalf("GetProject: %v", err)
	}
	p.Status = project.StatusCompleted
	if err := cfg.Repo.UpdateProject(ctx, p); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}

	rr := doJSON(t, router, http.MethodPost, "/projects/"+id+"/export", ExportRequest{})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("export status = %d: %s", rr.Code, rr.Body.String())
	}
	job := decode[ExportResponse](t, rr)

	failed := waitForExportStatus(t, router, job.ID, "failed")
	if failed.Error == "" {
		t.Error("failed export carries no diagnostic")
	}

	// The project status is restored just after the job row is updated, so
	// give the background goroutine a moment to finish.
	deadline := time.Now().Add(2 * time.Second)
	for {
		p, err = cfg.Repo.GetProject(ctx, id)
		if err != nil || p == nil {
			t.Fatalf("GetProject after failure: %v", err)
		}
		if p.Status == project.StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("project status = %q after failed export, want %q", p.Status, project.StatusCompleted)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
