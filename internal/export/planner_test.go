package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeExecutor struct {
	err   error
	block time.Duration
	graph *Graph
}

func (f *fakeExecutor) Render(ctx context.Context, graph *Graph, outputPath string) (*OutputDescriptor, error) {
	f.graph = graph
	if f.block > 0 {
		select {
		case <-time.After(f.block):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &OutputDescriptor{Path: outputPath, Duration: graph.Duration}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPlanner_Export_Success(t *testing.T) {
	exec := &fakeExecutor{}
	p := NewPlanner(testResolver(), exec, 0, discardLogger())

	desc, err := p.Export(context.Background(), testSnapshot(), Config{}, "/data/output/out.mp4")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if desc.Path != "/data/output/out.mp4" || desc.Duration != 120 {
		t.Errorf("descriptor = %+v", desc)
	}
	if exec.graph == nil || len(exec.graph.Overlays) != 2 {
		t.Error("executor did not receive the compiled graph")
	}
}

func TestPlanner_Export_InvalidConfig(t *testing.T) {
	p := NewPlanner(testResolver(), &fakeExecutor{}, 0, discardLogger())
	if _, err := p.Export(context.Background(), testSnapshot(), Config{Quality: "ultra"}, "out.mp4"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestPlanner_Export_NoBase(t *testing.T) {
	p := NewPlanner(testResolver(), &fakeExecutor{}, 0, discardLogger())
	if _, err := p.Export(context.Background(), nil, Config{}, "out.mp4"); !errors.Is(err, ErrNoBaseMedia) {
		t.Errorf("error = %v, want ErrNoBaseMedia", err)
	}
}

func TestPlanner_Export_WrapsExecutorFailure(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("ffmpeg exited with code 1: no such filter")}
	p := NewPlanner(testResolver(), exec, 0, discardLogger())

	_, err := p.Export(context.Background(), testSnapshot(), Config{}, "out.mp4")
	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("error = %v, want ErrRenderFailed", err)
	}
	if !strings.Contains(err.Error(), "no such filter") {
		t.Errorf("diagnostic lost: %v", err)
	}
}

func TestPlanner_Export_Timeout(t *testing.T) {
	exec := &fakeExecutor{block: time.Second}
	p := NewPlanner(testResolver(), exec, 10*time.Millisecond, discardLogger())

	_, err := p.Export(context.Background(), testSnapshot(), Config{}, "out.mp4")
	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("error = %v, want ErrRenderFailed", err)
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("timeout diagnostic missing: %v", err)
	}
}
