package generation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flashfusion/forge/pkg/model"
	"github.com/flashfusion/forge/pkg/usecase/generation"
	"github.com/m-mizutani/gt"
)

type mockGenerator struct {
	generateFn func(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationOutput, error)
}

func (m *mockGenerator) Generate(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationOutput, error) {
	return m.generateFn(ctx, cfg)
}

func staticGenerator() *mockGenerator {
	return &mockGenerator{
		generateFn: func(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationOutput, error) {
			return &model.GenerationOutput{
				Title:   "Todo App",
				Files:   []*model.FileEntry{{Name: "main.go", Kind: model.FileKindFile, SizeLabel: "1 KB"}},
				Preview: &model.CodePreview{Components: []string{"main"}},
			}, nil
		},
	}
}

// blockingGenerator waits until its context is done
func blockingGenerator(started chan<- struct{}) *mockGenerator {
	return &mockGenerator{
		generateFn: func(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationOutput, error) {
			if started != nil {
				started <- struct{}{}
			}
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
}

func TestControllerGenerate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	var seen []generation.Status
	ctrl := generation.NewController(staticGenerator(),
		generation.WithStepDelay(0),
		generation.WithClock(func() time.Time { return now }),
		generation.WithProgressHook(func(s generation.Status) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, s)
		}),
	)
	gt.Equal(t, ctrl.Snapshot().State, generation.StateIdle)

	rec, err := ctrl.Generate(context.Background(), model.GenerationConfig{
		Type: "code-snippets", Prompt: "todo list", Model: "template",
	})
	gt.NoError(t, err)
	gt.V(t, rec).NotNil()
	gt.Equal(t, rec.Title, "Todo App")
	gt.Equal(t, rec.Type, "code-snippets")
	gt.Equal(t, rec.Prompt, "todo list")
	gt.Equal(t, rec.Model, "template")
	gt.True(t, rec.Timestamp.Equal(now))
	gt.True(t, strings.HasPrefix(string(rec.ID), "gen_"))

	snap := ctrl.Snapshot()
	gt.Equal(t, snap.State, generation.StateCompleted)
	gt.Equal(t, snap.Progress, 100)
	gt.Equal(t, snap.Result.ID, rec.ID)

	t.Run("progress never decreases", func(t *testing.T) {
		mu.Lock()
		defer mu.Unlock()
		gt.A(t, seen).Length(len(generation.DefaultSteps) + 2)
		gt.Equal(t, seen[0].State, generation.StateGenerating)
		for i := 1; i < len(seen); i++ {
			gt.N(t, seen[i-1].Progress).LessOrEqual(seen[i].Progress)
		}
		gt.Equal(t, seen[len(seen)-1].State, generation.StateCompleted)
	})
}

func TestControllerGeneratorFailure(t *testing.T) {
	boom := errors.New("boom")
	ctrl := generation.NewController(&mockGenerator{
		generateFn: func(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationOutput, error) {
			return nil, boom
		},
	}, generation.WithStepDelay(0))

	rec, err := ctrl.Generate(context.Background(), model.GenerationConfig{Type: "web-app", Prompt: "x"})
	gt.V(t, rec).Nil()
	gt.True(t, errors.Is(err, boom))
	gt.False(t, generation.IsCancelled(err))

	snap := ctrl.Snapshot()
	gt.Equal(t, snap.State, generation.StateFailed)
	gt.True(t, errors.Is(snap.Err, boom))
	gt.V(t, snap.Result).Nil()
}

func TestControllerCancel(t *testing.T) {
	started := make(chan struct{}, 1)
	ctrl := generation.NewController(blockingGenerator(started), generation.WithStepDelay(0))

	errCh := make(chan error, 1)
	go func() {
		_, err := ctrl.Generate(context.Background(), model.GenerationConfig{Type: "web-app", Prompt: "x"})
		errCh <- err
	}()

	<-started
	ctrl.Cancel()

	err := <-errCh
	gt.True(t, generation.IsCancelled(err))
	snap := ctrl.Snapshot()
	gt.Equal(t, snap.State, generation.StateCancelled)
	gt.Equal(t, snap.Progress, 100)
	gt.V(t, snap.Result).Nil()
}

func TestControllerParentContextCancel(t *testing.T) {
	ctrl := generation.NewController(staticGenerator(), generation.WithStepDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ctrl.Generate(ctx, model.GenerationConfig{Type: "web-app", Prompt: "x"})
	gt.True(t, generation.IsCancelled(err))
	gt.Equal(t, ctrl.Snapshot().State, generation.StateCancelled)
	gt.Equal(t, ctrl.Snapshot().Progress, 0)
}

func TestControllerSupersede(t *testing.T) {
	started := make(chan struct{}, 1)
	first := true
	var mu sync.Mutex
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, cfg model.GenerationConfig) (*model.GenerationOutput, error) {
			mu.Lock()
			isFirst := first
			first = false
			mu.Unlock()

			if isFirst {
				started <- struct{}{}
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &model.GenerationOutput{Title: cfg.Prompt}, nil
		},
	}
	ctrl := generation.NewController(gen, generation.WithStepDelay(0))

	errCh := make(chan error, 1)
	go func() {
		_, err := ctrl.Generate(context.Background(), model.GenerationConfig{Type: "web-app", Prompt: "first"})
		errCh <- err
	}()
	<-started

	rec, err := ctrl.Generate(context.Background(), model.GenerationConfig{Type: "web-app", Prompt: "second"})
	gt.NoError(t, err)
	gt.Equal(t, rec.Title, "second")

	firstErr := <-errCh
	gt.True(t, generation.IsCancelled(firstErr))

	// the superseded run must not overwrite the newer result
	snap := ctrl.Snapshot()
	gt.Equal(t, snap.State, generation.StateCompleted)
	gt.Equal(t, snap.Result.Title, "second")
}

func TestControllerReset(t *testing.T) {
	started := make(chan struct{}, 1)
	ctrl := generation.NewController(blockingGenerator(started), generation.WithStepDelay(0))

	errCh := make(chan error, 1)
	go func() {
		_, err := ctrl.Generate(context.Background(), model.GenerationConfig{Type: "web-app", Prompt: "x"})
		errCh <- err
	}()
	<-started

	ctrl.Reset()
	gt.True(t, generation.IsCancelled(<-errCh))

	snap := ctrl.Snapshot()
	gt.Equal(t, snap.State, generation.StateIdle)
	gt.Equal(t, snap.Progress, 0)
	gt.V(t, snap.Err).Nil()
}

func TestControllerCustomSteps(t *testing.T) {
	var progress []int
	ctrl := generation.NewController(staticGenerator(),
		generation.WithStepDelay(0),
		generation.WithSteps([]generation.Step{{Label: "half", Progress: 50}}),
		generation.WithProgressHook(func(s generation.Status) {
			progress = append(progress, s.Progress)
		}),
	)

	_, err := ctrl.Generate(context.Background(), model.GenerationConfig{Type: "web-app", Prompt: "x"})
	gt.NoError(t, err)
	gt.Equal(t, progress, []int{0, 50, 100})
}

func TestControllerResetAfterGeneratorReturns(t *testing.T) {
	var ctrl *generation.Controller
	ctrl = generation.NewController(staticGenerator(),
		generation.WithStepDelay(0),
		// the clock is read after the generator returns and before the
		// terminal status is stored
		generation.WithClock(func() time.Time {
			ctrl.Reset()
			return time.Now()
		}),
	)

	rec, err := ctrl.Generate(context.Background(), model.GenerationConfig{Type: "web-app", Prompt: "x"})
	gt.V(t, rec).Nil()
	gt.True(t, generation.IsCancelled(err))
	gt.Equal(t, ctrl.Snapshot().State, generation.StateIdle)
}
