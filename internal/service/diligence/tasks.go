package diligence

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// taskGroup tracks detached background work so shutdown and tests can wait
// for it. Tasks never inherit a caller's context.
type taskGroup struct {
	mu     sync.Mutex
	active int
	idle   chan struct{} // closed when active drops to zero
	logger *slog.Logger
}

func newTaskGroup(logger *slog.Logger) *taskGroup {
	return &taskGroup{logger: logger}
}

// Go runs fn on its own goroutine with a background context. A panic in fn is
// recovered, logged, and reported to onPanic.
func (g *taskGroup) Go(name, packageID string, fn func(ctx context.Context), onPanic func(err error)) {
	g.mu.Lock()
	if g.active == 0 {
		g.idle = make(chan struct{})
	}
	g.active++
	g.mu.Unlock()

	go func() {
		defer g.done()
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%s task panicked: %v", name, r)
				g.logger.Error("background task panic",
					"task", name,
					"package_id", packageID,
					"panic", r,
					"stack", string(debug.Stack()),
				)
				if onPanic != nil {
					onPanic(err)
				}
			}
		}()

		g.logger.Debug("background task started", "task", name, "package_id", packageID)
		fn(context.Background())
	}()
}

func (g *taskGroup) done() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active--
	if g.active == 0 {
		close(g.idle)
	}
}

// Wait blocks until no task is running or ctx is done
func (g *taskGroup) Wait(ctx context.Context) error {
	g.mu.Lock()
	if g.active == 0 {
		g.mu.Unlock()
		return nil
	}
	idle := g.idle
	g.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain background tasks: %w", ctx.Err())
	}
}
