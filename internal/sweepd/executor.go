package sweepd

import (
	"context"
	"errors"
	"sync"

	"github.com/GoSim-25-26J-441/hpsweep/internal/experiment"
	"github.com/GoSim-25-26J-441/hpsweep/internal/search"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/logger"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
)

// Executor runs sweeps asynchronously, one goroutine per sweep, with
// per-sweep cancellation.
type Executor struct {
	store    *RunStore
	baseDir  string
	recorder experiment.Recorder
	notifier *Notifier

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithBaseDir resolves relative dataset paths of every experiment against dir
func WithBaseDir(dir string) ExecutorOption {
	return func(e *Executor) { e.baseDir = dir }
}

// WithRecorder persists every completed report
func WithRecorder(rec experiment.Recorder) ExecutorOption {
	return func(e *Executor) { e.recorder = rec }
}

// WithNotifier sends a callback when a sweep with a callback URL ends
func WithNotifier(n *Notifier) ExecutorOption {
	return func(e *Executor) { e.notifier = n }
}

func NewExecutor(store *RunStore, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store:   store,
		cancels: make(map[string]context.CancelFunc),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Start begins executing a sweep and returns it in the running state.
// Starting a running sweep is a no-op: only the caller that moves the sweep
// out of pending launches it.
func (e *Executor) Start(sweepID string) (models.Sweep, error) {
	if sweepID == "" {
		return models.Sweep{}, ErrSweepIDMissing
	}

	// Holding mu until the cancel func is registered means a concurrent Stop
	// that sees the running state also finds the cancel func.
	e.mu.Lock()
	sw, started, err := e.store.Begin(sweepID)
	if err != nil || !started {
		e.mu.Unlock()
		return sw, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancels[sweepID] = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.runSweep(ctx, sweepID)
	return sw, nil
}

// Stop cancels a sweep. A pending sweep is cancelled without running.
func (e *Executor) Stop(sweepID string) (models.Sweep, error) {
	if sweepID == "" {
		return models.Sweep{}, ErrSweepIDMissing
	}

	updated, err := e.store.SetStatus(sweepID, models.SweepStatusCancelled, "")
	if err != nil {
		return models.Sweep{}, err
	}

	e.mu.Lock()
	cancel, ok := e.cancels[sweepID]
	e.mu.Unlock()
	if ok {
		cancel()
	}

	e.notify(sweepID)
	return updated, nil
}

// Shutdown cancels every running sweep and waits for them to return or for
// ctx to end.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	ids := make([]string, 0, len(e.cancels))
	for id := range e.cancels {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		if _, err := e.Stop(id); err != nil && !errors.Is(err, ErrSweepTerminal) {
			logger.Warn("failed to stop sweep during shutdown", "sweep_id", id, "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every started sweep has returned
func (e *Executor) Wait() {
	e.wg.Wait()
}

func (e *Executor) cleanup(sweepID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[sweepID]; ok {
		cancel()
		delete(e.cancels, sweepID)
	}
	e.mu.Unlock()
}

func (e *Executor) runSweep(ctx context.Context, sweepID string) {
	defer e.wg.Done()
	defer e.cleanup(sweepID)

	_, exp, progress, ok := e.store.input(sweepID)
	if !ok {
		logger.Error("sweep not found", "sweep_id", sweepID)
		return
	}

	opts := []experiment.Option{
		experiment.WithBaseDir(e.baseDir),
		experiment.WithHooks(experiment.Hooks{
			OnModelStart: progress.BeginModel,
			OnTrial: func(_ string, _ search.Trial, best float64, found bool) {
				progress.RecordTrial(best, found)
			},
		}),
	}
	if e.recorder != nil {
		opts = append(opts, experiment.WithRecorder(e.recorder))
	}

	logger.Info("starting sweep", "sweep_id", sweepID, "experiment", exp.Name, "models", len(exp.Models))
	report, err := experiment.NewRunner(opts...).RunWithID(ctx, sweepID, exp)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("sweep cancelled", "sweep_id", sweepID)
			return
		}
		logger.Error("sweep failed", "sweep_id", sweepID, "error", err)
		if _, setErr := e.store.SetStatus(sweepID, models.SweepStatusFailed, err.Error()); setErr != nil {
			logger.Error("failed to set failed status", "sweep_id", sweepID, "error", setErr)
		}
		e.notify(sweepID)
		return
	}

	if _, err := e.store.Complete(sweepID, report); err != nil {
		logger.Warn("sweep finished after leaving the running state, report dropped", "sweep_id", sweepID, "error", err)
		return
	}
	logger.Info("sweep completed", "sweep_id", sweepID, "duration", report.Duration)
	e.notify(sweepID)
}

func (e *Executor) notify(sweepID string) {
	if e.notifier == nil {
		return
	}
	in, _, _, ok := e.store.input(sweepID)
	if !ok || in.CallbackURL == "" {
		return
	}
	if sw, ok := e.store.Get(sweepID); ok {
		e.notifier.Notify(in.CallbackURL, in.CallbackSecret, sw)
	}
}
