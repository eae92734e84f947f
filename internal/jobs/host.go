package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/jackzampolin/outline/internal/batch"
)

// Stepper advances a token by one chunk. *batch.Runner implements it.
type Stepper interface {
	Step(ctx context.Context, t batch.Token) (batch.Token, error)
}

// HostConfig configures a new host.
type HostConfig struct {
	Store     Store
	Runner    Stepper
	Logger    *slog.Logger
	QueueSize int // Size of the run queue buffer (default 100)
}

// Host executes runs on a single worker goroutine, so at most one structural run
// writes at a time. The token is persisted after every chunk; a run interrupted by
// shutdown keeps its running status and is picked up again by Resume.
type Host struct {
	store  Store
	runner Stepper
	logger *slog.Logger
	queue  chan string

	mu        sync.Mutex
	cancelled map[string]bool
	active    string
	running   bool
	wg        sync.WaitGroup
}

// NewHost creates a host. Call Start to begin executing runs.
func NewHost(cfg HostConfig) *Host {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 100
	}
	return &Host{
		store:     cfg.Store,
		runner:    cfg.Runner,
		logger:    logger,
		queue:     make(chan string, size),
		cancelled: make(map[string]bool),
	}
}

// Start launches the worker. It stops when ctx is cancelled; use Wait to block until then.
func (h *Host) Start(ctx context.Context) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	h.wg.Add(1)
	go h.work(ctx)
	h.logger.Info("run host started")
}

// Wait blocks until the worker has exited.
func (h *Host) Wait() {
	h.wg.Wait()
}

// Active returns the ID of the run currently executing, if any.
func (h *Host) Active() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// QueueDepth returns the number of runs waiting for the worker.
func (h *Host) QueueDepth() int {
	return len(h.queue)
}

// Submit records a new run and queues it.
func (h *Host) Submit(ctx context.Context, op batch.Op, bookType string) (*Record, error) {
	if op != batch.OpSync && bookType == "" {
		return nil, fmt.Errorf("%s needs a book type", op)
	}
	rec := NewRecord(op, bookType)
	if _, err := h.store.Create(ctx, rec); err != nil {
		return nil, err
	}
	if err := h.enqueue(ctx, rec.ID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (h *Host) enqueue(ctx context.Context, id string) error {
	select {
	case h.queue <- id:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Resume queues every run left queued or running by a previous process, oldest first.
func (h *Host) Resume(ctx context.Context) (int, error) {
	var pending []*Record
	for _, status := range []Status{StatusRunning, StatusQueued} {
		recs, err := h.store.List(ctx, ListFilter{Status: status, Limit: cap(h.queue)})
		if err != nil {
			return 0, fmt.Errorf("list %s runs: %w", status, err)
		}
		pending = append(pending, recs...)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	for i, rec := range pending {
		if err := h.enqueue(ctx, rec.ID); err != nil {
			return i, err
		}
		h.logger.Info("resuming run", "id", rec.ID, "op", string(rec.Op), "progress", rec.Token.Progress, "max", rec.Token.Max)
	}
	return len(pending), nil
}

// Cancel stops a run. A queued run is cancelled at once; a running one stops before
// its next chunk.
func (h *Host) Cancel(ctx context.Context, id string) error {
	rec, err := h.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status.Terminal() {
		return fmt.Errorf("%w: run %s already %s", ErrFinished, id, rec.Status)
	}

	h.mu.Lock()
	h.cancelled[id] = true
	active := h.active == id
	h.mu.Unlock()

	if !active {
		if err := h.store.UpdateStatus(ctx, id, StatusCancelled, ""); err != nil {
			return err
		}
	}
	h.logger.Info("run cancelled", "id", id, "active", active)
	return nil
}

func (h *Host) isCancelled(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled[id]
}

func (h *Host) setActive(id string) {
	h.mu.Lock()
	h.active = id
	h.mu.Unlock()
}

func (h *Host) work(ctx context.Context) {
	defer h.wg.Done()
	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("run host stopped")
			return
		case id := <-h.queue:
			h.execute(ctx, id)
		}
	}
}

func (h *Host) execute(ctx context.Context, id string) {
	log := h.logger.With("run", id)

	h.setActive(id)
	defer h.setActive("")

	rec, err := h.store.Get(ctx, id)
	if err != nil {
		log.Error("failed to load run", "error", err)
		return
	}
	if rec.Status.Terminal() {
		h.mu.Lock()
		delete(h.cancelled, id)
		h.mu.Unlock()
		return
	}
	if h.isCancelled(id) {
		h.finish(ctx, log, id, StatusCancelled, "")
		return
	}
	if err := h.store.UpdateStatus(ctx, id, StatusRunning, ""); err != nil {
		log.Error("failed to mark run running", "error", err)
		return
	}
	log.Info("run started", "op", string(rec.Op), "book_type", rec.BookType, "progress", rec.Token.Progress)

	tok := rec.Token
	for !tok.Done() {
		if h.isCancelled(id) {
			h.finish(ctx, log, id, StatusCancelled, "")
			return
		}
		next, err := h.runner.Step(ctx, tok)
		if err != nil {
			// shutdown; the last persisted token is where Resume picks up
			log.Info("run interrupted", "progress", tok.Progress, "error", err)
			return
		}
		if len(tok.Snapshot) == 0 && len(next.Snapshot) > 0 {
			if err := h.store.SaveSnapshot(ctx, id, next.Snapshot); err != nil {
				h.finish(ctx, log, id, StatusFailed, fmt.Sprintf("persist snapshot: %v", err))
				return
			}
		}
		if err := h.store.UpdateToken(ctx, id, next); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			h.finish(ctx, log, id, StatusFailed, fmt.Sprintf("persist token: %v", err))
			return
		}
		tok = next
	}

	if tok.Failed {
		h.finish(ctx, log, id, StatusFailed, strings.Join(tok.Errors, "; "))
		return
	}
	h.finish(ctx, log, id, StatusCompleted, "")
}

func (h *Host) finish(ctx context.Context, log *slog.Logger, id string, status Status, errMsg string) {
	if err := h.store.UpdateStatus(ctx, id, status, errMsg); err != nil {
		log.Error("failed to update run status", "status", string(status), "error", err)
		return
	}
	h.mu.Lock()
	delete(h.cancelled, id)
	h.mu.Unlock()

	if status == StatusFailed {
		log.Warn("run failed", "error", errMsg)
		return
	}
	log.Info("run finished", "status", string(status))
}
