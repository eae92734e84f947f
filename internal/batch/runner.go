package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/outline/internal/books"
	"github.com/jackzampolin/outline/internal/nav"
	"github.com/jackzampolin/outline/internal/structure"
)

// DefaultChunkSize is the number of items an assign chunk processes.
const DefaultChunkSize = 50

// DefaultMenu is the navigation menu synced when none is configured.
const DefaultMenu = "books"

// PlanFunc supplies the build plan of a book type, normally from configuration.
type PlanFunc func(bt books.BookType) (structure.Plan, error)

// Config wires a Runner.
type Config struct {
	Registry  *books.Registry
	Builder   *structure.Builder
	Assigner  *structure.Assigner
	Destroyer *structure.Destroyer
	Sync      *nav.Synchronizer
	Plans     PlanFunc

	ChunkSize int
	Menu      string
	Logger    *slog.Logger
}

// Runner executes tokens one chunk at a time.
type Runner struct {
	registry  *books.Registry
	builder   *structure.Builder
	assigner  *structure.Assigner
	destroyer *structure.Destroyer
	sync      *nav.Synchronizer
	plans     PlanFunc
	chunkSize int
	menu      string
	logger    *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	chunk := cfg.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	menu := cfg.Menu
	if menu == "" {
		menu = DefaultMenu
	}
	registry := cfg.Registry
	if registry == nil {
		registry = books.DefaultRegistry()
	}
	return &Runner{
		registry:  registry,
		builder:   cfg.Builder,
		assigner:  cfg.Assigner,
		destroyer: cfg.Destroyer,
		sync:      cfg.Sync,
		plans:     cfg.Plans,
		chunkSize: chunk,
		menu:      menu,
		logger:    logger,
	}
}

// ChunkSize returns the configured assign chunk size.
func (r *Runner) ChunkSize() int { return r.chunkSize }

// Step executes one chunk and returns the advanced token. The first step of a run
// also initialises it. Operation failures are recorded in the token; the returned
// error is non-nil only when ctx is done, in which case t is returned unchanged.
func (r *Runner) Step(ctx context.Context, t Token) (Token, error) {
	if t.Done() {
		return t, nil
	}
	if err := ctx.Err(); err != nil {
		return t, err
	}

	next := t
	next.Errors = append([]string(nil), t.Errors...)
	next.Warnings = append([]string(nil), t.Warnings...)

	var err error
	if next.Phase == PhaseInit {
		err = r.init(ctx, &next)
	}
	if err == nil && next.Phase == PhaseRun {
		err = r.chunk(ctx, &next)
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return t, err
		}
		next.fail(err)
	}

	if !next.Failed {
		next.Finished = next.fraction()
		if next.Progress >= next.Max {
			next.Phase = PhaseDone
		}
	}
	next.UpdatedAt = time.Now().UTC()

	r.logger.Debug("batch step",
		"op", string(next.Op),
		"book_type", next.BookType,
		"progress", next.Progress,
		"max", next.Max,
		"finished", next.Finished,
		"failed", next.Failed)
	return next, nil
}

// Drain steps t until it is done.
func (r *Runner) Drain(ctx context.Context, t Token) (Token, error) {
	for !t.Done() {
		var err error
		if t, err = r.Step(ctx, t); err != nil {
			return t, err
		}
	}
	return t, nil
}

func (r *Runner) bookType(code string) (books.BookType, error) {
	bt, ok := r.registry.Get(code)
	if !ok {
		return books.BookType{}, fmt.Errorf("unknown book type %q", code)
	}
	return bt, nil
}

func (r *Runner) init(ctx context.Context, t *Token) error {
	switch t.Op {
	case OpBuild, OpDestroy:
		if _, err := r.bookType(t.BookType); err != nil {
			return err
		}
		t.Max = 1
	case OpSync:
		if t.BookType != "" {
			if _, err := r.bookType(t.BookType); err != nil {
				return err
			}
		}
		t.Max = 1
	case OpAssign:
		bt, err := r.bookType(t.BookType)
		if err != nil {
			return err
		}
		ids, err := r.assigner.Snapshot(ctx, bt)
		if err != nil {
			return err
		}
		t.Snapshot = ids
		t.Max = len(ids)
		if t.Max == 0 {
			t.Message = "no items to assign"
		}
	default:
		return fmt.Errorf("unknown operation %q", t.Op)
	}
	t.Phase = PhaseRun
	return nil
}

func (r *Runner) chunk(ctx context.Context, t *Token) error {
	switch t.Op {
	case OpBuild:
		return r.build(ctx, t)
	case OpAssign:
		return r.assign(ctx, t)
	case OpDestroy:
		return r.destroy(ctx, t)
	case OpSync:
		return r.syncMenu(ctx, t)
	}
	return fmt.Errorf("unknown operation %q", t.Op)
}

func (r *Runner) plan(bt books.BookType) (structure.Plan, error) {
	if r.plans == nil {
		return structure.Plan{}, &structure.ConfigurationError{BookType: bt.Code, Reason: "no build plans configured"}
	}
	return r.plans(bt)
}

func (r *Runner) build(ctx context.Context, t *Token) error {
	bt, err := r.bookType(t.BookType)
	if err != nil {
		return err
	}
	plan, err := r.plan(bt)
	if err != nil {
		return err
	}
	report, err := r.builder.Build(ctx, bt, plan)
	if err != nil {
		return err
	}
	t.Progress = 1
	t.Message = fmt.Sprintf("built %d divisions and %d chapters (%d reused)",
		report.DivisionsCreated, report.ChaptersCreated, report.DivisionsReused+report.ChaptersReused)
	return nil
}

func (r *Runner) assign(ctx context.Context, t *Token) error {
	if t.Progress >= t.Max {
		return nil
	}
	bt, err := r.bookType(t.BookType)
	if err != nil {
		return err
	}

	end := min(t.Progress+r.chunkSize, t.Max)
	report, err := r.assigner.AssignItems(ctx, bt, t.Snapshot[t.Progress:end])
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		t.addWarning(w.String())
	}
	for _, f := range report.Failures {
		t.addError(f.Error())
	}
	t.Progress = end
	t.Message = fmt.Sprintf("assigned %d of %d items", t.Progress, t.Max)
	return nil
}

func (r *Runner) destroy(ctx context.Context, t *Token) error {
	bt, err := r.bookType(t.BookType)
	if err != nil {
		return err
	}
	report, err := r.destroyer.Destroy(ctx, bt)
	if err != nil {
		return err
	}
	t.Progress = 1
	t.Message = fmt.Sprintf("deleted %d chapters and %d divisions, cleared %d links",
		report.ChaptersDeleted, report.DivisionsDeleted, report.LinksCleared)
	return nil
}

func (r *Runner) syncMenu(ctx context.Context, t *Token) error {
	codes := r.registry.Codes()
	if t.BookType != "" {
		codes = []string{t.BookType}
	}

	roots := make([]nav.Root, 0, len(codes))
	for _, code := range codes {
		bt, err := r.bookType(code)
		if err != nil {
			return err
		}
		root := nav.Root{BookType: code}
		if plan, err := r.plan(bt); err == nil {
			root.ItemID = plan.RootID
		} else {
			r.logger.Debug("no root configured", "book_type", code, "error", err)
		}
		roots = append(roots, root)
	}

	report, err := r.sync.Sync(ctx, r.menu, roots)
	if err != nil {
		return err
	}
	for _, code := range report.SkippedRoots {
		t.addWarning(fmt.Sprintf("%s: no root outline", code))
	}
	t.Progress = 1
	t.Message = fmt.Sprintf("menu %s: %d links created, %d reused", r.menu, report.Created, report.Reused)
	return nil
}
