package structure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/outline/internal/alias"
	"github.com/jackzampolin/outline/internal/books"
	"github.com/jackzampolin/outline/internal/content"
	"github.com/jackzampolin/outline/internal/outline"
	"github.com/jackzampolin/outline/internal/slug"
)

// AssignReport summarises one assignment pass.
type AssignReport struct {
	Processed int       `json:"processed"`
	Assigned  int       `json:"assigned"`
	Warnings  []Warning `json:"warnings,omitempty"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Merge folds another report into r.
func (r *AssignReport) Merge(o AssignReport) {
	r.Processed += o.Processed
	r.Assigned += o.Assigned
	r.Warnings = append(r.Warnings, o.Warnings...)
	r.Failures = append(r.Failures, o.Failures...)
}

// Assigner hangs verses under the chapters their aliases name.
type Assigner struct {
	items    content.Store
	aliases  alias.Store
	links    outline.Store
	resolver *Resolver
	logger   *slog.Logger
}

// NewAssigner wires an assigner. A nil logger uses slog.Default().
func NewAssigner(items content.Store, aliases alias.Store, links outline.Store, logger *slog.Logger) *Assigner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assigner{
		items:    items,
		aliases:  aliases,
		links:    links,
		resolver: NewResolver(items),
		logger:   logger,
	}
}

// Snapshot returns the IDs of every verse of the book type, as they exist now.
func (a *Assigner) Snapshot(ctx context.Context, bt books.BookType) ([]string, error) {
	ids, err := a.items.Query(ctx, content.Filter{Type: bt.LeafType()})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s items: %w", bt.Code, err)
	}
	return ids, nil
}

// Assign snapshots and assigns every verse of the book type in one pass.
func (a *Assigner) Assign(ctx context.Context, bt books.BookType) (AssignReport, error) {
	ids, err := a.Snapshot(ctx, bt)
	if err != nil {
		return AssignReport{}, err
	}
	return a.AssignItems(ctx, bt, ids)
}

// parentKey caches chapter lookups within one call.
type parentKey struct {
	division books.DivisionKey
	chapter  int
}

type parent struct {
	id        string
	container string
	reason    Reason
}

// AssignItems assigns the listed verses. Per-item problems land in the report;
// the returned error is non-nil only when ctx is cancelled.
func (a *Assigner) AssignItems(ctx context.Context, bt books.BookType, ids []string) (AssignReport, error) {
	var report AssignReport
	cache := make(map[parentKey]parent)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++
		a.assignOne(ctx, bt, id, cache, &report)
	}

	a.logger.Info("assigned items",
		"book_type", bt.Code,
		"processed", report.Processed,
		"assigned", report.Assigned,
		"warnings", len(report.Warnings),
		"failures", len(report.Failures))
	return report, nil
}

func (a *Assigner) warn(report *AssignReport, w Warning) {
	a.logger.Warn("skipping item", "item", w.ItemID, "alias", w.Alias, "reason", string(w.Reason))
	report.Warnings = append(report.Warnings, w)
}

func (a *Assigner) fail(report *AssignReport, f Failure) {
	a.logger.Warn("item failed", "item", f.ItemID, "op", f.Op, "error", f.Err)
	report.Failures = append(report.Failures, f)
}

func (a *Assigner) assignOne(ctx context.Context, bt books.BookType, id string, cache map[parentKey]parent, report *AssignReport) {
	if _, err := a.items.Load(ctx, id); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			a.warn(report, Warning{ItemID: id, Reason: ReasonNoItem})
		} else {
			a.fail(report, Failure{ItemID: id, Op: "load", Err: err})
		}
		return
	}

	path, err := a.aliases.AliasByPath(ctx, alias.SystemPath(id))
	if err != nil {
		if errors.Is(err, alias.ErrNotFound) {
			a.warn(report, Warning{ItemID: id, Reason: ReasonNoAlias})
		} else {
			a.fail(report, Failure{ItemID: id, Op: "alias", Err: err})
		}
		return
	}

	coords, ok := slug.Parse(path, bt)
	if !ok {
		a.warn(report, Warning{ItemID: id, Alias: path, Reason: ReasonNoMatch})
		return
	}

	key := parentKey{division: coords.DivisionKey(), chapter: coords.Chapter}
	p, cached := cache[key]
	if !cached {
		p, err = a.lookupParent(ctx, bt, coords)
		if err != nil {
			a.fail(report, Failure{ItemID: id, Op: "resolve", Err: err})
			return
		}
		cache[key] = p
	}
	if p.reason != "" {
		a.warn(report, Warning{ItemID: id, Alias: path, Reason: p.reason})
		return
	}

	link := outline.Link{
		ItemID:      id,
		ContainerID: p.container,
		ParentID:    p.id,
		Weight:      coords.Leaf,
		IsLeaf:      true,
	}
	if err := a.links.Put(ctx, link); err != nil {
		a.fail(report, Failure{ItemID: id, Op: "link", Err: err})
		return
	}
	report.Assigned++
}

func (a *Assigner) lookupParent(ctx context.Context, bt books.BookType, coords slug.Coords) (parent, error) {
	chapter, err := a.resolver.Resolve(ctx, bt, coords)
	if err != nil {
		return parent{}, err
	}
	if chapter == nil {
		return parent{reason: ReasonNoParent}, nil
	}
	link, err := a.links.Get(ctx, chapter.ID)
	if errors.Is(err, outline.ErrNotFound) {
		return parent{reason: ReasonParentUnlinked}, nil
	}
	if err != nil {
		return parent{}, fmt.Errorf("load link of chapter %s: %w", chapter.ID, err)
	}
	return parent{id: chapter.ID, container: link.ContainerID}, nil
}
