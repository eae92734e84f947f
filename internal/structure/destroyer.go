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
)

// DestroyReport summarises a teardown.
type DestroyReport struct {
	ChaptersDeleted  int       `json:"chapters_deleted"`
	DivisionsDeleted int       `json:"divisions_deleted"`
	LinksCleared     int       `json:"links_cleared"`
	Failures         []Failure `json:"failures,omitempty"`
}

// Destroyer removes a book type's structural nodes and unlinks its verses.
// Verses themselves are never deleted.
type Destroyer struct {
	items   content.Store
	links   outline.Store
	aliases alias.Store
	logger  *slog.Logger
}

// NewDestroyer wires a destroyer. A nil logger uses slog.Default().
func NewDestroyer(items content.Store, links outline.Store, aliases alias.Store, logger *slog.Logger) *Destroyer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Destroyer{items: items, links: links, aliases: aliases, logger: logger}
}

// Destroy deletes chapters, then divisions, then clears every verse link. It keeps
// going past individual failures and returns them joined once the pass is done.
func (d *Destroyer) Destroy(ctx context.Context, bt books.BookType) (DestroyReport, error) {
	var report DestroyReport
	log := d.logger.With("book_type", bt.Code)

	n, err := d.deleteNodes(ctx, bt.ChapterType(), &report)
	report.ChaptersDeleted = n
	if err != nil {
		return report, err
	}

	if bt.HasDivisions() {
		n, err := d.deleteNodes(ctx, bt.DivisionType(), &report)
		report.DivisionsDeleted = n
		if err != nil {
			return report, err
		}
	}

	leaves, err := d.items.Query(ctx, content.Filter{Type: bt.LeafType()})
	if err != nil {
		return report, fmt.Errorf("list %s items: %w", bt.Code, err)
	}
	for _, id := range leaves {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := d.links.Delete(ctx, id); err != nil {
			report.Failures = append(report.Failures, Failure{ItemID: id, Op: "unlink", Err: err})
			continue
		}
		report.LinksCleared++
	}

	log.Info("structure destroyed",
		"chapters", report.ChaptersDeleted,
		"divisions", report.DivisionsDeleted,
		"links_cleared", report.LinksCleared,
		"failures", len(report.Failures))

	if len(report.Failures) == 0 {
		return report, nil
	}
	errs := make([]error, 0, len(report.Failures))
	for _, f := range report.Failures {
		errs = append(errs, f)
	}
	return report, errors.Join(errs...)
}

// deleteNodes removes every node of one type along with its link and aliases.
// Only nodes whose link and aliases were removed are deleted, so a failed node can be
// retried by running Destroy again. It returns an error only when listing fails or ctx ends.
func (d *Destroyer) deleteNodes(ctx context.Context, itemType string, report *DestroyReport) (int, error) {
	ids, err := d.items.Query(ctx, content.Filter{Type: itemType})
	if err != nil {
		return 0, fmt.Errorf("list %s nodes: %w", itemType, err)
	}

	doomed := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := d.links.Delete(ctx, id); err != nil {
			report.Failures = append(report.Failures, Failure{ItemID: id, Op: "unlink", Err: err})
			continue
		}
		if err := d.aliases.DeleteByPath(ctx, alias.SystemPath(id)); err != nil {
			report.Failures = append(report.Failures, Failure{ItemID: id, Op: "unalias", Err: err})
			continue
		}
		doomed = append(doomed, id)
	}

	if err := d.items.DeleteMany(ctx, doomed); err != nil {
		report.Failures = append(report.Failures, Failure{ItemID: itemType, Op: "delete", Err: err})
		return 0, nil
	}
	return len(doomed), nil
}
