package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jackzampolin/outline/internal/content"
	"github.com/jackzampolin/outline/internal/outline"
)

// Root names the book root item whose outline is mirrored.
type Root struct {
	BookType string `json:"book_type"`
	ItemID   string `json:"item_id"`
}

// SyncReport summarises one synchronisation pass.
type SyncReport struct {
	Created      int      `json:"created"`
	Reused       int      `json:"reused"`
	SkippedRoots []string `json:"skipped_roots,omitempty"`
	MissingItems []string `json:"missing_items,omitempty"`
}

// Synchronizer mirrors outlines into a menu. It only adds links; stale entries are left alone.
type Synchronizer struct {
	items  content.Store
	links  outline.Store
	menu   Store
	logger *slog.Logger
	newKey func() string
}

// NewSynchronizer wires a synchronizer. A nil logger uses slog.Default().
func NewSynchronizer(items content.Store, links outline.Store, menu Store, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		items:  items,
		links:  links,
		menu:   menu,
		logger: logger,
		newKey: uuid.NewString,
	}
}

type frame struct {
	node      *outline.TreeNode
	parentKey string
}

// Sync mirrors every root's outline into menu. Roots without an outline link are skipped.
// Per-node write failures skip that node's subtree and are returned joined after the pass.
func (s *Synchronizer) Sync(ctx context.Context, menu string, roots []Root) (SyncReport, error) {
	var report SyncReport
	var errs []error

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if root.ItemID == "" {
			s.logger.Warn("no root configured, skipping menu sync", "book_type", root.BookType)
			report.SkippedRoots = append(report.SkippedRoots, root.BookType)
			continue
		}

		rootLink, err := s.links.Get(ctx, root.ItemID)
		if errors.Is(err, outline.ErrNotFound) {
			s.logger.Warn("root has no outline, skipping menu sync", "book_type", root.BookType, "root", root.ItemID)
			report.SkippedRoots = append(report.SkippedRoots, root.BookType)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("load root link of %s: %w", root.BookType, err))
			continue
		}

		tree, err := outline.Tree(ctx, s.links, rootLink.ContainerID, root.ItemID)
		if err != nil {
			errs = append(errs, fmt.Errorf("load outline of %s: %w", root.BookType, err))
			continue
		}
		if err := s.syncTree(ctx, menu, tree, &report); err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", root.BookType, err))
		}
		s.logger.Info("menu synced", "book_type", root.BookType, "menu", menu,
			"created", report.Created, "reused", report.Reused)
	}
	return report, errors.Join(errs...)
}

func (s *Synchronizer) syncTree(ctx context.Context, menu string, tree *outline.TreeNode, report *SyncReport) error {
	ids := make([]string, 0, tree.Count())
	collect := []*outline.TreeNode{tree}
	for len(collect) > 0 {
		n := collect[len(collect)-1]
		collect = collect[:len(collect)-1]
		ids = append(ids, n.ItemID)
		collect = append(collect, n.Children...)
	}
	items, err := s.items.LoadMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("load titles: %w", err)
	}

	var errs []error
	stack := []frame{{node: tree}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		item, ok := items[f.node.ItemID]
		if !ok {
			s.logger.Warn("outline references missing item, skipping subtree", "item", f.node.ItemID)
			report.MissingItems = append(report.MissingItems, f.node.ItemID)
			continue
		}

		key, err := s.ensure(ctx, menu, item, f, report)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		// reversed so siblings are materialised in weight order
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], parentKey: key})
		}
	}
	return errors.Join(errs...)
}

func (s *Synchronizer) ensure(ctx context.Context, menu string, item content.Item, f frame, report *SyncReport) (string, error) {
	existing, err := s.menu.FindByTarget(ctx, menu, item.ID)
	if err == nil {
		report.Reused++
		return existing.Key, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	link := Link{
		Key:       s.newKey(),
		Menu:      menu,
		Target:    item.ID,
		Title:     item.Title,
		ParentKey: f.parentKey,
		Weight:    f.node.Weight,
		Expanded:  f.node.HasChildren,
	}
	if err := s.menu.Create(ctx, link); err != nil {
		return "", err
	}
	report.Created++
	return link.Key, nil
}
