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

// Plan is everything a build needs beyond the book type itself.
type Plan struct {
	// RootID is the book root item (structure.<code>.main_book_nid).
	RootID   string
	Shape    books.Shape
	Langcode string
}

// BuildReport summarises a build.
type BuildReport struct {
	RootID           string `json:"root_id"`
	ContainerID      string `json:"container_id"`
	DivisionsCreated int    `json:"divisions_created"`
	DivisionsReused  int    `json:"divisions_reused"`
	ChaptersCreated  int    `json:"chapters_created"`
	ChaptersReused   int    `json:"chapters_reused"`
	AliasesCreated   int    `json:"aliases_created"`
	AliasesExisting  int    `json:"aliases_existing"`
}

// Builder creates the division and chapter skeleton of a book.
type Builder struct {
	items    content.Store
	links    outline.Store
	aliases  alias.Store
	resolver *Resolver
	logger   *slog.Logger
}

// NewBuilder wires a builder. A nil logger uses slog.Default().
func NewBuilder(items content.Store, links outline.Store, aliases alias.Store, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		items:    items,
		links:    links,
		aliases:  aliases,
		resolver: NewResolver(items),
		logger:   logger,
	}
}

// Build realises plan.Shape under the root item. Nodes that already exist at the same
// coordinates are reused, and aliases are only written when missing, so Build can be
// re-run safely. Any store error aborts the build.
func (b *Builder) Build(ctx context.Context, bt books.BookType, plan Plan) (BuildReport, error) {
	report := BuildReport{RootID: plan.RootID}

	root, err := b.loadRoot(ctx, bt, plan.RootID)
	if err != nil {
		return report, err
	}

	container, err := b.ensureRootLink(ctx, root)
	if err != nil {
		return report, err
	}
	report.ContainerID = container

	log := b.logger.With("book_type", bt.Code, "root", root.ID)
	log.Info("building structure", "divisions", len(plan.Shape.Divisions), "chapters", plan.Shape.ChapterTotal())

	if !bt.HasDivisions() {
		if err := b.buildChapters(ctx, bt, plan, root, container, books.Division{}, nil, &report); err != nil {
			return report, err
		}
	}

	for _, d := range plan.Shape.Divisions {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		div, err := b.ensureDivision(ctx, bt, plan, root, container, d, &report)
		if err != nil {
			return report, err
		}
		if err := b.buildChapters(ctx, bt, plan, root, container, d, div, &report); err != nil {
			return report, err
		}
	}

	log.Info("structure built",
		"divisions_created", report.DivisionsCreated,
		"chapters_created", report.ChaptersCreated,
		"aliases_created", report.AliasesCreated)
	return report, nil
}

func (b *Builder) loadRoot(ctx context.Context, bt books.BookType, rootID string) (content.Item, error) {
	if rootID == "" {
		return content.Item{}, &ConfigurationError{BookType: bt.Code, Reason: "main_book_nid is not configured"}
	}
	root, err := b.items.Load(ctx, rootID)
	if errors.Is(err, content.ErrNotFound) {
		return content.Item{}, &ConfigurationError{BookType: bt.Code, Reason: fmt.Sprintf("root item %s does not exist", rootID), Err: err}
	}
	if err != nil {
		return content.Item{}, fmt.Errorf("load root %s: %w", rootID, err)
	}
	return root, nil
}

// ensureRootLink makes the root a book container if it is not in one yet.
func (b *Builder) ensureRootLink(ctx context.Context, root content.Item) (string, error) {
	link, err := b.links.Get(ctx, root.ID)
	if err == nil {
		return link.ContainerID, nil
	}
	if !errors.Is(err, outline.ErrNotFound) {
		return "", fmt.Errorf("load root link: %w", err)
	}
	if err := b.links.Put(ctx, outline.Link{ItemID: root.ID, ContainerID: root.ID}); err != nil {
		return "", fmt.Errorf("link root %s: %w", root.ID, err)
	}
	return root.ID, nil
}

func (b *Builder) ensureDivision(ctx context.Context, bt books.BookType, plan Plan, root content.Item, container string, d books.Division, report *BuildReport) (*content.Item, error) {
	div, err := b.resolver.FindDivision(ctx, bt, books.NumberKey(d.Number))
	if err != nil {
		return nil, err
	}
	if div != nil {
		report.DivisionsReused++
	} else {
		item := content.Item{
			Type:      bt.DivisionType(),
			Title:     d.Label,
			Number:    d.Number,
			BookRef:   root.ID,
			Label:     d.Name,
			Published: true,
			Langcode:  plan.Langcode,
		}
		id, err := b.items.Create(ctx, item)
		if err != nil {
			return nil, fmt.Errorf("create division %d: %w", d.Number, err)
		}
		item.ID = id
		div = &item
		report.DivisionsCreated++
	}

	link := outline.Link{ItemID: div.ID, ContainerID: container, ParentID: root.ID, Weight: d.Number}
	if err := b.links.Put(ctx, link); err != nil {
		return nil, fmt.Errorf("link division %d: %w", d.Number, err)
	}
	if err := b.ensureAlias(ctx, div.ID, slug.DivisionAlias(bt, d), plan.Langcode, report); err != nil {
		return nil, err
	}
	return div, nil
}

// buildChapters creates d's chapters. div is nil for single-level books.
func (b *Builder) buildChapters(ctx context.Context, bt books.BookType, plan Plan, root content.Item, container string, d books.Division, div *content.Item, report *BuildReport) error {
	parentID := root.ID
	divisionRef := ""
	if div != nil {
		parentID = div.ID
		divisionRef = div.ID
	}

	for n := 1; n <= plan.Shape.Chapters[d.Number]; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var existing *content.Item
		var err error
		if div != nil {
			existing, err = b.resolver.FindChapterInDivision(ctx, bt, books.NumberKey(d.Number), n)
		} else {
			existing, err = b.resolver.FindChapter(ctx, bt, n)
		}
		if err != nil {
			return err
		}

		id := ""
		if existing != nil {
			id = existing.ID
			report.ChaptersReused++
		} else {
			id, err = b.items.Create(ctx, content.Item{
				Type:        bt.ChapterType(),
				Title:       fmt.Sprintf("Chapter %d", n),
				Number:      n,
				DivisionRef: divisionRef,
				BookRef:     root.ID,
				Published:   true,
				Langcode:    plan.Langcode,
			})
			if err != nil {
				return fmt.Errorf("create chapter %s: %w", slug.ChapterAlias(bt, d, n), err)
			}
			report.ChaptersCreated++
		}

		link := outline.Link{ItemID: id, ContainerID: container, ParentID: parentID, Weight: n}
		if err := b.links.Put(ctx, link); err != nil {
			return fmt.Errorf("link chapter %s: %w", slug.ChapterAlias(bt, d, n), err)
		}
		if err := b.ensureAlias(ctx, id, slug.ChapterAlias(bt, d, n), plan.Langcode, report); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) ensureAlias(ctx context.Context, itemID, path, langcode string, report *BuildReport) error {
	created, err := alias.EnsureAlias(ctx, b.aliases, alias.Alias{
		Path:     alias.SystemPath(itemID),
		Alias:    path,
		Langcode: langcode,
	})
	if err != nil {
		return fmt.Errorf("alias %s: %w", path, err)
	}
	if created {
		report.AliasesCreated++
	} else {
		report.AliasesExisting++
	}
	return nil
}
