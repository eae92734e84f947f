package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/books"
	"github.com/jackzampolin/outline/internal/outline"
	"github.com/jackzampolin/outline/internal/svcctx"
)

// BookSummary describes one registered book type and its configured shape.
type BookSummary struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Levels       int    `json:"levels"`
	DivisionKind string `json:"division_kind,omitempty"`
	RootID       string `json:"root_id,omitempty"`
	Divisions    int    `json:"divisions"`
	Chapters     int    `json:"chapters"`
	Error        string `json:"error,omitempty"`
}

// ListBooksResponse is the response for listing book types.
type ListBooksResponse struct {
	Books []BookSummary `json:"books"`
}

// ListBooksEndpoint handles GET /api/books.
type ListBooksEndpoint struct{}

func (e *ListBooksEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books", e.handler
}

func (e *ListBooksEndpoint) RequiresInit() bool { return true }

func (e *ListBooksEndpoint) Group() string { return "books" }

// handler godoc
//
//	@Summary		List book types
//	@Description	List registered book types with their configured root and shape
//	@Tags			books
//	@Produce		json
//	@Success		200	{object}	ListBooksResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/books [get]
func (e *ListBooksEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := svcctx.ServicesFrom(r.Context())
	cfg, err := s.Config(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ListBooksResponse{Books: []BookSummary{}}
	for _, code := range s.Books.Codes() {
		bt, _ := s.Books.Get(code)
		summary := BookSummary{
			Code:         bt.Code,
			Name:         bt.Name,
			Levels:       bt.Grammar.Levels,
			DivisionKind: bt.Grammar.DivisionKind,
		}
		// a broken section is reported per book so the rest stay visible
		plan, err := cfg.Plan(bt)
		if err != nil {
			summary.Error = err.Error()
		} else {
			summary.RootID = plan.RootID
			summary.Divisions = len(plan.Shape.Divisions)
			summary.Chapters = plan.Shape.ChapterTotal()
		}
		resp.Books = append(resp.Books, summary)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListBooksEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List book types",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ListBooksResponse
			if err := client.Get(cmd.Context(), "/api/books", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// OutlineResponse is the assembled outline of one book.
type OutlineResponse struct {
	BookType    string            `json:"book_type"`
	ContainerID string            `json:"container_id"`
	Nodes       int               `json:"nodes"`
	Tree        *outline.TreeNode `json:"tree"`
}

// GetOutlineEndpoint handles GET /api/books/{code}/outline.
type GetOutlineEndpoint struct{}

func (e *GetOutlineEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/books/{code}/outline", e.handler
}

func (e *GetOutlineEndpoint) RequiresInit() bool { return true }

func (e *GetOutlineEndpoint) Group() string { return "books" }

func (e *GetOutlineEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := svcctx.ServicesFrom(r.Context())
	bt, ok := s.Books.Get(r.PathValue("code"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown book type %q", r.PathValue("code")))
		return
	}
	cfg, err := s.Config(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	plan, err := cfg.Plan(bt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if plan.RootID == "" {
		writeError(w, http.StatusNotFound, fmt.Sprintf("structure.%s.main_book_nid is not configured", bt.Code))
		return
	}

	tree, container, err := bookTree(r, s.Links, bt, plan.RootID)
	if err != nil {
		if errors.Is(err, outline.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("book %s has no outline yet", bt.Code))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, OutlineResponse{
		BookType:    bt.Code,
		ContainerID: container,
		Nodes:       tree.Count(),
		Tree:        tree,
	})
}

func bookTree(r *http.Request, links outline.Store, bt books.BookType, rootID string) (*outline.TreeNode, string, error) {
	link, err := links.Get(r.Context(), rootID)
	if err != nil {
		return nil, "", err
	}
	tree, err := outline.Tree(r.Context(), links, link.ContainerID, rootID)
	if err != nil {
		return nil, "", fmt.Errorf("load %s outline: %w", bt.Code, err)
	}
	return tree, link.ContainerID, nil
}

func (e *GetOutlineEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "outline <book-type>",
		Short: "Show the outline tree of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp OutlineResponse
			path := "/api/books/" + url.PathEscape(args[0]) + "/outline"
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
