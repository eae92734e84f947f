package endpoints

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/slug"
	"github.com/jackzampolin/outline/internal/svcctx"
)

// ParseSlugResponse holds the coordinates of a parsed alias. OK is false when the
// alias does not match the book type's grammar.
type ParseSlugResponse struct {
	Slug     string       `json:"slug"`
	BookType string       `json:"book_type"`
	OK       bool         `json:"ok"`
	Coords   *slug.Coords `json:"coords,omitempty"`
}

// ParseSlugEndpoint handles GET /api/slugs/parse.
type ParseSlugEndpoint struct{}

func (e *ParseSlugEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/slugs/parse", e.handler
}

func (e *ParseSlugEndpoint) RequiresInit() bool { return true }

func (e *ParseSlugEndpoint) Group() string { return "slugs" }

func (e *ParseSlugEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, s := q.Get("book_type"), q.Get("slug")
	if code == "" || s == "" {
		writeError(w, http.StatusBadRequest, "book_type and slug are required")
		return
	}
	bt, ok := svcctx.BooksFrom(r.Context()).Get(code)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown book type %q", code))
		return
	}

	resp := ParseSlugResponse{Slug: s, BookType: code}
	if coords, ok := slug.Parse(s, bt); ok {
		resp.OK = true
		resp.Coords = &coords
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ParseSlugEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <book-type> <slug>",
		Short: "Parse an alias into division, chapter and leaf coordinates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			params.Set("book_type", args[0])
			params.Set("slug", args[1])

			client := api.NewClient(getServerURL())
			var resp ParseSlugResponse
			if err := client.Get(cmd.Context(), "/api/slugs/parse?"+params.Encode(), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
