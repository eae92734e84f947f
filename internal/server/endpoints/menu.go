package endpoints

import (
	"net/http"
	"net/url"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/nav"
	"github.com/jackzampolin/outline/internal/svcctx"
)

// MenuResponse lists the links of one menu.
type MenuResponse struct {
	Menu  string     `json:"menu"`
	Links []nav.Link `json:"links"`
}

// ListMenuEndpoint handles GET /api/menu. The configured menu is used unless
// ?menu= names another one.
type ListMenuEndpoint struct{}

func (e *ListMenuEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/menu", e.handler
}

func (e *ListMenuEndpoint) RequiresInit() bool { return true }

func (e *ListMenuEndpoint) Group() string { return "menu" }

func (e *ListMenuEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s := svcctx.ServicesFrom(r.Context())
	menu := r.URL.Query().Get("menu")
	if menu == "" {
		cfg, err := s.Config(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		menu = cfg.Menu.MachineName
	}

	links, err := s.Menu.List(r.Context(), menu)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].ParentKey != links[j].ParentKey {
			return links[i].ParentKey < links[j].ParentKey
		}
		return links[i].Weight < links[j].Weight
	})
	if links == nil {
		links = []nav.Link{}
	}
	writeJSON(w, http.StatusOK, MenuResponse{Menu: menu, Links: links})
}

func (e *ListMenuEndpoint) Command(getServerURL func() string) *cobra.Command {
	var menu string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the links of a navigation menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/menu"
			if menu != "" {
				path += "?menu=" + url.QueryEscape(menu)
			}
			client := api.NewClient(getServerURL())
			var resp MenuResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&menu, "menu", "", "Menu machine name (default: configured menu)")
	return cmd
}
