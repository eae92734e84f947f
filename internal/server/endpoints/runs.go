package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/batch"
	"github.com/jackzampolin/outline/internal/jobs"
	"github.com/jackzampolin/outline/internal/svcctx"
)

// CreateRunRequest is the request body for queueing a run.
type CreateRunRequest struct {
	Op       string `json:"op"`
	BookType string `json:"book_type,omitempty"`
}

// RunResponse wraps a single run record.
type RunResponse struct {
	Run *jobs.Record `json:"run"`
}

// ListRunsResponse is the response for listing runs.
type ListRunsResponse struct {
	Runs []*jobs.Record `json:"runs"`
}

// CreateRunEndpoint handles POST /api/runs.
type CreateRunEndpoint struct{}

func (e *CreateRunEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/runs", e.handler
}

func (e *CreateRunEndpoint) RequiresInit() bool { return true }

func (e *CreateRunEndpoint) Group() string { return "runs" }

// handler godoc
//
//	@Summary		Queue a run
//	@Description	Queue a build, assign, destroy or sync run. book_type may be empty for sync.
//	@Tags			runs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateRunRequest	true	"Run to queue"
//	@Success		202		{object}	RunResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/runs [post]
func (e *CreateRunEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	op, err := batch.ParseOp(req.Op)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.BookType != "" {
		if _, ok := svcctx.BooksFrom(r.Context()).Get(req.BookType); !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown book type %q", req.BookType))
			return
		}
	} else if op != batch.OpSync {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s needs a book_type", op))
		return
	}

	rec, err := svcctx.HostFrom(r.Context()).Submit(r.Context(), op, req.BookType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, RunResponse{Run: rec})
}

func (e *CreateRunEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "create <build|assign|destroy|sync> [book-type]",
		Short: "Queue a structural run",
		Long: `Queue a structural run on the server.

A sync without a book type mirrors every configured book into the menu.

Examples:
  outline api runs create build bg
  outline api runs create assign sb
  outline api runs create sync`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := CreateRunRequest{Op: args[0]}
			if len(args) == 2 {
				req.BookType = args[1]
			}
			client := api.NewClient(getServerURL())
			var resp RunResponse
			if err := client.Post(cmd.Context(), "/api/runs", req, &resp); err != nil {
				return err
			}
			return api.Output(resp.Run)
		},
	}
}

// ListRunsEndpoint handles GET /api/runs.
type ListRunsEndpoint struct{}

func (e *ListRunsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/runs", e.handler
}

func (e *ListRunsEndpoint) RequiresInit() bool { return true }

func (e *ListRunsEndpoint) Group() string { return "runs" }

// handler godoc
//
//	@Summary		List runs
//	@Description	List runs, newest first
//	@Tags			runs
//	@Produce		json
//	@Param			status		query		string	false	"Filter by status"
//	@Param			op			query		string	false	"Filter by operation"
//	@Param			book_type	query		string	false	"Filter by book type"
//	@Param			limit		query		int		false	"Maximum runs returned"
//	@Success		200			{object}	ListRunsResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/runs [get]
func (e *ListRunsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := jobs.ListFilter{
		Status:   jobs.Status(q.Get("status")),
		Op:       batch.Op(q.Get("op")),
		BookType: q.Get("book_type"),
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	runs, err := svcctx.RunsFrom(r.Context()).List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []*jobs.Record{}
	}
	writeJSON(w, http.StatusOK, ListRunsResponse{Runs: runs})
}

func (e *ListRunsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var status, op, bookType string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if status != "" {
				params.Set("status", status)
			}
			if op != "" {
				params.Set("op", op)
			}
			if bookType != "" {
				params.Set("book_type", bookType)
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			path := "/api/runs"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}

			client := api.NewClient(getServerURL())
			var resp ListRunsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&op, "op", "", "Filter by operation")
	cmd.Flags().StringVar(&bookType, "book-type", "", "Filter by book type")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum runs returned")
	return cmd
}

// GetRunEndpoint handles GET /api/runs/{id}.
type GetRunEndpoint struct{}

func (e *GetRunEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/runs/{id}", e.handler
}

func (e *GetRunEndpoint) RequiresInit() bool { return true }

func (e *GetRunEndpoint) Group() string { return "runs" }

func (e *GetRunEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec, err := svcctx.RunsFrom(r.Context()).Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Run: rec})
}

func (e *GetRunEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a run and its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp RunResponse
			if err := client.Get(cmd.Context(), "/api/runs/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp.Run)
		},
	}
}

// CancelRunEndpoint handles POST /api/runs/{id}/cancel.
type CancelRunEndpoint struct{}

func (e *CancelRunEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/runs/{id}/cancel", e.handler
}

func (e *CancelRunEndpoint) RequiresInit() bool { return true }

func (e *CancelRunEndpoint) Group() string { return "runs" }

// handler godoc
//
//	@Summary		Cancel a run
//	@Description	A queued run is cancelled at once; a running one stops before its next chunk.
//	@Tags			runs
//	@Produce		json
//	@Param			id	path		string	true	"Run ID"
//	@Success		200	{object}	RunResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/runs/{id}/cancel [post]
func (e *CancelRunEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := svcctx.HostFrom(r.Context()).Cancel(r.Context(), id)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, jobs.ErrFinished):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rec, err := svcctx.RunsFrom(r.Context()).Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{Run: rec})
}

func (e *CancelRunEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a queued or running run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp RunResponse
			path := "/api/runs/" + url.PathEscape(args[0]) + "/cancel"
			if err := client.Post(cmd.Context(), path, nil, &resp); err != nil {
				return err
			}
			return api.Output(resp.Run)
		},
	}
}
