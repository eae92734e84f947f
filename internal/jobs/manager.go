package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackzampolin/outline/internal/batch"
	"github.com/jackzampolin/outline/internal/defra"
)

const collection = "Run"

var runFields = []string{"_docID", "op", "book_type", "status", "created_at", "started_at", "completed_at", "error", "token", "snapshot"}

// Manager handles run record CRUD in DefraDB. It does not execute runs; the Host does.
type Manager struct {
	defra  *defra.Client
	logger *slog.Logger
}

// NewManager creates a new run manager.
func NewManager(client *defra.Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		defra:  client,
		logger: logger,
	}
}

// Create stores a new record and returns its ID.
func (m *Manager) Create(ctx context.Context, r *Record) (string, error) {
	tok, err := json.Marshal(r.Token)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token: %w", err)
	}
	input := map[string]any{
		"op":         string(r.Op),
		"book_type":  r.BookType,
		"status":     string(r.Status),
		"created_at": r.CreatedAt,
		"token":      string(tok),
	}

	id, err := m.defra.Create(ctx, collection, input)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	r.ID = id

	m.logger.Info("run created", "id", id, "op", string(r.Op), "book_type", r.BookType)
	return id, nil
}

// Get returns a run record by ID.
func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	if err := defra.ValidateID(id); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`{ %s(docID: %q) { %s } }`, collection, id, joinFields(runFields))
	resp, err := m.defra.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	if errMsg := resp.Error(); errMsg != "" {
		return nil, fmt.Errorf("get run %s: %s", id, errMsg)
	}
	docs := resp.Docs(collection)
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return parseRecord(docs[0]), nil
}

// List returns runs matching the filter, newest first.
func (m *Manager) List(ctx context.Context, f ListFilter) ([]*Record, error) {
	q := defra.NewQuery(collection).Fields(runFields...).OrderBy("created_at", "DESC")
	if f.Status != "" {
		q.Filter("status", string(f.Status))
	}
	if f.Op != "" {
		q.Filter("op", string(f.Op))
	}
	if f.BookType != "" {
		q.Filter("book_type", f.BookType)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	q.Limit(limit)

	docs, err := q.Execute(ctx, m.defra)
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, parseRecord(d))
	}
	return records, nil
}

// UpdateStatus updates a run's status, stamping start and completion times.
func (m *Manager) UpdateStatus(ctx context.Context, id string, status Status, errMsg string) error {
	input := map[string]any{"status": string(status)}

	now := time.Now().UTC()
	switch {
	case status == StatusRunning:
		input["started_at"] = now
	case status.Terminal():
		input["completed_at"] = now
	}
	if errMsg != "" {
		input["error"] = errMsg
	}
	return m.defra.Update(ctx, collection, id, input)
}

// UpdateToken persists a run's token after a chunk, without its snapshot.
func (m *Manager) UpdateToken(ctx context.Context, id string, tok batch.Token) error {
	tok.Snapshot = nil
	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	return m.defra.Update(ctx, collection, id, map[string]any{"token": string(b)})
}

// SaveSnapshot stores the IDs an assign run works through.
func (m *Manager) SaveSnapshot(ctx context.Context, id string, ids []string) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return m.defra.Update(ctx, collection, id, map[string]any{"snapshot": string(b)})
}

func parseRecord(data map[string]any) *Record {
	r := &Record{}
	r.ID, _ = data["_docID"].(string)
	if op, ok := data["op"].(string); ok {
		r.Op = batch.Op(op)
	}
	r.BookType, _ = data["book_type"].(string)
	if s, ok := data["status"].(string); ok {
		r.Status = Status(s)
	}
	r.Error, _ = data["error"].(string)

	if t, ok := parseTime(data["created_at"]); ok {
		r.CreatedAt = t
	}
	if t, ok := parseTime(data["started_at"]); ok {
		r.StartedAt = &t
	}
	if t, ok := parseTime(data["completed_at"]); ok {
		r.CompletedAt = &t
	}

	if tok, ok := data["token"].(string); ok && tok != "" {
		if err := json.Unmarshal([]byte(tok), &r.Token); err != nil {
			r.Token = batch.NewToken(r.Op, r.BookType)
		}
	}
	if s, ok := data["snapshot"].(string); ok && s != "" {
		_ = json.Unmarshal([]byte(s), &r.Token.Snapshot)
	}
	return r
}

func parseTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func joinFields(fields []string) string {
	result := ""
	for i, f := range fields {
		if i > 0 {
			result += " "
		}
		result += f
	}
	return result
}
