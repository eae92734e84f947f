package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/outline/internal/defra"
)

// Result lists the collections Initialize created and the ones DefraDB already had.
type Result struct {
	Added    []string `json:"added"`
	Existing []string `json:"existing"`
}

// Initialize registers every collection in registry order. Collections that
// already exist are left untouched, so it runs on every server start.
func Initialize(ctx context.Context, client *defra.Client, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res Result

	schemas, err := All()
	if err != nil {
		return res, fmt.Errorf("failed to load schemas: %w", err)
	}

	for _, s := range schemas {
		err := client.AddSchema(ctx, s.SDL)
		switch {
		case err == nil:
			logger.Info("collection added", "name", s.Name)
			res.Added = append(res.Added, s.Name)
		case isAlreadyExistsError(err):
			logger.Debug("collection exists", "name", s.Name)
			res.Existing = append(res.Existing, s.Name)
		default:
			return res, fmt.Errorf("failed to add schema %s: %w", s.Name, err)
		}
	}
	return res, nil
}

// DefraDB only reports this in the response body.
func isAlreadyExistsError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "already exists")
}
