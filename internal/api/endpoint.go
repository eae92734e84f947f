package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Endpoint pairs an HTTP route with the CLI command that calls it, so the two
// cannot drift apart.
type Endpoint interface {
	// Route returns the HTTP method, path, and handler for this endpoint.
	Route() (method, path string, handler http.HandlerFunc)

	// RequiresInit reports whether the handler needs the stores and the run host.
	RequiresInit() bool

	// Command returns a Cobra command that calls this endpoint via HTTP.
	// getServerURL is evaluated when the command runs, after flag parsing.
	Command(getServerURL func() string) *cobra.Command
}

// Grouped is implemented by endpoints whose command lives under a subcommand
// such as "runs" or "settings". Ungrouped commands sit directly under "api".
type Grouped interface {
	Group() string
}
