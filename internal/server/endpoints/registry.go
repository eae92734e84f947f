package endpoints

import (
	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/defra"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	DefraManager *defra.DockerManager
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{DefraManager: cfg.DefraManager},

		// Run endpoints
		&CreateRunEndpoint{},
		&ListRunsEndpoint{},
		&GetRunEndpoint{},
		&CancelRunEndpoint{},

		// Book endpoints
		&ListBooksEndpoint{},
		&GetOutlineEndpoint{},
		&ParseSlugEndpoint{},
		&ListMenuEndpoint{},

		// Settings endpoints
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},
		&UpdateSettingEndpoint{},
		&ResetSettingEndpoint{},
	}
}
