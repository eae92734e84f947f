package main

import (
	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/server/endpoints"
)

var serverURL string

func getServerURL() string {
	return serverURL
}

func init() {
	registry := api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{}) {
		registry.Register(ep)
	}

	apiCmd := registry.BuildCommands(getServerURL)
	apiCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(apiCmd)
}
