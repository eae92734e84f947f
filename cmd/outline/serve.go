package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/config"
	"github.com/jackzampolin/outline/internal/defra"
	"github.com/jackzampolin/outline/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the outline server",
	Long: `Start the outline HTTP server.

This starts the HTTP API server, the run host and, unless defra.url points at
an existing instance, the DefraDB container. When the server shuts down (via
Ctrl+C or SIGTERM) DefraDB is stopped too; runs in progress keep their last
chunk and resume on the next start.

Examples:
  outline serve                    # Start on default port 8080
  outline serve --port 3000        # Start on custom port
  outline serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := newLogger()
		if err != nil {
			return err
		}
		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h, logger)
		if err != nil {
			return err
		}
		mgr.WatchConfig()
		cfg := mgr.Get()
		if f := mgr.ConfigFile(); f != "" {
			logger.Info("using config file", "path", f)
		}

		srv, err := server.New(server.Config{
			Host:     serveHost,
			Port:     servePort,
			Home:     h,
			DefraURL: cfg.Defra.URL,
			DefraConfig: defra.DockerConfig{
				ContainerName: cfg.Defra.ContainerName,
				Image:         cfg.Defra.Image,
				HostPort:      cfg.Defra.Port,
			},
			ConfigManager: mgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		if h.ConfigExists() && !force {
			cmd.Printf("%s already exists (use --force to overwrite)\n", h.ConfigPath())
			return nil
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		cmd.Printf("wrote %s\n", h.ConfigPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration file as loaded, without runtime overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		h, err := getHome()
		if err != nil {
			return err
		}
		mgr, err := loadConfig(h, logger)
		if err != nil {
			return err
		}
		return outputConfig(mgr.Get())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(serveCmd, configCmd)
}

func outputConfig(cfg *config.Config) error {
	return api.Output(cfg)
}
