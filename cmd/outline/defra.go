package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/outline/internal/api"
	"github.com/jackzampolin/outline/internal/config"
	"github.com/jackzampolin/outline/internal/defra"
	"github.com/jackzampolin/outline/internal/home"
	"github.com/jackzampolin/outline/internal/schema"
)

var defraCmd = &cobra.Command{
	Use:   "defra",
	Short: "Manage the DefraDB container",
	Long: `Manage the DefraDB container lifecycle.

DefraDB stores nodes, outline links, aliases, menu links, runs and settings.
The container keeps its data in ~/.outline/data/ and is named after the home
directory unless defra.container_name is set, so several homes can run side
by side. When defra.url is set, outline does not manage a container and only
the schema command applies.

Examples:
  outline defra start    # Create or start the container
  outline defra schema   # Register the collections
  outline defra status   # Container state and health
  outline defra logs     # Recent container output`,
}

// defraEnv is what every defra subcommand needs: the home, its config and,
// unless an external URL is configured, a container manager.
type defraEnv struct {
	home   *home.Dir
	cfg    *config.Config
	docker *defra.DockerManager
}

func (e *defraEnv) close() {
	if e.docker != nil {
		_ = e.docker.Close()
	}
}

// url is where DefraDB answers, managed or not.
func (e *defraEnv) url() string {
	if e.docker == nil {
		return e.cfg.Defra.URL
	}
	return e.docker.URL()
}

func loadDefraEnv() (*defraEnv, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	mgr, err := loadConfig(h, logger)
	if err != nil {
		return nil, err
	}
	env := &defraEnv{home: h, cfg: mgr.Get()}
	if env.cfg.Defra.URL != "" {
		return env, nil
	}

	if err := os.MkdirAll(h.DataPath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	env.docker, err = defra.NewDockerManager(defra.DockerConfig{
		ContainerName: env.cfg.Defra.ContainerName,
		HomePath:      h.Path(),
		Image:         env.cfg.Defra.Image,
		DataPath:      h.DataPath(),
		HostPort:      env.cfg.Defra.Port,
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

// containerCommand builds a subcommand that needs a managed container.
func containerCommand(use, short string, run func(ctx context.Context, cmd *cobra.Command, m *defra.DockerManager) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadDefraEnv()
			if err != nil {
				return err
			}
			defer env.close()
			if env.docker == nil {
				return fmt.Errorf("defra.url is %s; that instance is not managed by outline", env.cfg.Defra.URL)
			}
			return run(cmd.Context(), cmd, env.docker)
		},
	}
}

var defraStartCmd = containerCommand("start", "Create or start the DefraDB container",
	func(ctx context.Context, cmd *cobra.Command, m *defra.DockerManager) error {
		if err := m.ValidateExisting(ctx); err != nil {
			return fmt.Errorf("container %s does not match the config (try 'outline defra remove'): %w", m.ContainerName(), err)
		}
		cmd.Printf("Starting %s...\n", m.ContainerName())
		if err := m.Start(ctx); err != nil {
			return fmt.Errorf("failed to start DefraDB: %w", err)
		}
		cmd.Printf("DefraDB is running at %s\n", m.URL())
		return nil
	})

var defraStopCmd = containerCommand("stop", "Stop the DefraDB container (data is kept)",
	func(ctx context.Context, cmd *cobra.Command, m *defra.DockerManager) error {
		if err := m.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop DefraDB: %w", err)
		}
		cmd.Println("DefraDB stopped")
		return nil
	})

var defraRemoveCmd = containerCommand("remove", "Remove the DefraDB container (data in ~/.outline/data/ is kept)",
	func(ctx context.Context, cmd *cobra.Command, m *defra.DockerManager) error {
		if err := m.Remove(ctx); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}
		cmd.Printf("%s removed\n", m.ContainerName())
		return nil
	})

var logsTail string

var defraLogsCmd = containerCommand("logs", "Show DefraDB container logs",
	func(ctx context.Context, cmd *cobra.Command, m *defra.DockerManager) error {
		logs, err := m.Logs(ctx, logsTail)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}
		cmd.Print(logs)
		return nil
	})

var defraWaitCmd = containerCommand("wait", "Block until DefraDB answers its health check",
	func(ctx context.Context, cmd *cobra.Command, m *defra.DockerManager) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		if err := m.WaitReady(ctx, timeout); err != nil {
			return fmt.Errorf("DefraDB not ready after %s: %w", timeout, err)
		}
		cmd.Println("DefraDB is ready")
		return nil
	})

// DefraStatus is printed by 'outline defra status'.
type DefraStatus struct {
	Container string `json:"container" yaml:"container"`
	State     string `json:"state" yaml:"state"`
	URL       string `json:"url" yaml:"url"`
	Health    string `json:"health" yaml:"health"`
}

var defraStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show DefraDB container state and health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := loadDefraEnv()
		if err != nil {
			return err
		}
		defer env.close()

		st := DefraStatus{Container: "external", State: string(defra.StatusRunning), URL: env.url()}
		if env.docker != nil {
			state, err := env.docker.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			st.Container = env.docker.ContainerName()
			st.State = string(state)
		}

		st.Health = "unknown"
		if st.State == string(defra.StatusRunning) {
			st.Health = "healthy"
			if err := defra.NewClient(st.URL).HealthCheck(ctx); err != nil {
				st.Health = err.Error()
			}
		}
		return api.Output(st)
	},
}

var defraSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Register the outline collections in DefraDB",
	Long: `Register the outline collections in DefraDB.

'outline serve' does this on every start; this command is for preparing an
external instance (defra.url) or checking a managed one. Collections that
already exist are left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := loadDefraEnv()
		if err != nil {
			return err
		}
		defer env.close()

		logger, err := newLogger()
		if err != nil {
			return err
		}
		client := defra.NewClient(env.url())
		if err := client.HealthCheck(ctx); err != nil {
			return fmt.Errorf("DefraDB at %s is not reachable: %w", env.url(), err)
		}
		res, err := schema.Initialize(ctx, client, logger)
		if err != nil {
			return err
		}
		return api.Output(res)
	},
}

func init() {
	defraLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	defraWaitCmd.Flags().Duration("timeout", 30*time.Second, "Timeout waiting for DefraDB")

	defraCmd.AddCommand(
		defraStartCmd,
		defraStopCmd,
		defraStatusCmd,
		defraLogsCmd,
		defraRemoveCmd,
		defraWaitCmd,
		defraSchemaCmd,
	)
	rootCmd.AddCommand(defraCmd)
}
