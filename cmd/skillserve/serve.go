package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/geodocs/skillserve/pkg/logger"
	"github.com/geodocs/skillserve/pkg/mcpserver"
	"github.com/geodocs/skillserve/pkg/presenter"
	"github.com/geodocs/skillserve/pkg/skills"
)

type ServeConfig struct {
	SkillsDir  string
	Watch      bool
	DebounceMs int
}

func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		SkillsDir:  viper.GetString("skills_dir"),
		Watch:      false,
		DebounceMs: 500,
	}
}

func (c *ServeConfig) Validate() error {
	if c.SkillsDir == "" {
		return errors.New("skills directory cannot be empty")
	}
	if c.DebounceMs < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceMs)
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP stdio server",
	Long: `Start the MCP server on stdin/stdout. The server loads the skill
registry lazily on first use and keeps serving until the client closes
the stream or the process is interrupted.

With --watch, changes under the skills directory trigger a debounced
forced reload of the registry.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getServeConfigFromFlags(cmd)
		runServeCommand(cmd.Context(), config)
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().Bool("watch", defaults.Watch, "Reload the skill registry when the skills directory changes")
	serveCmd.Flags().Int("debounce", defaults.DebounceMs, "Watch debounce time in milliseconds")
	rootCmd.AddCommand(serveCmd)
}

func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	if watch, err := cmd.Flags().GetBool("watch"); err == nil {
		config.Watch = watch
	}
	if debounce, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceMs = debounce
	}

	return config
}

func runServeCommand(ctx context.Context, config *ServeConfig) {
	if err := config.Validate(); err != nil {
		presenter.Error(err, "invalid server configuration")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo := skills.NewRepository(afero.NewOsFs(), config.SkillsDir)
	srv := mcpserver.New(repo)

	log := logger.G(ctx).WithField("skills_dir", config.SkillsDir)
	log.Info("starting MCP stdio server")

	if config.Watch {
		watcher, err := mcpserver.NewWatcher(repo, time.Duration(config.DebounceMs)*time.Millisecond)
		if err != nil {
			presenter.Error(err, "failed to watch skills directory")
			os.Exit(1)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.G(ctx).WithError(err).Error("skills watcher stopped")
			}
		}()
	}

	if err := srv.ServeStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.G(ctx).WithError(err).Error("MCP server error")
		os.Exit(1)
	}

	log.Info("MCP server stopped")
}
