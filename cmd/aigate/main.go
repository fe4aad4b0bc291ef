package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aigate/internal/app"
	"aigate/internal/domain"
	"aigate/internal/infra/catalog"
	"aigate/internal/infra/telemetry"
)

type serveOptions struct {
	configPath string
	listen     string
	logLevel   string
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &serveOptions{}

	root := &cobra.Command{
		Use:           "aigate",
		Short:         "AI assistant gateway: tool-server manager and model router",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (defaults and "+catalog.EnvPrefix+"_* env when empty)")
	root.PersistentFlags().StringVar(&opts.listen, "listen", "", "override http.listenAddress")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newValidateCmd(opts),
		newRouteCmd(opts),
		newVersionCmd(),
	)

	return root
}

func newServeCmd(opts *serveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			cfg, err := loadConfig(ctx, opts)
			if err != nil {
				return err
			}
			logger, err := telemetry.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			gin.SetMode(gin.ReleaseMode)
			application, err := app.InitializeApplication(ctx, cfg, app.LoggingConfig{Logger: logger})
			if err != nil {
				logger.Error("initialize application failed", zap.Error(err))
				return err
			}
			logger.Info("configuration loaded",
				zap.String("config", opts.configPath),
				zap.String("listen", cfg.HTTP.ListenAddress),
				zap.String("registry", cfg.Registry.Backend+":"+cfg.Registry.Path),
			)
			return application.Run()
		},
	}

	return cmd
}

func newValidateCmd(opts *serveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration without connecting to tool servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), opts)
			if err != nil {
				return err
			}
			summary, err := app.ValidateConfig(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: registry=%s servers=%d backends=%d listen=%s\n",
				summary.Registry, summary.Registrations, len(summary.Backends), cfg.HTTP.ListenAddress)
			return nil
		},
	}

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the aigate version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aigate %s (%s)\n", app.Version, app.Build)
		},
	}
}

func loadConfig(ctx context.Context, opts *serveOptions) (domain.Config, error) {
	loader := catalog.NewLoader(zap.NewNop())
	cfg, err := loader.Load(ctx, opts.configPath)
	if err != nil {
		return domain.Config{}, err
	}
	if opts.listen != "" {
		cfg.HTTP.ListenAddress = opts.listen
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
