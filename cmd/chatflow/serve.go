package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ndanaka/chatflow"
	httpAdapter "github.com/ndanaka/chatflow/internal/adapters/http"
	"github.com/ndanaka/chatflow/internal/config"
	"github.com/ndanaka/chatflow/internal/logging"
	redisAdapter "github.com/ndanaka/chatflow/pkg/adapters/redis"
	"github.com/ndanaka/chatflow/pkg/integrations"
	"github.com/ndanaka/chatflow/pkg/integrations/providers"
	"github.com/ndanaka/chatflow/pkg/observability"
	"github.com/ndanaka/chatflow/pkg/whatsapp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat API server",
	Long:  `Starts the stateless chat server, exposing the session API over HTTP and, when configured, the WhatsApp webhook.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		flowsDir, _ := cmd.Flags().GetString("flows")
		debug, _ := cmd.Flags().GetBool("debug")

		if err := runServe(configPath, flowsDir, debug, cmd.Flags().Changed("flows")); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to the YAML config file")
}

func runServe(configPath, flowsDir string, debug, flowsFlagSet bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flowsFlagSet {
		cfg.Flows.Dir = flowsDir
	}

	logger := buildLogger(cfg.Logging, debug)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	botOpts := []chatflow.Option{
		chatflow.WithLogger(logger),
		chatflow.WithHooks(metrics.Hooks()),
		chatflow.WithEnvironment(cfg.Environment),
		chatflow.WithExecutor(buildExecutor(cfg.Integrations, logger)),
	}

	if cfg.Redis.Addr != "" {
		store := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisAdapter.WithTTL(cfg.Redis.SessionTTL.Std()))
		if err := store.Ping(context.Background()); err != nil {
			return fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		botOpts = append(botOpts,
			chatflow.WithSessionStore(store),
			chatflow.WithLocker(redisAdapter.NewLocker(store.Client())),
		)
		logger.Info("using redis session backend", "addr", cfg.Redis.Addr)
	} else {
		logger.Info("using in-memory session backend")
	}

	bot := chatflow.New(botOpts...)
	if err := bot.LoadFlowsDir(cfg.Flows.Dir); err != nil {
		return err
	}

	serverOpts := []httpAdapter.Option{
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	}

	if cfg.WhatsApp.Enabled() {
		sender := whatsapp.NewSender(cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.AccessToken,
			whatsapp.WithSenderLogger(logger))
		svc := whatsapp.NewService(bot.Engine(), bot.Sessions(), bot.Flows(), sender,
			whatsapp.WithLogger(logger))
		serverOpts = append(serverOpts, httpAdapter.WithWhatsApp(svc, cfg.WhatsApp.VerifyToken))
		logger.Info("whatsapp channel enabled", "phone_number_id", cfg.WhatsApp.PhoneNumberID)
	}

	server := httpAdapter.NewServer(bot.Engine(), bot.Sessions(), serverOpts...)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Handler(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown did not complete", "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
		logger.Info("server stopped")
	}
	return nil
}

// buildExecutor wires the configured integration collaborators. Blocks of an
// unconfigured kind fail softly with an error log at runtime.
func buildExecutor(cfg config.IntegrationsConfig, logger *slog.Logger) *integrations.Executor {
	opts := []integrations.ExecutorOption{integrations.WithLogger(logger)}
	if cfg.SheetsGatewayURL != "" {
		opts = append(opts, integrations.WithSheets(providers.NewSheetsGateway(cfg.SheetsGatewayURL)))
		logger.Info("sheets gateway enabled", "url", cfg.SheetsGatewayURL)
	}
	if cfg.SMTP.Enabled() {
		opts = append(opts, integrations.WithMailer(
			providers.NewSMTPMailer(cfg.SMTP.Addr, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)))
		logger.Info("smtp mailer enabled", "addr", cfg.SMTP.Addr)
	}
	if cfg.AnalyticsEnabled {
		opts = append(opts, integrations.WithAnalytics(providers.NewGoogleAnalytics()))
	}
	return integrations.NewExecutor(opts...)
}

func buildLogger(cfg config.LoggingConfig, debug bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if debug {
		level = slog.LevelDebug
	}
	if cfg.Format == "json" {
		return logging.NewJSON(level)
	}
	return logging.New(level)
}
