package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"videoagent/internal/agent"
	"videoagent/internal/ai"
	"videoagent/internal/api"
	"videoagent/internal/config"
	"videoagent/internal/executor"
	"videoagent/internal/logging"
	"videoagent/internal/metrics"
	"videoagent/internal/storage"
	"videoagent/internal/stt"
)

var (
	configPath string
	port       string
)

var rootCmd = &cobra.Command{
	Use:   "videoagent",
	Short: "Upload a video and ask questions about it",
	Long: `videoagent serves a page and a JSON API for uploading a video, reading its
transcript and asking for a summary, a search link or a fact-check link.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load .env file if it exists (ignore error if file doesn't exist)
	envErr := godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if port != "" {
		cfg.Server.Port = port
	}

	log := logging.NewLogger(&logging.Config{
		Level:       logging.Level(cfg.Logging.Level),
		ServiceName: "videoagent",
		JSONFormat:  cfg.Logging.Format == "json",
		Output:      os.Stdout,
	})
	if envErr != nil {
		log.Debug("No .env file found, using environment variables")
	}

	// Set Gin mode (default to release mode)
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, err := storage.NewMediaStore(cfg.Storage.TempDir, int64(cfg.Storage.MaxUploadMB)<<20, log, m)
	if err != nil {
		return err
	}

	transcriber, err := stt.CreateProvider(cfg.STT, cfg.Storage.TempDir, executor.New(), log)
	if err != nil {
		return err
	}

	completer, err := ai.NewCompleter(cfg.Completion, log)
	if err != nil {
		return err
	}
	if cfg.Completion.APIKey == "" {
		log.Warn("Completion API key is not set; summaries will fail until it is configured",
			logging.F("provider", cfg.Completion.Provider))
	}

	dispatcher := agent.NewDispatcher(transcriber, completer, agent.Config{
		Provider:  ai.ProviderDisplayName(cfg.Completion.Provider),
		Model:     cfg.Completion.Model,
		SearchURL: cfg.Search.BaseURL,
	}, log, m)

	handler := api.NewHandler(store, dispatcher, log, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router := api.NewRouter(handler, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go storage.NewScheduler(store, cfg.Storage.CleanupInterval, cfg.Storage.MaxAge, log).Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("videoagent running",
			logging.F("port", cfg.Server.Port),
			logging.F("stt_provider", transcriber.Name()),
			logging.F("completion_provider", cfg.Completion.Provider),
			logging.F("model", cfg.Completion.Model))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
