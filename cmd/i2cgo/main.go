package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"i2cgo/internal/api"
	"i2cgo/pkg/caption"
	"i2cgo/pkg/catalog"
	"i2cgo/pkg/config"
	"i2cgo/pkg/geocode"
	"i2cgo/pkg/llm"
	"i2cgo/pkg/llm/factory"
	"i2cgo/pkg/llm/prompts"
	"i2cgo/pkg/logging"
	"i2cgo/pkg/metadata"
	"i2cgo/pkg/probe"
	"i2cgo/pkg/processor"
	"i2cgo/pkg/request"
	"i2cgo/pkg/story"
	"i2cgo/pkg/tracker"
	"i2cgo/pkg/version"
)

const defaultConfigPath = "configs/i2cgo.yaml"

// shutdownGrace bounds how long in-flight requests may finish after a stop signal.
const shutdownGrace = 5 * time.Second

var (
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("i2cgo started", "version", version.Version, "provider", cfg.LLM.Provider)

	tr := tracker.New()
	srv, provider, err := buildServer(ctx, cfg, tr)
	if err != nil {
		return err
	}

	results := probe.Run(ctx, []probe.Probe{
		{Name: "Upload directory", Check: probe.WritableDir(cfg.Upload.Dir), Critical: true},
		{
			Name:     "LLM profiles",
			Check:    probe.Profiles(provider, config.ProfileCaption, config.ProfileStory, config.ProfileHashtags),
			Critical: true,
		},
		{Name: "LLM models", Check: provider.ValidateModels},
	})
	if err := probe.Analyze(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return serve(ctx, srv)
}

// buildServer wires the pipeline components into the HTTP server.
func buildServer(ctx context.Context, cfg *config.Config, tr *tracker.Tracker) (*http.Server, llm.Provider, error) {
	rc := request.New(tr, request.ClientConfig{})

	provider, err := factory.New(ctx, cfg.LLM, rc, llm.NewHistoryLog(cfg.Log.LLM.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	promptMgr, err := prompts.NewManager(cfg.Prompts.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	geocoder := geocode.NewClient(rc, geocode.Options{
		Endpoint:  cfg.Geocoder.Endpoint,
		UserAgent: cfg.Geocoder.UserAgent,
		Language:  cfg.Geocoder.Language,
		Timeout:   time.Duration(cfg.Geocoder.Timeout),
	})

	cat := catalog.Default()
	proc := processor.New(
		metadata.NewExtractor(geocoder, tr),
		caption.NewGenerator(provider, promptMgr, cfg.Narrative, tr),
	)
	writer := story.NewGenerator(provider, promptMgr, cat, cfg.Narrative, tr)

	h := api.NewHandler(cat, proc, writer, cfg.Upload)
	return api.NewServer(cfg.Server, h, api.NewStatsHandler(tr)), provider, nil
}

// serve runs srv until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	slog.Info("Starting server", "addr", srv.Addr)

	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
