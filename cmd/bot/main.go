package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/vidrelay/internal/api"
	"github.com/iconidentify/vidrelay/internal/api/handler"
	"github.com/iconidentify/vidrelay/internal/bot"
	"github.com/iconidentify/vidrelay/internal/config"
	"github.com/iconidentify/vidrelay/internal/cookies"
	"github.com/iconidentify/vidrelay/internal/delivery"
	"github.com/iconidentify/vidrelay/internal/domain"
	"github.com/iconidentify/vidrelay/internal/extractor"
	"github.com/iconidentify/vidrelay/internal/fetcher"
	"github.com/iconidentify/vidrelay/internal/history"
	"github.com/iconidentify/vidrelay/internal/media"
	"github.com/iconidentify/vidrelay/internal/workspace"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("vidrelay %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting vidrelay",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Workspace root: created if missing, emptied of leftovers from prior runs
	workspaces, err := workspace.NewManager(cfg.Workspace.BasePath, logger)
	if err != nil {
		logger.Error("failed to create workspace root", "error", err)
		os.Exit(1)
	}
	workspaces.Sweep()

	// Delivery history
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Error("failed to open history database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Media tooling must be present before we accept any request
	processor, err := media.NewProcessor(cfg.Delivery.MaxSingleFileSize, logger)
	if err != nil {
		logger.Error("media tools unavailable", "error", err)
		os.Exit(1)
	}

	// Telegram API client
	tgAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error("failed to authorize bot", "error", err)
		os.Exit(1)
	}
	logger.Info("authorized", "bot", tgAPI.Self.UserName)

	// Initialize pipeline
	messenger := bot.NewTelegramMessenger(tgAPI, logger)
	extractorClient := extractor.NewClient(cfg.Cobalt, cfg.Delivery.VideoQuality, logger)
	mediaFetcher := fetcher.New(logger)

	orchestrator := delivery.NewOrchestrator(
		messenger,
		processor,
		store,
		domain.SizeLimits{
			SingleLimit: cfg.Delivery.MaxSingleFileSize,
			TotalLimit:  cfg.Delivery.MaxTotalFileSize,
		},
		logger,
	)

	b := bot.New(
		tgAPI,
		bot.Config{
			BlockedThreads: cfg.Telegram.BlockedThreads,
			PollTimeout:    cfg.Telegram.PollTimeout,
		},
		extractorClient,
		mediaFetcher,
		orchestrator,
		workspaces,
		logger,
	)

	// Synthetic cookie refresher (optional)
	var refresher *cookies.Refresher
	if cfg.Cookies.Enabled {
		gen := cookies.NewGenerator(cfg.Cookies.Path, logger)
		refresher = cookies.NewRefresher(gen, cfg.Cookies.RefreshInterval, logger)
		refresher.Start()
	}

	// Ops HTTP server
	healthHandler := handler.NewHealthHandler(store)
	router := api.NewRouter(healthHandler, logger)

	srv := &http.Server{
		Addr:         cfg.Ops.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Ops.ReadTimeout,
		WriteTimeout: cfg.Ops.WriteTimeout,
	}

	go func() {
		logger.Info("starting ops server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("ops server error", "error", err)
			os.Exit(1)
		}
	}()

	// Run the update loop until a shutdown signal arrives
	botCtx, cancelBot := context.WithCancel(context.Background())
	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		b.Run(botCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Cancel the update loop; in-flight handlers observe the cancellation
	// and release their workspaces via defers before the loop returns
	cancelBot()
	<-botDone

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}

	if refresher != nil {
		if err := refresher.Stop(10 * time.Second); err != nil {
			logger.Error("cookie refresher shutdown error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
