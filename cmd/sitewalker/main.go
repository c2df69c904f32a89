package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wmsyafiq/Script-Playwright-Demo/internal/api"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/browser"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/clock/system"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/config"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/logging"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/metrics"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/progress"
	"github.com/wmsyafiq/Script-Playwright-Demo/internal/walk"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	clk := system.New()
	hub := progress.NewHub(progress.Config{Logger: logger.Named("hub")})
	emitter := progress.NewEmitter(hub, clk, logger.Named("events"))

	var driver browser.Driver
	if cfg.Browser.Enabled {
		driver = browser.NewChromedp(browser.Config{
			Visible:           cfg.Browser.Visible,
			UserAgent:         cfg.Browser.UserAgent,
			NavigationTimeout: cfg.NavTimeout(),
		})
	} else {
		logger.Warn("browser automation disabled; runs will fail at launch")
		driver = browser.NewNoop()
	}

	runner := walk.New(walk.DefaultSteps(), driver, emitter, clk, walk.Config{
		StepDelay:    cfg.StepDelay(),
		LogDelayUnit: cfg.LogDelayUnit(),
		ObserveTicks: cfg.Runner.ObserveTicks,
		TypePacing:   cfg.TypePacing(),
	}, logger.Named("runner"))

	apiServer := api.NewServer(runner, emitter, hub, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	// Ask a running walk to stop at its next checkpoint before the sockets go.
	runner.Cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	hub.Close()
	logger.Info("shutdown complete")
}
