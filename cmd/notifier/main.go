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

	// Application Layer
	"notifier/internal/application/dto"
	appService "notifier/internal/application/service"
	"notifier/internal/config"

	// Domain Layer
	"notifier/internal/domain/constant"
	"notifier/internal/domain/repository"

	// Infrastructure Layer
	"notifier/internal/infrastructure/database/sqlite"
	lineClient "notifier/internal/infrastructure/line"
	"notifier/internal/infrastructure/scheduler"
	"notifier/internal/infrastructure/settingsfile"
	"notifier/internal/infrastructure/sink"
	"notifier/internal/infrastructure/telegram"

	// Interfaces Layer
	"notifier/internal/interfaces/api/handler"
	"notifier/internal/interfaces/api/router"

	// Runtime
	"notifier/internal/runtime/lifecycle"

	// Packages
	appLogger "notifier/internal/pkg/logger"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "notifier: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Initialization ---
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appLog := appLogger.New(appLogger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	appLog.Info("Logger initialized.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---
	settingRepo, fileStore, err := openSettings(cfg, appLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := settingRepo.Close(); err != nil {
			appLog.Error("Error closing settings store", err)
		}
	}()

	notifySink, lineBot, err := openSink(cfg, appLog)
	if err != nil {
		return err
	}
	notifySink = sink.NewRateLimited(notifySink, cfg.RatePerMinute)

	cronScheduler := scheduler.NewScheduler(appLog)
	defer cronScheduler.Stop()

	// --- Lifecycle ---
	schedCfg := appService.SchedulerConfig{MessageText: cfg.MessageText, EmitTimeout: cfg.NotifyTimeout}
	factory := func(lc appService.LifecycleController) appService.NotificationScheduler {
		return appService.NewNotificationScheduler(settingRepo, notifySink, cronScheduler, lc, appLog, schedCfg)
	}
	host := lifecycle.NewHost(factory, notifySink, lifecycle.Options{
		MinBackoff:    cfg.RestartMinBackoff,
		MaxBackoff:    cfg.RestartMaxBackoff,
		ExitOnDisable: cfg.ExitOnDisable,
	}, appLog)

	// --- Application Services ---
	settingsSvc := appService.NewSettingsService(settingRepo, host, appLog)

	if fileStore != nil {
		go func() {
			err := fileStore.Watch(ctx, constant.TimerOptionKey, func(value string, ok bool) {
				appLog.Info(fmt.Sprintf("Settings file changed, timer option %q", value))
				host.Dispatch(dto.ReconfigurationMessage{TimerOption: value})
			})
			if err != nil {
				appLog.Error("Settings file watcher stopped", err)
			}
		}()
	}

	// --- API Handlers ---
	routerCfg := &router.Config{
		TimerHandler: handler.NewTimerHandler(settingsSvc, host, appLog),
		Logger:       appLog,
	}
	if lineBot != nil {
		routerCfg.LineHandler = handler.NewLineHandler(lineBot, settingsSvc, host, appLog)
	}
	echoRouter := router.NewRouter(routerCfg)

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		appLog.Info(fmt.Sprintf("Server starting on port %d", cfg.Port))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// --- Run until signal, disable (EXIT_ON_DISABLE) or server failure ---
	hostCtx, cancelHost := context.WithCancel(ctx)
	hostDone := make(chan error, 1)
	go func() { hostDone <- host.Run(hostCtx) }()

	var runErr error
	select {
	case <-ctx.Done():
		appLog.Info("Shutting down gracefully, press Ctrl+C again to force")
	case err := <-hostDone:
		runErr = err
		hostDone = nil
	case err, ok := <-serverErr:
		if ok {
			appLog.Error("HTTP server ListenAndServe error", err)
			runErr = err
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server forced to shutdown", err)
	}

	cancelHost()
	if hostDone != nil {
		if err := <-hostDone; err != nil && runErr == nil {
			runErr = err
		}
	}
	appLog.Info("Graceful shutdown complete.")
	return runErr
}

// openSettings returns the persisted settings store, and the file store when it should be watched.
func openSettings(cfg *config.Config, log appLogger.Logger) (repository.SettingRepository, *settingsfile.Store, error) {
	switch cfg.SettingsDriver {
	case config.DriverYAML:
		store := settingsfile.New(cfg.SettingsFile, log)
		log.Info(fmt.Sprintf("Using settings file %s", store.Path()))
		return store, store, nil
	default:
		db, err := sqlite.NewDB(cfg.DBURL, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info(fmt.Sprintf("Using settings database %s", cfg.DBURL))
		return sqlite.NewSettingRepository(db), nil, nil
	}
}

// openSink returns the configured sink, and the LINE client when the webhook should be served.
func openSink(cfg *config.Config, log appLogger.Logger) (sink.Sink, *lineClient.Client, error) {
	switch cfg.Sink {
	case config.SinkLine:
		c, err := lineClient.NewClient(cfg.ChannelSecret, cfg.ChannelToken, cfg.LineTargetUserID, log)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case config.SinkTelegram:
		c, err := telegram.NewClient(telegram.Config{Token: cfg.TelegramToken, ChatID: cfg.TelegramChatID}, log)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	default:
		return sink.NewLogSink(log), nil, nil
	}
}
