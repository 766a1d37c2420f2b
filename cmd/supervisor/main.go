package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"piview/internal/supervisor/app"
	"piview/internal/supervisor/config"
	apperrors "piview/internal/supervisor/errors"
	"piview/pkg/logger"

	"go.uber.org/zap"
)

const defaultEnvFile = "/etc/piview/piview.env"

// Exit codes let the service unit stop restarting on errors a restart
// cannot fix.
const (
	exitOK             = 0
	exitFailure        = 1
	exitConfig         = 2
	exitAlreadyRunning = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := os.Getenv("PIVIEW_ENV_FILE")
	if envFile == "" {
		envFile = defaultEnvFile
	}
	appConfig, err := config.LoadAppConfig(envFile)
	if err != nil {
		log.Printf("load config error: %v", err)
		return exitConfig
	}

	// set up logger
	var zapLogger *zap.Logger
	fileSyncer, err := logger.NewReopenableWriteSyncer(appConfig.Server.LogFile)
	if err != nil {
		zapLogger = logger.NewConsoleLogger(appConfig.Server.LogLevel)
		zapLogger.Warn("failed to open log file, logging to stderr only", zap.String("file", appConfig.Server.LogFile), zap.Error(err))
		fileSyncer = nil
	} else {
		zapLogger = logger.NewLogger(appConfig.Server.LogLevel, fileSyncer)
	}
	zapLogger = zapLogger.With(zap.String("service.name", "piview-supervisor"))
	defer zapLogger.Sync()

	if fileSyncer != nil {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGHUP)
		go func() {
			for {
				<-c
				zapLogger.Info("receive logrotate SIGHUP, reloading log file")
				if e := fileSyncer.Reload(); e != nil {
					zapLogger.Error("failed to reload log file", zap.Error(e))
				} else {
					zapLogger.Info("successfully reloaded log file")
				}
			}
		}()
	}

	a, err := app.New(app.Options{
		Config:    appConfig,
		Logger:    zapLogger,
		LogWriter: fileSyncer,
	})
	if err != nil {
		zapLogger.Error("failed to start supervisor", zap.Error(err))
		return exitCode(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err = a.Run(ctx); err != nil {
		zapLogger.Error("supervisor stopped with error", zap.Error(err))
		return exitFailure
	}
	zapLogger.Info(fmt.Sprintf("supervisor exiting (run id %s)", a.Record().Snapshot().RunID))
	return exitOK
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrAlreadyRunning):
		return exitAlreadyRunning
	case errors.Is(err, apperrors.ErrConfigNotFound), errors.Is(err, apperrors.ErrConfigInvalid):
		return exitConfig
	default:
		return exitFailure
	}
}
