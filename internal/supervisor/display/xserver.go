package display

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "piview/internal/supervisor/errors"
	"piview/pkg/sysexec"

	"go.uber.org/zap"
)

const pollInterval = time.Second

// XServer answers whether the display accepts clients, using xset q.
type XServer struct {
	runner sysexec.CommandRunner
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewXServer(runner sysexec.CommandRunner, logger *zap.Logger) *XServer {
	return &XServer{
		runner: runner,
		logger: logger,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (x *XServer) Check(ctx context.Context) error {
	if _, err := x.runner.Run(ctx, "xset", "q"); err != nil {
		return fmt.Errorf("XServer.Check: %w: %v", apperrors.ErrXServerUnavailable, err)
	}
	return nil
}

// WaitReady polls once per second for up to max.
func (x *XServer) WaitReady(ctx context.Context, max time.Duration) error {
	var waited time.Duration
	for {
		err := x.Check(ctx)
		if err == nil {
			if waited > 0 {
				x.logger.Info("X server is ready", zap.Duration("waited", waited))
			}
			return nil
		}
		if waited >= max {
			x.logger.Error("X server not ready", zap.Duration("waited", waited), zap.Error(err))
			return fmt.Errorf("XServer.WaitReady: %w", apperrors.ErrXServerUnavailable)
		}
		if serr := x.sleep(ctx, pollInterval); serr != nil {
			return fmt.Errorf("XServer.WaitReady: %w", errors.Join(apperrors.ErrXServerUnavailable, serr))
		}
		waited += pollInterval
		if waited%(5*pollInterval) == 0 {
			x.logger.Warn("waiting for X server", zap.Duration("waited", waited), zap.Duration("max", max))
		}
	}
}
