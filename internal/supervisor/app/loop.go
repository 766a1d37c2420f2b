package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const loopRestartDelay = 5 * time.Second

type loop struct {
	name string
	run  func(ctx context.Context) error
}

// safeLoop keeps a loop alive until ctx is cancelled. A panic or an early
// return is logged and the loop is started again after delay; one broken
// loop must not take the supervisor, and with it the screen, down.
func safeLoop(ctx context.Context, l loop, logger *zap.Logger, delay time.Duration) error {
	for {
		err := runRecovered(ctx, l, logger)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			logger.Error("loop failed, restarting", zap.String("loop", l.name), zap.Error(err), zap.Duration("delay", delay))
		} else {
			logger.Warn("loop exited unexpectedly, restarting", zap.String("loop", l.name), zap.Duration("delay", delay))
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

func runRecovered(ctx context.Context, l loop, logger *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("loop panicked", zap.String("loop", l.name), zap.Any("panic", r), zap.StackSkip("stack", 1))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l.run(ctx)
}
