package display

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "piview/internal/supervisor/errors"
	"piview/pkg/sysexec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

var errNoDisplay = &sysexec.ExitError{Command: "xset", ExitCode: 1, Output: "unable to open display \":0\""}

func TestXServer_WaitReady(t *testing.T) {
	testCases := []struct {
		name      string
		failures  int
		max       time.Duration
		expErr    error
		expSleeps int
	}{
		{name: "ready immediately", max: 30 * time.Second},
		{name: "ready after a few seconds", failures: 3, max: 30 * time.Second, expSleeps: 3},
		{name: "never ready", failures: 4, max: 3 * time.Second, expErr: apperrors.ErrXServerUnavailable, expSleeps: 3},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runner := sysexec.NewMockCommandRunner(ctrl)
			calls := runner.EXPECT().Run(gomock.Any(), "xset", "q").Return(nil, errNoDisplay).Times(tc.failures)
			if tc.expErr == nil {
				runner.EXPECT().Run(gomock.Any(), "xset", "q").Return([]byte("Keyboard Control:"), nil).After(calls)
			}

			x := NewXServer(runner, zap.NewNop())
			sleeps := 0
			x.sleep = func(ctx context.Context, d time.Duration) error {
				assert.Equal(t, time.Second, d)
				sleeps++
				return nil
			}

			err := x.WaitReady(context.Background(), tc.max)
			if tc.expErr != nil {
				assert.ErrorIs(t, err, tc.expErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.expSleeps, sleeps)
		})
	}
}

func TestXServer_WaitReadyCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := sysexec.NewMockCommandRunner(ctrl)
	runner.EXPECT().Run(gomock.Any(), "xset", "q").Return(nil, errNoDisplay)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewXServer(runner, zap.NewNop()).WaitReady(ctx, time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrXServerUnavailable)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestXServer_Check(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := sysexec.NewMockCommandRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().Run(gomock.Any(), "xset", "q").Return(nil, nil),
		runner.EXPECT().Run(gomock.Any(), "xset", "q").Return(nil, errNoDisplay),
	)
	x := NewXServer(runner, zap.NewNop())

	assert.NoError(t, x.Check(context.Background()))
	assert.ErrorIs(t, x.Check(context.Background()), apperrors.ErrXServerUnavailable)
}
