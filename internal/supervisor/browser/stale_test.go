package browser

import (
	"context"
	"errors"
	"testing"

	"piview/internal/supervisor/config"
	"piview/pkg/sysexec"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestKillStale(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		expKilled bool
		expErr    bool
	}{
		{name: "stale browser killed", expKilled: true},
		{name: "nothing to kill", err: &sysexec.ExitError{Command: "pkill", ExitCode: 1}},
		{name: "pkill missing", err: errors.New("executable file not found"), expErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runner := sysexec.NewMockCommandRunner(ctrl)
			runner.EXPECT().Run(gomock.Any(), "pkill", "-TERM", "-f", "--", "--user-data-dir=/tmp/chromium-ssl-bypass").Return(nil, tc.err)

			cfg := config.DefaultKioskConfig("https://dash.example")
			killed, err := KillStale(context.Background(), runner, &cfg)
			assert.Equal(t, tc.expKilled, killed)
			if tc.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
