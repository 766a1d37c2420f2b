package browser

import (
	"testing"

	"piview/internal/supervisor/config"

	"github.com/stretchr/testify/assert"
)

func TestBuildArgs(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(cfg *config.KioskConfig)
		expArgs []string
	}{
		{
			name: "ssl bypass flags appended",
			mutate: func(cfg *config.KioskConfig) {
				cfg.KioskFlags = []string{"--kiosk", "--ignore-certificate-errors"}
				cfg.IgnoreSSLErrors = true
			},
			expArgs: []string{
				"--kiosk",
				"--ignore-certificate-errors",
				"--ignore-ssl-errors",
				"--ignore-certificate-errors-spki-list",
				"--allow-running-insecure-content",
				"--unsafely-treat-insecure-origin-as-secure",
				"--disable-web-security",
				"https://dash.example",
			},
		},
		{
			name: "strict ssl keeps flags untouched",
			mutate: func(cfg *config.KioskConfig) {
				cfg.KioskFlags = []string{"--kiosk", "--noerrdialogs"}
				cfg.IgnoreSSLErrors = false
			},
			expArgs: []string{"--kiosk", "--noerrdialogs", "https://dash.example"},
		},
		{
			name: "installed certificate strips bypass flags",
			mutate: func(cfg *config.KioskConfig) {
				cfg.KioskFlags = []string{"--kiosk", "--ignore-certificate-errors", "--unsafely-treat-insecure-origin-as-secure=https://dash.example"}
				cfg.IgnoreSSLErrors = true
				cfg.CertInstalled = true
			},
			expArgs: []string{"--kiosk", "https://dash.example"},
		},
		{
			name: "remote debugging port",
			mutate: func(cfg *config.KioskConfig) {
				cfg.KioskFlags = []string{"--kiosk"}
				cfg.IgnoreSSLErrors = false
				cfg.RemoteDebuggingPort = 9222
			},
			expArgs: []string{"--kiosk", "--remote-debugging-port=9222", "--remote-debugging-address=127.0.0.1", "https://dash.example"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultKioskConfig("https://dash.example")
			tc.mutate(&cfg)
			assert.Equal(t, tc.expArgs, BuildArgs(&cfg))
		})
	}
}
