package browser

import (
	"strconv"
	"strings"

	"piview/internal/supervisor/config"
)

var sslBypassFlags = []string{
	"--ignore-certificate-errors",
	"--ignore-ssl-errors",
	"--ignore-certificate-errors-spki-list",
	"--allow-running-insecure-content",
	"--unsafely-treat-insecure-origin-as-secure",
	"--disable-web-security",
}

func isSSLBypassFlag(flag string) bool {
	name, _, _ := strings.Cut(flag, "=")
	for _, f := range sslBypassFlags {
		if name == f {
			return true
		}
	}
	return false
}

// BuildArgs returns the browser arguments for cfg: the configured kiosk flags
// adjusted for the certificate policy, the debugging port and then the url.
func BuildArgs(cfg *config.KioskConfig) []string {
	args := make([]string, 0, len(cfg.KioskFlags)+len(sslBypassFlags)+3)
	present := make(map[string]bool, len(cfg.KioskFlags))
	for _, flag := range cfg.KioskFlags {
		if cfg.CertInstalled && isSSLBypassFlag(flag) {
			continue
		}
		name, _, _ := strings.Cut(flag, "=")
		present[name] = true
		args = append(args, flag)
	}
	if !cfg.CertInstalled && cfg.IgnoreSSLErrors {
		for _, flag := range sslBypassFlags {
			if !present[flag] {
				args = append(args, flag)
			}
		}
	}
	if cfg.RemoteDebuggingPort > 0 && !present["--remote-debugging-port"] {
		args = append(args,
			"--remote-debugging-port="+strconv.Itoa(cfg.RemoteDebuggingPort),
			"--remote-debugging-address=127.0.0.1",
		)
	}
	return append(args, cfg.URL)
}
