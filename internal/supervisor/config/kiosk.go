package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "piview/internal/supervisor/errors"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	SystemConfigFile   = "/etc/piview/config.json"
	UserConfigDir      = ".piview"
	UserConfigFile     = "config.json"
	DefaultUserDataDir = "/tmp/chromium-ssl-bypass"
)

// KioskConfig is an immutable snapshot of the operator-edited JSON config.
// Durations are stored in seconds, as written by the installer.
type KioskConfig struct {
	URL                     string   `mapstructure:"url" json:"url" validate:"required,url"`
	RefreshInterval         int      `mapstructure:"refresh_interval" json:"refresh_interval" validate:"gt=0"`
	Browser                 string   `mapstructure:"browser" json:"browser" validate:"required"`
	IgnoreSSLErrors         bool     `mapstructure:"ignore_ssl_errors" json:"ignore_ssl_errors"`
	CertInstalled           bool     `mapstructure:"cert_installed" json:"cert_installed"`
	ConnectionRetryDelay    int      `mapstructure:"connection_retry_delay" json:"connection_retry_delay" validate:"gt=0"`
	MaxConnectionRetries    int      `mapstructure:"max_connection_retries" json:"max_connection_retries" validate:"gt=0"`
	HealthCheckInterval     int      `mapstructure:"health_check_interval" json:"health_check_interval" validate:"gt=0"`
	MaxBrowserRestarts      int      `mapstructure:"max_browser_restarts" json:"max_browser_restarts" validate:"gt=0"`
	RestartWindow           int      `mapstructure:"restart_window" json:"restart_window" validate:"gt=0"`
	MaxRestartBackoff       int      `mapstructure:"max_restart_backoff" json:"max_restart_backoff" validate:"gt=0"`
	StartupGracePeriod      int      `mapstructure:"startup_grace_period" json:"startup_grace_period" validate:"gt=0"`
	WatchdogEnabled         bool     `mapstructure:"watchdog_enabled" json:"watchdog_enabled"`
	WatchdogFreezeThreshold int      `mapstructure:"watchdog_freeze_threshold" json:"watchdog_freeze_threshold" validate:"gt=0"`
	AutoRebootEnabled       bool     `mapstructure:"auto_reboot_enabled" json:"auto_reboot_enabled"`
	AutoRebootAfterFailures int      `mapstructure:"auto_reboot_after_failures" json:"auto_reboot_after_failures" validate:"gt=0"`
	MemoryLimitMB           int      `mapstructure:"memory_limit_mb" json:"memory_limit_mb" validate:"gt=0"`
	DiskSpaceWarningMB      int      `mapstructure:"disk_space_warning_mb" json:"disk_space_warning_mb" validate:"gt=0"`
	LogRotationSizeMB       int      `mapstructure:"log_rotation_size_mb" json:"log_rotation_size_mb" validate:"gt=0"`
	HealthEndpointPort      int      `mapstructure:"health_endpoint_port" json:"health_endpoint_port" validate:"gt=0,lte=65535"`
	NetworkFailoverEnabled  bool     `mapstructure:"network_failover_enabled" json:"network_failover_enabled"`
	FailoverWifiSSID        string   `mapstructure:"failover_wifi_ssid" json:"failover_wifi_ssid"`
	FailoverWifiInterface   string   `mapstructure:"failover_wifi_interface" json:"failover_wifi_interface"`
	NetworkCheckInterval    int      `mapstructure:"network_check_interval" json:"network_check_interval" validate:"gt=0"`
	NetworkCheckAddress     string   `mapstructure:"network_check_address" json:"network_check_address" validate:"required,hostname_port"`
	ScreenKeepaliveInterval int      `mapstructure:"screen_keepalive_interval" json:"screen_keepalive_interval" validate:"gt=0"`
	RemoteDebuggingPort     int      `mapstructure:"remote_debugging_port" json:"remote_debugging_port" validate:"gte=0,lte=65535"`
	KioskFlags              []string `mapstructure:"kiosk_flags" json:"kiosk_flags"`
}

var defaultKioskFlags = []string{
	"--kiosk",
	"--noerrdialogs",
	"--disable-infobars",
	"--disable-session-crashed-bubble",
	"--disable-restore-session-state",
	"--disable-sync",
	"--disable-dev-shm-usage",
	"--no-sandbox",
	"--disable-gpu",
	"--user-data-dir=" + DefaultUserDataDir,
}

func defaults() map[string]any {
	return map[string]any{
		"refresh_interval":           60,
		"browser":                    "chromium-browser",
		"ignore_ssl_errors":          true,
		"cert_installed":             false,
		"connection_retry_delay":     5,
		"max_connection_retries":     3,
		"health_check_interval":      10,
		"max_browser_restarts":       10,
		"restart_window":             600,
		"max_restart_backoff":        60,
		"startup_grace_period":       15,
		"watchdog_enabled":           false,
		"watchdog_freeze_threshold":  60,
		"auto_reboot_enabled":        false,
		"auto_reboot_after_failures": 5,
		"memory_limit_mb":            1024,
		"disk_space_warning_mb":      200,
		"log_rotation_size_mb":       10,
		"health_endpoint_port":       8088,
		"network_failover_enabled":   false,
		"failover_wifi_ssid":         "",
		"failover_wifi_interface":    "",
		"network_check_interval":     30,
		"network_check_address":      "1.1.1.1:53",
		"screen_keepalive_interval":  30,
		"remote_debugging_port":      0,
		"kiosk_flags":                defaultKioskFlags,
	}
}

// DefaultKioskConfig returns the documented defaults with the given url.
func DefaultKioskConfig(url string) KioskConfig {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	v.Set("url", url)
	var cfg KioskConfig
	_ = v.Unmarshal(&cfg)
	return cfg
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadKioskConfig parses and validates path as a whole. Any parse or
// validation error rejects the file.
func LoadKioskConfig(path string) (*KioskConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("LoadKioskConfig %s: %w", path, apperrors.ErrConfigNotFound)
		}
		return nil, fmt.Errorf("LoadKioskConfig: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("LoadKioskConfig %s: %w: %v", path, apperrors.ErrConfigInvalid, err)
	}

	var cfg KioskConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("LoadKioskConfig %s: %w: %v", path, apperrors.ErrConfigInvalid, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("LoadKioskConfig %s: %w", path, err)
	}
	return &cfg, nil
}

func Validate(cfg *KioskConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				fields = append(fields, formatValidationError(fe))
			}
			return fmt.Errorf("%w: %s", apperrors.ErrConfigInvalid, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", apperrors.ErrConfigInvalid, err)
	}
	return nil
}

func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("the %s field is required", err.Field())
	case "url":
		return fmt.Sprintf("the %s field is not a valid url", err.Field())
	case "gt":
		return fmt.Sprintf("the %s field must be greater than %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("the %s field must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("the %s field must be less than or equal to %s", err.Field(), err.Param())
	case "hostname_port":
		return fmt.Sprintf("the %s field must be host:port", err.Field())
	default:
		return fmt.Sprintf("validation failed for %s with tag %s", err.Field(), err.Tag())
	}
}

// FindKioskConfig resolves the config path: explicit path, then the user
// config, then the system config.
func FindKioskConfig(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, UserConfigDir, UserConfigFile)
		if _, err := os.Stat(userPath); err == nil {
			return userPath, nil
		}
	}
	if _, err := os.Stat(SystemConfigFile); err == nil {
		return SystemConfigFile, nil
	}
	return "", fmt.Errorf("FindKioskConfig: %w", apperrors.ErrConfigNotFound)
}

// SaveKioskConfig writes cfg with an atomic replace so a concurrent reader
// never sees a partial file.
func SaveKioskConfig(path string, cfg *KioskConfig) error {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("SaveKioskConfig: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("SaveKioskConfig: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.json")
	if err != nil {
		return fmt.Errorf("SaveKioskConfig: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("SaveKioskConfig: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("SaveKioskConfig: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("SaveKioskConfig: %w", err)
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c *KioskConfig) RefreshEvery() time.Duration          { return seconds(c.RefreshInterval) }
func (c *KioskConfig) RetryDelay() time.Duration            { return seconds(c.ConnectionRetryDelay) }
func (c *KioskConfig) HealthCheckEvery() time.Duration      { return seconds(c.HealthCheckInterval) }
func (c *KioskConfig) RestartWindowDuration() time.Duration { return seconds(c.RestartWindow) }
func (c *KioskConfig) MaxBackoff() time.Duration            { return seconds(c.MaxRestartBackoff) }
func (c *KioskConfig) StartupGrace() time.Duration          { return seconds(c.StartupGracePeriod) }
func (c *KioskConfig) FreezeThreshold() time.Duration       { return seconds(c.WatchdogFreezeThreshold) }
func (c *KioskConfig) NetworkCheckEvery() time.Duration     { return seconds(c.NetworkCheckInterval) }
func (c *KioskConfig) KeepaliveEvery() time.Duration        { return seconds(c.ScreenKeepaliveInterval) }

// UserDataDir returns the browser profile directory from --user-data-dir.
func (c *KioskConfig) UserDataDir() string {
	for _, flag := range c.KioskFlags {
		if dir, ok := strings.CutPrefix(flag, "--user-data-dir="); ok && dir != "" {
			return dir
		}
	}
	return DefaultUserDataDir
}

// LaunchEquivalent reports whether a browser started with c would look the
// same as one started with other.
func (c *KioskConfig) LaunchEquivalent(other *KioskConfig) bool {
	if other == nil {
		return false
	}
	return c.URL == other.URL &&
		c.Browser == other.Browser &&
		c.IgnoreSSLErrors == other.IgnoreSSLErrors &&
		c.CertInstalled == other.CertInstalled &&
		c.RemoteDebuggingPort == other.RemoteDebuggingPort &&
		strings.Join(c.KioskFlags, "\x00") == strings.Join(other.KioskFlags, "\x00")
}
