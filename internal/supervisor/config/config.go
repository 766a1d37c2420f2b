package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Server   ServerConfig
	Browser  BrowserConfig
	Watchdog WatchdogConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Mail     MailConfig
}

type ServerConfig struct {
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile           string `envconfig:"LOG_FILE" default:"/var/log/piview.log"`
	KioskConfigPath   string `envconfig:"KIOSK_CONFIG_PATH"`
	SnapshotPath      string `envconfig:"HEALTH_SNAPSHOT_PATH" default:"/tmp/piview-health.json"`
	HealthBindAddress string `envconfig:"HEALTH_BIND_ADDRESS"`
	HealthMaxConns    int    `envconfig:"HEALTH_MAX_CONNECTIONS" default:"16"`
	HealthRateLimit   int    `envconfig:"HEALTH_RATE_LIMIT" default:"50"`
	RebootCommand     string `envconfig:"REBOOT_COMMAND" default:"systemctl reboot"`
	LockFile          string `envconfig:"LOCK_FILE" default:"/tmp/piview-supervisor.lock"`
}

type BrowserConfig struct {
	StopTimeout   time.Duration `envconfig:"BROWSER_STOP_TIMEOUT" default:"5s"`
	LaunchTimeout time.Duration `envconfig:"BROWSER_LAUNCH_TIMEOUT" default:"40s"`
	Display       string        `envconfig:"DISPLAY" default:":0"`
	XAuthority    string        `envconfig:"XAUTHORITY"`
}

type WatchdogConfig struct {
	Device string `envconfig:"WATCHDOG_DEVICE"`
	File   string `envconfig:"WATCHDOG_FILE"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"kiosk-events"`
}

type RedisConfig struct {
	Addr      string `envconfig:"REDIS_ADDR"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"kiosk:health:"`
}

type MailConfig struct {
	Host         string `envconfig:"MAIL_HOST"`
	Port         int    `envconfig:"MAIL_PORT" default:"587"`
	Email        string `envconfig:"MAIL_EMAIL"`
	Password     string `envconfig:"MAIL_PASSWORD"`
	AlertAddress string `envconfig:"MAIL_ALERT_EMAIL"`
}

func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.Email != "" && m.AlertAddress != ""
}

// LoadAppConfig reads the optional env file, then the process environment.
func LoadAppConfig(path string) (AppConfig, error) {
	_ = godotenv.Load(path)

	var cfg AppConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}
