package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"piview/internal/supervisor/api"
	"piview/internal/supervisor/api/handler"
	"piview/internal/supervisor/browser"
	"piview/internal/supervisor/config"
	"piview/internal/supervisor/display"
	"piview/internal/supervisor/health"
	"piview/internal/supervisor/ledger"
	"piview/internal/supervisor/metrics"
	"piview/internal/supervisor/model"
	"piview/internal/supervisor/network"
	"piview/internal/supervisor/report"
	"piview/internal/supervisor/state"
	"piview/internal/supervisor/watchdog"
	"piview/pkg/infra"
	"piview/pkg/logger"
	"piview/pkg/mail"
	"piview/pkg/sysexec"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	procRoot            = "/proc"
	networkProbeTimeout = 5 * time.Second
	alertMailTimeout    = 10 * time.Second
)

type Options struct {
	Config    config.AppConfig
	Logger    *zap.Logger
	LogWriter *logger.ReopenableWriteSyncer
}

// App owns every supervisor component and runs their loops.
type App struct {
	cfg    config.AppConfig
	logger *zap.Logger
	logWS  *logger.ReopenableWriteSyncer
	lock   *instanceLock

	store    *config.Store
	record   *state.Record
	runner   sysexec.CommandRunner
	reporter *report.Reporter
	keeper   *browser.Keeper

	loops   []loop
	closers []func() error
}

// New loads the kiosk config and builds the component graph. Fleet sinks
// that cannot be reached are disabled with a warning; only a missing or
// invalid kiosk config, a second instance or an unreadable /proc fail.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	log := opts.Logger

	lock, err := acquireLock(cfg.Server.LockFile)
	if err != nil {
		return nil, fmt.Errorf("app.New: %w", err)
	}
	a := &App{cfg: cfg, logger: log, logWS: opts.LogWriter, lock: lock}
	a.closers = append(a.closers, lock.release)

	path, err := config.FindKioskConfig(cfg.Server.KioskConfigPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	a.store, err = config.NewStore(path)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	kiosk := a.store.Current()
	a.applyLogRotation(kiosk)

	host, _ := os.Hostname()
	runID := uuid.NewString()
	a.record = state.NewRecord(runID, kiosk.URL)
	log.Info("kiosk config loaded", zap.String("path", path), zap.String("url", kiosk.URL), zap.String("run_id", runID))

	env := display.DiscoverEnvironment(cfg.Browser.Display, cfg.Browser.XAuthority)
	log.Info("X environment", zap.String("display", env.Display), zap.String("xauthority", env.XAuthority))
	a.runner = sysexec.NewCommandRunner(sysexec.DefaultTimeout, env.Vars()...)
	xserver := display.NewXServer(a.runner, component(log, "display"))

	a.reporter = a.newReporter(host, runID)

	var alerter ledger.Alerter
	if cfg.Mail.Enabled() {
		sender := mail.NewMailSender(cfg.Mail.Email, cfg.Mail.Password, cfg.Mail.Host, cfg.Mail.Port, alertMailTimeout)
		alerter = report.NewMailAlerter(sender, []string{cfg.Mail.AlertAddress}, host)
	}
	failures := ledger.NewLedger(a.store, a.record, ledger.NewCommandRebooter(a.runner, cfg.Server.RebootCommand), alerter, a.reporter, component(log, "ledger"))

	controller := browser.NewController(a.runner, component(log, "browser"),
		browser.WithXWaiter(xserver),
		browser.WithEnv(env.Vars()...),
		browser.WithLaunchTimeout(cfg.Browser.LaunchTimeout),
	)
	a.keeper = browser.NewKeeper(controller, a.store, a.record, failures, a.reporter, component(log, "keeper"), cfg.Browser.StopTimeout)

	inspector, err := browser.NewInspector(procRoot)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	monitor := health.NewMonitor(a.store, a.record, health.NewProber(0, nil), inspector, a.keeper, failures, a.reporter, component(log, "health"),
		health.WithXChecker(xserver),
		health.WithSnapshotSink(a.reporter),
		health.WithSnapshotFile(cfg.Server.SnapshotPath),
		health.WithDiskPath(filepath.Dir(cfg.Server.LogFile)),
	)

	netMonitor := network.NewMonitor(a.store, a.record, network.NewChecker(networkProbeTimeout),
		network.NewBackend(a.runner, component(log, "network")), a.reporter, component(log, "network"), network.DefaultSysClassNet)

	heartbeat := watchdog.NewHeartbeat(a.store, a.record, a.notifier(), component(log, "watchdog"), watchdog.SystemdInterval())
	scheduler := display.NewScheduler(a.store, a.record, a.runner, a.keeper, component(log, "display"))
	watcher := config.NewWatcher(a.store, component(log, "config"), a.onConfigChange)

	reg, httpMetrics := metrics.NewRegistry(a.record, a.reporter.Dropped)
	apiLog := component(log, "api")
	router := api.NewRouter(handler.NewHealthHandler(a.record, reg, apiLog), httpMetrics, cfg.Server.HealthRateLimit)
	addr := net.JoinHostPort(cfg.Server.HealthBindAddress, strconv.Itoa(kiosk.HealthEndpointPort))
	server := api.NewServer(addr, router, cfg.Server.HealthMaxConns, apiLog)

	a.loops = []loop{
		{name: "reporter", run: a.reporter.Run},
		{name: "browser", run: a.keeper.Run},
		{name: "health", run: monitor.Run},
		{name: "network", run: netMonitor.Run},
		{name: "watchdog", run: heartbeat.Run},
		{name: "display", run: scheduler.Run},
		{name: "config", run: watcher.Run},
		{name: "api", run: server.Run},
	}
	return a, nil
}

func component(log *zap.Logger, name string) *zap.Logger {
	return log.With(zap.String("component", name))
}

func (a *App) newReporter(host, runID string) *report.Reporter {
	log := component(a.logger, "report")

	var writer infra.KafkaWriter
	if len(a.cfg.Kafka.Brokers) > 0 {
		w := infra.NewKafkaWriter(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
		writer = w
		a.closers = append(a.closers, w.Close)
		log.Info("fleet events enabled", zap.Strings("brokers", a.cfg.Kafka.Brokers), zap.String("topic", a.cfg.Kafka.Topic))
	}

	var rdb redis.Cmdable
	if a.cfg.Redis.Addr != "" {
		client, err := infra.NewRedisConnection(infra.RedisConfig{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("redis unreachable, fleet presence disabled", zap.String("addr", a.cfg.Redis.Addr), zap.Error(err))
		} else {
			rdb = client
			a.closers = append(a.closers, client.Close)
			log.Info("fleet presence enabled", zap.String("addr", a.cfg.Redis.Addr))
		}
	}
	return report.NewReporter(writer, rdb, a.cfg.Redis.KeyPrefix, host, runID, log)
}

func (a *App) notifier() watchdog.Notifier {
	notifiers := []watchdog.Notifier{watchdog.NewSystemdNotifier()}
	if a.cfg.Watchdog.Device != "" {
		notifiers = append(notifiers, watchdog.NewDeviceNotifier(a.cfg.Watchdog.Device))
	}
	if a.cfg.Watchdog.File != "" {
		notifiers = append(notifiers, watchdog.NewFileNotifier(a.cfg.Watchdog.File))
	}
	return watchdog.Multi(notifiers...)
}

func (a *App) applyLogRotation(cfg *config.KioskConfig) {
	if a.logWS != nil {
		a.logWS.SetMaxSize(int64(cfg.LogRotationSizeMB) << 20)
	}
}

// onConfigChange runs when an operator edit would change the browser; the
// keeper reloads the file when it relaunches.
func (a *App) onConfigChange(cfg *config.KioskConfig) {
	a.applyLogRotation(cfg)
	requested := a.keeper.RequestRestart(model.RestartReason{Message: "config changed"})
	a.reporter.Publish(model.Event{
		Type:    model.EventConfigReloaded,
		Status:  a.record.Status(),
		Message: "kiosk config changed",
		Fields: map[string]string{
			"url":               cfg.URL,
			"restart_requested": strconv.FormatBool(requested),
		},
	})
}

func (a *App) Record() *state.Record {
	return a.record
}

// Run starts every loop and blocks until ctx is cancelled and all loops have
// finished their cleanup.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	killCtx, cancel := context.WithTimeout(ctx, sysexec.DefaultTimeout)
	killed, err := browser.KillStale(killCtx, a.runner, a.store.Current())
	cancel()
	if err != nil {
		a.logger.Warn("failed to look for stale browsers", zap.Error(err))
	} else if killed {
		a.logger.Warn("terminated browser left by a previous run")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range a.loops {
		g.Go(func() error {
			return safeLoop(gctx, l, a.logger, loopRestartDelay)
		})
	}
	a.logger.Info("supervisor started", zap.Int("loops", len(a.loops)))
	err = g.Wait()
	a.logger.Info("supervisor stopped")
	return err
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
