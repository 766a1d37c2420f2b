package network

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"piview/pkg/sysexec"

	"go.uber.org/zap"
)

// DemotedMetric is the metric given to the primary default route while the
// failover interface carries traffic.
const DemotedMetric = 1000

// Backend changes which interface is preferred. It never touches wireless
// credentials; the failover connection must already be provisioned.
type Backend interface {
	BringUp(ctx context.Context, iface, ssid string) error
	Demote(ctx context.Context, iface string) error
	Restore(ctx context.Context, iface string) error
}

type route struct {
	Dst     string `json:"dst"`
	Gateway string `json:"gateway"`
	Dev     string `json:"dev"`
	Metric  int    `json:"metric"`
}

type commandBackend struct {
	runner sysexec.CommandRunner
	logger *zap.Logger

	mu      sync.Mutex
	demoted map[string][]route
}

func NewBackend(runner sysexec.CommandRunner, logger *zap.Logger) Backend {
	return &commandBackend{
		runner:  runner,
		logger:  logger,
		demoted: make(map[string][]route),
	}
}

func (b *commandBackend) BringUp(ctx context.Context, iface, ssid string) error {
	if _, err := b.runner.LookPath("nmcli"); err == nil {
		if _, err = b.runner.Run(ctx, "nmcli", "device", "connect", iface); err != nil {
			return fmt.Errorf("Backend.BringUp: %w", err)
		}
		if ssid != "" {
			if _, err = b.runner.Run(ctx, "nmcli", "connection", "up", "id", ssid); err != nil {
				return fmt.Errorf("Backend.BringUp: %w", err)
			}
		}
		return nil
	}
	if _, err := b.runner.Run(ctx, "ifup", iface); err != nil {
		return fmt.Errorf("Backend.BringUp: %w", err)
	}
	return nil
}

func (b *commandBackend) defaultRoutes(ctx context.Context, iface string) ([]route, error) {
	out, err := b.runner.Run(ctx, "ip", "-j", "route", "show", "default", "dev", iface)
	if err != nil {
		return nil, err
	}
	var routes []route
	if err = json.Unmarshal(out, &routes); err != nil {
		return nil, err
	}
	return routes, nil
}

func routeArgs(verb string, r route, iface string, metric int) []string {
	args := []string{"route", verb, "default"}
	if r.Gateway != "" {
		args = append(args, "via", r.Gateway)
	}
	args = append(args, "dev", iface)
	if metric > 0 {
		args = append(args, "metric", strconv.Itoa(metric))
	}
	return args
}

// Demote re-adds every default route of iface with DemotedMetric and removes
// the original, so traffic prefers any other default route.
func (b *commandBackend) Demote(ctx context.Context, iface string) error {
	routes, err := b.defaultRoutes(ctx, iface)
	if err != nil {
		return fmt.Errorf("Backend.Demote: %w", err)
	}
	var changed []route
	for _, r := range routes {
		if r.Metric >= DemotedMetric {
			continue
		}
		if _, err = b.runner.Run(ctx, "ip", routeArgs("add", r, iface, DemotedMetric)...); err != nil {
			return fmt.Errorf("Backend.Demote: %w", err)
		}
		if _, err = b.runner.Run(ctx, "ip", routeArgs("del", r, iface, r.Metric)...); err != nil {
			return fmt.Errorf("Backend.Demote: %w", err)
		}
		changed = append(changed, r)
	}
	b.mu.Lock()
	b.demoted[iface] = append(b.demoted[iface], changed...)
	b.mu.Unlock()
	b.logger.Info("primary route demoted", zap.String("interface", iface), zap.Int("routes", len(changed)))
	return nil
}

func (b *commandBackend) Restore(ctx context.Context, iface string) error {
	b.mu.Lock()
	routes := b.demoted[iface]
	delete(b.demoted, iface)
	b.mu.Unlock()

	for i, r := range routes {
		if _, err := b.runner.Run(ctx, "ip", routeArgs("add", r, iface, r.Metric)...); err != nil {
			b.mu.Lock()
			b.demoted[iface] = append(b.demoted[iface], routes[i:]...)
			b.mu.Unlock()
			return fmt.Errorf("Backend.Restore: %w", err)
		}
		if _, err := b.runner.Run(ctx, "ip", routeArgs("del", r, iface, DemotedMetric)...); err != nil {
			b.logger.Warn("failed to remove demoted route", zap.String("interface", iface), zap.Error(err))
		}
	}
	if len(routes) > 0 {
		b.logger.Info("primary route restored", zap.String("interface", iface), zap.Int("routes", len(routes)))
	}
	return nil
}
