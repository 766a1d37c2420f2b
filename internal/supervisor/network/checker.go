package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const defaultDialTimeout = 5 * time.Second

type Checker interface {
	// Check opens a TCP connection to address through iface. An empty iface
	// uses the routing table.
	Check(ctx context.Context, address, iface string) error
}

type dialChecker struct {
	timeout time.Duration
}

func NewChecker(timeout time.Duration) Checker {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	return &dialChecker{timeout: timeout}
}

func (c *dialChecker) Check(ctx context.Context, address, iface string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if iface != "" {
		err := c.dial(ctx, address, bindToDevice(iface))
		if err == nil {
			return nil
		}
		// Binding needs CAP_NET_RAW; without it fall back to the route.
		if !isPermission(err) {
			return fmt.Errorf("Checker.Check %s via %s: %w", address, iface, err)
		}
	}
	if err := c.dial(ctx, address, nil); err != nil {
		return fmt.Errorf("Checker.Check %s: %w", address, err)
	}
	return nil
}

func (c *dialChecker) dial(ctx context.Context, address string, control func(network, address string, rc syscall.RawConn) error) error {
	d := net.Dialer{Control: control}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	return conn.Close()
}

type bindError struct {
	err error
}

func (e *bindError) Error() string { return "SO_BINDTODEVICE: " + e.err.Error() }
func (e *bindError) Unwrap() error { return e.err }

func bindToDevice(iface string) func(network, address string, rc syscall.RawConn) error {
	return func(network, address string, rc syscall.RawConn) error {
		var opErr error
		err := rc.Control(func(fd uintptr) {
			opErr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, iface)
		})
		if err != nil {
			return err
		}
		if opErr != nil {
			return &bindError{err: opErr}
		}
		return nil
	}
}

func isPermission(err error) bool {
	var be *bindError
	if !errors.As(err, &be) {
		return false
	}
	return errors.Is(be.err, unix.EPERM) || errors.Is(be.err, unix.EACCES)
}
