package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_Check(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedAddr := closed.Addr().String()
	require.NoError(t, closed.Close())

	testCases := []struct {
		name    string
		address string
		iface   string
		expErr  bool
	}{
		{name: "reachable through routing table", address: l.Addr().String()},
		{name: "reachable through loopback device", address: l.Addr().String(), iface: "lo"},
		{name: "nothing listening", address: closedAddr, expErr: true},
	}
	c := NewChecker(time.Second)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.Check(context.Background(), tc.address, tc.iface)
			if tc.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
