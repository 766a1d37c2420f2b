package infra

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisConnection_Unreachable(t *testing.T) {
	// Reserve a port and release it so nothing is listening there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	client, err := NewRedisConnection(RedisConfig{Addr: addr})
	assert.Error(t, err)
	assert.Nil(t, client)
}
