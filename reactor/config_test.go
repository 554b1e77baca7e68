package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Port: 9000}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultBufferCap, cfg.BufferCap)
	assert.Equal(t, DefaultBacklog, cfg.Backlog)
	assert.Equal(t, DefaultPollTimeoutMs, cfg.PollTimeoutMs)
	assert.Equal(t, DefaultMaxConns, cfg.MaxConns)
}

func TestConfigRejectsBadValues(t *testing.T) {
	assert.Error(t, (&Config{Port: -1}).Validate())
	assert.Error(t, (&Config{Port: 65536}).Validate())
	assert.Error(t, (&Config{Port: 9000, BufferCap: -1}).Validate())
}
