package sshexec

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/keyhub/internal/shared/config"
)

func TestNewAppliesDefaults(t *testing.T) {
	c := New(config.SSHConfig{})
	assert.Equal(t, 22, c.port)
	assert.Equal(t, "root", c.user)
	assert.Equal(t, 15*time.Second, c.connectTimeout)

	c = New(config.SSHConfig{Port: 2222, User: "admin"})
	assert.Equal(t, 2222, c.port)
	assert.Equal(t, "admin", c.user)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'/root/a b.yaml'`, ShellQuote("/root/a b.yaml"))
	assert.Equal(t, `'it'\''s'`, ShellQuote("it's"))
}

func TestLimitedBufferCapsOutput(t *testing.T) {
	var b limitedBuffer
	n, err := b.Write([]byte(strings.Repeat("x", maxOutput+10)))
	assert.NoError(t, err)
	assert.Equal(t, maxOutput+10, n)
	assert.Equal(t, maxOutput, b.Len())
}
