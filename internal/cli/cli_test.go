package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("positional config path", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"analytics.hcl"}, &out)
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "analytics.hcl", cfg.ConfigPath)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 10, cfg.WorkerCount)
	})

	t.Run("config flag takes precedence", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"-config", "a.hcl", "b.hcl"}, &out)
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "a.hcl", cfg.ConfigPath)
	})

	t.Run("fields flag is split and trimmed", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"-fields", "total, tax ,", "a.hcl"}, &out)
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, []string{"total", "tax"}, cfg.Fields)
	})

	t.Run("no path prints usage and exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse(nil, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("invalid log format is rejected", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-log-format", "yaml", "a.hcl"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid log level is rejected", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-log-level", "loud", "a.hcl"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})
}
