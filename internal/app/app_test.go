package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/fieldflow/internal/hclconf"
)

const testConfig = `
equations = [
  "yield_pct     = API(YIELD)",
  "risk_adjusted = yield_pct - API(RISK_FREE_RATE)",
  "face          = price_quote * 10",
  "broken        = 1 / (price_quote - price_quote)",
]

equations_xml    = "extra.xml"
requested_fields = ["risk_adjusted", "face", "grand_total", "broken"]

provider {
  settings = {
    latency          = 0.0
    yield_multiplier = 0.1
    risk_free_rate   = 0.03
  }
}

bond "B1" {
  attrs = {
    price_quote = 100
  }
}
`

const testXML = `
<equations>
  <equation>
    <name>grand_total</name>
    <expression>face + risk_adjusted</expression>
  </equation>
</equations>
`

// reportShape mirrors the rendered report for decoding; failed fields
// decode as nil.
type reportShape struct {
	RunID   string                         `json:"run_id"`
	Results map[string]map[string]*float64 `json:"results"`
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "analytics.hcl")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.xml"), []byte(testXML), 0o644))

	cfg, err := NewConfig(Config{ConfigPath: configPath, LogLevel: "error", LogFormat: "text"})
	require.NoError(t, err)

	var out bytes.Buffer
	a := NewApp(&out, io.Discard, cfg, hclconf.NewLoader())
	require.NoError(t, a.Run(context.Background()))

	var report reportShape
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.NotEmpty(t, report.RunID)

	row, ok := report.Results["B1"]
	require.True(t, ok)

	require.NotNil(t, row["risk_adjusted"])
	assert.InDelta(t, 9.97, *row["risk_adjusted"], 1e-9)

	require.NotNil(t, row["face"])
	assert.InDelta(t, 1000, *row["face"], 1e-9)

	// grand_total comes from the XML import and reads computed fields.
	require.NotNil(t, row["grand_total"])
	assert.InDelta(t, 1009.97, *row["grand_total"], 1e-9)

	// The failed field is present as an explicit null marker.
	failed, ok := row["broken"]
	require.True(t, ok)
	assert.Nil(t, failed)

	// Intermediate field is computed but never surfaced.
	assert.NotContains(t, row, "yield_pct")
}

func TestRunBuildErrors(t *testing.T) {
	writeAndRun := func(t *testing.T, config string) error {
		t.Helper()
		path := filepath.Join(t.TempDir(), "analytics.hcl")
		require.NoError(t, os.WriteFile(path, []byte(config), 0o644))
		cfg, err := NewConfig(Config{ConfigPath: path, LogLevel: "error"})
		require.NoError(t, err)
		return NewApp(io.Discard, io.Discard, cfg, hclconf.NewLoader()).Run(context.Background())
	}

	t.Run("cycle aborts before evaluation", func(t *testing.T) {
		err := writeAndRun(t, `
equations        = ["a = b", "b = a"]
requested_fields = ["a"]
bond "B1" { attrs = { price_quote = 1 } }
`)
		require.ErrorContains(t, err, "circular dependency")
	})

	t.Run("undefined dependency aborts before evaluation", func(t *testing.T) {
		err := writeAndRun(t, `
equations        = ["a = nonexistent"]
requested_fields = ["a"]
bond "B1" { attrs = { price_quote = 1 } }
`)
		require.ErrorContains(t, err, "undefined dependency")
	})

	t.Run("empty configuration is rejected", func(t *testing.T) {
		err := writeAndRun(t, `
equations        = []
requested_fields = ["a"]
`)
		require.ErrorContains(t, err, "no equations")
	})
}

func TestNewConfig(t *testing.T) {
	_, err := NewConfig(Config{})
	require.Error(t, err)

	_, err = NewConfig(Config{ConfigPath: "a.hcl", LogLevel: "loud"})
	require.ErrorContains(t, err, "invalid log level")

	// Empty level defaults to info.
	cfg, err := NewConfig(Config{ConfigPath: "a.hcl"})
	require.NoError(t, err)
	assert.Equal(t, "a.hcl", cfg.ConfigPath)
	assert.Equal(t, slog.LevelInfo, cfg.level)

	cfg, err = NewConfig(Config{ConfigPath: "a.hcl", LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.level)
}
