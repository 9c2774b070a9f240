package hclconf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analytics.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("full configuration", func(t *testing.T) {
		path := writeConfig(t, `
equations = [
  "base = 100",
  "tax = base * 0.2",
  "total = base + tax",
]

requested_fields = ["total"]

provider {
  settings = {
    latency          = 0.0
    yield_multiplier = 0.05
  }
}

bond "B1" {
  attrs = {
    price_quote  = 99.5
    pricing_date = 20240101
  }
}

bond "B2" {
  attrs = {
    price_quote  = 101.25
    pricing_date = 20240101
  }
}
`)
		model, err := NewLoader().Load(ctx, path)
		require.NoError(t, err)

		assert.Len(t, model.Equations, 3)
		assert.Equal(t, []string{"total"}, model.RequestedFields)
		assert.InDelta(t, 0.05, model.ProviderSettings["yield_multiplier"], 1e-9)

		require.Len(t, model.Entities, 2)
		assert.Equal(t, "B1", model.Entities[0].ID)
		assert.InDelta(t, 99.5, model.Entities[0].Attrs["price_quote"], 1e-9)
	})

	t.Run("equations_xml is optional and carried through", func(t *testing.T) {
		path := writeConfig(t, `
equations_xml    = "extra.xml"
requested_fields = ["total"]
`)
		model, err := NewLoader().Load(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "extra.xml", model.EquationsXML)
		assert.Empty(t, model.Equations)
	})

	t.Run("invalid syntax is rejected", func(t *testing.T) {
		path := writeConfig(t, `equations = [`)
		_, err := NewLoader().Load(ctx, path)
		require.Error(t, err)
	})

	t.Run("missing required attribute is rejected", func(t *testing.T) {
		path := writeConfig(t, `equations = ["base = 100"]`)
		_, err := NewLoader().Load(ctx, path)
		require.Error(t, err)
	})

	t.Run("missing file is rejected", func(t *testing.T) {
		_, err := NewLoader().Load(ctx, filepath.Join(t.TempDir(), "absent.hcl"))
		require.Error(t, err)
	})
}
