package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/fieldflow/internal/equation"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("stores equations in registration order", func(t *testing.T) {
		r := New()
		require.NoError(t, r.RegisterAll(ctx, []string{
			"base = 100",
			"tax = base * 0.2",
			"total = base + tax",
		}))
		assert.Equal(t, []string{"base", "tax", "total"}, r.Fields())
		assert.Equal(t, 3, r.Len())

		eq, ok := r.Lookup("tax")
		require.True(t, ok)
		assert.Equal(t, []string{"base"}, eq.Dependencies)
	})

	t.Run("parse failures surface as malformed errors", func(t *testing.T) {
		r := New()
		_, err := r.Register(ctx, "no equals sign here")
		require.Error(t, err)
		var malformed *equation.MalformedError
		assert.ErrorAs(t, err, &malformed)
	})

	t.Run("duplicate registration overwrites by default", func(t *testing.T) {
		r := New()
		_, err := r.Register(ctx, "base = 100")
		require.NoError(t, err)
		_, err = r.Register(ctx, "base = 50")
		require.NoError(t, err)

		// Last write wins, and the field keeps its original position.
		assert.Equal(t, []string{"base"}, r.Fields())
		eq, ok := r.Lookup("base")
		require.True(t, ok)
		assert.Equal(t, "50", eq.Source)
	})

	t.Run("duplicate registration can be rejected", func(t *testing.T) {
		r := New(WithDuplicatePolicy(RejectDuplicates))
		_, err := r.Register(ctx, "base = 100")
		require.NoError(t, err)
		_, err = r.Register(ctx, "base = 50")
		require.Error(t, err)
		var dup *DuplicateFieldError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "base", dup.Field)

		// The original definition survives.
		eq, ok := r.Lookup("base")
		require.True(t, ok)
		assert.Equal(t, "100", eq.Source)
	})
}
