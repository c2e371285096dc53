package appMiddleware

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/sidara-archive/internal/types"
)

func TestIdentityFromContext(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, ok := IdentityFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("round trip", func(t *testing.T) {
		want := types.Identity{ID: uuid.New(), Username: "budi", Role: types.RoleUser}
		got, ok := IdentityFromContext(WithIdentity(context.Background(), want))
		assert.True(t, ok)
		assert.Equal(t, want, got)
	})
}
