package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shareledger/pkg/domain"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()

	t.Run("zero values when unset", func(t *testing.T) {
		assert.True(t, Caller(ctx).IsZero())
		assert.Empty(t, RequestID(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("round trips set values", func(t *testing.T) {
		fixed := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		ctx := WithCaller(ctx, domain.Identity("ST1ADMIN"))
		ctx = WithRequestID(ctx, "req-1")
		ctx = WithTime(ctx, fixed)

		assert.Equal(t, domain.Identity("ST1ADMIN"), Caller(ctx))
		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, fixed, Now(ctx))
	})
}
