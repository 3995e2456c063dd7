package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareledger/internal/registry/models"
	"shareledger/internal/registry/store/memory"
	"shareledger/pkg/testutil"
)

func TestShareholderLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.NewInMemory())

	testutil.Given(t, "a registry deployed by the admin", func(t *testing.T) {
		require.NoError(t, svc.Deploy(ctx, admin))

		testutil.When(t, "the admin registers a holder with 50 shares", func(t *testing.T) {
			require.NoError(t, svc.RegisterShareholder(ctx, admin, holder, 50))

			testutil.Then(t, "the holder is eligible", func(t *testing.T) {
				eligible, err := svc.IsEligible(ctx, holder)
				require.NoError(t, err)
				assert.True(t, eligible)
			})
		})

		testutil.When(t, "the admin updates the holder to 75 shares", func(t *testing.T) {
			require.NoError(t, svc.UpdateShares(ctx, admin, holder, 75))

			testutil.Then(t, "the new count is visible", func(t *testing.T) {
				shares, err := svc.GetShares(ctx, holder)
				require.NoError(t, err)
				assert.Equal(t, int64(75), shares)
			})
		})

		testutil.When(t, "a non-admin tries to remove the holder", func(t *testing.T) {
			err := svc.RemoveShareholder(ctx, outsider, holder)

			testutil.Then(t, "the call is unauthorized and the holder stays", func(t *testing.T) {
				require.ErrorIs(t, err, models.ErrUnauthorized)
				shares, err := svc.GetShares(ctx, holder)
				require.NoError(t, err)
				assert.Equal(t, int64(75), shares)
			})
		})

		testutil.When(t, "the admin removes the holder", func(t *testing.T) {
			require.NoError(t, svc.RemoveShareholder(ctx, admin, holder))

			testutil.Then(t, "the holder has no shares", func(t *testing.T) {
				shares, err := svc.GetShares(ctx, holder)
				require.NoError(t, err)
				assert.Zero(t, shares)
			})
		})
	})
}
