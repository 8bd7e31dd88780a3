package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/govledger/internal/adapters/repository/storetest"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.LedgerStore {
		return NewStore()
	})
}

func TestUpdateCanceledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Update(ctx, func(ports.LedgerTx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}
