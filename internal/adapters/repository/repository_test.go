package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/govledger/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/govledger/internal/config"
)

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), config.StoreConfig{Driver: config.StoreMemory})
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &memory.Store{}, store)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite"})
	assert.ErrorContains(t, err, `unknown store driver "sqlite"`)
}
