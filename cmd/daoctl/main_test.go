package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/govledger/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/govledger/internal/config"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
	"github.com/vncsmyrnk/govledger/internal/core/services"
)

func run(t *testing.T, store ports.LedgerStore, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd(func(context.Context, config.StoreConfig) (ports.LedgerStore, error) {
		return store, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func runJSON[T any](t *testing.T, store ports.LedgerStore, args ...string) T {
	t.Helper()
	out, err := run(t, store, args...)
	require.NoError(t, err, out)

	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	return v
}

func TestDaoctlFlow(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")
	store := memory.NewStore()

	owner := uuid.New().String()
	alice := uuid.New().String()

	dao := runJSON[domain.DaoAccount](t, store, "init", "--as", owner, "--name", "Acme DAO")
	assert.Equal(t, "Acme DAO", dao.Name)

	proposal := runJSON[domain.Proposal](t, store,
		"propose", "--as", owner, "--dao", dao.Address.String(), "--title", "Fund X", "--description", "Allocate treasury")
	assert.Equal(t, domain.ProposalAddress(dao.Address, "Fund X"), proposal.Address)

	tallied := runJSON[domain.Proposal](t, store, "vote", "--as", alice, "--proposal", proposal.Address.String(), "--no")
	assert.Equal(t, uint64(0), tallied.VotesYes)
	assert.Equal(t, uint64(1), tallied.VotesNo)

	_, err := run(t, store, "vote", "--as", alice, "--proposal", proposal.Address.String(), "--yes")
	require.ErrorIs(t, err, domain.ErrVotedTwice)

	byTitle := runJSON[domain.Proposal](t, store, "show", "proposal", "--dao", dao.Address.String(), "--title", "Fund X")
	assert.Equal(t, proposal.Address, byTitle.Address)

	voter := runJSON[domain.Voter](t, store, "show", "voter", "--proposal", proposal.Address.String(), "--user", alice)
	assert.True(t, voter.HasVoted)

	reward := runJSON[domain.RewardAccount](t, store, "show", "reward", "--dao", dao.Address.String(), "--user", alice)
	assert.Equal(t, uint64(1), reward.RewardPoints)

	list := runJSON[[]domain.Proposal](t, store, "show", "proposals", "--dao", dao.Address.String())
	assert.Len(t, list, 1)
}

func TestVoteRequiresChoice(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")
	store := memory.NewStore()

	_, err := run(t, store, "vote", "--as", uuid.NewString(), "--proposal", uuid.NewString())
	require.Error(t, err)

	_, err = run(t, store, "vote", "--as", uuid.NewString(), "--proposal", uuid.NewString(), "--yes", "--no")
	require.Error(t, err)
}

func TestInvalidIdentity(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")

	_, err := run(t, memory.NewStore(), "init", "--as", "alice", "--name", "Acme")
	assert.ErrorContains(t, err, `invalid --as "alice"`)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")
	t.Setenv("JWT_SECRET", "cli-secret")

	identity := uuid.New()
	out, err := run(t, memory.NewStore(), "token", "--as", identity.String())
	require.NoError(t, err)

	got, err := services.NewAuthService("cli-secret").Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func TestShowProposalsPageOutOfRange(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")
	store := memory.NewStore()

	dao := runJSON[domain.DaoAccount](t, store, "init", "--as", uuid.NewString(), "--name", "Acme")

	_, err := run(t, store, "show", "proposals", "--dao", dao.Address.String(), "--page", "922337203685477582")
	require.ErrorIs(t, err, domain.ErrInvalidPage)
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is logged", func(t *testing.T) {
		chdir(t, t.TempDir())
		var logs bytes.Buffer

		loadDotEnv(slog.New(slog.NewTextHandler(&logs, nil)))

		assert.Contains(t, logs.String(), "No .env file found")
	})

	t.Run("file is loaded", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DAOCTL_DOTENV_TEST=loaded\n"), 0o600))
		chdir(t, dir)
		t.Setenv("DAOCTL_DOTENV_TEST", "")
		os.Unsetenv("DAOCTL_DOTENV_TEST")
		var logs bytes.Buffer

		loadDotEnv(slog.New(slog.NewTextHandler(&logs, nil)))

		assert.Empty(t, logs.String())
		assert.Equal(t, "loaded", os.Getenv("DAOCTL_DOTENV_TEST"))
	})
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
