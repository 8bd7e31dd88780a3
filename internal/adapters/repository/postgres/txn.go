package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
)

// txn runs ledger reads and writes inside one SQL transaction. Rows that are
// about to be mutated are locked, so two votes by the same user on the same
// proposal cannot both observe has_voted = false.
type txn struct {
	q queryer
}

func (t *txn) GetDao(ctx context.Context, address uuid.UUID) (*domain.DaoAccount, error) {
	return getDao(ctx, t.q, address, true)
}

func (t *txn) InsertDao(ctx context.Context, dao *domain.DaoAccount) error {
	query := `
		INSERT INTO daos (address, name, owner)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	res, err := t.q.ExecContext(ctx, query, dao.Address, dao.Name, dao.Owner)
	if err != nil {
		return fmt.Errorf("failed to insert dao: %w", mapConstraintError(err, "dao"))
	}
	return requireInserted(res, "dao", dao.Address)
}

func (t *txn) GetProposal(ctx context.Context, address uuid.UUID) (*domain.Proposal, error) {
	return getProposal(ctx, t.q, address, true)
}

func (t *txn) InsertProposal(ctx context.Context, proposal *domain.Proposal) error {
	query := `
		INSERT INTO proposals (address, dao_address, title, description, votes_yes, votes_no)
		VALUES ($1, $2, $3, $4, 0, 0)
		ON CONFLICT DO NOTHING
	`
	res, err := t.q.ExecContext(ctx, query, proposal.Address, proposal.Dao, proposal.Title, proposal.Description)
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", mapConstraintError(err, "proposal"))
	}
	return requireInserted(res, "proposal", proposal.Address)
}

func (t *txn) UpdateProposal(ctx context.Context, proposal *domain.Proposal) error {
	yes, err := bigint(proposal.VotesYes)
	if err != nil {
		return err
	}
	no, err := bigint(proposal.VotesNo)
	if err != nil {
		return err
	}

	query := `UPDATE proposals SET votes_yes = $2, votes_no = $3 WHERE address = $1`
	res, err := t.q.ExecContext(ctx, query, proposal.Address, yes, no)
	if err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrProposalNotFound
	}
	return nil
}

func (t *txn) GetOrCreateVoter(ctx context.Context, proposal, user uuid.UUID) (*domain.Voter, error) {
	voter := domain.NewVoter(proposal, user)
	query := `
		INSERT INTO voters (address, proposal_address, user_id, has_voted)
		VALUES ($1, $2, $3, FALSE)
		ON CONFLICT DO NOTHING
	`
	if _, err := t.q.ExecContext(ctx, query, voter.Address, voter.Proposal, voter.User); err != nil {
		return nil, fmt.Errorf("failed to init voter: %w", mapConstraintError(err, "voter"))
	}

	stored, err := getVoter(ctx, t.q, voter.Address, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVoterNotFound
	}
	return stored, err
}

func (t *txn) UpdateVoter(ctx context.Context, voter *domain.Voter) error {
	query := `UPDATE voters SET has_voted = $2 WHERE address = $1`
	if _, err := t.q.ExecContext(ctx, query, voter.Address, voter.HasVoted); err != nil {
		return fmt.Errorf("failed to update voter: %w", err)
	}
	return nil
}

func (t *txn) GetOrCreateRewardAccount(ctx context.Context, dao, user uuid.UUID) (*domain.RewardAccount, error) {
	reward := domain.NewRewardAccount(dao, user)
	query := `
		INSERT INTO reward_accounts (address, dao_address, user_id, reward_points)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT DO NOTHING
	`
	if _, err := t.q.ExecContext(ctx, query, reward.Address, reward.Dao, reward.User); err != nil {
		return nil, fmt.Errorf("failed to init reward account: %w", mapConstraintError(err, "reward account"))
	}

	stored, err := getRewardAccount(ctx, t.q, reward.Address, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRewardNotFound
	}
	return stored, err
}

func (t *txn) UpdateRewardAccount(ctx context.Context, reward *domain.RewardAccount) error {
	points, err := bigint(reward.RewardPoints)
	if err != nil {
		return err
	}

	query := `UPDATE reward_accounts SET reward_points = $2 WHERE address = $1`
	if _, err := t.q.ExecContext(ctx, query, reward.Address, points); err != nil {
		return fmt.Errorf("failed to update reward account: %w", err)
	}
	return nil
}

func requireInserted(res sql.Result, account string, address uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.NewAccountInUse(account, address)
	}
	return nil
}
