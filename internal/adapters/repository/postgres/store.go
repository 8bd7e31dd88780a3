package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/govledger/internal/core/domain"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

var _ ports.LedgerStore = (*Store)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

func Open(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewStore(db), nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Update(ctx context.Context, fn func(tx ports.LedgerTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txn{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) GetDao(ctx context.Context, address uuid.UUID) (*domain.DaoAccount, error) {
	return getDao(ctx, s.db, address, false)
}

func (s *Store) GetProposal(ctx context.Context, address uuid.UUID) (*domain.Proposal, error) {
	return getProposal(ctx, s.db, address, false)
}

func (s *Store) GetVoter(ctx context.Context, address uuid.UUID) (*domain.Voter, error) {
	voter, err := getVoter(ctx, s.db, address, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVoterNotFound
	}
	return voter, err
}

func (s *Store) GetRewardAccount(ctx context.Context, address uuid.UUID) (*domain.RewardAccount, error) {
	reward, err := getRewardAccount(ctx, s.db, address, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRewardNotFound
	}
	return reward, err
}

func (s *Store) ListDaos(ctx context.Context) ([]*domain.DaoAccount, error) {
	query := `
		SELECT address, name, owner
		FROM daos
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list daos: %w", err)
	}
	defer rows.Close()

	var daos []*domain.DaoAccount
	for rows.Next() {
		var dao domain.DaoAccount
		if err := rows.Scan(&dao.Address, &dao.Name, &dao.Owner); err != nil {
			return nil, fmt.Errorf("failed to scan dao: %w", err)
		}
		daos = append(daos, &dao)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daos: %w", err)
	}
	return daos, nil
}

func (s *Store) ListProposals(ctx context.Context, dao uuid.UUID, limit, offset int) ([]*domain.Proposal, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset %d", domain.ErrInvalidPage, offset)
	}
	query := `
		SELECT address, dao_address, title, description, votes_yes, votes_no
		FROM proposals
		WHERE dao_address = $1
		ORDER BY seq
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, dao, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*domain.Proposal
	for rows.Next() {
		proposal, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, proposal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposals: %w", err)
	}
	return proposals, nil
}

func (s *Store) ListRewardAccounts(ctx context.Context, dao uuid.UUID) ([]*domain.RewardAccount, error) {
	query := `
		SELECT address, dao_address, user_id, reward_points
		FROM reward_accounts
		WHERE dao_address = $1
		ORDER BY user_id
	`
	rows, err := s.db.QueryContext(ctx, query, dao)
	if err != nil {
		return nil, fmt.Errorf("failed to list reward accounts: %w", err)
	}
	defer rows.Close()

	var rewards []*domain.RewardAccount
	for rows.Next() {
		var (
			reward domain.RewardAccount
			points int64
		)
		if err := rows.Scan(&reward.Address, &reward.Dao, &reward.User, &points); err != nil {
			return nil, fmt.Errorf("failed to scan reward account: %w", err)
		}
		reward.RewardPoints = uint64(points)
		rewards = append(rewards, &reward)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reward accounts: %w", err)
	}
	return rewards, nil
}

func (s *Store) CountVoted(ctx context.Context, proposal uuid.UUID) (uint64, error) {
	query := `SELECT COUNT(*) FROM voters WHERE proposal_address = $1 AND has_voted`
	var n int64
	if err := s.db.QueryRowContext(ctx, query, proposal).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count voters: %w", err)
	}
	return uint64(n), nil
}

func (s *Store) CountVotesCast(ctx context.Context, dao, user uuid.UUID) (uint64, error) {
	query := `
		SELECT COUNT(*)
		FROM voters v
		JOIN proposals p ON p.address = v.proposal_address
		WHERE p.dao_address = $1 AND v.user_id = $2 AND v.has_voted
	`
	var n int64
	if err := s.db.QueryRowContext(ctx, query, dao, user).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count votes cast: %w", err)
	}
	return uint64(n), nil
}

func getDao(ctx context.Context, q queryer, address uuid.UUID, lock bool) (*domain.DaoAccount, error) {
	query := `SELECT address, name, owner FROM daos WHERE address = $1`
	if lock {
		query += ` FOR SHARE`
	}

	var dao domain.DaoAccount
	err := q.QueryRowContext(ctx, query, address).Scan(&dao.Address, &dao.Name, &dao.Owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDaoNotFound
		}
		return nil, fmt.Errorf("failed to get dao: %w", err)
	}
	return &dao, nil
}

func getProposal(ctx context.Context, q queryer, address uuid.UUID, lock bool) (*domain.Proposal, error) {
	query := `
		SELECT address, dao_address, title, description, votes_yes, votes_no
		FROM proposals
		WHERE address = $1
	`
	if lock {
		query += ` FOR UPDATE`
	}

	proposal, err := scanProposal(q.QueryRowContext(ctx, query, address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProposalNotFound
		}
		return nil, err
	}
	return proposal, nil
}

// getVoter returns sql.ErrNoRows unwrapped so callers can tell absence apart.
func getVoter(ctx context.Context, q queryer, address uuid.UUID, lock bool) (*domain.Voter, error) {
	query := `SELECT address, proposal_address, user_id, has_voted FROM voters WHERE address = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var voter domain.Voter
	err := q.QueryRowContext(ctx, query, address).Scan(&voter.Address, &voter.Proposal, &voter.User, &voter.HasVoted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get voter: %w", err)
	}
	return &voter, nil
}

func getRewardAccount(ctx context.Context, q queryer, address uuid.UUID, lock bool) (*domain.RewardAccount, error) {
	query := `SELECT address, dao_address, user_id, reward_points FROM reward_accounts WHERE address = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var (
		reward domain.RewardAccount
		points int64
	)
	err := q.QueryRowContext(ctx, query, address).Scan(&reward.Address, &reward.Dao, &reward.User, &points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get reward account: %w", err)
	}
	reward.RewardPoints = uint64(points)
	return &reward, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposal(row rowScanner) (*domain.Proposal, error) {
	var (
		proposal domain.Proposal
		yes, no  int64
	)
	err := row.Scan(&proposal.Address, &proposal.Dao, &proposal.Title, &proposal.Description, &yes, &no)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan proposal: %w", err)
	}
	proposal.VotesYes = uint64(yes)
	proposal.VotesNo = uint64(no)
	return &proposal, nil
}

// bigint converts a counter to the column type, which is signed.
func bigint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, domain.ErrArithmeticOverflow
	}
	return int64(v), nil
}

// mapConstraintError turns schema violations into the ledger's error kinds.
func mapConstraintError(err error, account string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Name() {
	case "check_violation", "string_data_right_truncation":
		return &domain.AllocationError{Account: account, Reason: domain.ErrMaxLenExceeded}
	case "character_not_in_repertoire", "untranslatable_character":
		return &domain.AllocationError{Account: account, Reason: domain.ErrInvalidText}
	case "foreign_key_violation":
		return fmt.Errorf("%w: %s", domain.ErrDaoNotFound, pqErr.Detail)
	}
	return err
}
