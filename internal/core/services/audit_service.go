package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/vncsmyrnk/govledger/internal/core/domain"
	"github.com/vncsmyrnk/govledger/internal/core/ports"
)

// auditPageSize bounds how many proposals are read per round trip.
const auditPageSize = 100

type auditService struct {
	reader ports.LedgerReader
}

func NewAuditService(reader ports.LedgerReader) ports.AuditService {
	return &auditService{
		reader: reader,
	}
}

func (s *auditService) AuditAll(ctx context.Context) ([]domain.Discrepancy, error) {
	daos, err := s.reader.ListDaos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch all daos: %w", err)
	}

	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		discrepancies []domain.Discrepancy
	)
	errChan := make(chan error, len(daos))

	for _, dao := range daos {
		wg.Add(1)
		go func(dao *domain.DaoAccount) {
			defer wg.Done()
			found, err := s.auditDao(ctx, dao)
			if err != nil {
				errChan <- fmt.Errorf("failed to audit dao %s: %w", dao.Address, err)
				return
			}
			mu.Lock()
			discrepancies = append(discrepancies, found...)
			mu.Unlock()
		}(dao)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	return discrepancies, nil
}

func (s *auditService) auditDao(ctx context.Context, dao *domain.DaoAccount) ([]domain.Discrepancy, error) {
	var found []domain.Discrepancy

	for offset := 0; ; offset += auditPageSize {
		proposals, err := s.reader.ListProposals(ctx, dao.Address, auditPageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, p := range proposals {
			voted, err := s.reader.CountVoted(ctx, p.Address)
			if err != nil {
				return nil, err
			}
			if voted != p.TotalVotes() {
				found = append(found, domain.Discrepancy{
					Kind:     domain.DiscrepancyTally,
					Dao:      dao.Address,
					Account:  p.Address,
					Stored:   p.TotalVotes(),
					Expected: voted,
				})
			}
		}
		if len(proposals) < auditPageSize {
			break
		}
	}

	rewards, err := s.reader.ListRewardAccounts(ctx, dao.Address)
	if err != nil {
		return nil, err
	}
	for _, r := range rewards {
		cast, err := s.reader.CountVotesCast(ctx, dao.Address, r.User)
		if err != nil {
			return nil, err
		}
		if cast != r.RewardPoints {
			found = append(found, domain.Discrepancy{
				Kind:     domain.DiscrepancyReward,
				Dao:      dao.Address,
				Account:  r.Address,
				Stored:   r.RewardPoints,
				Expected: cast,
			})
		}
	}

	return found, nil
}
