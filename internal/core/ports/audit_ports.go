package ports

import (
	"context"

	"github.com/vncsmyrnk/govledger/internal/core/domain"
)

type AuditService interface {
	AuditAll(ctx context.Context) ([]domain.Discrepancy, error)
}
