package payments

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
)

// Ledger is the posting surface the payment workflow drives. Post carries the
// ledger service's non-positive-amount no-op so optional charges can be
// routed through unconditionally.
type Ledger interface {
	WithTx(tx pgx.Tx) Ledger
	Post(ctx context.Context, input ledger.PostInput) (*ledger.Transaction, error)
	ReverseByPayment(ctx context.Context, businessPaymentID string) (int64, error)
}

// LedgerGateway adapts the ledger repository to the payment workflow.
type LedgerGateway struct {
	repo *ledger.PGRepository
}

// NewLedgerGateway constructs the production gateway.
func NewLedgerGateway(repo *ledger.PGRepository) *LedgerGateway {
	return &LedgerGateway{repo: repo}
}

// WithTx returns a copy bound to the transaction.
func (g *LedgerGateway) WithTx(tx pgx.Tx) Ledger {
	return &LedgerGateway{repo: g.repo.WithTx(tx)}
}

func (g *LedgerGateway) Post(ctx context.Context, input ledger.PostInput) (*ledger.Transaction, error) {
	return ledger.NewService(g.repo).Post(ctx, input)
}

func (g *LedgerGateway) ReverseByPayment(ctx context.Context, businessPaymentID string) (int64, error) {
	return g.repo.ReverseByPayment(ctx, businessPaymentID)
}

var _ Ledger = (*LedgerGateway)(nil)
