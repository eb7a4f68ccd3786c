package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Directory answers whether a referenced entity exists within a branch.
type Directory interface {
	Exists(ctx context.Context, branchID, id int64) (bool, error)
}

// TxRunner executes fn inside one database transaction.
type TxRunner func(ctx context.Context, fn func(pgx.Tx) error) error

// PoolRunner builds the production TxRunner over a pgx pool.
func PoolRunner(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(pgx.Tx) error) error {
		return db.WithTx(ctx, pool, fn)
	}
}

// AuditRecorder persists an audit trail entry for a payment mutation.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the payment workflow: number allocation, double-entry
// posting and invoice reconciliation, each mutation inside one transaction.
type Service struct {
	repo      Repository
	invoices  Invoices
	ledger    Ledger
	numbers   *numbering.Service
	customers Directory
	accounts  Directory
	run       TxRunner
	now       func() time.Time
	notify    Notifier
	audit     AuditRecorder
}

// NewService builds a Service instance.
func NewService(run TxRunner, repo Repository, invoices Invoices, lg Ledger, numbers *numbering.Service, customers, accounts Directory) *Service {
	return &Service{
		repo:      repo,
		invoices:  invoices,
		ledger:    lg,
		numbers:   numbers,
		customers: customers,
		accounts:  accounts,
		run:       run,
		now:       time.Now,
	}
}

// WithNotifier attaches a receipt notifier, fired after a PAID payment is
// committed.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notify = n
	return s
}

// WithAudit attaches an audit trail recorder. Entries are written after the
// mutation commits and never fail the flow.
func (s *Service) WithAudit(a AuditRecorder) *Service {
	s.audit = a
	return s
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, p *Payment) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "payment",
		EntityID: p.PaymentID,
		Meta: map[string]any{
			"branchId": p.BranchID,
			"amount":   p.Amount,
			"status":   string(p.Status),
		},
	})
}

func (s *Service) validate(ctx context.Context, branchID, customerID int64, amount, bankCharges float64, accountID, receivableAccountID int64, mode string, status Status) error {
	if branchID <= 0 {
		return fmt.Errorf("%w: branch id is required", shared.ErrValidation)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if bankCharges < 0 {
		return fmt.Errorf("%w: bank charges must not be negative", shared.ErrValidation)
	}
	if strings.TrimSpace(mode) == "" {
		return fmt.Errorf("%w: payment mode is required", shared.ErrValidation)
	}
	if status != StatusDraft && status != StatusPaid {
		return fmt.Errorf("%w: status must be DRAFT or PAID", shared.ErrValidation)
	}

	ok, err := s.customers.Exists(ctx, branchID, customerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: customer %d not found in branch", shared.ErrValidation, customerID)
	}
	ok, err = s.accounts.Exists(ctx, branchID, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: deposit account %d not found in branch", shared.ErrValidation, accountID)
	}
	if status == StatusPaid {
		ok, err = s.accounts.Exists(ctx, branchID, receivableAccountID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: receivable account %d not found in branch", shared.ErrValidation, receivableAccountID)
		}
	}
	return nil
}

func (s *Service) checkInvoice(ctx context.Context, invs Invoices, invoiceID, branchID, customerID int64) (*InvoiceInfo, error) {
	inv, err := invs.Get(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invoice %d not found", shared.ErrValidation, invoiceID)
	}
	if inv.BranchID != branchID {
		return nil, fmt.Errorf("%w: invoice %d belongs to another branch", shared.ErrValidation, invoiceID)
	}
	if inv.CustomerID != customerID {
		return nil, fmt.Errorf("%w: invoice %d belongs to another customer", shared.ErrValidation, invoiceID)
	}
	return inv, nil
}

// Create records a payment. When the payment arrives already PAID it posts
// the ledger pair and reconciles the linked invoice in the same transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Payment, error) {
	if input.Status == "" {
		input.Status = StatusDraft
	}
	if err := s.validate(ctx, input.BranchID, input.CustomerID, input.Amount, input.BankCharges,
		input.AccountID, input.ReceivableAccountID, input.PaymentMode, input.Status); err != nil {
		return nil, err
	}
	if input.InvoiceID != nil {
		if _, err := s.checkInvoice(ctx, s.invoices, *input.InvoiceID, input.BranchID, input.CustomerID); err != nil {
			return nil, err
		}
	}

	exists := func(ctx context.Context, branchID int64, number string) (bool, error) {
		return s.repo.NumberExists(ctx, branchID, number)
	}
	number, err := s.numbers.AllocateWithRetry(ctx, input.BranchID, numbering.KindPayment, input.ManualNumber, exists)
	if err != nil {
		return nil, err
	}

	var created *Payment
	err = s.run(ctx, func(tx pgx.Tx) error {
		repo := s.repo.WithTx(tx)
		invs := s.invoices.WithTx(tx)
		lg := s.ledger.WithTx(tx)

		p := &Payment{
			BranchID:            input.BranchID,
			CustomerID:          input.CustomerID,
			InvoiceID:           input.InvoiceID,
			PaymentID:           number,
			PaymentDate:         orNow(input.PaymentDate, s.now),
			PostingDate:         orNow(input.PostingDate, s.now),
			Amount:              input.Amount,
			BankCharges:         input.BankCharges,
			AccountID:           input.AccountID,
			ReceivableAccountID: input.ReceivableAccountID,
			PaymentMode:         strings.TrimSpace(input.PaymentMode),
			Reference:           strings.TrimSpace(input.Reference),
			Status:              input.Status,
			CreatedBy:           input.CreatedBy,
		}
		inserted, err := repo.Insert(ctx, p)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return shared.ErrDuplicate
			}
			return err
		}
		created = inserted

		if created.Status == StatusPaid {
			if err := s.post(ctx, lg, created); err != nil {
				return err
			}
			if created.InvoiceID != nil {
				if err := s.reconcile(ctx, repo, invs, *created.InvoiceID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, input.CreatedBy, "payment.create", created)
	if s.notify != nil && created.Status == StatusPaid {
		s.notify.PaymentReceipt(ctx, created)
	}
	return created, nil
}

// Update supersedes an existing payment. The old row and its transactions are
// flagged reversed, a fresh row with the same business payment id is inserted,
// postings are re-issued and every affected invoice is reconciled.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*Payment, error) {
	if input.Status == "" {
		input.Status = StatusDraft
	}
	var created *Payment
	err := s.run(ctx, func(tx pgx.Tx) error {
		repo := s.repo.WithTx(tx)
		invs := s.invoices.WithTx(tx)
		lg := s.ledger.WithTx(tx)

		current, err := repo.Get(ctx, input.ID)
		if err != nil {
			return err
		}
		if current.IsReversed {
			return fmt.Errorf("%w: payment %s has already been superseded", shared.ErrValidation, current.PaymentID)
		}
		if err := s.validate(ctx, current.BranchID, input.CustomerID, input.Amount, input.BankCharges,
			input.AccountID, input.ReceivableAccountID, input.PaymentMode, input.Status); err != nil {
			return err
		}
		if input.InvoiceID != nil {
			if _, err := s.checkInvoice(ctx, invs, *input.InvoiceID, current.BranchID, input.CustomerID); err != nil {
				return err
			}
		}

		if err := repo.MarkReversed(ctx, current.ID); err != nil {
			return err
		}
		if _, err := lg.ReverseByPayment(ctx, current.PaymentID); err != nil {
			return err
		}

		fresh := &Payment{
			BranchID:            current.BranchID,
			CustomerID:          input.CustomerID,
			InvoiceID:           input.InvoiceID,
			PaymentID:           current.PaymentID,
			PaymentDate:         orNow(input.PaymentDate, s.now),
			PostingDate:         orNow(input.PostingDate, s.now),
			Amount:              input.Amount,
			BankCharges:         input.BankCharges,
			AccountID:           input.AccountID,
			ReceivableAccountID: input.ReceivableAccountID,
			PaymentMode:         strings.TrimSpace(input.PaymentMode),
			Reference:           strings.TrimSpace(input.Reference),
			Status:              input.Status,
			CreatedBy:           input.UpdatedBy,
		}
		created, err = repo.Insert(ctx, fresh)
		if err != nil {
			return err
		}

		if created.Status == StatusPaid {
			if err := s.post(ctx, lg, created); err != nil {
				return err
			}
		}
		if created.InvoiceID != nil {
			if err := s.reconcile(ctx, repo, invs, *created.InvoiceID); err != nil {
				return err
			}
		}
		if current.InvoiceID != nil && (created.InvoiceID == nil || *current.InvoiceID != *created.InvoiceID) {
			if err := s.reconcile(ctx, repo, invs, *current.InvoiceID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, input.UpdatedBy, "payment.supersede", created)
	if s.notify != nil && created.Status == StatusPaid {
		s.notify.PaymentReceipt(ctx, created)
	}
	return created, nil
}

// Delete soft-deletes a payment, reverses its transactions and reconciles
// the linked invoice.
func (s *Service) Delete(ctx context.Context, id, deletedBy int64) error {
	var current *Payment
	err := s.run(ctx, func(tx pgx.Tx) error {
		repo := s.repo.WithTx(tx)
		invs := s.invoices.WithTx(tx)
		lg := s.ledger.WithTx(tx)

		var err error
		current, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.SoftDelete(ctx, id, deletedBy); err != nil {
			return err
		}
		if _, err := lg.ReverseByPayment(ctx, current.PaymentID); err != nil {
			return err
		}
		if current.InvoiceID != nil {
			if err := s.reconcile(ctx, repo, invs, *current.InvoiceID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, deletedBy, "payment.delete", current)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid payment id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Payment, int, error) {
	return s.repo.List(ctx, branchIDs, page)
}

// post issues the double-entry pair: debit the deposit account, credit the
// receivable account, same amount. Bank charges are routed through the poster
// unconditionally and vanish when zero.
func (s *Service) post(ctx context.Context, lg Ledger, p *Payment) error {
	base := ledger.PostInput{
		BranchID:        p.BranchID,
		Amount:          p.Amount,
		PaymentID:       &p.PaymentID,
		TransactionDate: p.PostingDate,
		CustomerID:      &p.CustomerID,
		CreatedBy:       p.CreatedBy,
	}

	debit := base
	debit.AccountID = p.AccountID
	debit.Type = ledger.Debit
	if _, err := lg.Post(ctx, debit); err != nil {
		return err
	}

	credit := base
	credit.AccountID = p.ReceivableAccountID
	credit.Type = ledger.Credit
	if _, err := lg.Post(ctx, credit); err != nil {
		return err
	}

	chargeDesc := "Bank charges"
	charges := base
	charges.AccountID = p.AccountID
	charges.Type = ledger.Credit
	charges.Amount = p.BankCharges
	charges.Description = &chargeDesc
	if _, err := lg.Post(ctx, charges); err != nil {
		return err
	}
	return nil
}

// reconcile recomputes the invoice status from the effective paid total.
// Idempotent: reversed and deleted rows never count, so any number of
// reversal and reissue cycles converges to the same status.
func (s *Service) reconcile(ctx context.Context, repo Repository, invs Invoices, invoiceID int64) error {
	inv, err := invs.Get(ctx, invoiceID)
	if err != nil {
		return err
	}
	totalPaid, err := repo.SumPaidByInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	status := InvoicePartiallyPaid
	if totalPaid >= inv.Total {
		status = InvoicePaid
	}
	return invs.SetStatus(ctx, invoiceID, status)
}

func orNow(t time.Time, now func() time.Time) time.Time {
	if t.IsZero() {
		return now().UTC()
	}
	return t
}
