package payments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryPaymentRepo struct {
	rows   map[int64]*Payment
	nextID int64
}

func newMemoryPaymentRepo() *memoryPaymentRepo {
	return &memoryPaymentRepo{rows: make(map[int64]*Payment)}
}

func (r *memoryPaymentRepo) WithTx(tx pgx.Tx) Repository { return r }

func (r *memoryPaymentRepo) Insert(ctx context.Context, p *Payment) (*Payment, error) {
	r.nextID++
	copied := *p
	copied.ID = r.nextID
	copied.CreatedAt = time.Now()
	r.rows[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (r *memoryPaymentRepo) Get(ctx context.Context, id int64) (*Payment, error) {
	p, ok := r.rows[id]
	if !ok || p.IsDeleted {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *memoryPaymentRepo) List(ctx context.Context, branchIDs []int64, page shared.PageRequest) ([]Payment, int, error) {
	var out []Payment
	for _, p := range r.rows {
		if !p.IsDeleted {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (r *memoryPaymentRepo) MarkReversed(ctx context.Context, id int64) error {
	p, ok := r.rows[id]
	if !ok || p.IsReversed || p.IsDeleted {
		return shared.ErrNotFound
	}
	p.IsReversed = true
	return nil
}

func (r *memoryPaymentRepo) SoftDelete(ctx context.Context, id, deletedBy int64) error {
	p, ok := r.rows[id]
	if !ok || p.IsDeleted {
		return shared.ErrNotFound
	}
	p.IsDeleted = true
	return nil
}

func (r *memoryPaymentRepo) SumPaidByInvoice(ctx context.Context, invoiceID int64) (float64, error) {
	var total float64
	for _, p := range r.rows {
		if p.InvoiceID != nil && *p.InvoiceID == invoiceID &&
			p.Status == StatusPaid && !p.IsReversed && !p.IsDeleted {
			total += p.Amount
		}
	}
	return total, nil
}

func (r *memoryPaymentRepo) NumberExists(ctx context.Context, branchID int64, number string) (bool, error) {
	for _, p := range r.rows {
		if p.BranchID == branchID && p.PaymentID == number {
			return true, nil
		}
	}
	return false, nil
}

type memoryInvoices struct {
	rows map[int64]*InvoiceInfo
}

func (r *memoryInvoices) WithTx(tx pgx.Tx) Invoices { return r }

func (r *memoryInvoices) Get(ctx context.Context, id int64) (*InvoiceInfo, error) {
	inv, ok := r.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *memoryInvoices) SetStatus(ctx context.Context, id int64, status string) error {
	inv, ok := r.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	inv.Status = status
	return nil
}

type memoryLedger struct {
	postings []ledger.PostInput
	reversed []string
}

func (l *memoryLedger) WithTx(tx pgx.Tx) Ledger { return l }

func (l *memoryLedger) Post(ctx context.Context, input ledger.PostInput) (*ledger.Transaction, error) {
	if input.Amount <= 0 {
		return nil, nil
	}
	l.postings = append(l.postings, input)
	return &ledger.Transaction{}, nil
}

func (l *memoryLedger) ReverseByPayment(ctx context.Context, businessPaymentID string) (int64, error) {
	l.reversed = append(l.reversed, businessPaymentID)
	var n int64
	for _, p := range l.postings {
		if p.PaymentID != nil && *p.PaymentID == businessPaymentID {
			n++
		}
	}
	return n, nil
}

type allowAllDirectory struct{}

func (allowAllDirectory) Exists(ctx context.Context, branchID, id int64) (bool, error) {
	return true, nil
}

type numberRepoStub struct{}

func (numberRepoStub) Get(ctx context.Context, branchID int64, kind numbering.DocKind) (*numbering.Setting, error) {
	return nil, shared.ErrNotFound
}

func (numberRepoStub) Upsert(ctx context.Context, setting numbering.Setting) (*numbering.Setting, error) {
	return &setting, nil
}

func (numberRepoStub) ListByBranch(ctx context.Context, branchID int64) ([]numbering.Setting, error) {
	return nil, nil
}

func (numberRepoStub) ClaimNext(ctx context.Context, branchID int64, kind numbering.DocKind) (*numbering.Claim, error) {
	return nil, shared.ErrNotFound
}

type paymentFixture struct {
	svc      *Service
	repo     *memoryPaymentRepo
	invoices *memoryInvoices
	ledger   *memoryLedger
}

func newPaymentFixture() *paymentFixture {
	repo := newMemoryPaymentRepo()
	invoices := &memoryInvoices{rows: map[int64]*InvoiceInfo{
		100: {ID: 100, BranchID: 1, CustomerID: 7, Total: 100, Status: "SENT"},
	}}
	lg := &memoryLedger{}
	run := func(ctx context.Context, fn func(pgx.Tx) error) error { return fn(nil) }
	svc := NewService(run, repo, invoices, lg, numbering.NewService(numberRepoStub{}), allowAllDirectory{}, allowAllDirectory{})
	return &paymentFixture{svc: svc, repo: repo, invoices: invoices, ledger: lg}
}

func paidInput(invoiceID int64, amount float64, number string) CreateInput {
	return CreateInput{
		BranchID:            1,
		CustomerID:          7,
		InvoiceID:           &invoiceID,
		ManualNumber:        number,
		Amount:              amount,
		AccountID:           10,
		ReceivableAccountID: 20,
		PaymentMode:         "BANK",
		Status:              StatusPaid,
		CreatedBy:           1,
	}
}

func TestCreatePaidPostsPairAndReconciles(t *testing.T) {
	f := newPaymentFixture()

	p, err := f.svc.Create(context.Background(), paidInput(100, 60, "PAY-1"))
	require.NoError(t, err)
	require.Equal(t, "PAY-1", p.PaymentID)

	require.Len(t, f.ledger.postings, 2)
	require.Equal(t, ledger.Debit, f.ledger.postings[0].Type)
	require.Equal(t, int64(10), f.ledger.postings[0].AccountID)
	require.Equal(t, ledger.Credit, f.ledger.postings[1].Type)
	require.Equal(t, int64(20), f.ledger.postings[1].AccountID)
	require.Equal(t, 60.0, f.ledger.postings[0].Amount)
	require.Equal(t, 60.0, f.ledger.postings[1].Amount)

	require.Equal(t, InvoicePartiallyPaid, f.invoices.rows[100].Status)
}

func TestCreateSecondPaymentSettlesInvoice(t *testing.T) {
	f := newPaymentFixture()

	_, err := f.svc.Create(context.Background(), paidInput(100, 60, "PAY-1"))
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), paidInput(100, 40, "PAY-2"))
	require.NoError(t, err)

	require.Equal(t, InvoicePaid, f.invoices.rows[100].Status)
}

func TestCreateDraftSkipsPostingAndReconciliation(t *testing.T) {
	f := newPaymentFixture()

	input := paidInput(100, 60, "PAY-1")
	input.Status = StatusDraft
	input.ReceivableAccountID = 0

	p, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, p.Status)
	require.Empty(t, f.ledger.postings)
	require.Equal(t, "SENT", f.invoices.rows[100].Status)
}

func TestCreateBankChargesPostThirdCredit(t *testing.T) {
	f := newPaymentFixture()

	input := paidInput(100, 60, "PAY-1")
	input.BankCharges = 2.5

	_, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, f.ledger.postings, 3)
	charge := f.ledger.postings[2]
	require.Equal(t, ledger.Credit, charge.Type)
	require.Equal(t, int64(10), charge.AccountID)
	require.Equal(t, 2.5, charge.Amount)
	require.NotNil(t, charge.Description)
}

func TestCreateValidation(t *testing.T) {
	f := newPaymentFixture()

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing branch", func(in *CreateInput) { in.BranchID = 0 }},
		{"zero amount", func(in *CreateInput) { in.Amount = 0 }},
		{"negative charges", func(in *CreateInput) { in.BankCharges = -1 }},
		{"missing mode", func(in *CreateInput) { in.PaymentMode = " " }},
		{"bad status", func(in *CreateInput) { in.Status = "POSTED" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := paidInput(100, 60, "PAY-1")
			tc.mutate(&input)
			_, err := f.svc.Create(context.Background(), input)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestCreateRejectsForeignInvoice(t *testing.T) {
	f := newPaymentFixture()
	f.invoices.rows[200] = &InvoiceInfo{ID: 200, BranchID: 2, CustomerID: 7, Total: 50}
	f.invoices.rows[300] = &InvoiceInfo{ID: 300, BranchID: 1, CustomerID: 8, Total: 50}

	_, err := f.svc.Create(context.Background(), paidInput(200, 10, "PAY-1"))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.Create(context.Background(), paidInput(300, 10, "PAY-2"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateSupersedesAndRepostsSameBusinessID(t *testing.T) {
	f := newPaymentFixture()

	created, err := f.svc.Create(context.Background(), paidInput(100, 60, "PAY-1"))
	require.NoError(t, err)

	invoiceID := int64(100)
	updated, err := f.svc.Update(context.Background(), UpdateInput{
		ID:                  created.ID,
		CustomerID:          7,
		InvoiceID:           &invoiceID,
		Amount:              100,
		AccountID:           10,
		ReceivableAccountID: 20,
		PaymentMode:         "BANK",
		Status:              StatusPaid,
		UpdatedBy:           2,
	})
	require.NoError(t, err)

	require.Equal(t, created.PaymentID, updated.PaymentID)
	require.NotEqual(t, created.ID, updated.ID)

	old, err := f.repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, old.IsReversed)

	require.Equal(t, []string{"PAY-1"}, f.ledger.reversed)
	require.Equal(t, InvoicePaid, f.invoices.rows[100].Status)
}

func TestUpdateRejectsSupersededRow(t *testing.T) {
	f := newPaymentFixture()

	created, err := f.svc.Create(context.Background(), paidInput(100, 60, "PAY-1"))
	require.NoError(t, err)

	input := UpdateInput{
		ID: created.ID, CustomerID: 7, Amount: 70,
		AccountID: 10, ReceivableAccountID: 20,
		PaymentMode: "BANK", Status: StatusPaid, UpdatedBy: 2,
	}
	_, err = f.svc.Update(context.Background(), input)
	require.NoError(t, err)

	// The original row is now reversed; editing it again must fail.
	_, err = f.svc.Update(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateReconcilesOldInvoiceOnRelink(t *testing.T) {
	f := newPaymentFixture()
	f.invoices.rows[101] = &InvoiceInfo{ID: 101, BranchID: 1, CustomerID: 7, Total: 50, Status: "SENT"}

	created, err := f.svc.Create(context.Background(), paidInput(100, 100, "PAY-1"))
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, f.invoices.rows[100].Status)

	other := int64(101)
	_, err = f.svc.Update(context.Background(), UpdateInput{
		ID:                  created.ID,
		CustomerID:          7,
		InvoiceID:           &other,
		Amount:              50,
		AccountID:           10,
		ReceivableAccountID: 20,
		PaymentMode:         "BANK",
		Status:              StatusPaid,
		UpdatedBy:           2,
	})
	require.NoError(t, err)

	require.Equal(t, InvoicePaid, f.invoices.rows[101].Status)
	// The detached invoice loses its paid total and drops back.
	require.Equal(t, InvoicePartiallyPaid, f.invoices.rows[100].Status)
}

func TestDeleteReversesAndReconciles(t *testing.T) {
	f := newPaymentFixture()

	created, err := f.svc.Create(context.Background(), paidInput(100, 100, "PAY-1"))
	require.NoError(t, err)
	require.Equal(t, InvoicePaid, f.invoices.rows[100].Status)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID, 2))

	require.Equal(t, []string{"PAY-1"}, f.ledger.reversed)
	require.Equal(t, InvoicePartiallyPaid, f.invoices.rows[100].Status)

	_, err = f.repo.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

type recordingNotifier struct {
	receipts []string
}

func (n *recordingNotifier) PaymentReceipt(ctx context.Context, p *Payment) {
	n.receipts = append(n.receipts, p.PaymentID)
}

func TestNotifierFiresOnlyForPaid(t *testing.T) {
	f := newPaymentFixture()
	notifier := &recordingNotifier{}
	f.svc.WithNotifier(notifier)

	draft := paidInput(100, 60, "PAY-1")
	draft.Status = StatusDraft
	draft.ReceivableAccountID = 0
	_, err := f.svc.Create(context.Background(), draft)
	require.NoError(t, err)
	require.Empty(t, notifier.receipts)

	_, err = f.svc.Create(context.Background(), paidInput(100, 60, "PAY-2"))
	require.NoError(t, err)
	require.Equal(t, []string{"PAY-2"}, notifier.receipts)
}

// autoNumberRepo keeps one AUTO counter per kind so the scenario test issues
// real sequential payment ids.
type autoNumberRepo struct {
	settings map[numbering.DocKind]*numbering.Setting
}

func (r *autoNumberRepo) Get(ctx context.Context, branchID int64, kind numbering.DocKind) (*numbering.Setting, error) {
	s, ok := r.settings[kind]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *autoNumberRepo) Upsert(ctx context.Context, setting numbering.Setting) (*numbering.Setting, error) {
	r.settings[setting.DocKind] = &setting
	return &setting, nil
}

func (r *autoNumberRepo) ListByBranch(ctx context.Context, branchID int64) ([]numbering.Setting, error) {
	var out []numbering.Setting
	for _, s := range r.settings {
		out = append(out, *s)
	}
	return out, nil
}

func (r *autoNumberRepo) ClaimNext(ctx context.Context, branchID int64, kind numbering.DocKind) (*numbering.Claim, error) {
	s, ok := r.settings[kind]
	if !ok {
		return nil, shared.ErrNotFound
	}
	claim := &numbering.Claim{Prefix: s.Prefix, Sequence: s.NextNumber, Raw: s.NextNumberRaw}
	s.NextNumber++
	s.NextNumberRaw = fmt.Sprintf("%0*d", len(s.NextNumberRaw), s.NextNumber)
	return claim, nil
}

func TestScenarioSequentialPaymentsSettleInvoice(t *testing.T) {
	repo := newMemoryPaymentRepo()
	invoices := &memoryInvoices{rows: map[int64]*InvoiceInfo{
		100: {ID: 100, BranchID: 1, CustomerID: 7, Total: 100, Status: "SENT"},
	}}
	lg := &memoryLedger{}
	numbers := numbering.NewService(&autoNumberRepo{settings: map[numbering.DocKind]*numbering.Setting{
		numbering.KindPayment: {BranchID: 1, DocKind: numbering.KindPayment, Prefix: "PAY-", NextNumber: 1, NextNumberRaw: "0001", Mode: numbering.ModeAuto},
	}})
	run := func(ctx context.Context, fn func(pgx.Tx) error) error { return fn(nil) }
	svc := NewService(run, repo, invoices, lg, numbers, allowAllDirectory{}, allowAllDirectory{})

	first := paidInput(100, 60, "")
	p1, err := svc.Create(context.Background(), first)
	require.NoError(t, err)
	require.Equal(t, "PAY-0001", p1.PaymentID)
	require.Equal(t, InvoicePartiallyPaid, invoices.rows[100].Status)

	second := paidInput(100, 40, "")
	p2, err := svc.Create(context.Background(), second)
	require.NoError(t, err)
	require.Equal(t, "PAY-0002", p2.PaymentID)
	require.Equal(t, InvoicePaid, invoices.rows[100].Status)
}
