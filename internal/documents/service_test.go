package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/taxes"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type memoryDocumentRepo struct {
	docs   map[int64]*Document
	nextID int64
}

func newMemoryDocumentRepo() *memoryDocumentRepo {
	return &memoryDocumentRepo{docs: make(map[int64]*Document)}
}

func (r *memoryDocumentRepo) Create(ctx context.Context, doc *Document) (*Document, error) {
	r.nextID++
	copied := *doc
	copied.ID = r.nextID
	r.docs[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (r *memoryDocumentRepo) Get(ctx context.Context, kind numbering.DocKind, id int64) (*Document, error) {
	doc, ok := r.docs[id]
	if !ok || doc.Kind != kind || doc.IsDeleted {
		return nil, shared.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (r *memoryDocumentRepo) List(ctx context.Context, kind numbering.DocKind, branchIDs []int64, page shared.PageRequest) ([]Document, int, error) {
	var out []Document
	for _, doc := range r.docs {
		if doc.Kind == kind && !doc.IsDeleted {
			out = append(out, *doc)
		}
	}
	return out, len(out), nil
}

func (r *memoryDocumentRepo) Update(ctx context.Context, doc *Document) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return shared.ErrNotFound
	}
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *memoryDocumentRepo) SoftDelete(ctx context.Context, kind numbering.DocKind, id, deletedBy int64) error {
	doc, ok := r.docs[id]
	if !ok || doc.Kind != kind || doc.IsDeleted {
		return shared.ErrNotFound
	}
	doc.IsDeleted = true
	return nil
}

func (r *memoryDocumentRepo) NumberExists(ctx context.Context, kind numbering.DocKind, branchID int64, number string) (bool, error) {
	for _, doc := range r.docs {
		if doc.Kind == kind && doc.BranchID == branchID && doc.DocNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryDocumentRepo) AppendAttachments(ctx context.Context, kind numbering.DocKind, id int64, urls []string) error {
	doc, ok := r.docs[id]
	if !ok || doc.Kind != kind {
		return shared.ErrNotFound
	}
	doc.Attachments = append(doc.Attachments, urls...)
	return nil
}

type taxTable map[int64]*taxes.Tax

func (t taxTable) Get(ctx context.Context, id int64) (*taxes.Tax, error) {
	tax, ok := t[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return tax, nil
}

type branchDirectory map[int64]int64

func (d branchDirectory) Exists(ctx context.Context, branchID, id int64) (bool, error) {
	owner, ok := d[id]
	return ok && owner == branchID, nil
}

type memoryObjectStorage struct {
	uploads []string
	failOn  string
}

func (s *memoryObjectStorage) Upload(ctx context.Context, reader io.Reader, filename, contentType string, size int64) (string, error) {
	if s.failOn != "" && filename == s.failOn {
		return "", fmt.Errorf("bucket unavailable")
	}
	s.uploads = append(s.uploads, filename)
	return "https://files.local/" + filename, nil
}

type numberSettingsStub struct {
	settings map[numbering.DocKind]*numbering.Setting
}

func (s *numberSettingsStub) Get(ctx context.Context, branchID int64, kind numbering.DocKind) (*numbering.Setting, error) {
	setting, ok := s.settings[kind]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *setting
	return &copied, nil
}

func (s *numberSettingsStub) Upsert(ctx context.Context, setting numbering.Setting) (*numbering.Setting, error) {
	if s.settings == nil {
		s.settings = make(map[numbering.DocKind]*numbering.Setting)
	}
	s.settings[setting.DocKind] = &setting
	return &setting, nil
}

func (s *numberSettingsStub) ListByBranch(ctx context.Context, branchID int64) ([]numbering.Setting, error) {
	return nil, nil
}

func (s *numberSettingsStub) ClaimNext(ctx context.Context, branchID int64, kind numbering.DocKind) (*numbering.Claim, error) {
	setting, ok := s.settings[kind]
	if !ok || setting.Mode != numbering.ModeAuto {
		return nil, shared.ErrNotFound
	}
	claim := &numbering.Claim{Prefix: setting.Prefix, Sequence: setting.NextNumber, Raw: setting.NextNumberRaw}
	setting.NextNumber++
	setting.NextNumberRaw = fmt.Sprintf("%0*d", len(setting.NextNumberRaw), setting.NextNumber)
	return claim, nil
}

type documentFixture struct {
	svc     *Service
	repo    *memoryDocumentRepo
	storage *memoryObjectStorage
	numbers *numberSettingsStub
}

func newDocumentFixture() *documentFixture {
	repo := newMemoryDocumentRepo()
	numbers := &numberSettingsStub{settings: map[numbering.DocKind]*numbering.Setting{
		numbering.KindInvoice: {BranchID: 1, DocKind: numbering.KindInvoice, Prefix: "INV-", NextNumber: 1, NextNumberRaw: "0001", Mode: numbering.ModeAuto},
	}}
	taxLookup := taxTable{
		5: &taxes.Tax{ID: 5, BranchID: 1, Kind: taxes.KindVAT, VatRate: 20},
		6: &taxes.Tax{ID: 6, BranchID: 1, Kind: taxes.KindGST, CgstRate: 9, SgstRate: 9},
		7: &taxes.Tax{ID: 7, BranchID: 2, Kind: taxes.KindVAT, VatRate: 5},
	}
	customers := branchDirectory{10: 1}
	vendors := branchDirectory{30: 1}
	store := &memoryObjectStorage{}
	svc := NewService(repo, numbering.NewService(numbers), taxLookup, customers, vendors, store)
	return &documentFixture{svc: svc, repo: repo, storage: store, numbers: numbers}
}

func invoiceInput(items ...ItemInput) CreateInput {
	if len(items) == 0 {
		items = []ItemInput{{ItemName: "Consulting", Qty: 1, Rate: 100}}
	}
	return CreateInput{
		Kind:           numbering.KindInvoice,
		BranchID:       1,
		CounterpartyID: 10,
		Items:          items,
		CreatedBy:      1,
	}
}

func TestCreateInvoiceComputesTotalsServerSide(t *testing.T) {
	f := newDocumentFixture()

	taxID := int64(5)
	doc, err := f.svc.Create(context.Background(), invoiceInput(
		ItemInput{ItemName: "Consulting", Qty: 2, Rate: 100, Discount: 10, TaxID: &taxID},
		ItemInput{ItemName: "Travel", Qty: 1, Rate: 50},
	))
	require.NoError(t, err)

	require.Equal(t, "INV-0001", doc.DocNumber)
	require.Equal(t, "DRAFT", doc.Status)
	require.Equal(t, 250.0, doc.SubTotal)
	require.Equal(t, 20.0, doc.DiscountTotal)
	require.Equal(t, 36.0, doc.TaxTotal)
	require.Equal(t, 266.0, doc.Total)
	require.Len(t, doc.Items, 2)
	require.Equal(t, 216.0, doc.Items[0].Amount)
	require.NotNil(t, doc.CustomerID)
	require.Equal(t, int64(10), *doc.CustomerID)
	require.Nil(t, doc.VendorID)
}

func TestCreateGSTCombinesComponents(t *testing.T) {
	f := newDocumentFixture()

	taxID := int64(6)
	doc, err := f.svc.Create(context.Background(), invoiceInput(
		ItemInput{ItemName: "Hardware", Qty: 1, Rate: 100, TaxID: &taxID},
	))
	require.NoError(t, err)
	require.Equal(t, 18.0, doc.TaxTotal)
	require.Equal(t, 118.0, doc.Total)
}

func TestCreateRejectsForeignTax(t *testing.T) {
	f := newDocumentFixture()

	taxID := int64(7)
	_, err := f.svc.Create(context.Background(), invoiceInput(
		ItemInput{ItemName: "Hardware", Qty: 1, Rate: 100, TaxID: &taxID},
	))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateInvoiceRequiresNumberSetting(t *testing.T) {
	f := newDocumentFixture()
	delete(f.numbers.settings, numbering.KindInvoice)

	_, err := f.svc.Create(context.Background(), invoiceInput())
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "no number setting")
}

func TestCreateQuoteFallsBackToManualNumber(t *testing.T) {
	f := newDocumentFixture()

	input := invoiceInput()
	input.Kind = numbering.KindQuote
	_, err := f.svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)

	input.ManualNumber = "Q-77"
	doc, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "Q-77", doc.DocNumber)
}

func TestCreateRejectsInvalidStatusForKind(t *testing.T) {
	f := newDocumentFixture()

	input := invoiceInput()
	input.Status = "FULFILLED"
	_, err := f.svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateVendorKindUsesVendorDirectory(t *testing.T) {
	f := newDocumentFixture()

	input := CreateInput{
		Kind:           numbering.KindBill,
		BranchID:       1,
		CounterpartyID: 30,
		ManualNumber:   "BILL-1",
		Items:          []ItemInput{{ItemName: "Parts", Qty: 1, Rate: 10}},
	}
	doc, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, doc.VendorID)
	require.Nil(t, doc.CustomerID)

	// A customer id is not a vendor id.
	input.CounterpartyID = 10
	input.ManualNumber = "BILL-2"
	_, err = f.svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	f := newDocumentFixture()

	input := invoiceInput()
	input.Kind = "RECEIPT"
	_, err := f.svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateLineValidation(t *testing.T) {
	f := newDocumentFixture()

	cases := []struct {
		name string
		item ItemInput
	}{
		{"empty name", ItemInput{Qty: 1, Rate: 10}},
		{"zero qty", ItemInput{ItemName: "X", Rate: 10}},
		{"negative rate", ItemInput{ItemName: "X", Qty: 1, Rate: -1}},
		{"discount above 100", ItemInput{ItemName: "X", Qty: 1, Rate: 10, Discount: 101}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), invoiceInput(tc.item))
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestUpdateRecomputesTotalsAndKeepsNumber(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Create(context.Background(), invoiceInput())
	require.NoError(t, err)

	updated, err := f.svc.Update(context.Background(), numbering.KindInvoice, UpdateInput{
		ID:             doc.ID,
		CounterpartyID: 10,
		Status:         "SENT",
		Items:          []ItemInput{{ItemName: "Consulting", Qty: 3, Rate: 100}},
	})
	require.NoError(t, err)
	require.Equal(t, doc.DocNumber, updated.DocNumber)
	require.Equal(t, "SENT", updated.Status)
	require.Equal(t, 300.0, updated.Total)
}

func TestDeleteHidesDocument(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Create(context.Background(), invoiceInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), numbering.KindInvoice, doc.ID, 1))

	_, err = f.svc.Get(context.Background(), numbering.KindInvoice, doc.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeletedNumberIsNeverReissued(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Create(context.Background(), invoiceInput())
	require.NoError(t, err)
	require.Equal(t, "INV-0001", doc.DocNumber)

	require.NoError(t, f.svc.Delete(context.Background(), numbering.KindInvoice, doc.ID, 1))

	next, err := f.svc.Create(context.Background(), invoiceInput())
	require.NoError(t, err)
	require.Equal(t, "INV-0002", next.DocNumber)
}

func TestAttachUploadsAndAppends(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Create(context.Background(), invoiceInput())
	require.NoError(t, err)

	urls, err := f.svc.Attach(context.Background(), numbering.KindInvoice, doc.ID, []FileUpload{
		{Reader: bytes.NewReader([]byte("pdf")), Filename: "contract.pdf", ContentType: "application/pdf", Size: 3},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"https://files.local/contract.pdf"}, urls)

	stored, err := f.svc.Get(context.Background(), numbering.KindInvoice, doc.ID)
	require.NoError(t, err)
	require.Equal(t, urls, stored.Attachments)
}

func TestAttachLimits(t *testing.T) {
	f := newDocumentFixture()

	doc, err := f.svc.Create(context.Background(), invoiceInput())
	require.NoError(t, err)

	_, err = f.svc.Attach(context.Background(), numbering.KindInvoice, doc.ID, nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	var many []FileUpload
	for i := 0; i < maxAttachments+1; i++ {
		many = append(many, FileUpload{Reader: strings.NewReader("x"), Filename: fmt.Sprintf("f%d.txt", i), Size: 1})
	}
	_, err = f.svc.Attach(context.Background(), numbering.KindInvoice, doc.ID, many)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.Attach(context.Background(), numbering.KindInvoice, doc.ID, []FileUpload{
		{Reader: strings.NewReader("x"), Filename: "huge.bin", Size: maxAttachmentSize + 1},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

type recordingDocNotifier struct {
	sent []string
}

func (n *recordingDocNotifier) DocumentSent(ctx context.Context, d *Document) {
	n.sent = append(n.sent, d.DocNumber)
}

func TestSendAdvancesDraftAndNotifies(t *testing.T) {
	f := newDocumentFixture()
	notifier := &recordingDocNotifier{}
	f.svc.WithNotifier(notifier)

	doc, err := f.svc.Create(context.Background(), invoiceInput())
	require.NoError(t, err)
	require.Equal(t, "DRAFT", doc.Status)

	sent, err := f.svc.Send(context.Background(), numbering.KindInvoice, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "SENT", sent.Status)
	require.Equal(t, []string{doc.DocNumber}, notifier.sent)

	// A second send keeps the status and still notifies.
	again, err := f.svc.Send(context.Background(), numbering.KindInvoice, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "SENT", again.Status)
	require.Len(t, notifier.sent, 2)
}

func TestSendKeepsStatusForKindsWithoutSent(t *testing.T) {
	f := newDocumentFixture()
	notifier := &recordingDocNotifier{}
	f.svc.WithNotifier(notifier)

	doc, err := f.svc.Create(context.Background(), CreateInput{
		Kind:           numbering.KindExpense,
		BranchID:       1,
		CounterpartyID: 30,
		ManualNumber:   "EXP-1",
		Items:          []ItemInput{{ItemName: "Taxi", Qty: 1, Rate: 30}},
		CreatedBy:      1,
	})
	require.NoError(t, err)
	require.Equal(t, "RECORDED", doc.Status)

	sent, err := f.svc.Send(context.Background(), numbering.KindExpense, doc.ID)
	require.NoError(t, err)
	require.Equal(t, "RECORDED", sent.Status)
	require.Len(t, notifier.sent, 1)
}
