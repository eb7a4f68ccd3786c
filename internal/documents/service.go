package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/taxes"
	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/platform/storage"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// TaxLookup resolves a configured tax rate by id.
type TaxLookup interface {
	Get(ctx context.Context, id int64) (*taxes.Tax, error)
}

// Directory answers whether a counterparty exists within a branch.
type Directory interface {
	Exists(ctx context.Context, branchID, id int64) (bool, error)
}

// Service implements the generic document engine shared by all kinds.
type Service struct {
	repo      Repository
	numbers   *numbering.Service
	taxes     TaxLookup
	customers Directory
	vendors   Directory
	storage   storage.ObjectStorage
	notifier  Notifier
	now       func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, numbers *numbering.Service, taxLookup TaxLookup, customers, vendors Directory, store storage.ObjectStorage) *Service {
	return &Service{
		repo:      repo,
		numbers:   numbers,
		taxes:     taxLookup,
		customers: customers,
		vendors:   vendors,
		storage:   store,
		now:       time.Now,
	}
}

// WithNotifier attaches a best-effort counterparty notifier used by Send.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*Document, error) {
	rule, err := ruleFor(input.Kind)
	if err != nil {
		return nil, err
	}
	if input.BranchID <= 0 {
		return nil, fmt.Errorf("%w: branch id is required", shared.ErrValidation)
	}
	if err := s.checkCounterparty(ctx, rule, input.BranchID, input.CounterpartyID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = rule.DefaultStatus
	}
	if !rule.validStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q for %s", shared.ErrValidation, status, input.Kind)
	}

	doc := &Document{
		Kind:        input.Kind,
		BranchID:    input.BranchID,
		DocDate:     input.DocDate,
		DueDate:     input.DueDate,
		Status:      status,
		Notes:       strings.TrimSpace(input.Notes),
		Attachments: []string{},
		CreatedBy:   input.CreatedBy,
	}
	if doc.DocDate.IsZero() {
		doc.DocDate = s.now().UTC()
	}
	if rule.Side == SideCustomer {
		doc.CustomerID = &input.CounterpartyID
	} else {
		doc.VendorID = &input.CounterpartyID
	}

	items, subTotal, discountTotal, taxTotal, total, err := s.buildLines(ctx, input.BranchID, input.Items)
	if err != nil {
		return nil, err
	}
	doc.Items = items
	doc.SubTotal = subTotal
	doc.DiscountTotal = discountTotal
	doc.TaxTotal = taxTotal
	doc.Total = total

	exists := func(ctx context.Context, branchID int64, number string) (bool, error) {
		return s.repo.NumberExists(ctx, input.Kind, branchID, number)
	}
	var number string
	if rule.SettingRequired {
		number, err = s.numbers.AllocateRequired(ctx, input.BranchID, input.Kind, input.ManualNumber, exists)
	} else {
		number, err = s.numbers.AllocateWithRetry(ctx, input.BranchID, input.Kind, input.ManualNumber, exists)
	}
	if err != nil {
		return nil, err
	}
	doc.DocNumber = number

	return s.repo.Create(ctx, doc)
}

func (s *Service) checkCounterparty(ctx context.Context, rule kindRule, branchID, counterpartyID int64) error {
	if counterpartyID <= 0 {
		return fmt.Errorf("%w: counterparty is required", shared.ErrValidation)
	}
	dir := s.customers
	label := "customer"
	if rule.Side == SideVendor {
		dir = s.vendors
		label = "vendor"
	}
	ok, err := dir.Exists(ctx, branchID, counterpartyID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %d not found in branch", shared.ErrValidation, label, counterpartyID)
	}
	return nil
}

func (s *Service) buildLines(ctx context.Context, branchID int64, inputs []ItemInput) (items []Item, subTotal, discountTotal, taxTotal, total float64, err error) {
	if len(inputs) == 0 {
		return nil, 0, 0, 0, 0, fmt.Errorf("%w: at least one line item is required", shared.ErrValidation)
	}
	for i, in := range inputs {
		if strings.TrimSpace(in.ItemName) == "" {
			return nil, 0, 0, 0, 0, fmt.Errorf("%w: item name is required on line %d", shared.ErrValidation, i+1)
		}
		if in.Qty <= 0 {
			return nil, 0, 0, 0, 0, fmt.Errorf("%w: quantity must be positive on line %d", shared.ErrValidation, i+1)
		}
		if in.Rate < 0 {
			return nil, 0, 0, 0, 0, fmt.Errorf("%w: rate must not be negative on line %d", shared.ErrValidation, i+1)
		}
		if in.Discount < 0 || in.Discount > 100 {
			return nil, 0, 0, 0, 0, fmt.Errorf("%w: discount must be between 0 and 100 on line %d", shared.ErrValidation, i+1)
		}

		var taxPercent float64
		if in.TaxID != nil {
			tax, lookupErr := s.taxes.Get(ctx, *in.TaxID)
			if lookupErr != nil {
				return nil, 0, 0, 0, 0, fmt.Errorf("%w: tax %d not found on line %d", shared.ErrValidation, *in.TaxID, i+1)
			}
			if tax.BranchID != branchID {
				return nil, 0, 0, 0, 0, fmt.Errorf("%w: tax %d belongs to another branch", shared.ErrValidation, *in.TaxID)
			}
			taxPercent = tax.EffectiveRate()
		}

		discountAmount, taxAmount, lineTotal := lineTotals(in.Qty, in.Rate, in.Discount, taxPercent)
		items = append(items, Item{
			ItemName:  strings.TrimSpace(in.ItemName),
			Qty:       in.Qty,
			Rate:      in.Rate,
			Unit:      strings.TrimSpace(in.Unit),
			Discount:  in.Discount,
			TaxID:     in.TaxID,
			TaxAmount: taxAmount,
			Amount:    lineTotal,
			LineOrder: i,
		})
		subTotal += round2(in.Qty * in.Rate)
		discountTotal += discountAmount
		taxTotal += taxAmount
		total += lineTotal
	}
	return items, round2(subTotal), round2(discountTotal), round2(taxTotal), round2(total), nil
}

func (s *Service) Get(ctx context.Context, kind numbering.DocKind, id int64) (*Document, error) {
	if _, err := ruleFor(kind); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid document id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, kind, id)
}

func (s *Service) List(ctx context.Context, kind numbering.DocKind, branchIDs []int64, page shared.PageRequest) ([]Document, int, error) {
	if _, err := ruleFor(kind); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, kind, branchIDs, page)
}

func (s *Service) Update(ctx context.Context, kind numbering.DocKind, input UpdateInput) (*Document, error) {
	rule, err := ruleFor(kind)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, kind, input.ID)
	if err != nil {
		return nil, err
	}
	if err := s.checkCounterparty(ctx, rule, current.BranchID, input.CounterpartyID); err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = current.Status
	}
	if !rule.validStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q for %s", shared.ErrValidation, status, kind)
	}

	items, subTotal, discountTotal, taxTotal, total, err := s.buildLines(ctx, current.BranchID, input.Items)
	if err != nil {
		return nil, err
	}

	current.DocDate = input.DocDate
	if current.DocDate.IsZero() {
		current.DocDate = s.now().UTC()
	}
	current.DueDate = input.DueDate
	current.Status = status
	current.Notes = strings.TrimSpace(input.Notes)
	current.Items = items
	current.SubTotal = subTotal
	current.DiscountTotal = discountTotal
	current.TaxTotal = taxTotal
	current.Total = total
	if rule.Side == SideCustomer {
		current.CustomerID = &input.CounterpartyID
		current.VendorID = nil
	} else {
		current.VendorID = &input.CounterpartyID
		current.CustomerID = nil
	}

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Send emails the document to its counterparty and, for kinds that track a
// SENT status, advances a DRAFT document to SENT. The email itself is queued
// best-effort; a failed enqueue never fails the request.
func (s *Service) Send(ctx context.Context, kind numbering.DocKind, id int64) (*Document, error) {
	rule, err := ruleFor(kind)
	if err != nil {
		return nil, err
	}
	doc, err := s.repo.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == "DRAFT" && rule.validStatus("SENT") {
		doc.Status = "SENT"
		if err := s.repo.Update(ctx, doc); err != nil {
			return nil, err
		}
	}
	if s.notifier != nil {
		s.notifier.DocumentSent(ctx, doc)
	}
	return doc, nil
}

func (s *Service) Delete(ctx context.Context, kind numbering.DocKind, id, deletedBy int64) error {
	if _, err := ruleFor(kind); err != nil {
		return err
	}
	if id <= 0 {
		return fmt.Errorf("%w: invalid document id", shared.ErrValidation)
	}
	return s.repo.SoftDelete(ctx, kind, id, deletedBy)
}

// FileUpload is one multipart attachment accepted by Attach.
type FileUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

const (
	maxAttachments    = 10
	maxAttachmentSize = 20 << 20
)

// Attach uploads the given files to object storage and appends their public
// URLs to the document. The document must exist and be visible.
func (s *Service) Attach(ctx context.Context, kind numbering.DocKind, id int64, files []FileUpload) ([]string, error) {
	if _, err := ruleFor(kind); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", shared.ErrValidation)
	}
	if len(files) > maxAttachments {
		return nil, fmt.Errorf("%w: at most %d files per upload", shared.ErrValidation, maxAttachments)
	}
	if _, err := s.repo.Get(ctx, kind, id); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		if f.Size > maxAttachmentSize {
			return nil, fmt.Errorf("%w: file %q exceeds the 20MB limit", shared.ErrValidation, f.Filename)
		}
		url, err := s.storage.Upload(ctx, f.Reader, f.Filename, f.ContentType, f.Size)
		if err != nil {
			return nil, fmt.Errorf("documents: upload %q: %w", f.Filename, err)
		}
		urls = append(urls, url)
	}
	if err := s.repo.AppendAttachments(ctx, kind, id, urls); err != nil {
		return nil, err
	}
	return urls, nil
}
