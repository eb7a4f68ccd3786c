package payments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AccessResolver yields the branch ids the caller may act on.
type AccessResolver interface {
	ResolveBranch(ctx context.Context, userID, branchID int64) error
	ResolveBranchIDs(ctx context.Context, userID, requestedBranchID int64) ([]int64, error)
}

// Handler wires HTTP endpoints for received payments.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	access      AccessResolver
	idempotency *shared.IdempotencyStore
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, access AccessResolver, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		access:      access,
		idempotency: idempotency,
		validator:   validator.New(),
	}
}

// MountRoutes registers payment routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type paymentRequest struct {
	BranchID            int64     `json:"branchId" validate:"required,gt=0"`
	CustomerID          int64     `json:"customerId" validate:"required,gt=0"`
	InvoiceID           *int64    `json:"invoiceId" validate:"omitempty,gt=0"`
	PaymentNumber       string    `json:"paymentNumber" validate:"omitempty,max=50"`
	PaymentDate         time.Time `json:"paymentDate"`
	PostingDate         time.Time `json:"postingDate"`
	Amount              float64   `json:"amount" validate:"required,gt=0"`
	BankCharges         float64   `json:"bankCharges" validate:"gte=0"`
	AccountID           int64     `json:"accountId" validate:"required,gt=0"`
	ReceivableAccountID int64     `json:"receivableAccountId" validate:"omitempty,gt=0"`
	PaymentMode         string    `json:"paymentMode" validate:"required,max=30"`
	Reference           string    `json:"reference" validate:"omitempty,max=100"`
	Status              string    `json:"status" validate:"omitempty,oneof=DRAFT PAID"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.access.ResolveBranch(r.Context(), identity.UserID, req.BranchID); err != nil {
		httpx.RespondError(w, err)
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if err := h.idempotency.CheckAndInsert(r.Context(), idemKey, "payments"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Duplicate Request", "this request was already processed")
				return
			}
			httpx.RespondError(w, err)
			return
		}
	}

	payment, err := h.service.Create(r.Context(), CreateInput{
		BranchID:            req.BranchID,
		CustomerID:          req.CustomerID,
		InvoiceID:           req.InvoiceID,
		ManualNumber:        req.PaymentNumber,
		PaymentDate:         req.PaymentDate,
		PostingDate:         req.PostingDate,
		Amount:              req.Amount,
		BankCharges:         req.BankCharges,
		AccountID:           req.AccountID,
		ReceivableAccountID: req.ReceivableAccountID,
		PaymentMode:         req.PaymentMode,
		Reference:           req.Reference,
		Status:              Status(req.Status),
		CreatedBy:           identity.UserID,
	})
	if err != nil {
		if idemKey != "" {
			if delErr := h.idempotency.Delete(r.Context(), idemKey); delErr != nil {
				h.logger.Warn("payments: release idempotency key", "key", idemKey, "error", delErr)
			}
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	payment, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.access.ResolveBranch(r.Context(), identity.UserID, payment.BranchID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	var requested int64
	if raw := r.URL.Query().Get("branchId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid branchId")
			return
		}
		requested = parsed
	}
	branchIDs, err := h.access.ResolveBranchIDs(r.Context(), identity.UserID, requested)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.ParsePageRequest(r)
	list, total, err := h.service.List(r.Context(), branchIDs, page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewListEnvelope(list, total, page))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	current, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.access.ResolveBranch(r.Context(), identity.UserID, current.BranchID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.Update(r.Context(), UpdateInput{
		ID:                  id,
		CustomerID:          req.CustomerID,
		InvoiceID:           req.InvoiceID,
		PaymentDate:         req.PaymentDate,
		PostingDate:         req.PostingDate,
		Amount:              req.Amount,
		BankCharges:         req.BankCharges,
		AccountID:           req.AccountID,
		ReceivableAccountID: req.ReceivableAccountID,
		PaymentMode:         req.PaymentMode,
		Reference:           req.Reference,
		Status:              Status(req.Status),
		UpdatedBy:           identity.UserID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}
	payment, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.access.ResolveBranch(r.Context(), identity.UserID, payment.BranchID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id, identity.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}
