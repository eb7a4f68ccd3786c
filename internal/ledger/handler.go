package ledger

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AccessResolver yields the branch ids the caller may read.
type AccessResolver interface {
	ResolveBranchIDs(ctx context.Context, userID, requestedBranchID int64) ([]int64, error)
}

// Handler exposes read endpoints over the transaction ledger.
type Handler struct {
	logger  *slog.Logger
	service *Service
	access  AccessResolver
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, access AccessResolver) *Handler {
	return &Handler{logger: logger, service: service, access: access}
}

// MountRoutes registers ledger routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts/{accountId}/transactions", h.ListByAccount)
	r.Get("/accounts/{accountId}/balance", h.Balance)
}

func (h *Handler) resolve(r *http.Request) ([]int64, error) {
	identity := shared.IdentityFromContext(r.Context())
	var requested int64
	if raw := r.URL.Query().Get("branchId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, shared.ErrValidation
		}
		requested = parsed
	}
	return h.access.ResolveBranchIDs(r.Context(), identity.UserID, requested)
}

func (h *Handler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	branchIDs, err := h.resolve(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	page := shared.ParsePageRequest(r)
	transactions, total, err := h.service.ListByAccount(r.Context(), branchIDs, accountID, page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewListEnvelope(transactions, total, page))
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	branchIDs, err := h.resolve(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	balance, err := h.service.BalanceByAccount(r.Context(), branchIDs, accountID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}
