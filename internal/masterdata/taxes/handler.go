package taxes

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

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

// Handler wires HTTP endpoints for tax configuration.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	access    AccessResolver
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, access AccessResolver) *Handler {
	return &Handler{logger: logger, service: service, access: access, validator: validator.New()}
}

// MountRoutes registers tax routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type taxRequest struct {
	BranchID int64   `json:"branchId" validate:"required,gt=0"`
	Name     string  `json:"name" validate:"required,max=100"`
	Kind     string  `json:"kind" validate:"required,oneof=VAT GST"`
	VatRate  float64 `json:"vatRate" validate:"gte=0,lte=100"`
	CgstRate float64 `json:"cgstRate" validate:"gte=0,lte=100"`
	SgstRate float64 `json:"sgstRate" validate:"gte=0,lte=100"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	var req taxRequest
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
	tax, err := h.service.Create(r.Context(), Tax{
		BranchID: req.BranchID,
		Name:     req.Name,
		Kind:     Kind(req.Kind),
		VatRate:  req.VatRate,
		CgstRate: req.CgstRate,
		SgstRate: req.SgstRate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tax)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tax id")
		return
	}
	tax, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.access.ResolveBranch(r.Context(), identity.UserID, tax.BranchID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tax)
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
	taxesPage, total, err := h.service.List(r.Context(), branchIDs, page)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewListEnvelope(taxesPage, total, page))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tax id")
		return
	}
	var req taxRequest
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
	if err := h.service.Update(r.Context(), Tax{
		ID:       id,
		BranchID: req.BranchID,
		Name:     req.Name,
		Kind:     Kind(req.Kind),
		VatRate:  req.VatRate,
		CgstRate: req.CgstRate,
		SgstRate: req.SgstRate,
	}); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tax id")
		return
	}
	tax, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.access.ResolveBranch(r.Context(), identity.UserID, tax.BranchID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id, identity.UserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}
