package numbering

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

// AccessResolver narrows branch ids to those the caller may act on.
type AccessResolver interface {
	ResolveBranch(ctx context.Context, userID, branchID int64) error
}

// Handler wires HTTP endpoints for number settings.
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

// MountRoutes registers number-setting routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Put("/", h.Save)
}

type settingRequest struct {
	BranchID      int64  `json:"branchId" validate:"required,gt=0"`
	DocKind       string `json:"docKind" validate:"required"`
	Prefix        string `json:"prefix" validate:"max=20"`
	NextNumber    int64  `json:"nextNumber" validate:"gte=0"`
	NextNumberRaw string `json:"nextNumberRaw" validate:"max=20"`
	Mode          string `json:"mode" validate:"required,oneof=AUTO MANUAL"`
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	var req settingRequest
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
	setting, err := h.service.SaveSetting(r.Context(), Setting{
		BranchID:      req.BranchID,
		DocKind:       DocKind(req.DocKind),
		Prefix:        req.Prefix,
		NextNumber:    req.NextNumber,
		NextNumberRaw: req.NextNumberRaw,
		Mode:          Mode(req.Mode),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, setting)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	branchID, err := strconv.ParseInt(r.URL.Query().Get("branchId"), 10, 64)
	if err != nil || branchID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "branchId query param is required")
		return
	}
	if err := h.access.ResolveBranch(r.Context(), identity.UserID, branchID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	settings, err := h.service.ListSettings(r.Context(), branchID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": settings})
}
