package documents

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AccessResolver yields the branch ids the caller may act on.
type AccessResolver interface {
	ResolveBranch(ctx context.Context, userID, branchID int64) error
	ResolveBranchIDs(ctx context.Context, userID, requestedBranchID int64) ([]int64, error)
}

// Handler exposes one HTTP surface per document kind, all backed by the
// same engine.
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

// MountKind registers the CRUD and attachment routes for one document kind.
// Called once per kind from the router, e.g. under /invoices.
func (h *Handler) MountKind(kind numbering.DocKind) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.list(kind))
		r.Post("/", h.create(kind))
		r.Get("/{id}", h.get(kind))
		r.Put("/{id}", h.update(kind))
		r.Delete("/{id}", h.delete(kind))
		r.Post("/{id}/attachments", h.attach(kind))
		r.Post("/{id}/send", h.send(kind))
	}
}

type documentItemRequest struct {
	ItemName string  `json:"itemName" validate:"required,max=200"`
	Qty      float64 `json:"qty" validate:"required,gt=0"`
	Rate     float64 `json:"rate" validate:"gte=0"`
	Unit     string  `json:"unit" validate:"omitempty,max=20"`
	Discount float64 `json:"discount" validate:"gte=0,lte=100"`
	TaxID    *int64  `json:"taxId" validate:"omitempty,gt=0"`
}

type documentRequest struct {
	BranchID       int64                 `json:"branchId" validate:"required,gt=0"`
	DocNumber      string                `json:"docNumber" validate:"omitempty,max=50"`
	CounterpartyID int64                 `json:"counterpartyId" validate:"required,gt=0"`
	DocDate        time.Time             `json:"docDate"`
	DueDate        *time.Time            `json:"dueDate"`
	Status         string                `json:"status" validate:"omitempty,max=30"`
	Notes          string                `json:"notes" validate:"omitempty,max=2000"`
	Items          []documentItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req documentRequest) itemInputs() []ItemInput {
	items := make([]ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ItemInput{
			ItemName: it.ItemName,
			Qty:      it.Qty,
			Rate:     it.Rate,
			Unit:     it.Unit,
			Discount: it.Discount,
			TaxID:    it.TaxID,
		})
	}
	return items
}

func (h *Handler) create(kind numbering.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		var req documentRequest
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
		doc, err := h.service.Create(r.Context(), CreateInput{
			Kind:           kind,
			BranchID:       req.BranchID,
			ManualNumber:   req.DocNumber,
			CounterpartyID: req.CounterpartyID,
			DocDate:        req.DocDate,
			DueDate:        req.DueDate,
			Status:         req.Status,
			Notes:          req.Notes,
			Items:          req.itemInputs(),
			CreatedBy:      identity.UserID,
		})
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, doc)
	}
}

func (h *Handler) get(kind numbering.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid document id")
			return
		}
		doc, err := h.service.Get(r.Context(), kind, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := h.access.ResolveBranch(r.Context(), identity.UserID, doc.BranchID); err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) list(kind numbering.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		docs, total, err := h.service.List(r.Context(), kind, branchIDs, page)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, shared.NewListEnvelope(docs, total, page))
	}
}

func (h *Handler) update(kind numbering.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid document id")
			return
		}
		var req documentRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		current, err := h.service.Get(r.Context(), kind, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := h.access.ResolveBranch(r.Context(), identity.UserID, current.BranchID); err != nil {
			httpx.RespondError(w, err)
			return
		}
		doc, err := h.service.Update(r.Context(), kind, UpdateInput{
			ID:             id,
			CounterpartyID: req.CounterpartyID,
			DocDate:        req.DocDate,
			DueDate:        req.DueDate,
			Status:         req.Status,
			Notes:          req.Notes,
			Items:          req.itemInputs(),
		})
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) delete(kind numbering.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid document id")
			return
		}
		doc, err := h.service.Get(r.Context(), kind, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := h.access.ResolveBranch(r.Context(), identity.UserID, doc.BranchID); err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := h.service.Delete(r.Context(), kind, id, identity.UserID); err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

// send emails the document to its counterparty and advances DRAFT to SENT
// where the kind tracks that status.
func (h *Handler) send(kind numbering.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid document id")
			return
		}
		doc, err := h.service.Get(r.Context(), kind, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := h.access.ResolveBranch(r.Context(), identity.UserID, doc.BranchID); err != nil {
			httpx.RespondError(w, err)
			return
		}
		doc, err = h.service.Send(r.Context(), kind, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, doc)
	}
}

// attach accepts a multipart form with up to ten files under the
// "documents" field and stores them alongside the document.
func (h *Handler) attach(kind numbering.DocKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid document id")
			return
		}
		doc, err := h.service.Get(r.Context(), kind, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := h.access.ResolveBranch(r.Context(), identity.UserID, doc.BranchID); err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid multipart form")
			return
		}
		fileHeaders := r.MultipartForm.File["documents"]
		uploads := make([]FileUpload, 0, len(fileHeaders))
		for _, fh := range fileHeaders {
			f, err := fh.Open()
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unreadable file in form")
				return
			}
			defer f.Close()
			uploads = append(uploads, FileUpload{
				Reader:      f,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
			})
		}
		urls, err := h.service.Attach(r.Context(), kind, id, uploads)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"attachments": urls})
	}
}
