package quote

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-quoting/internal/common"
	"github.com/noah-isme/backend-quoting/internal/db"
	"github.com/noah-isme/backend-quoting/internal/obs"
)

// Handler exposes the pricing preview and quote endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Preview handles POST /api/v1/quotes/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
	}
	resp, err := h.Svc.Preview(r.Context(), req)
	if err != nil {
		obs.CountPreview("error")
		if errors.Is(err, ErrInvalidBaseCost) {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_BASE_COST", "base_cost must be a decimal number", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
		return
	}
	obs.CountPreview("ok")
	common.JSONData(w, http.StatusOK, resp)
}

// Finalize handles POST /api/v1/quotes/finalize.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
	}
	row, err := h.Svc.Finalize(r.Context(), req)
	if err != nil {
		obs.CountFinalize("error")
		h.writeFinalizeError(w, err)
		return
	}
	obs.CountFinalize("ok")
	common.JSONData(w, http.StatusCreated, finalizeResponse(row))
}

// Get handles GET /api/v1/quotes/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid quote id", nil)
		return
	}
	dto, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "quote not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
		return
	}
	common.JSONData(w, http.StatusOK, dto)
}

// List handles GET /api/v1/quotes with optional ?project_id= filtering.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var projectID *int64
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid project_id", nil)
			return
		}
		projectID = &id
	}
	page, perPage := common.ParsePagination(r, 20)
	quotes, err := h.Svc.List(r.Context(), projectID, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": quotes,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: len(quotes),
		},
	})
}

func (h *Handler) writeFinalizeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoActiveSchema):
		common.JSONError(w, http.StatusBadRequest, "NO_ACTIVE_SCHEMA", err.Error(), nil)
	case errors.Is(err, ErrMissingCostInput):
		common.JSONError(w, http.StatusBadRequest, "MISSING_COST_INPUT", err.Error(), nil)
	case errors.Is(err, ErrInvalidValidUntil):
		common.JSONError(w, http.StatusBadRequest, "INVALID_VALID_UNTIL", err.Error(), nil)
	case errors.Is(err, db.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "referenced resource not found", nil)
	case isUniqueViolation(err):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "could not assign a unique quote number", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}
