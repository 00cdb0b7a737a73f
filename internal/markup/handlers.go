package markup

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-quoting/internal/common"
	"github.com/noah-isme/backend-quoting/internal/db"
)

// Handler exposes markup schema administration endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// CreateSchemaRequest is the POST /markup-schemas body.
type CreateSchemaRequest struct {
	Name     string          `json:"name" validate:"required"`
	IsActive bool            `json:"is_active"`
	Rules    json.RawMessage `json:"rules" validate:"required"`
}

// Create handles POST /api/v1/markup-schemas.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "markup service not configured", nil)
		return
	}
	var req CreateSchemaRequest
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
	schema, err := h.Svc.Create(r.Context(), req.Name, req.IsActive, req.Rules)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, schema)
}

// List handles GET /api/v1/markup-schemas.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "markup service not configured", nil)
		return
	}
	schemas, err := h.Svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, schemas)
}

// Get handles GET /api/v1/markup-schemas/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "markup service not configured", nil)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid schema id", nil)
		return
	}
	schema, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, schema)
}

// Activate handles POST /api/v1/markup-schemas/{id}/activate.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "markup service not configured", nil)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid schema id", nil)
		return
	}
	schema, err := h.Svc.Activate(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, schema)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRules):
		common.JSONError(w, http.StatusBadRequest, "INVALID_RULES", err.Error(), nil)
	case errors.Is(err, db.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "markup schema not found", nil)
	case isUniqueViolation(err):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "schema name already exists", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
