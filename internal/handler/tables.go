package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/enum"
	"github.com/kiwari-pos/resto/internal/middleware"
	"github.com/kiwari-pos/resto/internal/service"
)

// TableServicer is satisfied by *service.TableService.
type TableServicer interface {
	AddTable(ctx context.Context, number int32) (database.DiningTable, error)
	SetDisabled(ctx context.Context, tableID uuid.UUID, disabled bool) (database.DiningTable, error)
	GetTable(ctx context.Context, tableID uuid.UUID) (database.DiningTable, error)
	ListTables(ctx context.Context) ([]database.DiningTable, error)
	ListAvailableTables(ctx context.Context) ([]database.DiningTable, error)
	IssueTableToken(ctx context.Context, tableID uuid.UUID) (*service.TableToken, error)
}

type TableHandler struct {
	svc TableServicer
	pub Publisher
}

func NewTableHandler(svc TableServicer, pub Publisher) *TableHandler {
	return &TableHandler{svc: svc, pub: pub}
}

// RegisterRoutes registers staff table endpoints, mounted at /tables.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	managers := middleware.RequireRole(enum.UserRoleOwner, enum.UserRoleManager)

	r.Get("/", h.List)
	r.With(middleware.RequireRole(frontOfHouse...)).Post("/{id}/token", h.IssueToken)
	r.With(managers).Post("/", h.Create)
	r.With(managers).Patch("/{id}/disabled", h.SetDisabled)
}

type createTableRequest struct {
	Number int32 `json:"number"`
}

type setDisabledRequest struct {
	Disabled *bool `json:"disabled"`
}

type tableTokenResponse struct {
	Table     tableResponse `json:"table"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// List handles GET /tables.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.ListTables(r.Context())
	if err != nil {
		writeServiceError(w, "list tables", err)
		return
	}
	writeTables(w, tables)
}

// ListAvailable handles the public GET /tables/available used by the
// customer landing page.
func (h *TableHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	tables, err := h.svc.ListAvailableTables(r.Context())
	if err != nil {
		writeServiceError(w, "list available tables", err)
		return
	}
	writeTables(w, tables)
}

// Create handles POST /tables.
func (h *TableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	tbl, err := h.svc.AddTable(r.Context(), req.Number)
	if err != nil {
		writeServiceError(w, "add table", err)
		return
	}
	resp := toTableResponse(tbl)
	publishTable(h.pub, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// SetDisabled handles PATCH /tables/{id}/disabled.
func (h *TableHandler) SetDisabled(w http.ResponseWriter, r *http.Request) {
	tableID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req setDisabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Disabled == nil {
		writeBadRequest(w, "disabled is required")
		return
	}

	tbl, err := h.svc.SetDisabled(r.Context(), tableID, *req.Disabled)
	if err != nil {
		writeServiceError(w, "set table disabled", err)
		return
	}
	resp := toTableResponse(tbl)
	publishTable(h.pub, resp)
	writeJSON(w, http.StatusOK, resp)
}

// IssueToken handles POST /tables/{id}/token and returns the token to embed
// in the table's QR code.
func (h *TableHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	tableID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	tok, err := h.svc.IssueTableToken(r.Context(), tableID)
	if err != nil {
		writeServiceError(w, "issue table token", err)
		return
	}
	writeJSON(w, http.StatusOK, tableTokenResponse{
		Table:     toTableResponse(tok.Table),
		Token:     tok.Token,
		ExpiresAt: tok.ExpiresAt,
	})
}

func writeTables(w http.ResponseWriter, tables []database.DiningTable) {
	resp := make([]tableResponse, len(tables))
	for i, t := range tables {
		resp[i] = toTableResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}
