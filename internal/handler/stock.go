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

// StockServicer is satisfied by *service.StockService.
type StockServicer interface {
	RecordPurchase(ctx context.Context, lines []service.PurchaseLine, actor uuid.UUID) ([]database.StockBatch, error)
	RecordDamage(ctx context.Context, lines []service.DamageLine, reason string, actor uuid.UUID) ([]service.DamageResult, error)
	Alerts(ctx context.Context, now time.Time) (*service.StockAlerts, error)
	Recipe(ctx context.Context, menuID uuid.UUID) ([]database.ListRecipeByMenuRow, error)
}

type StockHandler struct {
	svc StockServicer
	now func() time.Time
}

func NewStockHandler(svc StockServicer) *StockHandler {
	return &StockHandler{svc: svc, now: time.Now}
}

// RegisterRoutes registers stock endpoints, mounted at /stock.
func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Get("/alerts", h.Alerts)
	r.Get("/recipes/{menuID}", h.Recipe)
	r.With(middleware.RequireRole(enum.UserRoleOwner, enum.UserRoleManager)).
		Post("/purchases", h.RecordPurchase)
	r.With(middleware.RequireRole(enum.UserRoleOwner, enum.UserRoleManager, enum.UserRoleKitchen)).
		Post("/damages", h.RecordDamage)
}

type purchaseRequest struct {
	Lines []struct {
		IngredientID string `json:"ingredient_id"`
		Quantity     string `json:"quantity"`
		UnitCost     string `json:"unit_cost"`
		ExpiryDate   string `json:"expiry_date"`
	} `json:"lines"`
}

type damageRequest struct {
	Reason string `json:"reason"`
	Lines  []struct {
		BatchID  string `json:"batch_id"`
		Quantity string `json:"quantity"`
	} `json:"lines"`
}

// RecordPurchase handles POST /stock/purchases.
func (h *StockHandler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	lines := make([]service.PurchaseLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.PurchaseLine{
			IngredientID: l.IngredientID,
			Quantity:     l.Quantity,
			UnitCost:     l.UnitCost,
			ExpiryDate:   l.ExpiryDate,
		}
	}

	batches, err := h.svc.RecordPurchase(r.Context(), lines, claims.UserID)
	if err != nil {
		writeServiceError(w, "record purchase", err)
		return
	}

	resp := make([]batchResponse, len(batches))
	for i, b := range batches {
		resp[i] = toBatchResponse(b)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// RecordDamage handles POST /stock/damages. All lines apply or none do.
func (h *StockHandler) RecordDamage(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req damageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	lines := make([]service.DamageLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.DamageLine{BatchID: l.BatchID, Quantity: l.Quantity}
	}

	results, err := h.svc.RecordDamage(r.Context(), lines, req.Reason, claims.UserID)
	if err != nil {
		writeServiceError(w, "record damage", err)
		return
	}

	resp := make([]damageResponse, len(results))
	for i, res := range results {
		resp[i] = damageResponse{
			ID:         res.Damage.ID,
			BatchID:    res.Damage.BatchID,
			Quantity:   numericToString(res.Damage.Quantity),
			Reason:     res.Damage.Reason,
			RecordedBy: res.Damage.RecordedBy,
			CreatedAt:  res.Damage.CreatedAt,
			Batch:      toBatchResponse(res.Batch),
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Alerts handles GET /stock/alerts.
func (h *StockHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.Alerts(r.Context(), h.now())
	if err != nil {
		writeServiceError(w, "stock alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, toStockAlertsResponse(alerts))
}

// Recipe handles GET /stock/recipes/{menuID}.
func (h *StockHandler) Recipe(w http.ResponseWriter, r *http.Request) {
	menuID, ok := uuidParam(w, r, "menuID")
	if !ok {
		return
	}

	rows, err := h.svc.Recipe(r.Context(), menuID)
	if err != nil {
		writeServiceError(w, "recipe", err)
		return
	}

	resp := make([]recipeLineResponse, len(rows))
	for i, row := range rows {
		resp[i] = recipeLineResponse{
			IngredientID:   row.IngredientID,
			IngredientName: row.IngredientName,
			Unit:           row.Unit,
			Quantity:       numericToString(row.Quantity),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
