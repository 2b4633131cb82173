package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/resto/internal/auth"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/enum"
	"github.com/kiwari-pos/resto/internal/middleware"
	"github.com/kiwari-pos/resto/internal/service"
	"github.com/kiwari-pos/resto/internal/ws"
)

// TableReader looks up the table a customer token points at.
type TableReader interface {
	GetTable(ctx context.Context, tableID uuid.UUID) (database.DiningTable, error)
}

// CustomerHandler serves the self-order flow reached from a table QR code.
// Every order it touches is scoped to the table in the caller's token.
type CustomerHandler struct {
	orders OrderServicer
	tables TableReader
	pub    Publisher
}

func NewCustomerHandler(orders OrderServicer, tables TableReader, pub Publisher) *CustomerHandler {
	return &CustomerHandler{orders: orders, tables: tables, pub: pub}
}

// RegisterRoutes expects to be mounted at /customer behind Authenticate and
// RequireTableToken.
func (h *CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/table", h.Table)
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/{id}", h.GetOrder)
	r.Post("/orders/{id}/payment", h.Pay)
	r.Post("/orders/{id}/cancel", h.Cancel)
}

type customerOrderRequest struct {
	CustomerName string             `json:"customer_name"`
	Items        []orderItemRequest `json:"items"`
}

type customerPaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

func tableClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil || !claims.IsCustomer() {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "table token required"})
		return nil, false
	}
	return claims, true
}

// Table handles GET /customer/table.
func (h *CustomerHandler) Table(w http.ResponseWriter, r *http.Request) {
	claims, ok := tableClaims(w, r)
	if !ok {
		return
	}
	tbl, err := h.tables.GetTable(r.Context(), claims.TableID)
	if err != nil {
		writeServiceError(w, "customer table", err)
		return
	}
	writeJSON(w, http.StatusOK, toTableResponse(tbl))
}

// CreateOrder handles POST /customer/orders. The order is always dine-in on
// the token's table.
func (h *CustomerHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := tableClaims(w, r)
	if !ok {
		return
	}

	var req customerOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	detail, err := h.orders.CreateOrder(r.Context(), service.CreateOrderRequest{
		OrderType:    enum.OrderTypeDineIn,
		TableID:      claims.TableID.String(),
		CustomerName: req.CustomerName,
		Source:       enum.OrderSourceCustomer,
		Items:        toServiceItems(req.Items),
	})
	if err != nil {
		writeServiceError(w, "customer create order", err)
		return
	}

	publishOrder(h.pub, ws.EventOrderCreated, detail)
	writeJSON(w, http.StatusCreated, toOrderResponse(detail))
}

// GetOrder handles GET /customer/orders/{id}.
func (h *CustomerHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := tableClaims(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.orders.GetOrder(r.Context(), orderID, claims.TableID)
	if err != nil {
		writeServiceError(w, "customer get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(detail))
}

// Pay handles POST /customer/orders/{id}/payment. Customers settle digitally;
// cash goes through the cashier.
func (h *CustomerHandler) Pay(w http.ResponseWriter, r *http.Request) {
	claims, ok := tableClaims(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req customerPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	method := enum.PaymentMethod(req.PaymentMethod)
	if !method.Valid() || method.RequiresTender() {
		writeBadRequest(w, "payment_method must be a digital method")
		return
	}

	detail, err := h.orders.RecordPayment(r.Context(), service.RecordPaymentRequest{
		OrderID:    orderID,
		Method:     method,
		TableScope: claims.TableID,
	})
	if err != nil {
		writeServiceError(w, "customer payment", err)
		return
	}
	if !detail.AlreadyPaid {
		publishOrder(h.pub, ws.EventOrderUpdated, detail)
	}
	writeJSON(w, http.StatusOK, toOrderResponse(detail))
}

// Cancel handles POST /customer/orders/{id}/cancel.
func (h *CustomerHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := tableClaims(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.orders.CancelOrder(r.Context(), orderID, claims.TableID)
	if err != nil {
		writeServiceError(w, "customer cancel", err)
		return
	}
	publishOrder(h.pub, ws.EventOrderUpdated, detail)
	writeJSON(w, http.StatusOK, toOrderResponse(detail))
}
