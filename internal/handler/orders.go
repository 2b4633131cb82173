package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/resto/internal/enum"
	"github.com/kiwari-pos/resto/internal/middleware"
	"github.com/kiwari-pos/resto/internal/service"
	"github.com/kiwari-pos/resto/internal/ws"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error)
	ReplaceItems(ctx context.Context, req service.ReplaceItemsRequest) (*service.OrderDetail, error)
	ToggleItemReadiness(ctx context.Context, req service.ToggleItemRequest) (*service.OrderDetail, error)
	MarkReady(ctx context.Context, orderID uuid.UUID) (*service.OrderDetail, error)
	CancelOrder(ctx context.Context, orderID, tableScope uuid.UUID) (*service.OrderDetail, error)
	RecordPayment(ctx context.Context, req service.RecordPaymentRequest) (*service.OrderDetail, error)
	VacateTable(ctx context.Context, req service.VacateRequest) (*service.OrderDetail, error)
	GetOrder(ctx context.Context, orderID, tableScope uuid.UUID) (*service.OrderDetail, error)
	ListActiveOrders(ctx context.Context) ([]service.OrderDetail, error)
}

// Roles allowed to take orders and money.
var frontOfHouse = []enum.UserRole{enum.UserRoleOwner, enum.UserRoleManager, enum.UserRoleCashier}

// OrderHandler handles staff order endpoints.
type OrderHandler struct {
	svc OrderServicer
	pub Publisher
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, pub Publisher) *OrderHandler {
	return &OrderHandler{svc: svc, pub: pub}
}

// RegisterRoutes registers order endpoints. Expected to be mounted at /orders
// behind Authenticate and RequireStaff.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	foh := middleware.RequireRole(frontOfHouse...)

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/items/{itemID}", h.ToggleItem)
	r.Post("/{id}/ready", h.MarkReady)

	r.With(foh).Post("/", h.Create)
	r.With(foh).Put("/{id}/items", h.ReplaceItems)
	r.With(foh).Post("/{id}/payment", h.RecordPayment)
	r.With(foh).Post("/{id}/cancel", h.Cancel)
	r.With(foh).Post("/{id}/vacate", h.Vacate)
}

// --- Request types ---

type orderItemRequest struct {
	MenuID   string `json:"menu_id"`
	Quantity int32  `json:"quantity"`
	Notes    string `json:"notes"`
}

type createOrderRequest struct {
	OrderType    string             `json:"order_type"`
	TableID      string             `json:"table_id"`
	CustomerName string             `json:"customer_name"`
	Items        []orderItemRequest `json:"items"`
}

type replaceItemsRequest struct {
	Items []orderItemRequest `json:"items"`
}

type toggleItemRequest struct {
	Readiness string `json:"readiness"`
}

type paymentRequest struct {
	PaymentMethod  string `json:"payment_method"`
	AmountTendered string `json:"amount_tendered"`
}

type vacateRequest struct {
	Force  bool   `json:"force"`
	Reason string `json:"reason"`
}

func toServiceItems(items []orderItemRequest) []service.OrderItemRequest {
	out := make([]service.OrderItemRequest, len(items))
	for i, it := range items {
		out[i] = service.OrderItemRequest{MenuID: it.MenuID, Quantity: it.Quantity, Notes: it.Notes}
	}
	return out
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	detail, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		OrderType:    enum.OrderType(req.OrderType),
		TableID:      req.TableID,
		CustomerName: req.CustomerName,
		Source:       enum.OrderSourceStaff,
		CreatedBy:    claims.UserID,
		Items:        toServiceItems(req.Items),
	})
	if err != nil {
		writeServiceError(w, "create order", err)
		return
	}

	publishOrder(h.pub, ws.EventOrderCreated, detail)
	writeJSON(w, http.StatusCreated, toOrderResponse(detail))
}

// List handles GET /orders and returns every non-terminal order.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.ListActiveOrders(r.Context())
	if err != nil {
		writeServiceError(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(details))
	for i := range details {
		resp[i] = toOrderResponse(&details[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetOrder(r.Context(), orderID, uuid.Nil)
	if err != nil {
		writeServiceError(w, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(detail))
}

// ReplaceItems handles PUT /orders/{id}/items.
func (h *OrderHandler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req replaceItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	detail, err := h.svc.ReplaceItems(r.Context(), service.ReplaceItemsRequest{
		OrderID: orderID,
		Items:   toServiceItems(req.Items),
	})
	h.respond(w, "replace items", detail, err)
}

// ToggleItem handles PATCH /orders/{id}/items/{itemID}.
func (h *OrderHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	var req toggleItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	detail, err := h.svc.ToggleItemReadiness(r.Context(), service.ToggleItemRequest{
		OrderID:   orderID,
		ItemID:    itemID,
		Readiness: enum.ItemReadiness(req.Readiness),
	})
	h.respond(w, "toggle item", detail, err)
}

// MarkReady handles POST /orders/{id}/ready.
func (h *OrderHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.svc.MarkReady(r.Context(), orderID)
	h.respond(w, "mark ready", detail, err)
}

// RecordPayment handles POST /orders/{id}/payment.
func (h *OrderHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	detail, err := h.svc.RecordPayment(r.Context(), service.RecordPaymentRequest{
		OrderID:        orderID,
		Method:         enum.PaymentMethod(req.PaymentMethod),
		AmountTendered: req.AmountTendered,
	})
	h.respond(w, "record payment", detail, err)
}

// Cancel handles POST /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.svc.CancelOrder(r.Context(), orderID, uuid.Nil)
	h.respond(w, "cancel order", detail, err)
}

// Vacate handles POST /orders/{id}/vacate. The body is optional; force with a
// reason is required to vacate an unpaid order.
func (h *OrderHandler) Vacate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req vacateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid request body")
		return
	}

	detail, err := h.svc.VacateTable(r.Context(), service.VacateRequest{
		OrderID:   orderID,
		Force:     req.Force,
		Reason:    req.Reason,
		ActorID:   claims.UserID,
		ActorRole: claims.Role,
	})
	h.respond(w, "vacate table", detail, err)
}

// respond writes the result of a mutation and publishes it. A repeated
// payment changes nothing, so nothing is published.
func (h *OrderHandler) respond(w http.ResponseWriter, op string, detail *service.OrderDetail, err error) {
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if !detail.AlreadyPaid {
		publishOrder(h.pub, ws.EventOrderUpdated, detail)
	}
	writeJSON(w, http.StatusOK, toOrderResponse(detail))
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeBadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
