package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/enum"
	"github.com/kiwari-pos/resto/internal/lifecycle"
	"github.com/shopspring/decimal"
)

// OrderStore defines the DB methods needed by the order lifecycle.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetMenuForOrder(ctx context.Context, id uuid.UUID) (database.GetMenuForOrderRow, error)

	GetTable(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error)

	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetActiveOrderByTable(ctx context.Context, tableID uuid.UUID) (database.Order, error)
	ListActiveOrders(ctx context.Context) ([]database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderTotal(ctx context.Context, arg database.UpdateOrderTotalParams) (database.Order, error)
	RecordOrderPayment(ctx context.Context, arg database.RecordOrderPaymentParams) (database.Order, error)
	CreateOrderAuditLog(ctx context.Context, arg database.CreateOrderAuditLogParams) (database.OrderAuditLog, error)

	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	UpdateOrderItemReadiness(ctx context.Context, arg database.UpdateOrderItemReadinessParams) (database.OrderItem, error)
	ServeAllOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error)
	CountOrderItemReadiness(ctx context.Context, orderID uuid.UUID) (database.CountOrderItemReadinessRow, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderItemRequest is a single line of a new or replaced item set.
type OrderItemRequest struct {
	MenuID   string
	Quantity int32
	Notes    string
}

// CreateOrderRequest is the input for creating an order.
type CreateOrderRequest struct {
	OrderType    enum.OrderType
	TableID      string
	CustomerName string
	Source       enum.OrderSource
	CreatedBy    uuid.UUID // uuid.Nil for customer-entered orders
	Items        []OrderItemRequest
}

// ReplaceItemsRequest swaps an order's whole item set.
type ReplaceItemsRequest struct {
	OrderID uuid.UUID
	Items   []OrderItemRequest
}

// ToggleItemRequest sets the readiness of one item.
type ToggleItemRequest struct {
	OrderID   uuid.UUID
	ItemID    uuid.UUID
	Readiness enum.ItemReadiness
}

// RecordPaymentRequest records the payment of an order. AmountTendered is
// read only for methods that require a tender.
type RecordPaymentRequest struct {
	OrderID        uuid.UUID
	Method         enum.PaymentMethod
	AmountTendered string
	TableScope     uuid.UUID
}

// VacateRequest frees an order's table. Force vacates an unpaid order and is
// limited to owners and managers.
type VacateRequest struct {
	OrderID   uuid.UUID
	Force     bool
	Reason    string
	ActorID   uuid.UUID
	ActorRole enum.UserRole
}

// OrderDetail is an order with its items.
type OrderDetail struct {
	Order database.Order
	Items []database.OrderItem
	// Table is set when the operation changed the order's table row.
	Table *database.DiningTable
	// AlreadyPaid is set by RecordPayment when the payment had been recorded
	// before; Order then carries the original payment facts.
	AlreadyPaid bool
}

// OrderService handles order business logic.
type OrderService struct {
	db       DB
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(db DB, newStore NewOrderStore) *OrderService {
	return &OrderService{db: db, newStore: newStore}
}

// parsedItem is a validated OrderItemRequest.
type parsedItem struct {
	menuID   uuid.UUID
	quantity int32
	notes    pgtype.Text
}

// CreateOrder admits a new order. A dine-in order takes its table: the table
// must be Available with no active order, checked once up front and again
// under the table's row lock right before the insert.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderDetail, error) {
	if !req.OrderType.Valid() {
		return nil, ErrInvalidOrderType
	}
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, ErrCustomerName
	}
	items, err := parseItems(req.Items)
	if err != nil {
		return nil, err
	}

	var tableID uuid.UUID
	switch req.OrderType {
	case enum.OrderTypeDineIn:
		if req.TableID == "" {
			return nil, ErrTableRequired
		}
		tableID, err = uuid.Parse(req.TableID)
		if err != nil {
			return nil, ErrInvalidTableID
		}
		tbl, err := retryRead(ctx, func() (database.DiningTable, error) {
			return s.newStore(s.db).GetTable(ctx, tableID)
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrTableNotFound
			}
			return nil, fmt.Errorf("get table: %w", err)
		}
		if tbl.Status != enum.TableStatusAvailable {
			return nil, fmt.Errorf("table %d is %s: %w", tbl.Number, tbl.Status, ErrTableUnavailable)
		}
	case enum.OrderTypeTakeaway:
		if req.TableID != "" {
			return nil, ErrTableNotAllowed
		}
	}

	source := req.Source
	if source == "" {
		source = enum.OrderSourceStaff
	}
	createdBy := pgtype.UUID{}
	if req.CreatedBy != uuid.Nil {
		createdBy = pgtype.UUID{Bytes: req.CreatedBy, Valid: true}
	}

	var result *OrderDetail
	err = runInTx(ctx, s.db, func(tx pgx.Tx) error {
		store := s.newStore(tx)

		orderTable := pgtype.UUID{}
		if req.OrderType == enum.OrderTypeDineIn {
			if err := admitTable(ctx, store, tableID); err != nil {
				return err
			}
			orderTable = pgtype.UUID{Bytes: tableID, Valid: true}
		}

		lines, total, err := priceItems(ctx, store, items)
		if err != nil {
			return err
		}

		order, err := store.CreateOrder(ctx, database.CreateOrderParams{
			OrderType:    req.OrderType,
			TableID:      orderTable,
			CustomerName: name,
			Source:       source,
			TotalAmount:  decimalToNumeric(total),
			CreatedBy:    createdBy,
		})
		if err != nil {
			if isActiveTableConflict(err) {
				return fmt.Errorf("table has an active order: %w", ErrTableUnavailable)
			}
			return fmt.Errorf("create order: %w", err)
		}

		created, err := insertItems(ctx, store, order.ID, lines)
		if err != nil {
			return err
		}
		result = &OrderDetail{Order: order, Items: created}

		if orderTable.Valid {
			tbl, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
				ID:     tableID,
				Status: enum.TableStatusOccupied,
			})
			if err != nil {
				return fmt.Errorf("occupy table: %w", err)
			}
			result.Table = &tbl
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// admitTable locks the table row and re-checks that the table can take a new order.
func admitTable(ctx context.Context, store OrderStore, tableID uuid.UUID) error {
	tbl, err := store.GetTableForUpdate(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTableNotFound
		}
		return fmt.Errorf("lock table: %w", err)
	}
	if tbl.Status != enum.TableStatusAvailable {
		return fmt.Errorf("table %d is %s: %w", tbl.Number, tbl.Status, ErrTableUnavailable)
	}
	active, err := store.GetActiveOrderByTable(ctx, tableID)
	switch {
	case err == nil:
		return fmt.Errorf("table %d has active order %s: %w", tbl.Number, active.ID, ErrTableUnavailable)
	case !errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("get active order: %w", err)
	}
	return nil
}

// ReplaceItems swaps the whole item set of an unpaid, non-terminal order and
// recomputes its total. The order status is left as it is.
func (s *OrderService) ReplaceItems(ctx context.Context, req ReplaceItemsRequest) (*OrderDetail, error) {
	items, err := parseItems(req.Items)
	if err != nil {
		return nil, err
	}

	var result *OrderDetail
	err = runInTx(ctx, s.db, func(tx pgx.Tx) error {
		store := s.newStore(tx)

		order, err := lockOrder(ctx, store, req.OrderID, uuid.Nil)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return fmt.Errorf("edit %s order: %w", order.Status, ErrInvalidState)
		}
		if order.PaymentStatus == enum.PaymentStatusLunas {
			return fmt.Errorf("edit paid order: %w", ErrInvalidState)
		}

		lines, total, err := priceItems(ctx, store, items)
		if err != nil {
			return err
		}
		if _, err := store.DeleteOrderItemsByOrder(ctx, order.ID); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		created, err := insertItems(ctx, store, order.ID, lines)
		if err != nil {
			return err
		}
		order, err = store.UpdateOrderTotal(ctx, database.UpdateOrderTotalParams{
			ID:          order.ID,
			TotalAmount: decimalToNumeric(total),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("update total: %w", ErrInvalidState)
			}
			return fmt.Errorf("update total: %w", err)
		}
		result = &OrderDetail{Order: order, Items: created}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ToggleItemReadiness records one item's readiness and re-derives the order status.
func (s *OrderService) ToggleItemReadiness(ctx context.Context, req ToggleItemRequest) (*OrderDetail, error) {
	if !req.Readiness.Valid() {
		return nil, invalid("invalid readiness")
	}

	var result *OrderDetail
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		store := s.newStore(tx)

		order, err := lockOrder(ctx, store, req.OrderID, uuid.Nil)
		if err != nil {
			return err
		}
		if _, err := store.UpdateOrderItemReadiness(ctx, database.UpdateOrderItemReadinessParams{
			ID:        req.ItemID,
			OrderID:   order.ID,
			Readiness: req.Readiness,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderItemNotFound
			}
			return fmt.Errorf("update item readiness: %w", err)
		}

		facts, err := loadFacts(ctx, store, order)
		if err != nil {
			return err
		}
		out, err := lifecycle.Next(facts, lifecycle.ActionItemToggle)
		if err != nil {
			return err
		}
		result, err = applyOutcome(ctx, store, order, out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkReady serves every item of the order at once.
func (s *OrderService) MarkReady(ctx context.Context, orderID uuid.UUID) (*OrderDetail, error) {
	return s.transition(ctx, orderID, uuid.Nil, lifecycle.ActionMarkAllReady)
}

// CancelOrder cancels an unpaid, non-terminal order and frees its table.
// A non-nil tableScope limits the call to orders on that table.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, tableScope uuid.UUID) (*OrderDetail, error) {
	return s.transition(ctx, orderID, tableScope, lifecycle.ActionCancel)
}

func (s *OrderService) transition(ctx context.Context, orderID, scope uuid.UUID, action lifecycle.Action) (*OrderDetail, error) {
	var result *OrderDetail
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		store := s.newStore(tx)

		order, err := lockOrder(ctx, store, orderID, scope)
		if err != nil {
			return err
		}
		facts, err := loadFacts(ctx, store, order)
		if err != nil {
			return err
		}
		out, err := lifecycle.Next(facts, action)
		if err != nil {
			return err
		}
		result, err = applyOutcome(ctx, store, order, out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordPayment records payment once. Paying an already paid order returns
// the stored payment facts untouched with AlreadyPaid set.
func (s *OrderService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*OrderDetail, error) {
	if !req.Method.Valid() {
		return nil, ErrInvalidPayment
	}
	var tendered decimal.Decimal
	if req.Method.RequiresTender() {
		if req.AmountTendered == "" {
			return nil, ErrInvalidAmount
		}
		d, err := decimal.NewFromString(req.AmountTendered)
		if err != nil || d.IsNegative() {
			return nil, ErrInvalidAmount
		}
		tendered = d
	}

	var result *OrderDetail
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		store := s.newStore(tx)

		order, err := lockOrder(ctx, store, req.OrderID, req.TableScope)
		if err != nil {
			return err
		}
		facts, err := loadFacts(ctx, store, order)
		if err != nil {
			return err
		}
		out, err := lifecycle.Next(facts, lifecycle.ActionRecordPayment)
		if errors.Is(err, lifecycle.ErrAlreadyPaid) {
			result, err = loadDetail(ctx, store, order)
			if err != nil {
				return err
			}
			result.AlreadyPaid = true
			return nil
		}
		if err != nil {
			return err
		}

		total := numericToDecimal(order.TotalAmount)
		paid, change := total, decimal.Zero
		if req.Method.RequiresTender() {
			if tendered.LessThan(total) {
				return fmt.Errorf("tendered %s, total %s: %w",
					tendered.StringFixed(2), total.StringFixed(2), ErrAmountInsufficient)
			}
			paid, change = tendered, tendered.Sub(total)
		}

		order, err = store.RecordOrderPayment(ctx, database.RecordOrderPaymentParams{
			ID:             order.ID,
			PaymentMethod:  req.Method,
			AmountTendered: decimalToNumeric(paid),
			ChangeDue:      decimalToNumeric(change),
			Status:         out.Status,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("record payment: %w", ErrInvalidState)
			}
			return fmt.Errorf("record payment: %w", err)
		}

		result, err = loadDetail(ctx, store, order)
		if err != nil {
			return err
		}
		if out.ReleaseTable {
			tbl, err := releaseTable(ctx, store, order)
			if err != nil {
				return err
			}
			result.Table = tbl
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// VacateTable completes a dine-in order and frees its table. An unpaid order
// needs Force, which is audited.
func (s *OrderService) VacateTable(ctx context.Context, req VacateRequest) (*OrderDetail, error) {
	var (
		result *OrderDetail
		forced bool
	)
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		forced = false
		store := s.newStore(tx)

		order, err := lockOrder(ctx, store, req.OrderID, uuid.Nil)
		if err != nil {
			return err
		}
		facts, err := loadFacts(ctx, store, order)
		if err != nil {
			return err
		}

		action := lifecycle.ActionVacate
		if req.Force && order.PaymentStatus != enum.PaymentStatusLunas {
			if req.ActorRole != enum.UserRoleOwner && req.ActorRole != enum.UserRoleManager {
				return fmt.Errorf("force vacate requires owner or manager: %w", ErrForbidden)
			}
			if strings.TrimSpace(req.Reason) == "" {
				return ErrReasonRequired
			}
			action = lifecycle.ActionForceVacate
			forced = true
		}

		out, err := lifecycle.Next(facts, action)
		if err != nil {
			return err
		}
		if forced {
			actor := pgtype.UUID{}
			if req.ActorID != uuid.Nil {
				actor = pgtype.UUID{Bytes: req.ActorID, Valid: true}
			}
			if _, err := store.CreateOrderAuditLog(ctx, database.CreateOrderAuditLogParams{
				OrderID: order.ID,
				Action:  enum.AuditActionForceVacate,
				ActorID: actor,
				Reason:  pgtype.Text{String: strings.TrimSpace(req.Reason), Valid: true},
			}); err != nil {
				return fmt.Errorf("create audit log: %w", err)
			}
		}
		result, err = applyOutcome(ctx, store, order, out)
		return err
	})
	if err != nil {
		return nil, err
	}
	if forced {
		log.Printf("WARN: unpaid order %s force-vacated by %s (%s): %s",
			req.OrderID, req.ActorID, req.ActorRole, req.Reason)
	}
	return result, nil
}

// GetOrder returns an order with its items. A non-nil tableScope hides orders
// of other tables.
func (s *OrderService) GetOrder(ctx context.Context, orderID, tableScope uuid.UUID) (*OrderDetail, error) {
	store := s.newStore(s.db)
	order, err := retryRead(ctx, func() (database.Order, error) {
		return store.GetOrder(ctx, orderID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !inScope(order, tableScope) {
		return nil, ErrOrderNotFound
	}
	items, err := retryRead(ctx, func() ([]database.OrderItem, error) {
		return store.ListOrderItemsByOrder(ctx, order.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &OrderDetail{Order: order, Items: items}, nil
}

// ListActiveOrders returns every non-terminal order, oldest first.
func (s *OrderService) ListActiveOrders(ctx context.Context) ([]OrderDetail, error) {
	store := s.newStore(s.db)
	orders, err := retryRead(ctx, func() ([]database.Order, error) {
		return store.ListActiveOrders(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	result := make([]OrderDetail, 0, len(orders))
	for _, o := range orders {
		items, err := retryRead(ctx, func() ([]database.OrderItem, error) {
			return store.ListOrderItemsByOrder(ctx, o.ID)
		})
		if err != nil {
			return nil, fmt.Errorf("list order items: %w", err)
		}
		result = append(result, OrderDetail{Order: o, Items: items})
	}
	return result, nil
}

// --- Helpers ---

// lockOrder takes the order's row lock. It is the first lock of every order
// mutation.
func lockOrder(ctx context.Context, store OrderStore, id, scope uuid.UUID) (database.Order, error) {
	order, err := store.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("lock order: %w", err)
	}
	if !inScope(order, scope) {
		return database.Order{}, ErrOrderNotFound
	}
	return order, nil
}

func inScope(order database.Order, tableScope uuid.UUID) bool {
	if tableScope == uuid.Nil {
		return true
	}
	return order.TableID.Valid && uuid.UUID(order.TableID.Bytes) == tableScope
}

// loadFacts reads readiness counts; callers hold the order lock.
func loadFacts(ctx context.Context, store OrderStore, order database.Order) (lifecycle.Facts, error) {
	counts, err := store.CountOrderItemReadiness(ctx, order.ID)
	if err != nil {
		return lifecycle.Facts{}, fmt.Errorf("count item readiness: %w", err)
	}
	return lifecycle.Facts{
		Status:  order.Status,
		Payment: order.PaymentStatus,
		Type:    order.OrderType,
		Served:  int(counts.Served),
		Total:   int(counts.Total),
	}, nil
}

// applyOutcome persists a status-only outcome and releases the table when asked.
func applyOutcome(ctx context.Context, store OrderStore, order database.Order, out lifecycle.Outcome) (*OrderDetail, error) {
	if out.ServeAll {
		if _, err := store.ServeAllOrderItems(ctx, order.ID); err != nil {
			return nil, fmt.Errorf("serve all items: %w", err)
		}
	}
	if out.Status != order.Status {
		updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:     order.ID,
			Status: out.Status,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("update status: %w", ErrInvalidState)
			}
			return nil, fmt.Errorf("update status: %w", err)
		}
		order = updated
	}

	detail, err := loadDetail(ctx, store, order)
	if err != nil {
		return nil, err
	}
	if out.ReleaseTable {
		tbl, err := releaseTable(ctx, store, order)
		if err != nil {
			return nil, err
		}
		detail.Table = tbl
	}
	return detail, nil
}

func releaseTable(ctx context.Context, store OrderStore, order database.Order) (*database.DiningTable, error) {
	if !order.TableID.Valid {
		return nil, nil
	}
	tbl, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
		ID:     uuid.UUID(order.TableID.Bytes),
		Status: enum.TableStatusAvailable,
	})
	if err != nil {
		return nil, fmt.Errorf("release table: %w", err)
	}
	return &tbl, nil
}

func loadDetail(ctx context.Context, store OrderStore, order database.Order) (*OrderDetail, error) {
	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &OrderDetail{Order: order, Items: items}, nil
}

func parseItems(reqs []OrderItemRequest) ([]parsedItem, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyItems
	}
	items := make([]parsedItem, 0, len(reqs))
	for i, item := range reqs {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		menuID, err := uuid.Parse(item.MenuID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidMenuID)
		}
		notes := pgtype.Text{}
		if n := strings.TrimSpace(item.Notes); n != "" {
			notes = pgtype.Text{String: n, Valid: true}
		}
		items = append(items, parsedItem{menuID: menuID, quantity: item.Quantity, notes: notes})
	}
	return items, nil
}

// priceItems snapshots the catalog price of every line. The returned params
// have no OrderID yet.
func priceItems(ctx context.Context, store OrderStore, items []parsedItem) ([]database.CreateOrderItemParams, decimal.Decimal, error) {
	total := decimal.Zero
	lines := make([]database.CreateOrderItemParams, 0, len(items))
	for i, item := range items {
		menu, err := store.GetMenuForOrder(ctx, item.menuID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrMenuNotFound)
			}
			return nil, decimal.Zero, fmt.Errorf("item[%d]: get menu: %w", i, err)
		}
		if !menu.IsAvailable {
			return nil, decimal.Zero, fmt.Errorf("item[%d]: %w", i, ErrMenuUnavailable)
		}

		unitPrice := numericToDecimal(menu.Price)
		subtotal := unitPrice.Mul(decimal.NewFromInt32(item.quantity))
		total = total.Add(subtotal)

		lines = append(lines, database.CreateOrderItemParams{
			MenuID:    item.menuID,
			Quantity:  item.quantity,
			UnitPrice: decimalToNumeric(unitPrice),
			Subtotal:  decimalToNumeric(subtotal),
			Notes:     item.notes,
		})
	}
	return lines, total, nil
}

func insertItems(ctx context.Context, store OrderStore, orderID uuid.UUID, lines []database.CreateOrderItemParams) ([]database.OrderItem, error) {
	created := make([]database.OrderItem, 0, len(lines))
	for _, line := range lines {
		line.OrderID = orderID
		item, err := store.CreateOrderItem(ctx, line)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		created = append(created, item)
	}
	return created, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
