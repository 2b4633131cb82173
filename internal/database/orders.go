package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/resto/internal/enum"
)

const orderColumns = `id, order_type, table_id, customer_name, source, status, payment_status,
	payment_method, amount_tendered, change_due, total_amount, created_by,
	created_at, updated_at, paid_at, completed_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.OrderType,
		&o.TableID,
		&o.CustomerName,
		&o.Source,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.AmountTendered,
		&o.ChangeDue,
		&o.TotalAmount,
		&o.CreatedBy,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.PaidAt,
		&o.CompletedAt,
	)
	return o, err
}

const createOrder = `INSERT INTO orders (order_type, table_id, customer_name, source, total_amount, created_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	OrderType    enum.OrderType
	TableID      pgtype.UUID
	CustomerName string
	Source       enum.OrderSource
	TotalAmount  pgtype.Numeric
	CreatedBy    pgtype.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder,
		arg.OrderType,
		arg.TableID,
		arg.CustomerName,
		arg.Source,
		arg.TotalAmount,
		arg.CreatedBy,
	))
}

const getOrder = `SELECT ` + orderColumns + `
FROM orders
WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
FOR UPDATE`

// GetOrderForUpdate locks the order row. Callers that also lock the order's
// table must take this lock first.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const getActiveOrderByTable = `SELECT ` + orderColumns + `
FROM orders
WHERE table_id = $1 AND status NOT IN ('SELESAI', 'DIBATALKAN')`

func (q *Queries) GetActiveOrderByTable(ctx context.Context, tableID uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getActiveOrderByTable, tableID))
}

const listActiveOrders = `SELECT ` + orderColumns + `
FROM orders
WHERE status NOT IN ('SELESAI', 'DIBATALKAN')
ORDER BY created_at`

func (q *Queries) ListActiveOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, listActiveOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

const updateOrderStatus = `UPDATE orders
SET status = $2,
    updated_at = now(),
    completed_at = CASE WHEN $2 IN ('SELESAI', 'DIBATALKAN') THEN now() ELSE completed_at END
WHERE id = $1 AND status NOT IN ('SELESAI', 'DIBATALKAN')
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status enum.OrderStatus
}

// UpdateOrderStatus never moves an order out of a terminal status; such a
// row yields pgx.ErrNoRows.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status))
}

const recordOrderPayment = `UPDATE orders
SET payment_status = 'LUNAS',
    payment_method = $2,
    amount_tendered = $3,
    change_due = $4,
    status = $5,
    paid_at = now(),
    updated_at = now(),
    completed_at = CASE WHEN $5 IN ('SELESAI', 'DIBATALKAN') THEN now() ELSE completed_at END
WHERE id = $1 AND payment_status = 'BELUM_LUNAS' AND status NOT IN ('SELESAI', 'DIBATALKAN')
RETURNING ` + orderColumns

type RecordOrderPaymentParams struct {
	ID             uuid.UUID
	PaymentMethod  enum.PaymentMethod
	AmountTendered pgtype.Numeric
	ChangeDue      pgtype.Numeric
	Status         enum.OrderStatus
}

// RecordOrderPayment writes the payment facts once; a second call on the
// same order yields pgx.ErrNoRows.
func (q *Queries) RecordOrderPayment(ctx context.Context, arg RecordOrderPaymentParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, recordOrderPayment,
		arg.ID,
		arg.PaymentMethod,
		arg.AmountTendered,
		arg.ChangeDue,
		arg.Status,
	))
}

const updateOrderTotal = `UPDATE orders
SET total_amount = $2, updated_at = now()
WHERE id = $1 AND payment_status = 'BELUM_LUNAS' AND status NOT IN ('SELESAI', 'DIBATALKAN')
RETURNING ` + orderColumns

type UpdateOrderTotalParams struct {
	ID          uuid.UUID
	TotalAmount pgtype.Numeric
}

func (q *Queries) UpdateOrderTotal(ctx context.Context, arg UpdateOrderTotalParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderTotal, arg.ID, arg.TotalAmount))
}

const createOrderAuditLog = `INSERT INTO order_audit_log (order_id, action, actor_id, reason)
VALUES ($1, $2, $3, $4)
RETURNING id, order_id, action, actor_id, reason, created_at`

type CreateOrderAuditLogParams struct {
	OrderID uuid.UUID
	Action  string
	ActorID pgtype.UUID
	Reason  pgtype.Text
}

func (q *Queries) CreateOrderAuditLog(ctx context.Context, arg CreateOrderAuditLogParams) (OrderAuditLog, error) {
	row := q.db.QueryRow(ctx, createOrderAuditLog,
		arg.OrderID,
		arg.Action,
		arg.ActorID,
		arg.Reason,
	)
	var i OrderAuditLog
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Action,
		&i.ActorID,
		&i.Reason,
		&i.CreatedAt,
	)
	return i, err
}
