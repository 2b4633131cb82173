package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/resto/internal/enum"
)

const orderItemColumns = `id, order_id, menu_id, quantity, unit_price, subtotal, readiness, notes, created_at, updated_at`

func scanOrderItem(row interface{ Scan(...any) error }) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuID,
		&i.Quantity,
		&i.UnitPrice,
		&i.Subtotal,
		&i.Readiness,
		&i.Notes,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrderItem = `INSERT INTO order_items (order_id, menu_id, quantity, unit_price, subtotal, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderItemColumns

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	MenuID    uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Subtotal  pgtype.Numeric
	Notes     pgtype.Text
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuID,
		arg.Quantity,
		arg.UnitPrice,
		arg.Subtotal,
		arg.Notes,
	))
}

const getOrderItem = `SELECT ` + orderItemColumns + `
FROM order_items
WHERE id = $1 AND order_id = $2`

type GetOrderItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) GetOrderItem(ctx context.Context, arg GetOrderItemParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, getOrderItem, arg.ID, arg.OrderID))
}

const listOrderItemsByOrder = `SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = $1
ORDER BY created_at, id`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteOrderItemsByOrder = `DELETE FROM order_items WHERE order_id = $1`

func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteOrderItemsByOrder, orderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const updateOrderItemReadiness = `UPDATE order_items
SET readiness = $3, updated_at = now()
WHERE id = $1 AND order_id = $2
RETURNING ` + orderItemColumns

type UpdateOrderItemReadinessParams struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Readiness enum.ItemReadiness
}

func (q *Queries) UpdateOrderItemReadiness(ctx context.Context, arg UpdateOrderItemReadinessParams) (OrderItem, error) {
	return scanOrderItem(q.db.QueryRow(ctx, updateOrderItemReadiness, arg.ID, arg.OrderID, arg.Readiness))
}

const serveAllOrderItems = `UPDATE order_items
SET readiness = 'SERVED', updated_at = now()
WHERE order_id = $1 AND readiness <> 'SERVED'`

func (q *Queries) ServeAllOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, serveAllOrderItems, orderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const countOrderItemReadiness = `SELECT
    COUNT(*) FILTER (WHERE readiness = 'SERVED') AS served,
    COUNT(*) AS total
FROM order_items
WHERE order_id = $1`

type CountOrderItemReadinessRow struct {
	Served int64
	Total  int64
}

func (q *Queries) CountOrderItemReadiness(ctx context.Context, orderID uuid.UUID) (CountOrderItemReadinessRow, error) {
	row := q.db.QueryRow(ctx, countOrderItemReadiness, orderID)
	var i CountOrderItemReadinessRow
	err := row.Scan(&i.Served, &i.Total)
	return i, err
}
