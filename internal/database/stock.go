package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getIngredient = `SELECT id, name, unit, min_stock, expiry_warning_days, created_at
FROM ingredients
WHERE id = $1`

func (q *Queries) GetIngredient(ctx context.Context, id uuid.UUID) (Ingredient, error) {
	row := q.db.QueryRow(ctx, getIngredient, id)
	var i Ingredient
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Unit,
		&i.MinStock,
		&i.ExpiryWarningDays,
		&i.CreatedAt,
	)
	return i, err
}

const stockBatchColumns = `id, ingredient_id, quantity, unit_cost, expiry_date, recorded_by, created_at`

func scanStockBatch(row interface{ Scan(...any) error }) (StockBatch, error) {
	var b StockBatch
	err := row.Scan(
		&b.ID,
		&b.IngredientID,
		&b.Quantity,
		&b.UnitCost,
		&b.ExpiryDate,
		&b.RecordedBy,
		&b.CreatedAt,
	)
	return b, err
}

const createStockBatch = `INSERT INTO stock_batches (ingredient_id, quantity, unit_cost, expiry_date, recorded_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + stockBatchColumns

type CreateStockBatchParams struct {
	IngredientID uuid.UUID
	Quantity     pgtype.Numeric
	UnitCost     pgtype.Numeric
	ExpiryDate   pgtype.Date
	RecordedBy   uuid.UUID
}

func (q *Queries) CreateStockBatch(ctx context.Context, arg CreateStockBatchParams) (StockBatch, error) {
	return scanStockBatch(q.db.QueryRow(ctx, createStockBatch,
		arg.IngredientID,
		arg.Quantity,
		arg.UnitCost,
		arg.ExpiryDate,
		arg.RecordedBy,
	))
}

const getStockBatch = `SELECT ` + stockBatchColumns + `
FROM stock_batches
WHERE id = $1`

func (q *Queries) GetStockBatch(ctx context.Context, id uuid.UUID) (StockBatch, error) {
	return scanStockBatch(q.db.QueryRow(ctx, getStockBatch, id))
}

const decrementStockBatch = `UPDATE stock_batches
SET quantity = quantity - $2
WHERE id = $1 AND quantity >= $2
RETURNING ` + stockBatchColumns

type DecrementStockBatchParams struct {
	ID       uuid.UUID
	Quantity pgtype.Numeric
}

// DecrementStockBatch subtracts Quantity only if the batch still holds at
// least that much. A batch that is missing or short yields pgx.ErrNoRows.
func (q *Queries) DecrementStockBatch(ctx context.Context, arg DecrementStockBatchParams) (StockBatch, error) {
	return scanStockBatch(q.db.QueryRow(ctx, decrementStockBatch, arg.ID, arg.Quantity))
}

const createStockDamage = `INSERT INTO stock_damages (batch_id, quantity, reason, recorded_by)
VALUES ($1, $2, $3, $4)
RETURNING id, batch_id, quantity, reason, recorded_by, created_at`

type CreateStockDamageParams struct {
	BatchID    uuid.UUID
	Quantity   pgtype.Numeric
	Reason     string
	RecordedBy uuid.UUID
}

func (q *Queries) CreateStockDamage(ctx context.Context, arg CreateStockDamageParams) (StockDamage, error) {
	row := q.db.QueryRow(ctx, createStockDamage,
		arg.BatchID,
		arg.Quantity,
		arg.Reason,
		arg.RecordedBy,
	)
	var i StockDamage
	err := row.Scan(
		&i.ID,
		&i.BatchID,
		&i.Quantity,
		&i.Reason,
		&i.RecordedBy,
		&i.CreatedAt,
	)
	return i, err
}

const listLowStockIngredients = `SELECT i.id, i.name, i.unit, i.min_stock,
    COALESCE(SUM(b.quantity), 0)::NUMERIC(12,2) AS available
FROM ingredients i
LEFT JOIN stock_batches b
    ON b.ingredient_id = i.id
   AND (b.expiry_date IS NULL OR b.expiry_date >= $1::DATE)
GROUP BY i.id
HAVING COALESCE(SUM(b.quantity), 0) < i.min_stock
ORDER BY i.name`

type ListLowStockIngredientsRow struct {
	ID        uuid.UUID
	Name      string
	Unit      string
	MinStock  pgtype.Numeric
	Available pgtype.Numeric
}

// ListLowStockIngredients sums only batches that are unexpired on asOf.
func (q *Queries) ListLowStockIngredients(ctx context.Context, asOf pgtype.Date) ([]ListLowStockIngredientsRow, error) {
	rows, err := q.db.Query(ctx, listLowStockIngredients, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListLowStockIngredientsRow
	for rows.Next() {
		var i ListLowStockIngredientsRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Unit, &i.MinStock, &i.Available); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listNearExpiryBatches = `SELECT b.id, b.ingredient_id, i.name, b.quantity, b.expiry_date,
    (b.expiry_date - $1::DATE)::INTEGER AS days_left
FROM stock_batches b
JOIN ingredients i ON i.id = b.ingredient_id
WHERE b.quantity > 0
  AND b.expiry_date IS NOT NULL
  AND b.expiry_date <= $1::DATE + i.expiry_warning_days
ORDER BY b.expiry_date, i.name`

type ListNearExpiryBatchesRow struct {
	BatchID        uuid.UUID
	IngredientID   uuid.UUID
	IngredientName string
	Quantity       pgtype.Numeric
	ExpiryDate     pgtype.Date
	DaysLeft       int32
}

// ListNearExpiryBatches returns non-empty batches expiring within their
// ingredient's warning window of asOf. Already expired batches have a
// negative DaysLeft.
func (q *Queries) ListNearExpiryBatches(ctx context.Context, asOf pgtype.Date) ([]ListNearExpiryBatchesRow, error) {
	rows, err := q.db.Query(ctx, listNearExpiryBatches, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListNearExpiryBatchesRow
	for rows.Next() {
		var i ListNearExpiryBatchesRow
		if err := rows.Scan(
			&i.BatchID,
			&i.IngredientID,
			&i.IngredientName,
			&i.Quantity,
			&i.ExpiryDate,
			&i.DaysLeft,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
