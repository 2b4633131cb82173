package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/kiwari-pos/resto/internal/enum"
)

const tableColumns = `id, number, status, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (DiningTable, error) {
	var t DiningTable
	err := row.Scan(
		&t.ID,
		&t.Number,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

const createTable = `INSERT INTO dining_tables (number)
VALUES ($1)
RETURNING ` + tableColumns

func (q *Queries) CreateTable(ctx context.Context, number int32) (DiningTable, error) {
	return scanTable(q.db.QueryRow(ctx, createTable, number))
}

const getTable = `SELECT ` + tableColumns + `
FROM dining_tables
WHERE id = $1`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (DiningTable, error) {
	return scanTable(q.db.QueryRow(ctx, getTable, id))
}

const getTableForUpdate = `SELECT ` + tableColumns + `
FROM dining_tables
WHERE id = $1
FOR UPDATE`

// GetTableForUpdate locks the table row until the surrounding transaction ends.
func (q *Queries) GetTableForUpdate(ctx context.Context, id uuid.UUID) (DiningTable, error) {
	return scanTable(q.db.QueryRow(ctx, getTableForUpdate, id))
}

const listTables = `SELECT ` + tableColumns + `
FROM dining_tables
ORDER BY number`

func (q *Queries) ListTables(ctx context.Context) ([]DiningTable, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DiningTable
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const listTablesByStatus = `SELECT ` + tableColumns + `
FROM dining_tables
WHERE status = $1
ORDER BY number`

func (q *Queries) ListTablesByStatus(ctx context.Context, status enum.TableStatus) ([]DiningTable, error) {
	rows, err := q.db.Query(ctx, listTablesByStatus, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DiningTable
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const updateTableStatus = `UPDATE dining_tables
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + tableColumns

type UpdateTableStatusParams struct {
	ID     uuid.UUID
	Status enum.TableStatus
}

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (DiningTable, error) {
	return scanTable(q.db.QueryRow(ctx, updateTableStatus, arg.ID, arg.Status))
}
