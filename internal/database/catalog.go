package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getMenuForOrder = `SELECT id, name, price, is_available
FROM menus
WHERE id = $1`

type GetMenuForOrderRow struct {
	ID          uuid.UUID
	Name        string
	Price       pgtype.Numeric
	IsAvailable bool
}

func (q *Queries) GetMenuForOrder(ctx context.Context, id uuid.UUID) (GetMenuForOrderRow, error) {
	row := q.db.QueryRow(ctx, getMenuForOrder, id)
	var i GetMenuForOrderRow
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.IsAvailable)
	return i, err
}

const menuExists = `SELECT EXISTS (SELECT 1 FROM menus WHERE id = $1)`

func (q *Queries) MenuExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, menuExists, id).Scan(&exists)
	return exists, err
}

const listRecipeByMenu = `SELECT r.ingredient_id, i.name, i.unit, r.quantity
FROM recipes r
JOIN ingredients i ON i.id = r.ingredient_id
WHERE r.menu_id = $1
ORDER BY i.name`

type ListRecipeByMenuRow struct {
	IngredientID   uuid.UUID
	IngredientName string
	Unit           string
	Quantity       pgtype.Numeric
}

func (q *Queries) ListRecipeByMenu(ctx context.Context, menuID uuid.UUID) ([]ListRecipeByMenuRow, error) {
	rows, err := q.db.Query(ctx, listRecipeByMenu, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListRecipeByMenuRow
	for rows.Next() {
		var i ListRecipeByMenuRow
		if err := rows.Scan(&i.IngredientID, &i.IngredientName, &i.Unit, &i.Quantity); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
