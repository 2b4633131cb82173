package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// StockStore defines the DB methods needed by the batch ledger.
type StockStore interface {
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	CreateStockBatch(ctx context.Context, arg database.CreateStockBatchParams) (database.StockBatch, error)
	GetStockBatch(ctx context.Context, id uuid.UUID) (database.StockBatch, error)
	DecrementStockBatch(ctx context.Context, arg database.DecrementStockBatchParams) (database.StockBatch, error)
	CreateStockDamage(ctx context.Context, arg database.CreateStockDamageParams) (database.StockDamage, error)
	ListLowStockIngredients(ctx context.Context, asOf pgtype.Date) ([]database.ListLowStockIngredientsRow, error)
	ListNearExpiryBatches(ctx context.Context, asOf pgtype.Date) ([]database.ListNearExpiryBatchesRow, error)
	MenuExists(ctx context.Context, id uuid.UUID) (bool, error)
	ListRecipeByMenu(ctx context.Context, menuID uuid.UUID) ([]database.ListRecipeByMenuRow, error)
}

// NewStockStore creates a StockStore from a DBTX (pool or tx).
type NewStockStore func(db database.DBTX) StockStore

// PurchaseLine is one purchased ingredient; it becomes one new batch.
type PurchaseLine struct {
	IngredientID string
	Quantity     string
	UnitCost     string
	ExpiryDate   string // YYYY-MM-DD, optional
}

// DamageLine is a loss against one batch.
type DamageLine struct {
	BatchID  string
	Quantity string
}

// DamageResult is a recorded damage with the batch as left by it.
type DamageResult struct {
	Batch  database.StockBatch
	Damage database.StockDamage
}

// StockAlerts is a low-stock and near-expiry snapshot.
type StockAlerts struct {
	AsOf       time.Time
	LowStock   []database.ListLowStockIngredientsRow
	NearExpiry []database.ListNearExpiryBatchesRow
}

// Empty reports whether nothing needs attention.
func (a *StockAlerts) Empty() bool {
	return len(a.LowStock) == 0 && len(a.NearExpiry) == 0
}

// StockService is the stock batch ledger.
type StockService struct {
	db       DB
	newStore NewStockStore
}

// NewStockService creates a new StockService.
func NewStockService(db DB, newStore NewStockStore) *StockService {
	return &StockService{db: db, newStore: newStore}
}

// RecordPurchase inserts one batch per line. Existing batches are never touched.
func (s *StockService) RecordPurchase(ctx context.Context, lines []PurchaseLine, actor uuid.UUID) ([]database.StockBatch, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyLines
	}
	parsed := make([]database.CreateStockBatchParams, 0, len(lines))
	for i, line := range lines {
		ingredientID, err := uuid.Parse(line.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("line[%d]: %w", i, ErrInvalidIngredientID)
		}
		qty, err := parsePositive(line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("line[%d]: %w", i, err)
		}
		cost, err := decimal.NewFromString(line.UnitCost)
		if err != nil || cost.IsNegative() {
			return nil, fmt.Errorf("line[%d]: %w", i, ErrInvalidUnitCost)
		}
		expiry := pgtype.Date{}
		if line.ExpiryDate != "" {
			t, err := time.Parse(dateLayout, line.ExpiryDate)
			if err != nil {
				return nil, fmt.Errorf("line[%d]: %w", i, ErrInvalidExpiryDate)
			}
			expiry = pgtype.Date{Time: t, Valid: true}
		}
		parsed = append(parsed, database.CreateStockBatchParams{
			IngredientID: ingredientID,
			Quantity:     decimalToNumeric(qty),
			UnitCost:     decimalToNumeric(cost),
			ExpiryDate:   expiry,
			RecordedBy:   actor,
		})
	}

	var batches []database.StockBatch
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		batches = batches[:0]
		store := s.newStore(tx)
		for i, p := range parsed {
			if _, err := store.GetIngredient(ctx, p.IngredientID); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("line[%d]: %w", i, ErrIngredientNotFound)
				}
				return fmt.Errorf("line[%d]: get ingredient: %w", i, err)
			}
			b, err := store.CreateStockBatch(ctx, p)
			if err != nil {
				return fmt.Errorf("line[%d]: create batch: %w", i, err)
			}
			batches = append(batches, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// RecordDamage decrements every listed batch or none of them. Each decrement
// is a conditional update against the stored quantity, so concurrent damage
// against one batch can never take it below zero.
func (s *StockService) RecordDamage(ctx context.Context, lines []DamageLine, reason string, actor uuid.UUID) ([]DamageResult, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyLines
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	type parsedDamage struct {
		batchID uuid.UUID
		qty     pgtype.Numeric
	}
	parsed := make([]parsedDamage, 0, len(lines))
	for i, line := range lines {
		batchID, err := uuid.Parse(line.BatchID)
		if err != nil {
			return nil, fmt.Errorf("line[%d]: %w", i, ErrInvalidBatchID)
		}
		qty, err := parsePositive(line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("line[%d]: %w", i, err)
		}
		parsed = append(parsed, parsedDamage{batchID: batchID, qty: decimalToNumeric(qty)})
	}

	var results []DamageResult
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		results = results[:0]
		store := s.newStore(tx)
		for i, p := range parsed {
			batch, err := store.DecrementStockBatch(ctx, database.DecrementStockBatchParams{
				ID:       p.batchID,
				Quantity: p.qty,
			})
			if err != nil {
				if !errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("line[%d]: decrement batch: %w", i, err)
				}
				return fmt.Errorf("line[%d]: %w", i, missingOrShort(ctx, store, p.batchID))
			}
			damage, err := store.CreateStockDamage(ctx, database.CreateStockDamageParams{
				BatchID:    p.batchID,
				Quantity:   p.qty,
				Reason:     reason,
				RecordedBy: actor,
			})
			if err != nil {
				return fmt.Errorf("line[%d]: create damage: %w", i, err)
			}
			results = append(results, DamageResult{Batch: batch, Damage: damage})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// missingOrShort explains a failed conditional decrement.
func missingOrShort(ctx context.Context, store StockStore, batchID uuid.UUID) error {
	batch, err := store.GetStockBatch(ctx, batchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBatchNotFound
		}
		return fmt.Errorf("get batch: %w", err)
	}
	return fmt.Errorf("batch %s holds %s: %w",
		batch.ID, numericToDecimal(batch.Quantity).StringFixed(2), ErrInsufficientBatchQuantity)
}

// Alerts returns ingredients under their minimum and batches inside their
// expiry warning window, as of the day of now.
func (s *StockService) Alerts(ctx context.Context, now time.Time) (*StockAlerts, error) {
	store := s.newStore(s.db)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	asOf := pgtype.Date{Time: day, Valid: true}

	low, err := retryRead(ctx, func() ([]database.ListLowStockIngredientsRow, error) {
		return store.ListLowStockIngredients(ctx, asOf)
	})
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	expiring, err := retryRead(ctx, func() ([]database.ListNearExpiryBatchesRow, error) {
		return store.ListNearExpiryBatches(ctx, asOf)
	})
	if err != nil {
		return nil, fmt.Errorf("list near expiry: %w", err)
	}
	return &StockAlerts{AsOf: day, LowStock: low, NearExpiry: expiring}, nil
}

// Recipe returns the ingredient requirements of a menu. The ledger never
// consumes stock from recipes.
func (s *StockService) Recipe(ctx context.Context, menuID uuid.UUID) ([]database.ListRecipeByMenuRow, error) {
	store := s.newStore(s.db)
	exists, err := retryRead(ctx, func() (bool, error) {
		return store.MenuExists(ctx, menuID)
	})
	if err != nil {
		return nil, fmt.Errorf("check menu: %w", err)
	}
	if !exists {
		return nil, ErrUnknownMenu
	}
	rows, err := retryRead(ctx, func() ([]database.ListRecipeByMenuRow, error) {
		return store.ListRecipeByMenu(ctx, menuID)
	})
	if err != nil {
		return nil, fmt.Errorf("list recipe: %w", err)
	}
	return rows, nil
}

// parsePositive parses a stock quantity, kept at two decimals like storage.
func parsePositive(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidStockAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidStockAmount
	}
	return d, nil
}
