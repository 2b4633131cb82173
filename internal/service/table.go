package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kiwari-pos/resto/internal/auth"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/enum"
)

// TableStore defines the DB methods needed to manage dining tables.
type TableStore interface {
	CreateTable(ctx context.Context, number int32) (database.DiningTable, error)
	GetTable(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.DiningTable, error)
	ListTables(ctx context.Context) ([]database.DiningTable, error)
	ListTablesByStatus(ctx context.Context, status enum.TableStatus) ([]database.DiningTable, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error)
}

// NewTableStore creates a TableStore from a DBTX (pool or tx).
type NewTableStore func(db database.DBTX) TableStore

// TableToken is a signed customer link for one table.
type TableToken struct {
	Table     database.DiningTable
	Token     string
	ExpiresAt time.Time
}

// TableService manages tables outside of order admission. Occupied and
// Available are only ever set by OrderService.
type TableService struct {
	db        DB
	newStore  NewTableStore
	jwtSecret string
	tokenTTL  time.Duration
}

// NewTableService creates a new TableService.
func NewTableService(db DB, newStore NewTableStore, jwtSecret string, tokenTTL time.Duration) *TableService {
	return &TableService{db: db, newStore: newStore, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// AddTable creates an Available table with the given display number.
func (s *TableService) AddTable(ctx context.Context, number int32) (database.DiningTable, error) {
	if number <= 0 {
		return database.DiningTable{}, ErrInvalidTableNumber
	}
	tbl, err := s.newStore(s.db).CreateTable(ctx, number)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return database.DiningTable{}, ErrDuplicateTable
		}
		return database.DiningTable{}, fmt.Errorf("create table: %w", err)
	}
	return tbl, nil
}

// SetDisabled toggles the manual Disabled override. Disabling an Occupied
// table is refused; enabling only affects a Disabled table.
func (s *TableService) SetDisabled(ctx context.Context, tableID uuid.UUID, disabled bool) (database.DiningTable, error) {
	var result database.DiningTable
	err := runInTx(ctx, s.db, func(tx pgx.Tx) error {
		store := s.newStore(tx)

		tbl, err := store.GetTableForUpdate(ctx, tableID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTableNotFound
			}
			return fmt.Errorf("lock table: %w", err)
		}

		next := tbl.Status
		switch {
		case disabled && tbl.Status == enum.TableStatusOccupied:
			return fmt.Errorf("disable occupied table %d: %w", tbl.Number, ErrInvalidState)
		case disabled:
			next = enum.TableStatusDisabled
		case tbl.Status == enum.TableStatusDisabled:
			next = enum.TableStatusAvailable
		}
		if next == tbl.Status {
			result = tbl
			return nil
		}

		result, err = store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{ID: tbl.ID, Status: next})
		if err != nil {
			return fmt.Errorf("update table status: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.DiningTable{}, err
	}
	return result, nil
}

// GetTable returns one table.
func (s *TableService) GetTable(ctx context.Context, tableID uuid.UUID) (database.DiningTable, error) {
	tbl, err := retryRead(ctx, func() (database.DiningTable, error) {
		return s.newStore(s.db).GetTable(ctx, tableID)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.DiningTable{}, ErrTableNotFound
		}
		return database.DiningTable{}, fmt.Errorf("get table: %w", err)
	}
	return tbl, nil
}

// ListTables is the staff occupancy snapshot.
func (s *TableService) ListTables(ctx context.Context) ([]database.DiningTable, error) {
	tables, err := retryRead(ctx, func() ([]database.DiningTable, error) {
		return s.newStore(s.db).ListTables(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// ListAvailableTables is the customer-facing list: neither Occupied nor Disabled.
func (s *TableService) ListAvailableTables(ctx context.Context) ([]database.DiningTable, error) {
	tables, err := retryRead(ctx, func() ([]database.DiningTable, error) {
		return s.newStore(s.db).ListTablesByStatus(ctx, enum.TableStatusAvailable)
	})
	if err != nil {
		return nil, fmt.Errorf("list available tables: %w", err)
	}
	return tables, nil
}

// IssueTableToken signs the customer link printed on a table's QR code.
func (s *TableService) IssueTableToken(ctx context.Context, tableID uuid.UUID) (*TableToken, error) {
	tbl, err := s.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if tbl.Status == enum.TableStatusDisabled {
		return nil, fmt.Errorf("table %d is disabled: %w", tbl.Number, ErrInvalidState)
	}
	token, expiresAt, err := auth.GenerateTableToken(s.jwtSecret, tbl.ID, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign table token: %w", err)
	}
	return &TableToken{Table: tbl, Token: token, ExpiresAt: expiresAt}, nil
}
