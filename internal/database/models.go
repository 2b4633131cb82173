package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/resto/internal/enum"
)

type User struct {
	ID             uuid.UUID
	Email          string
	FullName       string
	HashedPassword string
	Role           enum.UserRole
	IsActive       bool
	CreatedAt      time.Time
}

type DiningTable struct {
	ID        uuid.UUID
	Number    int32
	Status    enum.TableStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID             uuid.UUID
	OrderType      enum.OrderType
	TableID        pgtype.UUID
	CustomerName   string
	Source         enum.OrderSource
	Status         enum.OrderStatus
	PaymentStatus  enum.PaymentStatus
	PaymentMethod  pgtype.Text
	AmountTendered pgtype.Numeric
	ChangeDue      pgtype.Numeric
	TotalAmount    pgtype.Numeric
	CreatedBy      pgtype.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PaidAt         pgtype.Timestamptz
	CompletedAt    pgtype.Timestamptz
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	MenuID    uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Subtotal  pgtype.Numeric
	Readiness enum.ItemReadiness
	Notes     pgtype.Text
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderAuditLog struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Action    string
	ActorID   pgtype.UUID
	Reason    pgtype.Text
	CreatedAt time.Time
}

type Ingredient struct {
	ID                uuid.UUID
	Name              string
	Unit              string
	MinStock          pgtype.Numeric
	ExpiryWarningDays int32
	CreatedAt         time.Time
}

type StockBatch struct {
	ID           uuid.UUID
	IngredientID uuid.UUID
	Quantity     pgtype.Numeric
	UnitCost     pgtype.Numeric
	ExpiryDate   pgtype.Date
	RecordedBy   uuid.UUID
	CreatedAt    time.Time
}

type StockDamage struct {
	ID         uuid.UUID
	BatchID    uuid.UUID
	Quantity   pgtype.Numeric
	Reason     string
	RecordedBy uuid.UUID
	CreatedAt  time.Time
}
