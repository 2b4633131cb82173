package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/service"
	"github.com/shopspring/decimal"
)

type tableResponse struct {
	ID     uuid.UUID `json:"id"`
	Number int32     `json:"number"`
	Status string    `json:"status"`
}

type orderResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrderType      string              `json:"order_type"`
	TableID        *uuid.UUID          `json:"table_id"`
	CustomerName   string              `json:"customer_name"`
	Source         string              `json:"source"`
	Status         string              `json:"status"`
	PaymentStatus  string              `json:"payment_status"`
	PaymentMethod  *string             `json:"payment_method"`
	AmountTendered *string             `json:"amount_tendered"`
	ChangeDue      *string             `json:"change_due"`
	TotalAmount    string              `json:"total_amount"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	PaidAt         *time.Time          `json:"paid_at"`
	CompletedAt    *time.Time          `json:"completed_at"`
	AlreadyPaid    bool                `json:"already_paid,omitempty"`
	Items          []orderItemResponse `json:"items"`
	Table          *tableResponse      `json:"table,omitempty"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	MenuID    uuid.UUID `json:"menu_id"`
	Quantity  int32     `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Subtotal  string    `json:"subtotal"`
	Readiness string    `json:"readiness"`
	Notes     *string   `json:"notes"`
}

func toTableResponse(t database.DiningTable) tableResponse {
	return tableResponse{ID: t.ID, Number: t.Number, Status: string(t.Status)}
}

func toOrderResponse(d *service.OrderDetail) orderResponse {
	o := d.Order
	resp := orderResponse{
		ID:            o.ID,
		OrderType:     string(o.OrderType),
		CustomerName:  o.CustomerName,
		Source:        string(o.Source),
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		TotalAmount:   numericToString(o.TotalAmount),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		AlreadyPaid:   d.AlreadyPaid,
		Items:         make([]orderItemResponse, len(d.Items)),
	}
	if o.TableID.Valid {
		id := uuid.UUID(o.TableID.Bytes)
		resp.TableID = &id
	}
	if o.PaymentMethod.Valid {
		resp.PaymentMethod = &o.PaymentMethod.String
	}
	if o.AmountTendered.Valid {
		s := numericToString(o.AmountTendered)
		resp.AmountTendered = &s
	}
	if o.ChangeDue.Valid {
		s := numericToString(o.ChangeDue)
		resp.ChangeDue = &s
	}
	if o.PaidAt.Valid {
		resp.PaidAt = &o.PaidAt.Time
	}
	if o.CompletedAt.Valid {
		resp.CompletedAt = &o.CompletedAt.Time
	}
	for i, item := range d.Items {
		resp.Items[i] = toOrderItemResponse(item)
	}
	if d.Table != nil {
		t := toTableResponse(*d.Table)
		resp.Table = &t
	}
	return resp
}

func toOrderItemResponse(item database.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:        item.ID,
		MenuID:    item.MenuID,
		Quantity:  item.Quantity,
		UnitPrice: numericToString(item.UnitPrice),
		Subtotal:  numericToString(item.Subtotal),
		Readiness: string(item.Readiness),
	}
	if item.Notes.Valid {
		resp.Notes = &item.Notes.String
	}
	return resp
}

type batchResponse struct {
	ID           uuid.UUID `json:"id"`
	IngredientID uuid.UUID `json:"ingredient_id"`
	Quantity     string    `json:"quantity"`
	UnitCost     string    `json:"unit_cost"`
	ExpiryDate   *string   `json:"expiry_date"`
	RecordedBy   uuid.UUID `json:"recorded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type damageResponse struct {
	ID         uuid.UUID     `json:"id"`
	BatchID    uuid.UUID     `json:"batch_id"`
	Quantity   string        `json:"quantity"`
	Reason     string        `json:"reason"`
	RecordedBy uuid.UUID     `json:"recorded_by"`
	CreatedAt  time.Time     `json:"created_at"`
	Batch      batchResponse `json:"batch"`
}

type lowStockResponse struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	MinStock     string    `json:"min_stock"`
	Available    string    `json:"available"`
}

type nearExpiryResponse struct {
	BatchID        uuid.UUID `json:"batch_id"`
	IngredientID   uuid.UUID `json:"ingredient_id"`
	IngredientName string    `json:"ingredient_name"`
	Quantity       string    `json:"quantity"`
	ExpiryDate     *string   `json:"expiry_date"`
	DaysLeft       int32     `json:"days_left"`
}

type stockAlertsResponse struct {
	AsOf       string               `json:"as_of"`
	LowStock   []lowStockResponse   `json:"low_stock"`
	NearExpiry []nearExpiryResponse `json:"near_expiry"`
}

type recipeLineResponse struct {
	IngredientID   uuid.UUID `json:"ingredient_id"`
	IngredientName string    `json:"ingredient_name"`
	Unit           string    `json:"unit"`
	Quantity       string    `json:"quantity"`
}

func toBatchResponse(b database.StockBatch) batchResponse {
	return batchResponse{
		ID:           b.ID,
		IngredientID: b.IngredientID,
		Quantity:     numericToString(b.Quantity),
		UnitCost:     numericToString(b.UnitCost),
		ExpiryDate:   dateToString(b.ExpiryDate),
		RecordedBy:   b.RecordedBy,
		CreatedAt:    b.CreatedAt,
	}
}

func toStockAlertsResponse(a *service.StockAlerts) stockAlertsResponse {
	resp := stockAlertsResponse{
		AsOf:       a.AsOf.Format(time.DateOnly),
		LowStock:   make([]lowStockResponse, len(a.LowStock)),
		NearExpiry: make([]nearExpiryResponse, len(a.NearExpiry)),
	}
	for i, row := range a.LowStock {
		resp.LowStock[i] = lowStockResponse{
			IngredientID: row.ID,
			Name:         row.Name,
			Unit:         row.Unit,
			MinStock:     numericToString(row.MinStock),
			Available:    numericToString(row.Available),
		}
	}
	for i, row := range a.NearExpiry {
		resp.NearExpiry[i] = nearExpiryResponse{
			BatchID:        row.BatchID,
			IngredientID:   row.IngredientID,
			IngredientName: row.IngredientName,
			Quantity:       numericToString(row.Quantity),
			ExpiryDate:     dateToString(row.ExpiryDate),
			DaysLeft:       row.DaysLeft,
		}
	}
	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func dateToString(d pgtype.Date) *string {
	if !d.Valid {
		return nil
	}
	s := d.Time.Format(time.DateOnly)
	return &s
}
