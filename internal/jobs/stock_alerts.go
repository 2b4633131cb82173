// Package jobs runs periodic background work on a gocron scheduler.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/resto/internal/service"
	"github.com/kiwari-pos/resto/internal/ws"
	"github.com/shopspring/decimal"
)

// AlertSource is satisfied by *service.StockService.
type AlertSource interface {
	Alerts(ctx context.Context, now time.Time) (*service.StockAlerts, error)
}

// Publisher is satisfied by *ws.Hub.
type Publisher interface {
	Broadcast(room string, event ws.Event)
}

type LowStockAlert struct {
	IngredientID uuid.UUID `json:"ingredient_id"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	MinStock     string    `json:"min_stock"`
	Available    string    `json:"available"`
}

type ExpiryAlert struct {
	BatchID        uuid.UUID `json:"batch_id"`
	IngredientName string    `json:"ingredient_name"`
	Quantity       string    `json:"quantity"`
	DaysLeft       int32     `json:"days_left"`
}

// StockAlertPayload is the payload of a stock.alert event.
type StockAlertPayload struct {
	AsOf       string          `json:"as_of"`
	LowStock   []LowStockAlert `json:"low_stock"`
	NearExpiry []ExpiryAlert   `json:"near_expiry"`
}

// StockAlertJob pushes low-stock and near-expiry alerts to the staff room.
type StockAlertJob struct {
	source AlertSource
	pub    Publisher
	now    func() time.Time
}

func NewStockAlertJob(source AlertSource, pub Publisher) *StockAlertJob {
	return &StockAlertJob{source: source, pub: pub, now: time.Now}
}

// Run computes alerts once. Nothing is published when there is nothing to report.
func (j *StockAlertJob) Run(ctx context.Context) error {
	alerts, err := j.source.Alerts(ctx, j.now())
	if err != nil {
		log.Printf("ERROR: stock alerts: %v", err)
		return fmt.Errorf("stock alerts: %w", err)
	}
	if alerts.Empty() {
		return nil
	}

	log.Printf("WARN: stock alert: %d ingredient(s) low, %d batch(es) near expiry",
		len(alerts.LowStock), len(alerts.NearExpiry))
	j.pub.Broadcast(ws.StaffRoom, ws.NewEvent(ws.EventStockAlert, toPayload(alerts)))
	return nil
}

func toPayload(a *service.StockAlerts) StockAlertPayload {
	p := StockAlertPayload{
		AsOf:       a.AsOf.Format(time.DateOnly),
		LowStock:   make([]LowStockAlert, len(a.LowStock)),
		NearExpiry: make([]ExpiryAlert, len(a.NearExpiry)),
	}
	for i, row := range a.LowStock {
		p.LowStock[i] = LowStockAlert{
			IngredientID: row.ID,
			Name:         row.Name,
			Unit:         row.Unit,
			MinStock:     numericString(row.MinStock),
			Available:    numericString(row.Available),
		}
	}
	for i, row := range a.NearExpiry {
		p.NearExpiry[i] = ExpiryAlert{
			BatchID:        row.BatchID,
			IngredientName: row.IngredientName,
			Quantity:       numericString(row.Quantity),
			DaysLeft:       row.DaysLeft,
		}
	}
	return p
}

func numericString(n pgtype.Numeric) string {
	if !n.Valid || n.Int == nil {
		return "0.00"
	}
	return decimal.NewFromBigInt(n.Int, n.Exp).StringFixed(2)
}

// Scheduler owns the gocron scheduler for all background jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler registers the stock alert job at the given interval. A
// non-positive interval registers nothing.
func NewScheduler(ctx context.Context, stockAlerts *StockAlertJob, interval time.Duration) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	if interval > 0 {
		_, err = s.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(stockAlerts.Run, ctx),
			gocron.WithName("stock-alerts"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return nil, fmt.Errorf("register stock alerts job: %w", err)
		}
		log.Printf("Stock alert job every %s", interval)
	}

	return &Scheduler{scheduler: s}, nil
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
