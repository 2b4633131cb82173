package handler

import (
	"github.com/google/uuid"
	"github.com/kiwari-pos/resto/internal/service"
	"github.com/kiwari-pos/resto/internal/ws"
)

// Publisher pushes realtime events. Satisfied by *ws.Hub.
type Publisher interface {
	Broadcast(room string, event ws.Event)
}

// publishOrder sends an order event to staff and to the order's table room,
// plus a table event when the mutation changed the table.
func publishOrder(pub Publisher, eventType string, d *service.OrderDetail) {
	if pub == nil || d == nil {
		return
	}
	ev := ws.NewEvent(eventType, toOrderResponse(d))
	pub.Broadcast(ws.StaffRoom, ev)
	if d.Order.TableID.Valid {
		pub.Broadcast(ws.TableRoom(uuid.UUID(d.Order.TableID.Bytes)), ev)
	}
	if d.Table != nil {
		publishTable(pub, toTableResponse(*d.Table))
	}
}

func publishTable(pub Publisher, t tableResponse) {
	if pub == nil {
		return
	}
	ev := ws.NewEvent(ws.EventTableUpdated, t)
	pub.Broadcast(ws.StaffRoom, ev)
	pub.Broadcast(ws.TableRoom(t.ID), ev)
}
