package enum

// ── State machines (CHECK constrained in DB) ──

// OrderStatus is the derived lifecycle stage of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusDiproses   OrderStatus = "DIPROSES"
	OrderStatusSiap       OrderStatus = "SIAP"
	OrderStatusSelesai    OrderStatus = "SELESAI"
	OrderStatusDibatalkan OrderStatus = "DIBATALKAN"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusDiproses, OrderStatusSiap,
		OrderStatusSelesai, OrderStatusDibatalkan:
		return true
	}
	return false
}

// Terminal reports whether no further transition is defined out of s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusSelesai || s == OrderStatusDibatalkan
}

// TerminalOrderStatuses lists the statuses that end an order's lifecycle.
var TerminalOrderStatuses = []OrderStatus{OrderStatusSelesai, OrderStatusDibatalkan}

type PaymentStatus string

const (
	PaymentStatusBelumLunas PaymentStatus = "BELUM_LUNAS"
	PaymentStatusLunas      PaymentStatus = "LUNAS"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusBelumLunas || s == PaymentStatusLunas
}

// ItemReadiness is the kitchen fact recorded per order item.
type ItemReadiness string

const (
	ItemReadinessWaiting ItemReadiness = "WAITING"
	ItemReadinessServed  ItemReadiness = "SERVED"
)

func (r ItemReadiness) Valid() bool {
	return r == ItemReadinessWaiting || r == ItemReadinessServed
}

type TableStatus string

const (
	TableStatusAvailable TableStatus = "AVAILABLE"
	TableStatusOccupied  TableStatus = "OCCUPIED"
	TableStatusDisabled  TableStatus = "DISABLED"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusDisabled:
		return true
	}
	return false
}

// ── Borderline (CHECK constrained in DB) ──

type OrderType string

const (
	OrderTypeDineIn   OrderType = "DINE_IN"
	OrderTypeTakeaway OrderType = "TAKEAWAY"
)

func (t OrderType) Valid() bool {
	return t == OrderTypeDineIn || t == OrderTypeTakeaway
}

// OrderSource records which entry path created an order.
type OrderSource string

const (
	OrderSourceStaff    OrderSource = "STAFF"
	OrderSourceCustomer OrderSource = "CUSTOMER"
)

type UserRole string

const (
	UserRoleOwner   UserRole = "OWNER"
	UserRoleManager UserRole = "MANAGER"
	UserRoleCashier UserRole = "CASHIER"
	UserRoleKitchen UserRole = "KITCHEN"

	// RoleCustomer is carried only by table-linked tokens, never stored on a user.
	RoleCustomer UserRole = "CUSTOMER"
)

// Staff reports whether r is one of the stored staff roles.
func (r UserRole) Staff() bool {
	switch r {
	case UserRoleOwner, UserRoleManager, UserRoleCashier, UserRoleKitchen:
		return true
	}
	return false
}

// ── Configurable labels (no DB constraint) ──

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodQRIS     PaymentMethod = "QRIS"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodQRIS, PaymentMethodTransfer:
		return true
	}
	return false
}

// RequiresTender reports whether the cashier must enter an amount tendered.
// Digital methods settle the exact total.
func (m PaymentMethod) RequiresTender() bool {
	return m == PaymentMethodCash
}

// Audit log actions.
const (
	AuditActionForceVacate = "FORCE_VACATE_UNPAID"
)
