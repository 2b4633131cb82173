package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/enum"
	"github.com/shopspring/decimal"
)

// memState is the whole fake database.
type memState struct {
	tables      map[uuid.UUID]database.DiningTable
	orders      map[uuid.UUID]database.Order
	items       map[uuid.UUID]database.OrderItem
	itemSeq     map[uuid.UUID]int
	menus       map[uuid.UUID]database.GetMenuForOrderRow
	recipes     map[uuid.UUID][]database.ListRecipeByMenuRow
	ingredients map[uuid.UUID]database.Ingredient
	batches     map[uuid.UUID]database.StockBatch
	damages     []database.StockDamage
	audits      []database.OrderAuditLog
	seq         int
}

func newMemState() memState {
	return memState{
		tables:      map[uuid.UUID]database.DiningTable{},
		orders:      map[uuid.UUID]database.Order{},
		items:       map[uuid.UUID]database.OrderItem{},
		itemSeq:     map[uuid.UUID]int{},
		menus:       map[uuid.UUID]database.GetMenuForOrderRow{},
		recipes:     map[uuid.UUID][]database.ListRecipeByMenuRow{},
		ingredients: map[uuid.UUID]database.Ingredient{},
		batches:     map[uuid.UUID]database.StockBatch{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s memState) clone() memState {
	return memState{
		tables:      cloneMap(s.tables),
		orders:      cloneMap(s.orders),
		items:       cloneMap(s.items),
		itemSeq:     cloneMap(s.itemSeq),
		menus:       cloneMap(s.menus),
		recipes:     cloneMap(s.recipes),
		ingredients: cloneMap(s.ingredients),
		batches:     cloneMap(s.batches),
		damages:     append([]database.StockDamage(nil), s.damages...),
		audits:      append([]database.OrderAuditLog(nil), s.audits...),
		seq:         s.seq,
	}
}

// memDB is an in-memory stand-in for PostgreSQL. Transactions are fully
// serialized and roll back to a snapshot, which is stricter than row locks
// but preserves every invariant the services rely on. CreateOrder enforces
// the one-active-order-per-table index and DecrementStockBatch is a real
// compare-and-set.
type memDB struct {
	txMu sync.Mutex // held for the life of a transaction
	mu   sync.Mutex // guards state and counters
	st   memState

	begins  int
	commits int
	// fail holds errors returned, in order, by the named store method.
	fail map[string][]error
}

func newMemDB() *memDB {
	return &memDB{st: newMemState(), fail: map[string][]error{}}
}

func (m *memDB) failOn(method string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[method] = append(m.fail[method], errs...)
}

// injected pops the next injected error for method. Callers hold m.mu.
func (m *memDB) injected(method string) error {
	errs := m.fail[method]
	if len(errs) == 0 {
		return nil
	}
	m.fail[method] = errs[1:]
	return errs[0]
}

func (m *memDB) counts() (begins, commits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begins, m.commits
}

// --- DB ---

func (m *memDB) Begin(ctx context.Context) (pgx.Tx, error) {
	m.txMu.Lock()
	m.mu.Lock()
	m.begins++
	snap := m.st.clone()
	m.mu.Unlock()
	return &memTx{db: m, snapshot: snap}, nil
}

func (m *memDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *memDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *memDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}

// memTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
type memTx struct {
	db       *memDB
	snapshot memState
	done     bool
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.mu.Lock()
	t.db.commits++
	t.db.mu.Unlock()
	t.db.txMu.Unlock()
	return nil
}
func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.mu.Lock()
	t.db.st = t.snapshot
	t.db.mu.Unlock()
	t.db.txMu.Unlock()
	return nil
}
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *memTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (t *memTx) Conn() *pgx.Conn { panic("not implemented") }

// --- Seed helpers ---

func (m *memDB) addTable(number int32, status enum.TableStatus) database.DiningTable {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := database.DiningTable{ID: uuid.New(), Number: number, Status: status, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.st.tables[t.ID] = t
	return t
}

func (m *memDB) addMenu(name, price string, available bool) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.st.menus[id] = database.GetMenuForOrderRow{ID: id, Name: name, Price: makeNumeric(price), IsAvailable: available}
	return id
}

func (m *memDB) addIngredient(name, minStock string, warnDays int32) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.st.ingredients[id] = database.Ingredient{
		ID: id, Name: name, Unit: "kg", MinStock: makeNumeric(minStock), ExpiryWarningDays: warnDays,
	}
	return id
}

func (m *memDB) addBatch(ingredientID uuid.UUID, qty string, expiry *time.Time) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	b := database.StockBatch{ID: id, IngredientID: ingredientID, Quantity: makeNumeric(qty), UnitCost: makeNumeric("0")}
	if expiry != nil {
		b.ExpiryDate = pgtype.Date{Time: *expiry, Valid: true}
	}
	m.st.batches[id] = b
	return id
}

func (m *memDB) table(id uuid.UUID) database.DiningTable {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.tables[id]
}

func (m *memDB) order(id uuid.UUID) database.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.orders[id]
}

func (m *memDB) batch(id uuid.UUID) database.StockBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.batches[id]
}

func (m *memDB) activeOrdersOn(tableID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeOn(tableID)
}

func (m *memDB) activeOn(tableID uuid.UUID) int {
	n := 0
	for _, o := range m.st.orders {
		if o.TableID.Valid && uuid.UUID(o.TableID.Bytes) == tableID && !o.Status.Terminal() {
			n++
		}
	}
	return n
}

// --- Catalog ---

func (m *memDB) GetMenuForOrder(ctx context.Context, id uuid.UUID) (database.GetMenuForOrderRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	menu, ok := m.st.menus[id]
	if !ok {
		return database.GetMenuForOrderRow{}, pgx.ErrNoRows
	}
	return menu, nil
}

func (m *memDB) MenuExists(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.st.menus[id]
	return ok, nil
}

func (m *memDB) ListRecipeByMenu(ctx context.Context, menuID uuid.UUID) ([]database.ListRecipeByMenuRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.recipes[menuID], nil
}

// --- Tables ---

func (m *memDB) CreateTable(ctx context.Context, number int32) (database.DiningTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.st.tables {
		if t.Number == number {
			return database.DiningTable{}, &pgconn.PgError{Code: "23505", ConstraintName: "dining_tables_number_key"}
		}
	}
	t := database.DiningTable{ID: uuid.New(), Number: number, Status: enum.TableStatusAvailable}
	m.st.tables[t.ID] = t
	return t, nil
}

func (m *memDB) GetTable(ctx context.Context, id uuid.UUID) (database.DiningTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("GetTable"); err != nil {
		return database.DiningTable{}, err
	}
	t, ok := m.st.tables[id]
	if !ok {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memDB) GetTableForUpdate(ctx context.Context, id uuid.UUID) (database.DiningTable, error) {
	return m.GetTable(ctx, id)
}

func (m *memDB) ListTables(ctx context.Context) ([]database.DiningTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.DiningTable
	for _, t := range m.st.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *memDB) ListTablesByStatus(ctx context.Context, status enum.TableStatus) ([]database.DiningTable, error) {
	all, _ := m.ListTables(ctx)
	var out []database.DiningTable
	for _, t := range all {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memDB) UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.DiningTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.st.tables[arg.ID]
	if !ok {
		return database.DiningTable{}, pgx.ErrNoRows
	}
	t.Status = arg.Status
	t.UpdatedAt = time.Now()
	m.st.tables[arg.ID] = t
	return t, nil
}

// --- Orders ---

func (m *memDB) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("CreateOrder"); err != nil {
		return database.Order{}, err
	}
	if (arg.OrderType == enum.OrderTypeDineIn) != arg.TableID.Valid {
		return database.Order{}, &pgconn.PgError{Code: "23514", ConstraintName: "orders_table_matches_type"}
	}
	if arg.TableID.Valid && m.activeOn(uuid.UUID(arg.TableID.Bytes)) > 0 {
		return database.Order{}, &pgconn.PgError{Code: "23505", ConstraintName: "orders_active_table_key"}
	}
	now := time.Now()
	o := database.Order{
		ID:            uuid.New(),
		OrderType:     arg.OrderType,
		TableID:       arg.TableID,
		CustomerName:  arg.CustomerName,
		Source:        arg.Source,
		Status:        enum.OrderStatusPending,
		PaymentStatus: enum.PaymentStatusBelumLunas,
		TotalAmount:   arg.TotalAmount,
		CreatedBy:     arg.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.st.orders[o.ID] = o
	return o, nil
}

func (m *memDB) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.st.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *memDB) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.GetOrder(ctx, id)
}

func (m *memDB) GetActiveOrderByTable(ctx context.Context, tableID uuid.UUID) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.st.orders {
		if o.TableID.Valid && uuid.UUID(o.TableID.Bytes) == tableID && !o.Status.Terminal() {
			return o, nil
		}
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *memDB) ListActiveOrders(ctx context.Context) ([]database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.Order
	for _, o := range m.st.orders {
		if !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memDB) UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.st.orders[arg.ID]
	if !ok || o.Status.Terminal() {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	o.UpdatedAt = time.Now()
	if arg.Status.Terminal() {
		o.CompletedAt = pgtype.Timestamptz{Time: o.UpdatedAt, Valid: true}
	}
	m.st.orders[o.ID] = o
	return o, nil
}

func (m *memDB) UpdateOrderTotal(ctx context.Context, arg database.UpdateOrderTotalParams) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.st.orders[arg.ID]
	if !ok || o.Status.Terminal() || o.PaymentStatus == enum.PaymentStatusLunas {
		return database.Order{}, pgx.ErrNoRows
	}
	o.TotalAmount = arg.TotalAmount
	m.st.orders[o.ID] = o
	return o, nil
}

func (m *memDB) RecordOrderPayment(ctx context.Context, arg database.RecordOrderPaymentParams) (database.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.st.orders[arg.ID]
	if !ok || o.Status.Terminal() || o.PaymentStatus == enum.PaymentStatusLunas {
		return database.Order{}, pgx.ErrNoRows
	}
	now := time.Now()
	o.PaymentStatus = enum.PaymentStatusLunas
	o.PaymentMethod = pgtype.Text{String: string(arg.PaymentMethod), Valid: true}
	o.AmountTendered = arg.AmountTendered
	o.ChangeDue = arg.ChangeDue
	o.Status = arg.Status
	o.PaidAt = pgtype.Timestamptz{Time: now, Valid: true}
	if arg.Status.Terminal() {
		o.CompletedAt = pgtype.Timestamptz{Time: now, Valid: true}
	}
	m.st.orders[o.ID] = o
	return o, nil
}

func (m *memDB) CreateOrderAuditLog(ctx context.Context, arg database.CreateOrderAuditLogParams) (database.OrderAuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := database.OrderAuditLog{
		ID: uuid.New(), OrderID: arg.OrderID, Action: arg.Action, ActorID: arg.ActorID, Reason: arg.Reason,
	}
	m.st.audits = append(m.st.audits, l)
	return l, nil
}

func (m *memDB) auditLog() []database.OrderAuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.OrderAuditLog(nil), m.st.audits...)
}

// --- Order items ---

func (m *memDB) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := database.OrderItem{
		ID:        uuid.New(),
		OrderID:   arg.OrderID,
		MenuID:    arg.MenuID,
		Quantity:  arg.Quantity,
		UnitPrice: arg.UnitPrice,
		Subtotal:  arg.Subtotal,
		Readiness: enum.ItemReadinessWaiting,
		Notes:     arg.Notes,
	}
	m.st.seq++
	m.st.items[i.ID] = i
	m.st.itemSeq[i.ID] = m.st.seq
	return i, nil
}

func (m *memDB) GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.st.items[arg.ID]
	if !ok || i.OrderID != arg.OrderID {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	return i, nil
}

func (m *memDB) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.OrderItem
	for _, i := range m.st.items {
		if i.OrderID == orderID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return m.st.itemSeq[out[a].ID] < m.st.itemSeq[out[b].ID] })
	return out, nil
}

func (m *memDB) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, i := range m.st.items {
		if i.OrderID == orderID {
			delete(m.st.items, id)
			delete(m.st.itemSeq, id)
			n++
		}
	}
	return n, nil
}

func (m *memDB) UpdateOrderItemReadiness(ctx context.Context, arg database.UpdateOrderItemReadinessParams) (database.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.st.items[arg.ID]
	if !ok || i.OrderID != arg.OrderID {
		return database.OrderItem{}, pgx.ErrNoRows
	}
	i.Readiness = arg.Readiness
	m.st.items[i.ID] = i
	return i, nil
}

func (m *memDB) ServeAllOrderItems(ctx context.Context, orderID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, i := range m.st.items {
		if i.OrderID == orderID && i.Readiness != enum.ItemReadinessServed {
			i.Readiness = enum.ItemReadinessServed
			m.st.items[id] = i
			n++
		}
	}
	return n, nil
}

func (m *memDB) CountOrderItemReadiness(ctx context.Context, orderID uuid.UUID) (database.CountOrderItemReadinessRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("CountOrderItemReadiness"); err != nil {
		return database.CountOrderItemReadinessRow{}, err
	}
	var row database.CountOrderItemReadinessRow
	for _, i := range m.st.items {
		if i.OrderID != orderID {
			continue
		}
		row.Total++
		if i.Readiness == enum.ItemReadinessServed {
			row.Served++
		}
	}
	return row, nil
}

// --- Stock ---

func (m *memDB) GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.st.ingredients[id]
	if !ok {
		return database.Ingredient{}, pgx.ErrNoRows
	}
	return i, nil
}

func (m *memDB) CreateStockBatch(ctx context.Context, arg database.CreateStockBatchParams) (database.StockBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := database.StockBatch{
		ID:           uuid.New(),
		IngredientID: arg.IngredientID,
		Quantity:     arg.Quantity,
		UnitCost:     arg.UnitCost,
		ExpiryDate:   arg.ExpiryDate,
		RecordedBy:   arg.RecordedBy,
		CreatedAt:    time.Now(),
	}
	m.st.batches[b.ID] = b
	return b, nil
}

func (m *memDB) GetStockBatch(ctx context.Context, id uuid.UUID) (database.StockBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.st.batches[id]
	if !ok {
		return database.StockBatch{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *memDB) DecrementStockBatch(ctx context.Context, arg database.DecrementStockBatchParams) (database.StockBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.st.batches[arg.ID]
	if !ok {
		return database.StockBatch{}, pgx.ErrNoRows
	}
	have := numericToDecimal(b.Quantity)
	take := numericToDecimal(arg.Quantity)
	if have.LessThan(take) {
		return database.StockBatch{}, pgx.ErrNoRows
	}
	b.Quantity = decimalToNumeric(have.Sub(take))
	m.st.batches[b.ID] = b
	return b, nil
}

func (m *memDB) CreateStockDamage(ctx context.Context, arg database.CreateStockDamageParams) (database.StockDamage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := database.StockDamage{
		ID: uuid.New(), BatchID: arg.BatchID, Quantity: arg.Quantity, Reason: arg.Reason, RecordedBy: arg.RecordedBy,
	}
	m.st.damages = append(m.st.damages, d)
	return d, nil
}

func (m *memDB) damageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.st.damages)
}

func (m *memDB) ListLowStockIngredients(ctx context.Context, asOf pgtype.Date) ([]database.ListLowStockIngredientsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.ListLowStockIngredientsRow
	for _, ing := range m.st.ingredients {
		sum := decimal.Zero
		for _, b := range m.st.batches {
			if b.IngredientID != ing.ID {
				continue
			}
			if b.ExpiryDate.Valid && b.ExpiryDate.Time.Before(asOf.Time) {
				continue
			}
			sum = sum.Add(numericToDecimal(b.Quantity))
		}
		if sum.LessThan(numericToDecimal(ing.MinStock)) {
			out = append(out, database.ListLowStockIngredientsRow{
				ID: ing.ID, Name: ing.Name, Unit: ing.Unit, MinStock: ing.MinStock, Available: decimalToNumeric(sum),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memDB) ListNearExpiryBatches(ctx context.Context, asOf pgtype.Date) ([]database.ListNearExpiryBatchesRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.ListNearExpiryBatchesRow
	for _, b := range m.st.batches {
		if !b.ExpiryDate.Valid || !numericToDecimal(b.Quantity).IsPositive() {
			continue
		}
		ing := m.st.ingredients[b.IngredientID]
		days := int32(b.ExpiryDate.Time.Sub(asOf.Time).Hours() / 24)
		if days > ing.ExpiryWarningDays {
			continue
		}
		out = append(out, database.ListNearExpiryBatchesRow{
			BatchID: b.ID, IngredientID: ing.ID, IngredientName: ing.Name,
			Quantity: b.Quantity, ExpiryDate: b.ExpiryDate, DaysLeft: days,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiryDate.Time.Before(out[j].ExpiryDate.Time) })
	return out, nil
}
