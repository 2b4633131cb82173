//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/resto/internal/config"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/enum"
	"github.com/kiwari-pos/resto/internal/router"
	"github.com/kiwari-pos/resto/internal/ws"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow runs a dine-in order from creation to vacate against a
// real PostgreSQL database, with all handlers wired through the router.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:          "8081",
		DatabaseURL:   connStr,
		JWTSecret:     "integration-test-secret",
		TableTokenTTL: time.Hour,
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	// hub.Run() outlives the test; the Hub has no shutdown.
	go hub.Run()

	r := router.New(cfg, queries, router.NewServices(cfg, pool), hub)
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Bootstrap owner and menu (no API for either) ---
	ownerID := createOwnerUser(t, ctx, queries)
	menuID := createMenu(t, ctx, pool, "Nasi Bakar Ayam", "25000")
	token := login(t, server, "owner@test.com", "password123")

	// --- 2. Tables ---
	table1 := createTable(t, server, 1, token)
	table2 := createTable(t, server, 2, token)

	// --- 3. Dine-in order occupies table 1 ---
	order := mustJSON(t, http.StatusCreated, doJSON(t, server, "POST", "/orders", map[string]any{
		"order_type":    "DINE_IN",
		"table_id":      table1,
		"customer_name": "Budi",
		"items":         []map[string]any{{"menu_id": menuID, "quantity": 2}},
	}, token))
	orderID := order["id"].(string)
	if got := order["total_amount"]; got != "50000.00" {
		t.Fatalf("total_amount: got %v, want 50000.00", got)
	}
	if got := order["status"]; got != "PENDING" {
		t.Fatalf("status: got %v, want PENDING", got)
	}
	assertTableStatus(t, server, table1, "OCCUPIED", token)

	// --- 4. A second order on the same table is rejected ---
	res := doJSON(t, server, "POST", "/orders", map[string]any{
		"order_type":    "DINE_IN",
		"table_id":      table1,
		"customer_name": "Sari",
		"items":         []map[string]any{{"menu_id": menuID, "quantity": 1}},
	}, token)
	if res.Status != http.StatusConflict {
		t.Fatalf("second order on occupied table: got %d, want 409", res.Status)
	}

	// --- 5. Racing creates on a free table: exactly one wins ---
	assertSingleWinner(t, server, table2, menuID, token)

	// --- 6. Vacating unpaid without force is refused ---
	res = doJSON(t, server, "POST", "/orders/"+orderID+"/vacate", nil, token)
	if res.Status != http.StatusConflict {
		t.Fatalf("vacate unpaid: got %d, want 409", res.Status)
	}

	// --- 7. Kitchen marks everything ready ---
	order = mustJSON(t, http.StatusOK, doJSON(t, server, "POST", "/orders/"+orderID+"/ready", nil, token))
	if got := order["status"]; got != "SIAP" {
		t.Fatalf("status after ready: got %v, want SIAP", got)
	}

	// --- 8. Cash payment keeps the table until vacate ---
	order = mustJSON(t, http.StatusOK, doJSON(t, server, "POST", "/orders/"+orderID+"/payment", map[string]any{
		"payment_method":  "CASH",
		"amount_tendered": "60000",
	}, token))
	if order["payment_status"] != "LUNAS" || order["change_due"] != "10000.00" {
		t.Fatalf("payment: got status=%v change=%v", order["payment_status"], order["change_due"])
	}
	if got := order["status"]; got != "SIAP" {
		t.Fatalf("status after payment: got %v, want SIAP", got)
	}
	assertTableStatus(t, server, table1, "OCCUPIED", token)

	// Paying twice is a no-op.
	again := mustJSON(t, http.StatusOK, doJSON(t, server, "POST", "/orders/"+orderID+"/payment", map[string]any{
		"payment_method": "QRIS",
	}, token))
	if again["already_paid"] != true || again["payment_method"] != "CASH" {
		t.Fatalf("repeat payment: got already_paid=%v method=%v", again["already_paid"], again["payment_method"])
	}

	// --- 9. Vacate completes the order and frees the table ---
	order = mustJSON(t, http.StatusOK, doJSON(t, server, "POST", "/orders/"+orderID+"/vacate", nil, token))
	if got := order["status"]; got != "SELESAI" {
		t.Fatalf("status after vacate: got %v, want SELESAI", got)
	}
	assertTableStatus(t, server, table1, "AVAILABLE", token)

	// --- 10. Customer orders through a table token ---
	tok := mustJSON(t, http.StatusOK, doJSON(t, server, "POST", "/tables/"+table1+"/token", nil, token))
	tableToken := tok["token"].(string)
	custOrder := mustJSON(t, http.StatusCreated, doJSON(t, server, "POST", "/customer/orders", map[string]any{
		"customer_name": "Tamu Meja 1",
		"items":         []map[string]any{{"menu_id": menuID, "quantity": 1}},
	}, tableToken))
	if custOrder["table_id"] != table1 || custOrder["source"] != "CUSTOMER" {
		t.Fatalf("customer order: got table=%v source=%v", custOrder["table_id"], custOrder["source"])
	}
	res = doJSON(t, server, "GET", "/orders", nil, tableToken)
	if res.Status != http.StatusForbidden {
		t.Fatalf("table token on staff route: got %d, want 403", res.Status)
	}
	mustJSON(t, http.StatusOK, doJSON(t, server, "POST", "/customer/orders/"+custOrder["id"].(string)+"/cancel", nil, tableToken))
	assertTableStatus(t, server, table1, "AVAILABLE", token)

	// --- 11. Stock ledger: purchase, then over-damage is refused ---
	ingredientID := createIngredient(t, ctx, pool, "Beras", "10")
	res = doJSON(t, server, "POST", "/stock/purchases", map[string]any{
		"lines": []map[string]any{{
			"ingredient_id": ingredientID,
			"quantity":      "5",
			"unit_cost":     "12000",
			"expiry_date":   time.Now().AddDate(0, 0, 1).Format(time.DateOnly),
		}},
	}, token)
	if res.Status != http.StatusCreated {
		t.Fatalf("purchase: got %d, body %s", res.Status, res.Body)
	}
	var batches []map[string]any
	if err := json.Unmarshal(res.Body, &batches); err != nil || len(batches) != 1 {
		t.Fatalf("decode batches: %v (%s)", err, res.Body)
	}
	batchID := batches[0]["id"].(string)

	res = doJSON(t, server, "POST", "/stock/damages", map[string]any{
		"reason": "tumpah",
		"lines":  []map[string]any{{"batch_id": batchID, "quantity": "6"}},
	}, token)
	if res.Status != http.StatusConflict {
		t.Fatalf("over-damage: got %d, want 409", res.Status)
	}

	alerts := mustJSON(t, http.StatusOK, doJSON(t, server, "GET", "/stock/alerts", nil, token))
	if low, _ := alerts["low_stock"].([]any); len(low) != 1 {
		t.Fatalf("low_stock: got %v, want 1 entry", alerts["low_stock"])
	}
	if near, _ := alerts["near_expiry"].([]any); len(near) != 1 {
		t.Fatalf("near_expiry: got %v, want 1 entry", alerts["near_expiry"])
	}

	t.Logf("Integration test passed: container=%s, owner=%s, order=%s",
		pgContainer.GetContainerID(), ownerID, orderID)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("resto_test"),
		tcpostgres.WithUsername("pos"),
		tcpostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	// migrate's postgres driver works on database/sql, hence lib/pq here.
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createOwnerUser(t *testing.T, ctx context.Context, queries *database.Queries) uuid.UUID {
	t.Helper()
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	user, err := queries.UpsertUser(ctx, database.CreateUserParams{
		Email:          "owner@test.com",
		FullName:       "Test Owner",
		HashedPassword: string(hashedPassword),
		Role:           enum.UserRoleOwner,
	})
	if err != nil {
		t.Fatalf("create owner user: %v", err)
	}
	return user.ID
}

func createMenu(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name, price string) string {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO menus (name, price) VALUES ($1, $2::numeric) RETURNING id`,
		name, price,
	).Scan(&id)
	if err != nil {
		t.Fatalf("create menu: %v", err)
	}
	return id.String()
}

func createIngredient(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name, minStock string) string {
	t.Helper()
	var id uuid.UUID
	err := pool.QueryRow(ctx,
		`INSERT INTO ingredients (name, unit, min_stock) VALUES ($1, 'kg', $2::numeric) RETURNING id`,
		name, minStock,
	).Scan(&id)
	if err != nil {
		t.Fatalf("create ingredient: %v", err)
	}
	return id.String()
}

// --- API call helpers ---

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := mustJSON(t, http.StatusOK, doJSON(t, server, "POST", "/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, ""))
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

func createTable(t *testing.T, server *httptest.Server, number int, token string) string {
	t.Helper()
	resp := mustJSON(t, http.StatusCreated, doJSON(t, server, "POST", "/tables", map[string]any{"number": number}, token))
	return resp["id"].(string)
}

func assertTableStatus(t *testing.T, server *httptest.Server, tableID, want, token string) {
	t.Helper()
	res := doJSON(t, server, "GET", "/tables", nil, token)
	if res.Status != http.StatusOK {
		t.Fatalf("list tables: status %d", res.Status)
	}
	var tables []map[string]any
	if err := json.Unmarshal(res.Body, &tables); err != nil {
		t.Fatalf("decode tables: %v", err)
	}
	for _, tbl := range tables {
		if tbl["id"] == tableID {
			if tbl["status"] != want {
				t.Fatalf("table %s status: got %v, want %s", tableID, tbl["status"], want)
			}
			return
		}
	}
	t.Fatalf("table %s not listed", tableID)
}

func assertSingleWinner(t *testing.T, server *httptest.Server, tableID, menuID, token string) {
	t.Helper()
	const racers = 8

	var wg sync.WaitGroup
	statuses := make([]int, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			statuses[i] = doJSON(t, server, "POST", "/orders", map[string]any{
				"order_type":    "DINE_IN",
				"table_id":      tableID,
				"customer_name": fmt.Sprintf("Racer %d", i),
				"items":         []map[string]any{{"menu_id": menuID, "quantity": 1}},
			}, token).Status
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		}
	}
	if created != 1 || conflicts != racers-1 {
		t.Fatalf("racing creates: %d created, %d conflicts (statuses %v)", created, conflicts, statuses)
	}
}

// --- HTTP helpers ---

type apiResponse struct {
	Status int
	Body   []byte
}

// doJSON must stay safe to call from several goroutines, so it reports
// transport failures with t.Errorf and a zero status.
func doJSON(t *testing.T, server *httptest.Server, method, path string, body any, token string) apiResponse {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Errorf("marshal body: %v", err)
			return apiResponse{}
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Errorf("create request: %v", err)
		return apiResponse{}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Errorf("do request: %v", err)
		return apiResponse{}
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Errorf("read response: %v", err)
	}
	return apiResponse{Status: resp.StatusCode, Body: buf.Bytes()}
}

func mustJSON(t *testing.T, want int, res apiResponse) map[string]any {
	t.Helper()
	if res.Status != want {
		t.Fatalf("status %d, want %d, body: %s", res.Status, want, res.Body)
	}
	var result map[string]any
	if err := json.Unmarshal(res.Body, &result); err != nil {
		t.Fatalf("decode response: %v (%s)", err, res.Body)
	}
	return result
}
