package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/resto/internal/config"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/enum"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// CLI flags
	email := flag.String("email", "", "Owner email address")
	password := flag.String("password", "", "Owner password")
	name := flag.String("name", "", "Owner full name")
	tables := flag.Int("tables", 10, "Number of dining tables to ensure exist (1..N)")
	demo := flag.Bool("demo", false, "Also seed a demo menu with its recipe")
	flag.Parse()

	// Fall back to environment variables
	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}

	// Fall back to defaults
	if *email == "" {
		*email = "owner@resto.local"
	}
	if *password == "" {
		*password = "password123"
		log.Println("WARNING: Using default password 'password123'. Change immediately in production!")
	}
	if *name == "" {
		*name = "Owner Resto"
	}

	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	// Everything or nothing.
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)

	userID, err := seedOwner(ctx, q, *email, *password, *name)
	if err != nil {
		log.Fatalf("Failed to seed owner: %v", err)
	}

	created, err := seedTables(ctx, q, int32(*tables))
	if err != nil {
		log.Fatalf("Failed to seed tables: %v", err)
	}

	if *demo {
		if err := seedDemoMenu(ctx, tx); err != nil {
			log.Fatalf("Failed to seed demo menu: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed completed successfully")
	log.Printf("Owner ID: %s", userID)
	log.Printf("Tables created: %d", created)
}

// seedOwner creates the owner account. An existing account keeps its password.
func seedOwner(ctx context.Context, q *database.Queries, email, password, fullName string) (uuid.UUID, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := q.UpsertUser(ctx, database.CreateUserParams{
		Email:          email,
		FullName:       fullName,
		HashedPassword: string(hashed),
		Role:           enum.UserRoleOwner,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert owner: %w", err)
	}

	log.Printf("Owner user '%s' ready (ID: %s)", email, user.ID)
	return user.ID, nil
}

// seedTables creates tables 1..n, skipping numbers that already exist.
func seedTables(ctx context.Context, q *database.Queries, n int32) (int, error) {
	existing, err := q.ListTables(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tables: %w", err)
	}
	have := make(map[int32]bool, len(existing))
	for _, t := range existing {
		have[t.Number] = true
	}

	created := 0
	for number := int32(1); number <= n; number++ {
		if have[number] {
			continue
		}
		if _, err := q.CreateTable(ctx, number); err != nil {
			return created, fmt.Errorf("create table %d: %w", number, err)
		}
		created++
	}
	return created, nil
}

// seedDemoMenu adds one menu and the ingredients its recipe consumes. The
// catalog is owned by the menu editor, so there are no queries for it here.
func seedDemoMenu(ctx context.Context, tx pgx.Tx) error {
	const menuName = "Nasi Bakar Ayam"

	var menuID uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM menus WHERE name = $1 LIMIT 1`, menuName).Scan(&menuID)
	if err == nil {
		log.Printf("Menu '%s' already exists (ID: %s), skipping", menuName, menuID)
		return nil
	}
	if err != pgx.ErrNoRows {
		return fmt.Errorf("check menu: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO menus (name, price) VALUES ($1, 25000) RETURNING id`,
		menuName,
	).Scan(&menuID)
	if err != nil {
		return fmt.Errorf("insert menu: %w", err)
	}

	recipe := []struct {
		ingredient string
		unit       string
		minStock   string
		quantity   string
	}{
		{"Beras", "kg", "10", "0.2"},
		{"Ayam", "kg", "5", "0.25"},
		{"Daun Pisang", "lembar", "50", "2"},
	}
	for _, r := range recipe {
		var ingredientID uuid.UUID
		err := tx.QueryRow(ctx,
			`INSERT INTO ingredients (name, unit, min_stock)
			 VALUES ($1, $2, $3::numeric)
			 ON CONFLICT (name) DO UPDATE SET unit = EXCLUDED.unit
			 RETURNING id`,
			r.ingredient, r.unit, r.minStock,
		).Scan(&ingredientID)
		if err != nil {
			return fmt.Errorf("upsert ingredient %s: %w", r.ingredient, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO recipes (menu_id, ingredient_id, quantity) VALUES ($1, $2, $3::numeric)`,
			menuID, ingredientID, r.quantity,
		)
		if err != nil {
			return fmt.Errorf("insert recipe line %s: %w", r.ingredient, err)
		}
	}

	log.Printf("Created menu '%s' (ID: %s) with %d recipe lines", menuName, menuID, len(recipe))
	return nil
}
