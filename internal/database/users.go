package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/kiwari-pos/resto/internal/enum"
)

const userColumns = `id, email, full_name, hashed_password, role, is_active, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.HashedPassword,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
	)
	return u, err
}

const getUserByEmail = `SELECT ` + userColumns + `
FROM users
WHERE email = $1 AND is_active = TRUE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `SELECT ` + userColumns + `
FROM users
WHERE id = $1 AND is_active = TRUE`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const listUsers = `SELECT ` + userColumns + `
FROM users
WHERE is_active = TRUE
ORDER BY role, full_name`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createUser = `INSERT INTO users (email, full_name, hashed_password, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email          string
	FullName       string
	HashedPassword string
	Role           enum.UserRole
}

// CreateUser inserts a staff account. A taken email fails with 23505.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser,
		arg.Email,
		arg.FullName,
		arg.HashedPassword,
		arg.Role,
	))
}

const upsertUser = `INSERT INTO users (email, full_name, hashed_password, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
RETURNING ` + userColumns

// UpsertUser inserts a staff account, leaving an existing account's password untouched.
func (q *Queries) UpsertUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, upsertUser,
		arg.Email,
		arg.FullName,
		arg.HashedPassword,
		arg.Role,
	))
}

const updateUser = `UPDATE users
SET email = $1, full_name = $2, role = $3
WHERE id = $4 AND is_active = TRUE
RETURNING ` + userColumns

type UpdateUserParams struct {
	Email    string
	FullName string
	Role     enum.UserRole
	ID       uuid.UUID
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUser,
		arg.Email,
		arg.FullName,
		arg.Role,
		arg.ID,
	))
}

const deactivateUser = `UPDATE users
SET is_active = FALSE
WHERE id = $1 AND is_active = TRUE
RETURNING id`

// DeactivateUser soft-deletes an account. Orders keep their created_by reference.
func (q *Queries) DeactivateUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deactivateUser, id)
	var out uuid.UUID
	err := row.Scan(&out)
	return out, err
}
