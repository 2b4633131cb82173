package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kiwari-pos/resto/internal/database"
	"github.com/kiwari-pos/resto/internal/enum"
	"github.com/kiwari-pos/resto/internal/middleware"
	"github.com/kiwari-pos/resto/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// UserStore defines the database methods needed by staff account handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type UserStore interface {
	ListUsers(ctx context.Context) ([]database.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	UpdateUser(ctx context.Context, arg database.UpdateUserParams) (database.User, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// UserHandler manages staff accounts.
type UserHandler struct {
	store UserStore
}

func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// RegisterRoutes registers staff account endpoints, mounted at /users.
// Only OWNER and MANAGER reach them; granting or touching OWNER accounts is
// further limited to owners.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type userDetailResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserDetailResponse(u database.User) userDetailResponse {
	return userDetailResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// --- Handlers ---

// List returns all active staff accounts.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("ERROR: list users: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: string(service.KindInternal)})
		return
	}

	resp := make([]userDetailResponse, len(users))
	for i, u := range users {
		resp[i] = toUserDetailResponse(u)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create adds a staff account.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Email == "" || req.Password == "" || req.FullName == "" || req.Role == "" {
		writeBadRequest(w, "email, password, full_name, and role are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeBadRequest(w, "invalid email format")
		return
	}
	if len(req.Password) < 8 {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}
	role := enum.UserRole(req.Role)
	if !role.Staff() {
		writeBadRequest(w, "invalid role")
		return
	}
	if !canGrant(r, role) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "only an owner may grant OWNER", Code: string(service.KindForbidden)})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: create user: hash password: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: string(service.KindInternal)})
		return
	}

	user, err := h.store.CreateUser(r.Context(), database.CreateUserParams{
		Email:          req.Email,
		FullName:       req.FullName,
		HashedPassword: string(hashed),
		Role:           role,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "email already exists", Code: string(service.KindValidation)})
			return
		}
		log.Printf("ERROR: create user: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: string(service.KindInternal)})
		return
	}

	writeJSON(w, http.StatusCreated, toUserDetailResponse(user))
}

// Update changes a staff account's email, name or role.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Email == "" || req.FullName == "" || req.Role == "" {
		writeBadRequest(w, "email, full_name, and role are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeBadRequest(w, "invalid email format")
		return
	}
	role := enum.UserRole(req.Role)
	if !role.Staff() {
		writeBadRequest(w, "invalid role")
		return
	}

	if !h.authorize(w, r, userID, role) {
		return
	}

	user, err := h.store.UpdateUser(r.Context(), database.UpdateUserParams{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     role,
		ID:       userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found", Code: string(service.KindNotFound)})
			return
		}
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "email already exists", Code: string(service.KindValidation)})
			return
		}
		log.Printf("ERROR: update user: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: string(service.KindInternal)})
		return
	}

	writeJSON(w, http.StatusOK, toUserDetailResponse(user))
}

// Delete deactivates a staff account. Nobody can deactivate themselves.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil && claims.UserID == userID {
		writeBadRequest(w, "cannot deactivate your own account")
		return
	}
	if !h.authorize(w, r, userID, "") {
		return
	}

	if _, err := h.store.DeactivateUser(r.Context(), userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found", Code: string(service.KindNotFound)})
			return
		}
		log.Printf("ERROR: deactivate user: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: string(service.KindInternal)})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// canGrant reports whether the caller may assign role. Managers cannot
// create or promote owners.
func canGrant(r *http.Request, role enum.UserRole) bool {
	claims := middleware.ClaimsFromContext(r.Context())
	return claims != nil && (role != enum.UserRoleOwner || claims.Role == enum.UserRoleOwner)
}

// authorize loads the target account and checks the caller may change it,
// and may assign newRole when one is given. On false a response has been
// written.
func (h *UserHandler) authorize(w http.ResponseWriter, r *http.Request, userID uuid.UUID, newRole enum.UserRole) bool {
	target, err := h.store.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found", Code: string(service.KindNotFound)})
			return false
		}
		log.Printf("ERROR: get user: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: string(service.KindInternal)})
		return false
	}
	if !canGrant(r, target.Role) || (newRole != "" && !canGrant(r, newRole)) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "only an owner may manage OWNER accounts", Code: string(service.KindForbidden)})
		return false
	}
	return true
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
