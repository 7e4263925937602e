package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/avasile/ticketbooth/internal/utils"
)

// User mirrors the 'users' table.
// NOTE: Timestamps are stored in DB format "2006-01-02 15:04:05" (UTC).
type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	Role         string // "user" or "admin"
	CreatedAt    string
	UpdatedAt    string
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID. The password is bcrypt-hashed
// with the given cost before it touches the database. A violation of the
// unique email index is mapped to ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, username, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC().Format(TimeLayout)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		username, email, hash, role, now, now)
	if err != nil {
		// MySQL reports code 1062, sqlite a UNIQUE constraint message.
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") || strings.Contains(msg, "unique") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,role,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,role,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
