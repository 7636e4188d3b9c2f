package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/evently/internal/model"
	"github.com/iliyamo/evently/internal/utils"
)

// UserRepo mirrors the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID.  The password is hashed
// with bcrypt before it touches the database.
func (r *UserRepo) Create(ctx context.Context, email, fullName, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var name interface{}
	if fullName != "" {
		name = fullName
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, full_name, password_hash, role) VALUES (?,?,?,?)",
		email, name, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
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
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.get(ctx, "SELECT id,email,full_name,password_hash,role,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.get(ctx, "SELECT id,email,full_name,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) get(ctx context.Context, q string, arg interface{}) (model.User, error) {
	var u model.User
	var fullName sql.NullString
	err := r.DB.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Email, &fullName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if fullName.Valid {
		n := fullName.String
		u.FullName = &n
	}
	return u, err
}
