package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/olympic-ticketing/internal/model"
)

const userColumns = `id, email, first_name, last_name, password_hash, role, account_key, is_active, created_at`

type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// ErrEmailExists is returned by Create when the email is already registered.
var ErrEmailExists = errors.New("email already exists")

// NormalizeEmail lowercases and trims an address before storage or lookup.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts u (PasswordHash and AccountKey already set) and fills in
// its id.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, first_name, last_name, password_hash, role, account_key, is_active, created_at) VALUES (?,?,?,?,?,?,?,?)",
		u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Role, u.AccountKey, u.IsActive, u.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg interface{}) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, q, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
