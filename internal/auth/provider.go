package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// RoleAdmin is the only role allowed on the admin API.
const RoleAdmin = "admin"

var ErrInvalidCredentials = errors.New("invalid email or password")

// User is the signed-in identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Provider is the identity backend.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (User, error)
	SignOut(ctx context.Context, userID string) error
}

// DBProvider checks credentials against admin_users.
type DBProvider struct {
	db *sql.DB
}

// NewDBProvider creates a provider.
func NewDBProvider(db *sql.DB) *DBProvider {
	return &DBProvider{db: db}
}

// SignIn verifies the bcrypt password hash of an active user.
func (p *DBProvider) SignIn(ctx context.Context, email, password string) (User, error) {
	var (
		u    User
		hash string
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, COALESCE(name, ''), role, password_hash
		FROM admin_users
		WHERE lower(email) = $1 AND is_active = true
	`, strings.ToLower(strings.TrimSpace(email))).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := CheckPassword(hash, password); err != nil {
		return User{}, err
	}
	_, _ = p.db.ExecContext(ctx, `UPDATE admin_users SET last_sign_in_at = NOW() WHERE id = $1`, u.ID)
	return u, nil
}

// SignOut records the sign-out.
func (p *DBProvider) SignOut(ctx context.Context, userID string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE admin_users SET last_sign_out_at = NOW() WHERE id = $1`, userID)
	return err
}

// HashPassword returns a bcrypt hash suitable for admin_users.password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(h), err
}

// CheckPassword compares a bcrypt hash with a candidate password.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
