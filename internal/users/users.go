// Package users owns accounts: signup, login and profile maintenance.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrNotFound           = errors.New("user not found")
)

// Store is the persistence surface the handlers depend on.
type Store interface {
	Insert(ctx context.Context, nu NewUser) (User, error)
	Authenticate(ctx context.Context, email, password string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, id string, up UpdateProfile) (User, error)
}

// Conf implements Store over postgres.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// Insert creates a normal user. Admins are provisioned out of band.
func (c *Conf) Insert(ctx context.Context, nu NewUser) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	u := User{
		ID:            uuid.NewString(),
		Name:          nu.Name,
		Email:         strings.ToLower(strings.TrimSpace(nu.Email)),
		Role:          "USER",
		ContactNumber: nu.ContactNumber,
		Address:       nu.Address,
	}

	const query = `
		INSERT INTO users (id, name, email, password_hash, role, contact_number,
		                   street, city, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err = c.db.QueryRowContext(ctx, query, u.ID, u.Name, u.Email, string(hash), u.Role,
		u.ContactNumber, u.Address.Street, u.Address.City, u.Address.PostalCode,
		u.Address.Country).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	return u, nil
}

// Authenticate verifies the password and returns the account. The same error
// is returned for unknown email and bad password so callers cannot probe for
// accounts.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	const query = `
		SELECT id, name, email, password_hash, role, contact_number,
		       street, city, postal_code, country, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u User
	var hash string
	err := c.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(
		&u.ID, &u.Name, &u.Email, &hash, &u.Role, &u.ContactNumber,
		&u.Address.Street, &u.Address.City, &u.Address.PostalCode, &u.Address.Country,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("querying user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (c *Conf) GetByID(ctx context.Context, id string) (User, error) {
	const query = `
		SELECT id, name, email, role, contact_number,
		       street, city, postal_code, country, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.ContactNumber,
		&u.Address.Street, &u.Address.City, &u.Address.PostalCode, &u.Address.Country,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

func (c *Conf) UpdateProfile(ctx context.Context, id string, up UpdateProfile) (User, error) {
	const query = `
		UPDATE users
		SET name = $2, contact_number = $3, street = $4, city = $5,
		    postal_code = $6, country = $7, updated_at = NOW()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, query, id, up.Name, up.ContactNumber,
		up.Address.Street, up.Address.City, up.Address.PostalCode, up.Address.Country)
	if err != nil {
		return User{}, fmt.Errorf("updating profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return User{}, ErrNotFound
	}
	return c.GetByID(ctx, id)
}

// isUniqueViolation matches the postgres unique_violation SQLSTATE.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
