package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

var ErrBadCredentials = errors.New("invalid credentials")

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Authenticate checks username/password against the users table.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (*User, error) {
	var (
		u    User
		hash string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, pass_hash FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return &u, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username FROM users WHERE id=$1`, id).Scan(&u.ID, &u.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &u, nil
}

// SeedAdmin ensures the configured admin user exists. The hash comes from
// config already bcrypt-encoded; existing rows are left alone.
func (r *UserRepo) SeedAdmin(ctx context.Context, username, passHash string) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE username=$1`, username).Scan(&one)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, pass_hash, created_at) VALUES ($1,$2,$3,$4)`,
		uuid.NewString(), username, passHash, time.Now().Unix())
	return err
}
