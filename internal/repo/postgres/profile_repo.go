package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

// CredentialRecord carries the password hash alongside the identity
// fields; it never leaves the auth service.
type CredentialRecord struct {
	ID           string
	Email        string
	Username     string
	Role         enums.Role
	PasswordHash string
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) GetByID(ctx context.Context, userID string) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}

	var p model.Profile
	var role string
	err := r.pool.QueryRow(ctx, `
SELECT id, email, username, COALESCE(push_token, ''), role, created_at, updated_at
FROM profiles
WHERE id = $1
`, userID).Scan(&p.ID, &p.Email, &p.Username, &p.PushToken, &role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile by id: %w", err)
	}
	p.Role = enums.Role(role)

	return p, nil
}

func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (CredentialRecord, error) {
	if r.pool == nil {
		return CredentialRecord{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return CredentialRecord{}, fmt.Errorf("invalid email")
	}

	var rec CredentialRecord
	var role string
	err := r.pool.QueryRow(ctx, `
SELECT id, email, username, role, password_hash
FROM profiles
WHERE LOWER(email) = $1
`, email).Scan(&rec.ID, &rec.Email, &rec.Username, &role, &rec.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CredentialRecord{}, ErrProfileNotFound
		}
		return CredentialRecord{}, fmt.Errorf("get profile by email: %w", err)
	}
	rec.Role = enums.Role(role)

	return rec, nil
}

