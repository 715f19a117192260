// Package pgstore is the PostgreSQL Store backend. Every tenant-scoped
// query carries an organization_id predicate, and session transitions
// are guarded UPDATEs so concurrent submits resolve to exactly one
// winner.
package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/talentprobe/talentprobe-backend/internal/model"
	"github.com/talentprobe/talentprobe-backend/internal/store"
)

// Store implements store.Store on top of a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL-backed store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ store.Store = (*Store)(nil)

// mapErr translates pgx-level errors into the store's sentinel errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrConflict
	}
	return err
}

// ─── Organizations ──────────────────────────────────────────────────────

func (s *Store) CreateOrganization(ctx context.Context, name string) (*model.Organization, error) {
	org := &model.Organization{Name: name}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO organizations (name) VALUES ($1)
		 RETURNING id, created_at`, name,
	).Scan(&org.ID, &org.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return org, nil
}

func (s *Store) Organization(ctx context.Context, orgID int64) (*model.Organization, error) {
	org := &model.Organization{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM organizations WHERE id = $1`, orgID,
	).Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return org, nil
}

func (s *Store) RenameOrganization(ctx context.Context, orgID int64, name string) (*model.Organization, error) {
	org := &model.Organization{}
	err := s.pool.QueryRow(ctx,
		`UPDATE organizations SET name = $2 WHERE id = $1
		 RETURNING id, name, created_at`, orgID, name,
	).Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return org, nil
}

// ─── Users ──────────────────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, orgID int64, u *model.User) error {
	u.OrganizationID = orgID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (organization_id, email, name, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		orgID, u.Email, u.Name, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	return mapErr(err)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, organization_id, email, name, password_hash, created_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.OrganizationID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}
