package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vifm-portal/internal/profile/models"
)

// PostgresStore persists profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, role, created_at
		 FROM profiles WHERE lower(email) = lower($1)`, email)
	return scanProfile(row)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, role, created_at
		 FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, display_name, role, created_at
		 FROM profiles ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

func (s *PostgresStore) Save(ctx context.Context, profile *models.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, display_name, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET email = EXCLUDED.email,
		     display_name = EXCLUDED.display_name,
		     role = EXCLUDED.role`,
		profile.ID, profile.Email, profile.DisplayName, string(profile.Role), profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProfile(row *sql.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}
