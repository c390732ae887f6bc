package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vifm-portal/internal/auth/models"
)

// PostgresCredentialStore persists credentials in PostgreSQL.
type PostgresCredentialStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresCredentialStore {
	return &PostgresCredentialStore{db: db}
}

func (s *PostgresCredentialStore) FindByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var cred models.Credential
	err := s.db.QueryRowContext(ctx,
		`SELECT subject_id, email, password_hash
		 FROM credentials WHERE lower(email) = lower($1)`, email).
		Scan(&cred.SubjectID, &cred.Email, &cred.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &cred, nil
}

func (s *PostgresCredentialStore) Save(ctx context.Context, credential *models.Credential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (subject_id, email, password_hash)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (subject_id) DO UPDATE
		 SET email = EXCLUDED.email,
		     password_hash = EXCLUDED.password_hash`,
		credential.SubjectID, credential.Email, credential.PasswordHash)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}
