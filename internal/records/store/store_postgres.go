package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vifm-portal/internal/records/models"
	"vifm-portal/pkg/platform/tx"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx so
// writes can join a transaction carried on the context.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func runner(ctx context.Context, db *sql.DB) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return db
}

// PostgresOpportunityStore persists opportunities in PostgreSQL.
type PostgresOpportunityStore struct {
	db *sql.DB
}

func NewPostgresOpportunities(db *sql.DB) *PostgresOpportunityStore {
	return &PostgresOpportunityStore{db: db}
}

func (s *PostgresOpportunityStore) List(ctx context.Context) ([]*models.Opportunity, error) {
	rows, err := runner(ctx, s.db).QueryContext(ctx,
		`SELECT id, company, contact, value, stage, owner, created_at
		 FROM opportunities ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []*models.Opportunity
	for rows.Next() {
		var o models.Opportunity
		if err := rows.Scan(&o.ID, &o.Company, &o.Contact, &o.Value, &o.Stage, &o.Owner, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		opps = append(opps, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	return opps, nil
}

func (s *PostgresOpportunityStore) FindByID(ctx context.Context, id string) (*models.Opportunity, error) {
	var o models.Opportunity
	err := runner(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, company, contact, value, stage, owner, created_at
		 FROM opportunities WHERE id = $1`, id).
		Scan(&o.ID, &o.Company, &o.Contact, &o.Value, &o.Stage, &o.Owner, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find opportunity: %w", err)
	}
	return &o, nil
}

func (s *PostgresOpportunityStore) Save(ctx context.Context, opp *models.Opportunity) error {
	_, err := runner(ctx, s.db).ExecContext(ctx,
		`INSERT INTO opportunities (id, company, contact, value, stage, owner, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET company = EXCLUDED.company,
		     contact = EXCLUDED.contact,
		     value = EXCLUDED.value,
		     stage = EXCLUDED.stage,
		     owner = EXCLUDED.owner`,
		opp.ID, opp.Company, opp.Contact, opp.Value, opp.Stage, opp.Owner, opp.CreatedAt)
	if err != nil {
		return fmt.Errorf("save opportunity: %w", err)
	}
	return nil
}

func (s *PostgresOpportunityStore) Delete(ctx context.Context, id string) error {
	res, err := runner(ctx, s.db).ExecContext(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresPipelineStore persists pipeline entries in PostgreSQL.
type PostgresPipelineStore struct {
	db *sql.DB
}

func NewPostgresPipeline(db *sql.DB) *PostgresPipelineStore {
	return &PostgresPipelineStore{db: db}
}

func (s *PostgresPipelineStore) ListByOpportunity(ctx context.Context, opportunityID string) ([]*models.PipelineEntry, error) {
	rows, err := runner(ctx, s.db).QueryContext(ctx,
		`SELECT id, opportunity_id, status, notes, updated_by, updated_at
		 FROM pipeline_entries WHERE opportunity_id = $1 ORDER BY updated_at DESC`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list pipeline entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.PipelineEntry
	for rows.Next() {
		var e models.PipelineEntry
		if err := rows.Scan(&e.ID, &e.OpportunityID, &e.Status, &e.Notes, &e.UpdatedBy, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pipeline entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pipeline entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresPipelineStore) Save(ctx context.Context, entry *models.PipelineEntry) error {
	_, err := runner(ctx, s.db).ExecContext(ctx,
		`INSERT INTO pipeline_entries (id, opportunity_id, status, notes, updated_by, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET status = EXCLUDED.status,
		     notes = EXCLUDED.notes,
		     updated_by = EXCLUDED.updated_by,
		     updated_at = EXCLUDED.updated_at`,
		entry.ID, entry.OpportunityID, entry.Status, entry.Notes, entry.UpdatedBy, entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save pipeline entry: %w", err)
	}
	return nil
}

func (s *PostgresPipelineStore) Delete(ctx context.Context, id string) error {
	res, err := runner(ctx, s.db).ExecContext(ctx, `DELETE FROM pipeline_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pipeline entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
