package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/org/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

// PostgresStore persists organizations in PostgreSQL. Pure I/O; domain logic
// belongs in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfAvailable(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, slug, plan, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(org.ID), org.Name, org.Slug, string(org.Plan), string(org.Status), org.CreatedAt, org.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, orgID id.OrgID) (*models.Organization, error) {
	query := `
		SELECT id, name, slug, plan, status, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	org, err := scanOrg(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(orgID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return org, nil
}

func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	query := `
		SELECT id, name, slug, plan, status, created_at, updated_at
		FROM organizations
		WHERE LOWER(slug) = LOWER($1)
	`
	org, err := scanOrg(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find organization by slug: %w", err)
	}
	return org, nil
}

// Execute loads the row FOR UPDATE, runs validate, applies mutate, and writes
// back, all within one transaction.
func (s *PostgresStore) Execute(ctx context.Context, orgID id.OrgID, validate func(*models.Organization) error, mutate func(*models.Organization)) (*models.Organization, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin execute: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	query := `
		SELECT id, name, slug, plan, status, created_at, updated_at
		FROM organizations
		WHERE id = $1
		FOR UPDATE
	`
	org, err := scanOrg(sqlTx.QueryRowContext(ctx, query, uuid.UUID(orgID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock organization: %w", err)
	}

	if err := validate(org); err != nil {
		return nil, err
	}
	mutate(org)

	update := `
		UPDATE organizations
		SET name = $2, slug = $3, plan = $4, status = $5, updated_at = $6
		WHERE id = $1
	`
	if _, err := sqlTx.ExecContext(ctx, update,
		uuid.UUID(org.ID), org.Name, org.Slug, string(org.Plan), string(org.Status), org.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update organization: %w", err)
	}
	if err := sqlTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit execute: %w", err)
	}
	return org, nil
}

type orgRow interface {
	Scan(dest ...any) error
}

func scanOrg(row orgRow) (*models.Organization, error) {
	var org models.Organization
	var rawID uuid.UUID
	var plan, status string
	if err := row.Scan(&rawID, &org.Name, &org.Slug, &plan, &status, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return nil, err
	}
	org.ID = id.OrgID(rawID)
	org.Plan = models.Plan(plan)
	org.Status = models.OrgStatus(status)
	return &org, nil
}
