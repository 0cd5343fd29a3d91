package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cryptocrystian/pravado-v2-sub011/internal/auth/models"
	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/sentinel"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

// PostgresStore persists users in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfEmailAvailable(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, org_id, email, name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.QuerierFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(u.ID), uuid.UUID(u.OrgID), u.Email, u.Name, string(u.Role), u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `
		SELECT id, org_id, email, name, role, password_hash, created_at
		FROM users
		WHERE id = $1
	`
	u, err := scanUser(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, org_id, email, name, role, password_hash, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`
	u, err := scanUser(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) CountByOrg(ctx context.Context, orgID id.OrgID) (int, error) {
	var count int
	err := tx.QuerierFrom(ctx, s.db).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE org_id = $1`, uuid.UUID(orgID)).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

type userRow interface {
	Scan(dest ...any) error
}

func scanUser(row userRow) (*models.User, error) {
	var u models.User
	var userID, orgID uuid.UUID
	var role string
	if err := row.Scan(&userID, &orgID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ID = id.UserID(userID)
	u.OrgID = id.OrgID(orgID)
	u.Role = models.Role(role)
	return &u, nil
}
