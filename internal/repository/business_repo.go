package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mara/billdesk/internal/db"
	"github.com/mara/billdesk/internal/domain"
)

// BusinessRepo is a SQLite implementation of BusinessRepository
type BusinessRepo struct {
	db *db.DB
}

// NewBusinessRepo creates a new BusinessRepo
func NewBusinessRepo(database *db.DB) *BusinessRepo {
	return &BusinessRepo{db: database}
}

// Create inserts a new business profile into the database
func (r *BusinessRepo) Create(ctx context.Context, business *domain.Business) error {
	if err := business.Validate(); err != nil {
		return fmt.Errorf("invalid business: %w", err)
	}

	query := `
		INSERT INTO businesses (user_id, name, address, tax_id, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		business.UserID,
		business.Name,
		business.Address,
		business.TaxID,
		business.Currency,
		business.CreatedAt.Format(timeLayout),
		business.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get business ID: %w", err)
	}

	business.ID = id
	return nil
}

// GetByUserID retrieves a user's business profile, or nil if none exists
func (r *BusinessRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Business, error) {
	query := `
		SELECT id, user_id, name, address, tax_id, currency, created_at, updated_at
		FROM businesses
		WHERE user_id = ?
	`

	business := &domain.Business{}
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&business.ID,
		&business.UserID,
		&business.Name,
		&business.Address,
		&business.TaxID,
		&business.Currency,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	if business.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if business.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return business, nil
}

// Update updates an existing business profile
func (r *BusinessRepo) Update(ctx context.Context, business *domain.Business) error {
	if err := business.Validate(); err != nil {
		return fmt.Errorf("invalid business: %w", err)
	}

	business.UpdatedAt = time.Now()

	query := `
		UPDATE businesses
		SET name = ?, address = ?, tax_id = ?, currency = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		business.Name,
		business.Address,
		business.TaxID,
		business.Currency,
		business.UpdatedAt.Format(timeLayout),
		business.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("business not found")
	}

	return nil
}
