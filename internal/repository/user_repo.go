package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mara/billdesk/internal/db"
	"github.com/mara/billdesk/internal/domain"
)

// UserRepo is a SQLite implementation of UserRepository
type UserRepo struct {
	db *db.DB
}

// NewUserRepo creates a new UserRepo
func NewUserRepo(database *db.DB) *UserRepo {
	return &UserRepo{db: database}
}

// Create inserts a new user into the database
func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	query := `
		INSERT INTO users (name, email, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.CreatedAt.Format(timeLayout),
		user.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user ID: %w", err)
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user by ID, or nil if none exists
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email, or nil if none exists
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "email = ?", email)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	query := `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE ` + where

	user := &domain.User{}
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return user, nil
}

// GetWithBusiness retrieves a user and their business profile in one query.
// Returns nil when the user does not exist; User.Business is nil when the
// user has no business profile yet.
func (r *UserRepo) GetWithBusiness(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.created_at, u.updated_at,
		       b.id, b.name, b.address, b.tax_id, b.currency, b.created_at, b.updated_at
		FROM users u
		LEFT JOIN businesses b ON b.user_id = u.id
		WHERE u.id = ?
	`

	user := &domain.User{}
	var createdAt, updatedAt string
	var bizID sql.NullInt64
	var bizName, bizAddress, bizTaxID, bizCurrency, bizCreated, bizUpdated sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&createdAt,
		&updatedAt,
		&bizID,
		&bizName,
		&bizAddress,
		&bizTaxID,
		&bizCurrency,
		&bizCreated,
		&bizUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user with business: %w", err)
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	if bizID.Valid {
		business := &domain.Business{
			ID:       bizID.Int64,
			UserID:   user.ID,
			Name:     bizName.String,
			Address:  bizAddress.String,
			TaxID:    bizTaxID.String,
			Currency: bizCurrency.String,
		}
		if business.CreatedAt, err = parseTime(bizCreated.String); err != nil {
			return nil, fmt.Errorf("failed to parse business created_at: %w", err)
		}
		if business.UpdatedAt, err = parseTime(bizUpdated.String); err != nil {
			return nil, fmt.Errorf("failed to parse business updated_at: %w", err)
		}
		user.Business = business
	}

	return user, nil
}
