package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mara/billdesk/internal/db"
	"github.com/mara/billdesk/internal/domain"
)

// PaymentAccountRepo is a SQLite implementation of PaymentAccountRepository
type PaymentAccountRepo struct {
	db *db.DB
}

// NewPaymentAccountRepo creates a new PaymentAccountRepo
func NewPaymentAccountRepo(database *db.DB) *PaymentAccountRepo {
	return &PaymentAccountRepo{db: database}
}

// Create inserts a new payment account. The first account for a business
// becomes the default automatically.
func (r *PaymentAccountRepo) Create(ctx context.Context, account *domain.PaymentAccount) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("invalid payment account: %w", err)
	}

	var existing int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM payment_accounts WHERE business_id = ?",
		account.BusinessID,
	).Scan(&existing)
	if err != nil {
		return fmt.Errorf("failed to count payment accounts: %w", err)
	}
	if existing == 0 {
		account.IsDefault = true
	}

	query := `
		INSERT INTO payment_accounts (business_id, type, label, details, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		account.BusinessID,
		string(account.Type),
		account.Label,
		account.Details,
		account.IsDefault,
		account.CreatedAt.Format(timeLayout),
		account.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create payment account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get payment account ID: %w", err)
	}

	account.ID = id
	return nil
}

// Get retrieves one payment account scoped to a business, or nil if none exists
func (r *PaymentAccountRepo) Get(ctx context.Context, businessID, accountID int64) (*domain.PaymentAccount, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, business_id, type, label, details, is_default, created_at, updated_at
		FROM payment_accounts
		WHERE id = ? AND business_id = ?
	`, accountID, businessID)
	return scanPaymentAccountRow(row)
}

// GetDefault retrieves the business's default payment account, or nil if the
// business has no accounts.
func (r *PaymentAccountRepo) GetDefault(ctx context.Context, businessID int64) (*domain.PaymentAccount, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, business_id, type, label, details, is_default, created_at, updated_at
		FROM payment_accounts
		WHERE business_id = ? AND is_default = 1
		LIMIT 1
	`, businessID)
	return scanPaymentAccountRow(row)
}

func scanPaymentAccountRow(row rowScanner) (*domain.PaymentAccount, error) {
	account := &domain.PaymentAccount{}
	var typ, createdAt, updatedAt string

	err := row.Scan(
		&account.ID,
		&account.BusinessID,
		&typ,
		&account.Label,
		&account.Details,
		&account.IsDefault,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan payment account: %w", err)
	}

	account.Type = domain.PaymentAccountType(typ)
	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if account.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return account, nil
}

// ListByBusiness retrieves all payment accounts for a business
func (r *PaymentAccountRepo) ListByBusiness(ctx context.Context, businessID int64) ([]*domain.PaymentAccount, error) {
	query := `
		SELECT id, business_id, type, label, details, is_default, created_at, updated_at
		FROM payment_accounts
		WHERE business_id = ?
		ORDER BY is_default DESC, label
	`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*domain.PaymentAccount, 0)
	for rows.Next() {
		account, err := scanPaymentAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment accounts: %w", err)
	}

	return accounts, nil
}

// SetDefault makes one account the default for a business, clearing the flag
// on the others inside a transaction.
func (r *PaymentAccountRepo) SetDefault(ctx context.Context, businessID, accountID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE payment_accounts SET is_default = 0, updated_at = ? WHERE business_id = ?",
		formatTime(), businessID,
	); err != nil {
		return fmt.Errorf("failed to clear default accounts: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE payment_accounts SET is_default = 1, updated_at = ? WHERE id = ? AND business_id = ?",
		formatTime(), accountID, businessID,
	)
	if err != nil {
		return fmt.Errorf("failed to set default account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("payment account not found")
	}

	return tx.Commit()
}

// Delete removes a payment account from a business
func (r *PaymentAccountRepo) Delete(ctx context.Context, businessID, accountID int64) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM payment_accounts WHERE id = ? AND business_id = ?",
		accountID, businessID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete payment account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("payment account not found")
	}

	return nil
}
