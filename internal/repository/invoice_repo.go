package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mara/billdesk/internal/billing"
	"github.com/mara/billdesk/internal/db"
	"github.com/mara/billdesk/internal/domain"
)

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	db *db.DB
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(database *db.DB) *InvoiceRepo {
	return &InvoiceRepo{db: database}
}

// Create inserts a new invoice. The number-uniqueness check and the insert
// run inside one transaction, closing the race window between the earlier
// advisory validation and the write; the UNIQUE(business_id, invoice_number)
// constraint backs this up at the schema level. Either way a duplicate
// surfaces as domain.ErrInvoiceNumberTaken.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	itemsJSON, err := json.Marshal(invoice.Items)
	if err != nil {
		return fmt.Errorf("failed to encode line items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var taken int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM invoices WHERE business_id = ? AND invoice_number = ?",
		invoice.BusinessID, invoice.InvoiceNumber,
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check invoice number: %w", err)
	}
	if taken > 0 {
		return domain.ErrInvoiceNumberTaken
	}

	query := `
		INSERT INTO invoices (
			uuid, business_id, client_id, invoice_number, payment_account_id, items,
			subtotal, tax_value, tax_type, tax_amount,
			discount_value, discount_type, discount_amount,
			total, currency, status, notes, due_date, paid_date,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	dueDate := formatNullableTime(invoice.DueDate)
	paidDate := formatNullableTime(invoice.PaidDate)

	var discountValue interface{}
	var discountType interface{}
	if invoice.DiscountValue != nil {
		discountValue = *invoice.DiscountValue
		discountType = string(invoice.DiscountType)
	}

	result, err := tx.ExecContext(ctx, query,
		invoice.UUID,
		invoice.BusinessID,
		invoice.ClientID,
		invoice.InvoiceNumber,
		invoice.PaymentAccountID,
		string(itemsJSON),
		invoice.Subtotal,
		invoice.TaxValue,
		string(invoice.TaxType),
		invoice.TaxAmount,
		discountValue,
		discountType,
		invoice.DiscountAmount,
		invoice.Total,
		invoice.Currency,
		string(invoice.Status),
		invoice.Notes,
		dueDate,
		paidDate,
		invoice.CreatedAt.Format(timeLayout),
		invoice.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrInvoiceNumberTaken
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get invoice ID: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}

	invoice.ID = id
	return nil
}

const invoiceColumns = `
	id, uuid, business_id, client_id, invoice_number, payment_account_id, items,
	subtotal, tax_value, tax_type, tax_amount,
	discount_value, discount_type, discount_amount,
	total, currency, status, notes, due_date, paid_date,
	created_at, updated_at
`

// GetByID retrieves an invoice by ID, or nil if none exists
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT"+invoiceColumns+"FROM invoices WHERE id = ?", id)
	return scanInvoiceRow(row)
}

// GetByUUID retrieves an invoice by public UUID scoped to a business
func (r *InvoiceRepo) GetByUUID(ctx context.Context, businessID int64, uuid string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT"+invoiceColumns+"FROM invoices WHERE business_id = ? AND uuid = ?",
		businessID, uuid)
	invoice, err := scanInvoiceRow(row)
	if err != nil || invoice == nil {
		return invoice, err
	}
	return invoice, r.attachClient(ctx, invoice)
}

// GetByNumber retrieves an invoice by number scoped to a business, or nil
// when the number is free
func (r *InvoiceRepo) GetByNumber(ctx context.Context, businessID int64, number string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT"+invoiceColumns+"FROM invoices WHERE business_id = ? AND invoice_number = ?",
		businessID, number)
	invoice, err := scanInvoiceRow(row)
	if err != nil || invoice == nil {
		return invoice, err
	}
	return invoice, r.attachClient(ctx, invoice)
}

// LatestNumberWithPrefix returns the invoice number of the most recently
// created invoice matching the prefix. Creation order, not numeric order, is
// the tie-break source.
func (r *InvoiceRepo) LatestNumberWithPrefix(ctx context.Context, businessID int64, prefix string) (string, error) {
	query := `
		SELECT invoice_number
		FROM invoices
		WHERE business_id = ? AND invoice_number LIKE ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var number string
	err := r.db.QueryRowContext(ctx, query, businessID, prefix+"%").Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get latest invoice number: %w", err)
	}
	return number, nil
}

// List retrieves a business's invoices with optional filters
func (r *InvoiceRepo) List(ctx context.Context, businessID int64, clientID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	query := "SELECT" + invoiceColumns + "FROM invoices WHERE business_id = ?"
	args := []interface{}{businessID}

	if clientID != nil {
		query += " AND client_id = ?"
		args = append(args, *clientID)
	}

	if status != nil {
		query += " AND status = ?"
		args = append(args, string(*status))
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoiceRow(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	if err := r.attachClients(ctx, businessID, invoices); err != nil {
		return nil, err
	}

	return invoices, nil
}

// attachClient fills Invoice.Client for display purposes
func (r *InvoiceRepo) attachClient(ctx context.Context, invoice *domain.Invoice) error {
	client := &domain.Client{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, email, company FROM clients WHERE id = ?",
		invoice.ClientID,
	).Scan(&client.ID, &client.UserID, &client.Name, &client.Email, &client.Company)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to load invoice client: %w", err)
	}
	invoice.Client = client
	return nil
}

// attachClients fills Invoice.Client for a listing in one extra query
func (r *InvoiceRepo) attachClients(ctx context.Context, businessID int64, invoices []*domain.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}

	query := `
		SELECT c.id, c.user_id, c.name, c.email, c.company
		FROM clients c
		JOIN businesses b ON b.user_id = c.user_id
		WHERE b.id = ?
	`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return fmt.Errorf("failed to load invoice clients: %w", err)
	}
	defer rows.Close()

	clients := make(map[int64]*domain.Client)
	for rows.Next() {
		client := &domain.Client{}
		if err := rows.Scan(&client.ID, &client.UserID, &client.Name, &client.Email, &client.Company); err != nil {
			return fmt.Errorf("failed to scan invoice client: %w", err)
		}
		clients[client.ID] = client
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating invoice clients: %w", err)
	}

	for _, invoice := range invoices {
		invoice.Client = clients[invoice.ClientID]
	}
	return nil
}

// Update persists status and payment changes. Totals and items are immutable
// snapshots and are deliberately not part of the update statement.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	invoice.UpdatedAt = time.Now()

	paidDate := formatNullableTime(invoice.PaidDate)

	query := `
		UPDATE invoices
		SET status = ?, notes = ?, paid_date = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(invoice.Status),
		invoice.Notes,
		paidDate,
		invoice.UpdatedAt.Format(timeLayout),
		invoice.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrInvoiceNotFound
	}

	return nil
}

// MarkOverdue flips pending invoices past their due date to overdue
func (r *InvoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE invoices
		SET status = ?, updated_at = ?
		WHERE status = ? AND due_date IS NOT NULL AND due_date < ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(domain.InvoiceStatusOverdue),
		asOf.Format(timeLayout),
		string(domain.InvoiceStatusPending),
		asOf.Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

// SumTotalsByStatus returns the summed invoice totals per status for a business
func (r *InvoiceRepo) SumTotalsByStatus(ctx context.Context, businessID int64) (map[domain.InvoiceStatus]float64, error) {
	query := `
		SELECT status, COALESCE(SUM(total), 0)
		FROM invoices
		WHERE business_id = ?
		GROUP BY status
	`

	rows, err := r.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum invoice totals: %w", err)
	}
	defer rows.Close()

	sums := make(map[domain.InvoiceStatus]float64)
	for rows.Next() {
		var status string
		var total float64
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("failed to scan totals: %w", err)
		}
		sums[domain.InvoiceStatus(status)] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating totals: %w", err)
	}

	return sums, nil
}

// PaidTotalSince returns the sum of invoices paid on or after the given time
func (r *InvoiceRepo) PaidTotalSince(ctx context.Context, businessID int64, since time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(total), 0)
		FROM invoices
		WHERE business_id = ? AND status = ? AND paid_date >= ?
	`

	var total float64
	err := r.db.QueryRowContext(ctx, query,
		businessID,
		string(domain.InvoiceStatusPaid),
		since.Format(timeLayout),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum paid invoices: %w", err)
	}
	return total, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanInvoiceRow reads one invoice row, decoding the items snapshot and
// nullable columns. Returns (nil, nil) on sql.ErrNoRows.
func scanInvoiceRow(row rowScanner) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var itemsJSON, taxType, status string
	var createdAt, updatedAt string
	var discountValue sql.NullFloat64
	var paymentAccountID sql.NullInt64
	var discountType, notes, dueDate, paidDate sql.NullString

	err := row.Scan(
		&invoice.ID,
		&invoice.UUID,
		&invoice.BusinessID,
		&invoice.ClientID,
		&invoice.InvoiceNumber,
		&paymentAccountID,
		&itemsJSON,
		&invoice.Subtotal,
		&invoice.TaxValue,
		&taxType,
		&invoice.TaxAmount,
		&discountValue,
		&discountType,
		&invoice.DiscountAmount,
		&invoice.Total,
		&invoice.Currency,
		&status,
		&notes,
		&dueDate,
		&paidDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	if err := json.Unmarshal([]byte(itemsJSON), &invoice.Items); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}

	invoice.TaxType = billing.AdjustmentType(taxType)
	invoice.Status = domain.InvoiceStatus(status)
	invoice.Notes = notes.String

	if paymentAccountID.Valid {
		id := paymentAccountID.Int64
		invoice.PaymentAccountID = &id
	}

	if discountValue.Valid {
		v := discountValue.Float64
		invoice.DiscountValue = &v
		invoice.DiscountType = billing.AdjustmentType(discountType.String)
	}

	if invoice.DueDate, err = parseNullableTime(dueDate); err != nil {
		return nil, fmt.Errorf("failed to parse due_date: %w", err)
	}
	if invoice.PaidDate, err = parseNullableTime(paidDate); err != nil {
		return nil, fmt.Errorf("failed to parse paid_date: %w", err)
	}

	if invoice.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if invoice.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return invoice, nil
}
