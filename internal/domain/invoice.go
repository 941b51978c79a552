package domain

import (
	"errors"
	"time"

	"github.com/mara/billdesk/internal/billing"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is an immutable financial snapshot created once at invoice-creation
// time. Items and totals are denormalized copies of the calculation result;
// later changes to clients or catalog pricing never alter a stored invoice.
type Invoice struct {
	ID            int64
	UUID          string
	BusinessID    int64
	ClientID      int64
	InvoiceNumber string

	// Optional payout destination shown on the invoice
	PaymentAccountID *int64

	Items          []billing.LineItem
	Subtotal       float64
	TaxValue       float64
	TaxType        billing.AdjustmentType
	TaxAmount      float64
	DiscountValue  *float64
	DiscountType   billing.AdjustmentType
	DiscountAmount float64
	Total          float64

	Currency  string
	Status    InvoiceStatus
	Notes     string
	DueDate   *time.Time
	PaidDate  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// Related data (populated by repository)
	Client *Client
}

// NewInvoice creates a pending invoice shell; totals and items are filled in
// from a billing.CalculationResult by the caller.
func NewInvoice(uuid, invoiceNumber string, businessID, clientID int64) *Invoice {
	now := time.Now()
	return &Invoice{
		UUID:          uuid,
		InvoiceNumber: invoiceNumber,
		BusinessID:    businessID,
		ClientID:      clientID,
		Status:        InvoiceStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ApplyTotals copies a calculation result onto the invoice
func (i *Invoice) ApplyTotals(result *billing.CalculationResult) {
	i.Items = result.Items
	i.Subtotal = result.Subtotal
	i.TaxAmount = result.TaxAmount
	i.DiscountAmount = result.DiscountAmount
	i.Total = result.Total
}

// IsOpen returns true while the invoice still awaits payment
func (i *Invoice) IsOpen() bool {
	return i.Status == InvoiceStatusPending || i.Status == InvoiceStatusOverdue
}

// MarkPaid records payment on the given date
func (i *Invoice) MarkPaid(paidDate time.Time) error {
	if !i.IsOpen() {
		return errors.New("only pending or overdue invoices can be marked paid")
	}
	i.Status = InvoiceStatusPaid
	i.PaidDate = &paidDate
	i.UpdatedAt = time.Now()
	return nil
}

// Cancel voids an unpaid invoice
func (i *Invoice) Cancel() error {
	if !i.IsOpen() {
		return errors.New("only pending or overdue invoices can be cancelled")
	}
	i.Status = InvoiceStatusCancelled
	i.UpdatedAt = time.Now()
	return nil
}

// Validate returns an error if the invoice is invalid
func (i *Invoice) Validate() error {
	if i.UUID == "" {
		return errors.New("invoice UUID is required")
	}
	if i.InvoiceNumber == "" {
		return errors.New("invoice number is required")
	}
	if i.BusinessID <= 0 {
		return errors.New("business ID is required")
	}
	if i.ClientID <= 0 {
		return errors.New("client ID is required")
	}
	if len(i.Items) == 0 {
		return errors.New("at least one line item is required")
	}
	if i.Subtotal <= 0 {
		return errors.New("subtotal must be greater than zero")
	}
	if i.Total <= 0 {
		return errors.New("total must be greater than zero")
	}
	return nil
}
