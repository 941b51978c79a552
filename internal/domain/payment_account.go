package domain

import (
	"errors"
	"strings"
	"time"
)

type PaymentAccountType string

const (
	PaymentAccountPayPal PaymentAccountType = "PAYPAL"
	PaymentAccountBank   PaymentAccountType = "BANK"
	PaymentAccountOther  PaymentAccountType = "OTHER"
)

// PaymentAccount is a stored payout destination for a business. Details are
// free-form (an IBAN, a PayPal address, wire instructions) and are printed on
// invoices as-is.
type PaymentAccount struct {
	ID         int64
	BusinessID int64
	Type       PaymentAccountType
	Label      string
	Details    string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPaymentAccount creates a payment account for a business
func NewPaymentAccount(businessID int64, typ PaymentAccountType, label, details string) *PaymentAccount {
	now := time.Now()
	return &PaymentAccount{
		BusinessID: businessID,
		Type:       typ,
		Label:      strings.TrimSpace(label),
		Details:    strings.TrimSpace(details),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate returns an error if the payment account is invalid
func (p *PaymentAccount) Validate() error {
	if p.BusinessID <= 0 {
		return errors.New("business ID is required")
	}
	switch p.Type {
	case PaymentAccountPayPal, PaymentAccountBank, PaymentAccountOther:
	default:
		return errors.New("account type must be PAYPAL, BANK, or OTHER")
	}
	if strings.TrimSpace(p.Details) == "" {
		return errors.New("account details are required")
	}
	return nil
}
