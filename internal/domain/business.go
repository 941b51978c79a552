package domain

import (
	"errors"
	"strings"
	"time"
)

// Business is a user's billing profile. Invoices, clients, and payment
// accounts all hang off a business; invoice numbers are unique within it.
type Business struct {
	ID        int64
	UserID    int64
	Name      string
	Address   string
	TaxID     string
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBusiness creates a business profile for a user
func NewBusiness(userID int64, name string) *Business {
	now := time.Now()
	return &Business{
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Currency:  "USD",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate returns an error if the business is invalid
func (b *Business) Validate() error {
	if b.UserID <= 0 {
		return errors.New("owner user ID is required")
	}
	if strings.TrimSpace(b.Name) == "" {
		return errors.New("business name is required")
	}
	if len(b.Currency) != 3 {
		return errors.New("currency must be a 3-letter code")
	}
	return nil
}
