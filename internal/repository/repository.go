package repository

import (
	"context"
	"time"

	"github.com/mara/billdesk/internal/domain"
)

// Getters in this package return (nil, nil) when no row matches; callers map
// that to the appropriate user-facing error.

// UserRepository manages user persistence
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetWithBusiness loads a user together with their business profile in a
	// single query; User.Business stays nil when no profile exists.
	GetWithBusiness(ctx context.Context, id int64) (*domain.User, error)
}

// BusinessRepository manages business profile persistence
type BusinessRepository interface {
	Create(ctx context.Context, business *domain.Business) error
	GetByUserID(ctx context.Context, userID int64) (*domain.Business, error)
	Update(ctx context.Context, business *domain.Business) error
}

// ClientRepository manages client persistence. All reads and writes are
// scoped to the owning user; a client belonging to someone else behaves
// exactly like a client that does not exist.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetOwned(ctx context.Context, id, userID int64) (*domain.Client, error)
	List(ctx context.Context, userID int64, includeArchived bool) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Archive(ctx context.Context, id, userID int64) error
	Unarchive(ctx context.Context, id, userID int64) error
	CountActive(ctx context.Context, userID int64) (int, error)
}

// InvoiceRepository manages invoice persistence
type InvoiceRepository interface {
	// Create inserts an invoice inside a single transaction that re-checks
	// number uniqueness for (businessID, invoiceNumber) immediately before
	// the insert. Returns domain.ErrInvoiceNumberTaken when a concurrent
	// writer claimed the number first.
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByUUID(ctx context.Context, businessID int64, uuid string) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, businessID int64, number string) (*domain.Invoice, error)
	// LatestNumberWithPrefix returns the number of the most recently created
	// invoice whose number starts with prefix, or "" when there is none.
	LatestNumberWithPrefix(ctx context.Context, businessID int64, prefix string) (string, error)
	List(ctx context.Context, businessID int64, clientID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error)
	Update(ctx context.Context, invoice *domain.Invoice) error
	// MarkOverdue flips pending invoices past their due date to overdue and
	// reports how many rows changed.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	SumTotalsByStatus(ctx context.Context, businessID int64) (map[domain.InvoiceStatus]float64, error)
	PaidTotalSince(ctx context.Context, businessID int64, since time.Time) (float64, error)
}

// PaymentAccountRepository manages payout destination persistence
type PaymentAccountRepository interface {
	Create(ctx context.Context, account *domain.PaymentAccount) error
	Get(ctx context.Context, businessID, accountID int64) (*domain.PaymentAccount, error)
	// GetDefault returns the business's default payout account, or nil when
	// the business has no accounts.
	GetDefault(ctx context.Context, businessID int64) (*domain.PaymentAccount, error)
	ListByBusiness(ctx context.Context, businessID int64) ([]*domain.PaymentAccount, error)
	SetDefault(ctx context.Context, businessID, accountID int64) error
	Delete(ctx context.Context, businessID, accountID int64) error
}
