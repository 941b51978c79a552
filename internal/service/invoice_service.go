package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mara/billdesk/internal/billing"
	"github.com/mara/billdesk/internal/domain"
	"github.com/mara/billdesk/internal/repository"
)

// CreateInvoiceInput carries everything a caller supplies when creating an
// invoice. InvoiceNumber is optional; when empty a number is generated.
// DiscountValue nil means no discount line at all. PaymentAccountID nil
// falls back to the business's default payout account, if any.
type CreateInvoiceInput struct {
	ClientID         int64
	Items            []billing.RawLineItem
	TaxValue         float64
	TaxType          billing.AdjustmentType
	DiscountValue    *float64
	DiscountType     billing.AdjustmentType
	InvoiceNumber    string
	PaymentAccountID *int64
	DueDate          *time.Time
	Notes            string
}

// InvoiceService manages the invoice lifecycle
type InvoiceService interface {
	// CreateInvoice runs the full pipeline: ownership validation, invoice
	// number resolution, item sanitization and totals calculation, then a
	// transactional insert. Any failure rejects the whole attempt; no
	// partial invoice is ever written.
	CreateInvoice(ctx context.Context, userID int64, in CreateInvoiceInput) (*domain.Invoice, error)

	// GetInvoice retrieves one of the user's invoices by public UUID
	GetInvoice(ctx context.Context, userID int64, invoiceUUID string) (*domain.Invoice, error)

	// ListInvoices lists the user's invoices with optional filters
	ListInvoices(ctx context.Context, userID int64, clientID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error)

	// MarkPaid records payment on an open invoice
	MarkPaid(ctx context.Context, userID int64, invoiceUUID string, paidDate time.Time) error

	// Cancel voids an open invoice
	Cancel(ctx context.Context, userID int64, invoiceUUID string) error

	// CheckOverdue flips pending invoices past their due date to overdue,
	// across all businesses, and returns how many changed
	CheckOverdue(ctx context.Context) (int64, error)
}

type invoiceService struct {
	userRepo    repository.UserRepository
	clientRepo  repository.ClientRepository
	invoiceRepo repository.InvoiceRepository
	accountRepo repository.PaymentAccountRepository

	numberPrefix   string
	defaultDueDays int
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	userRepo repository.UserRepository,
	clientRepo repository.ClientRepository,
	invoiceRepo repository.InvoiceRepository,
	accountRepo repository.PaymentAccountRepository,
	numberPrefix string,
	defaultDueDays int,
) InvoiceService {
	if numberPrefix == "" {
		numberPrefix = "INV"
	}
	return &invoiceService{
		userRepo:       userRepo,
		clientRepo:     clientRepo,
		invoiceRepo:    invoiceRepo,
		accountRepo:    accountRepo,
		numberPrefix:   numberPrefix,
		defaultDueDays: defaultDueDays,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, userID int64, in CreateInvoiceInput) (*domain.Invoice, error) {
	user, client, err := s.validateUserBusinessAndClient(ctx, userID, in.ClientID)
	if err != nil {
		return nil, err
	}
	business := user.Business

	number, err := s.resolveInvoiceNumber(ctx, business.ID, strings.TrimSpace(in.InvoiceNumber))
	if err != nil {
		return nil, err
	}

	accountID, err := s.resolvePaymentAccount(ctx, business.ID, in.PaymentAccountID)
	if err != nil {
		return nil, err
	}

	taxType := in.TaxType
	if taxType == "" {
		taxType = billing.AdjustmentPercentage
	}
	discountType := in.DiscountType
	if discountType == "" {
		discountType = billing.AdjustmentPercentage
	}

	result, err := billing.CalculateInvoiceTotals(billing.TotalsInput{
		Items:         in.Items,
		TaxValue:      in.TaxValue,
		TaxType:       taxType,
		DiscountValue: in.DiscountValue,
		DiscountType:  discountType,
	})
	if err != nil {
		return nil, err
	}

	invoice := domain.NewInvoice(uuid.NewString(), number, business.ID, client.ID)
	invoice.TaxValue = in.TaxValue
	invoice.TaxType = taxType
	invoice.DiscountValue = in.DiscountValue
	if in.DiscountValue != nil {
		invoice.DiscountType = discountType
	}
	invoice.Currency = business.Currency
	invoice.Notes = in.Notes
	invoice.PaymentAccountID = accountID
	invoice.ApplyTotals(result)

	if in.DueDate != nil {
		due := *in.DueDate
		invoice.DueDate = &due
	} else if s.defaultDueDays > 0 {
		due := time.Now().AddDate(0, 0, s.defaultDueDays)
		invoice.DueDate = &due
	}

	// The repository re-checks number uniqueness inside the insert
	// transaction. A concurrent auto-generating request for the same
	// business and year can lose that race; the loser gets
	// ErrInvoiceNumberTaken and the caller resubmits.
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

// validateUserBusinessAndClient runs the user-with-business fetch and the
// client-ownership fetch concurrently. The client lookup filters by owner, so
// a client that exists under another account yields the same error as one
// that does not exist.
func (s *invoiceService) validateUserBusinessAndClient(ctx context.Context, userID, clientID int64) (*domain.User, *domain.Client, error) {
	var (
		user   *domain.User
		client *domain.Client
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.userRepo.GetWithBusiness(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		client, err = s.clientRepo.GetOwned(gctx, clientID, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("ownership validation failed: %w", err)
	}

	if user == nil {
		return nil, nil, domain.ErrUserNotFound
	}
	if user.Business == nil {
		return nil, nil, domain.ErrBusinessNotFound
	}
	if client == nil {
		return nil, nil, domain.ErrClientNotFound
	}

	return user, client, nil
}

// resolvePaymentAccount checks a caller-supplied payout account belongs to
// the business, or falls back to the business's default account. A nil
// result means the invoice carries no payout destination.
func (s *invoiceService) resolvePaymentAccount(ctx context.Context, businessID int64, provided *int64) (*int64, error) {
	if provided != nil {
		account, err := s.accountRepo.Get(ctx, businessID, *provided)
		if err != nil {
			return nil, fmt.Errorf("failed to check payment account: %w", err)
		}
		if account == nil {
			return nil, domain.ErrAccountNotFound
		}
		return provided, nil
	}

	account, err := s.accountRepo.GetDefault(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to load default payment account: %w", err)
	}
	if account == nil {
		return nil, nil
	}
	id := account.ID
	return &id, nil
}

// resolveInvoiceNumber validates a caller-supplied number or generates the
// next one in the business's INV-<year>-NNNN sequence.
func (s *invoiceService) resolveInvoiceNumber(ctx context.Context, businessID int64, provided string) (string, error) {
	if provided != "" {
		existing, err := s.invoiceRepo.GetByNumber(ctx, businessID, provided)
		if err != nil {
			return "", fmt.Errorf("failed to check invoice number: %w", err)
		}
		if existing != nil {
			return "", domain.ErrInvoiceNumberTaken
		}
		return provided, nil
	}

	prefix := fmt.Sprintf("%s-%d-", s.numberPrefix, time.Now().Year())

	last, err := s.invoiceRepo.LatestNumberWithPrefix(ctx, businessID, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice number: %w", err)
	}

	// Sequence source is the most recently created number, parsed after its
	// last dash. Unparseable or absent restarts the sequence at 1.
	seq := 1
	if last != "" {
		if idx := strings.LastIndex(last, "-"); idx >= 0 {
			if n, err := strconv.Atoi(last[idx+1:]); err == nil {
				seq = n + 1
			}
		}
	}

	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, userID int64, invoiceUUID string) (*domain.Invoice, error) {
	business, err := s.requireBusiness(ctx, userID)
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByUUID(ctx, business.ID, invoiceUUID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, userID int64, clientID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	business, err := s.requireBusiness(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.invoiceRepo.List(ctx, business.ID, clientID, status)
}

func (s *invoiceService) MarkPaid(ctx context.Context, userID int64, invoiceUUID string, paidDate time.Time) error {
	invoice, err := s.GetInvoice(ctx, userID, invoiceUUID)
	if err != nil {
		return err
	}

	if err := invoice.MarkPaid(paidDate); err != nil {
		return err
	}
	return s.invoiceRepo.Update(ctx, invoice)
}

func (s *invoiceService) Cancel(ctx context.Context, userID int64, invoiceUUID string) error {
	invoice, err := s.GetInvoice(ctx, userID, invoiceUUID)
	if err != nil {
		return err
	}

	if err := invoice.Cancel(); err != nil {
		return err
	}
	return s.invoiceRepo.Update(ctx, invoice)
}

func (s *invoiceService) CheckOverdue(ctx context.Context) (int64, error) {
	return s.invoiceRepo.MarkOverdue(ctx, time.Now())
}

// requireBusiness resolves a user's business profile or fails with the
// appropriate user-facing error.
func (s *invoiceService) requireBusiness(ctx context.Context, userID int64) (*domain.Business, error) {
	user, err := s.userRepo.GetWithBusiness(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if user.Business == nil {
		return nil, domain.ErrBusinessNotFound
	}
	return user.Business, nil
}
