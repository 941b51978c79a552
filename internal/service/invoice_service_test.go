package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mara/billdesk/internal/billing"
	"github.com/mara/billdesk/internal/domain"
)

// mock implementations
type mockUserRepo struct {
	users map[int64]*domain.User
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error { return nil }
func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return m.users[id], nil
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (m *mockUserRepo) GetWithBusiness(ctx context.Context, id int64) (*domain.User, error) {
	return m.users[id], nil
}

type mockClientRepo struct {
	clients map[int64]*domain.Client
}

func (m *mockClientRepo) Create(ctx context.Context, client *domain.Client) error { return nil }
func (m *mockClientRepo) GetOwned(ctx context.Context, id, userID int64) (*domain.Client, error) {
	c, ok := m.clients[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return c, nil
}
func (m *mockClientRepo) List(ctx context.Context, userID int64, includeArchived bool) ([]*domain.Client, error) {
	return nil, nil
}
func (m *mockClientRepo) Update(ctx context.Context, client *domain.Client) error { return nil }
func (m *mockClientRepo) Archive(ctx context.Context, id, userID int64) error     { return nil }
func (m *mockClientRepo) Unarchive(ctx context.Context, id, userID int64) error   { return nil }
func (m *mockClientRepo) CountActive(ctx context.Context, userID int64) (int, error) {
	return len(m.clients), nil
}

type mockInvoiceRepo struct {
	mu       sync.Mutex
	invoices []*domain.Invoice
	updated  *domain.Invoice

	// called at the top of LatestNumberWithPrefix, outside the lock
	beforeLatest func()
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.BusinessID == invoice.BusinessID && inv.InvoiceNumber == invoice.InvoiceNumber {
			return domain.ErrInvoiceNumberTaken
		}
	}
	invoice.ID = int64(len(m.invoices) + 1)
	m.invoices = append(m.invoices, invoice)
	return nil
}
func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, nil
}
func (m *mockInvoiceRepo) GetByUUID(ctx context.Context, businessID int64, uuid string) (*domain.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.BusinessID == businessID && inv.UUID == uuid {
			return inv, nil
		}
	}
	return nil, nil
}
func (m *mockInvoiceRepo) GetByNumber(ctx context.Context, businessID int64, number string) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.BusinessID == businessID && inv.InvoiceNumber == number {
			return inv, nil
		}
	}
	return nil, nil
}
func (m *mockInvoiceRepo) LatestNumberWithPrefix(ctx context.Context, businessID int64, prefix string) (string, error) {
	if m.beforeLatest != nil {
		m.beforeLatest()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// invoices are appended in creation order; scan backwards
	for i := len(m.invoices) - 1; i >= 0; i-- {
		inv := m.invoices[i]
		if inv.BusinessID == businessID && len(inv.InvoiceNumber) >= len(prefix) && inv.InvoiceNumber[:len(prefix)] == prefix {
			return inv.InvoiceNumber, nil
		}
	}
	return "", nil
}
func (m *mockInvoiceRepo) List(ctx context.Context, businessID int64, clientID *int64, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	return m.invoices, nil
}
func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	m.updated = invoice
	return nil
}
func (m *mockInvoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, inv := range m.invoices {
		if inv.Status == domain.InvoiceStatusPending && inv.DueDate != nil && inv.DueDate.Before(asOf) {
			inv.Status = domain.InvoiceStatusOverdue
			n++
		}
	}
	return n, nil
}
func (m *mockInvoiceRepo) SumTotalsByStatus(ctx context.Context, businessID int64) (map[domain.InvoiceStatus]float64, error) {
	totals := make(map[domain.InvoiceStatus]float64)
	for _, inv := range m.invoices {
		if inv.BusinessID == businessID {
			totals[inv.Status] += inv.Total
		}
	}
	return totals, nil
}
func (m *mockInvoiceRepo) PaidTotalSince(ctx context.Context, businessID int64, since time.Time) (float64, error) {
	var total float64
	for _, inv := range m.invoices {
		if inv.BusinessID == businessID && inv.Status == domain.InvoiceStatusPaid && inv.PaidDate != nil && !inv.PaidDate.Before(since) {
			total += inv.Total
		}
	}
	return total, nil
}

type mockAccountRepo struct {
	accounts map[int64]*domain.PaymentAccount
}

func (m *mockAccountRepo) Create(ctx context.Context, account *domain.PaymentAccount) error {
	return nil
}
func (m *mockAccountRepo) Get(ctx context.Context, businessID, accountID int64) (*domain.PaymentAccount, error) {
	a, ok := m.accounts[accountID]
	if !ok || a.BusinessID != businessID {
		return nil, nil
	}
	return a, nil
}
func (m *mockAccountRepo) GetDefault(ctx context.Context, businessID int64) (*domain.PaymentAccount, error) {
	for _, a := range m.accounts {
		if a.BusinessID == businessID && a.IsDefault {
			return a, nil
		}
	}
	return nil, nil
}
func (m *mockAccountRepo) ListByBusiness(ctx context.Context, businessID int64) ([]*domain.PaymentAccount, error) {
	return nil, nil
}
func (m *mockAccountRepo) SetDefault(ctx context.Context, businessID, accountID int64) error {
	return nil
}
func (m *mockAccountRepo) Delete(ctx context.Context, businessID, accountID int64) error {
	return nil
}

func newTestService(invoiceRepo *mockInvoiceRepo) *invoiceService {
	users := &mockUserRepo{users: map[int64]*domain.User{
		1: {ID: 1, Email: "mara@example.com", Business: &domain.Business{ID: 5, UserID: 1, Name: "Mara Studio", Currency: "USD"}},
		2: {ID: 2, Email: "nobiz@example.com"},
	}}
	clients := &mockClientRepo{clients: map[int64]*domain.Client{
		7: {ID: 7, UserID: 1, Name: "ACME"},
		8: {ID: 8, UserID: 99, Name: "Someone else's client"},
	}}
	accounts := &mockAccountRepo{accounts: map[int64]*domain.PaymentAccount{
		3: {ID: 3, BusinessID: 5, Type: domain.PaymentAccountBank, Label: "Main", Details: "IBAN ...", IsDefault: true},
	}}
	return &invoiceService{
		userRepo:       users,
		clientRepo:     clients,
		invoiceRepo:    invoiceRepo,
		accountRepo:    accounts,
		numberPrefix:   "INV",
		defaultDueDays: 30,
	}
}

func basicInput() CreateInvoiceInput {
	return CreateInvoiceInput{
		ClientID: 7,
		Items: []billing.RawLineItem{
			{Description: "Design work", Quantity: 2, UnitPrice: 50},
		},
		TaxValue: 10,
		TaxType:  billing.AdjustmentPercentage,
	}
}

func TestCreateInvoice_GeneratesFirstNumber(t *testing.T) {
	repo := &mockInvoiceRepo{}
	svc := newTestService(repo)

	inv, err := svc.CreateInvoice(context.Background(), 1, basicInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := fmt.Sprintf("INV-%d-0001", time.Now().Year())
	if inv.InvoiceNumber != want {
		t.Fatalf("expected number %s, got %s", want, inv.InvoiceNumber)
	}
	if inv.Status != domain.InvoiceStatusPending {
		t.Fatalf("expected PENDING status, got %s", inv.Status)
	}
	if inv.Currency != "USD" {
		t.Fatalf("expected currency from business, got %q", inv.Currency)
	}
	if inv.Subtotal != 100 || inv.TaxAmount != 10 || inv.Total != 110 {
		t.Fatalf("unexpected totals: subtotal=%v tax=%v total=%v", inv.Subtotal, inv.TaxAmount, inv.Total)
	}
	if inv.UUID == "" {
		t.Fatal("expected a generated UUID")
	}
	if inv.DueDate == nil {
		t.Fatal("expected a default due date")
	}
	if inv.PaymentAccountID == nil || *inv.PaymentAccountID != 3 {
		t.Fatalf("expected the default payment account, got %v", inv.PaymentAccountID)
	}
}

func TestCreateInvoice_RejectsForeignPaymentAccount(t *testing.T) {
	repo := &mockInvoiceRepo{}
	svc := newTestService(repo)

	accountID := int64(404)
	in := basicInput()
	in.PaymentAccountID = &accountID

	_, err := svc.CreateInvoice(context.Background(), 1, in)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if len(repo.invoices) != 0 {
		t.Fatal("expected no invoice to be written")
	}
}

func TestCreateInvoice_IncrementsSequence(t *testing.T) {
	year := time.Now().Year()
	repo := &mockInvoiceRepo{invoices: []*domain.Invoice{
		{ID: 1, BusinessID: 5, InvoiceNumber: fmt.Sprintf("INV-%d-0003", year)},
		{ID: 2, BusinessID: 5, InvoiceNumber: fmt.Sprintf("INV-%d-0007", year)},
	}}
	svc := newTestService(repo)

	inv, err := svc.CreateInvoice(context.Background(), 1, basicInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := fmt.Sprintf("INV-%d-0008", year)
	if inv.InvoiceNumber != want {
		t.Fatalf("expected number %s, got %s", want, inv.InvoiceNumber)
	}
}

func TestCreateInvoice_SequenceIgnoresOtherBusinesses(t *testing.T) {
	year := time.Now().Year()
	repo := &mockInvoiceRepo{invoices: []*domain.Invoice{
		{ID: 1, BusinessID: 99, InvoiceNumber: fmt.Sprintf("INV-%d-0042", year)},
	}}
	svc := newTestService(repo)

	inv, err := svc.CreateInvoice(context.Background(), 1, basicInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := fmt.Sprintf("INV-%d-0001", year)
	if inv.InvoiceNumber != want {
		t.Fatalf("expected number %s, got %s", want, inv.InvoiceNumber)
	}
}

func TestCreateInvoice_ProvidedNumberCollision(t *testing.T) {
	repo := &mockInvoiceRepo{invoices: []*domain.Invoice{
		{ID: 1, BusinessID: 5, InvoiceNumber: "CUSTOM-1"},
	}}
	svc := newTestService(repo)

	in := basicInput()
	in.InvoiceNumber = "CUSTOM-1"

	_, err := svc.CreateInvoice(context.Background(), 1, in)
	if !errors.Is(err, domain.ErrInvoiceNumberTaken) {
		t.Fatalf("expected ErrInvoiceNumberTaken, got %v", err)
	}
	if len(repo.invoices) != 1 {
		t.Fatalf("expected no new invoice to be written, got %d", len(repo.invoices))
	}
}

func TestCreateInvoice_OwnershipFailures(t *testing.T) {
	tests := []struct {
		name     string
		userID   int64
		clientID int64
		wantErr  error
	}{
		{"unknown user", 42, 7, domain.ErrUserNotFound},
		{"user without business", 2, 7, domain.ErrBusinessNotFound},
		{"unknown client", 1, 404, domain.ErrClientNotFound},
		{"someone else's client", 1, 8, domain.ErrClientNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockInvoiceRepo{}
			svc := newTestService(repo)

			in := basicInput()
			in.ClientID = tt.clientID

			_, err := svc.CreateInvoice(context.Background(), tt.userID, in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(repo.invoices) != 0 {
				t.Fatal("expected no invoice to be written")
			}
		})
	}
}

func TestCreateInvoice_CalculationFailureWritesNothing(t *testing.T) {
	repo := &mockInvoiceRepo{}
	svc := newTestService(repo)

	discount := 200.0
	in := basicInput()
	in.DiscountValue = &discount
	in.DiscountType = billing.AdjustmentFixed

	_, err := svc.CreateInvoice(context.Background(), 1, in)
	var calcErr *billing.CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("expected CalculationError, got %v", err)
	}
	if len(repo.invoices) != 0 {
		t.Fatal("expected no invoice to be written after calculation failure")
	}
}

func TestCreateInvoice_ConcurrentNumberCollision(t *testing.T) {
	repo := &mockInvoiceRepo{}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc := newTestService(repo)
			in := basicInput()
			in.InvoiceNumber = "INV-2026-0100"
			_, errs[i] = svc.CreateInvoice(context.Background(), 1, in)
		}(i)
	}
	wg.Wait()

	var taken, ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInvoiceNumberTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// The advisory pre-check can let both requests through, but the
	// insert-time check admits exactly one.
	if ok != 1 || taken != 1 {
		t.Fatalf("expected one success and one collision, got ok=%d taken=%d", ok, taken)
	}
	if len(repo.invoices) != 1 {
		t.Fatalf("expected exactly one stored invoice, got %d", len(repo.invoices))
	}
}

func TestCreateInvoice_ConcurrentAutoNumberCollision(t *testing.T) {
	repo := &mockInvoiceRepo{}

	// Gate the sequence read so both requests see an empty sequence and
	// derive the same generated number before either one inserts. Only the
	// insert-time recheck can tell them apart.
	var gate sync.WaitGroup
	gate.Add(2)
	repo.beforeLatest = func() {
		gate.Done()
		gate.Wait()
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc := newTestService(repo)
			_, errs[i] = svc.CreateInvoice(context.Background(), 1, basicInput())
		}(i)
	}
	wg.Wait()

	var taken, ok int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInvoiceNumberTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || taken != 1 {
		t.Fatalf("expected one success and one collision, got ok=%d taken=%d", ok, taken)
	}
	if len(repo.invoices) != 1 {
		t.Fatalf("expected exactly one stored invoice, got %d", len(repo.invoices))
	}
	want := fmt.Sprintf("INV-%d-0001", time.Now().Year())
	if repo.invoices[0].InvoiceNumber != want {
		t.Fatalf("expected stored number %s, got %s", want, repo.invoices[0].InvoiceNumber)
	}
}

func TestMarkPaid(t *testing.T) {
	inv := domain.NewInvoice("abc-uuid", "INV-2026-0001", 5, 7)
	inv.ID = 1
	inv.Items = []billing.LineItem{{Description: "Work", Quantity: 1, UnitPrice: 100, Total: 100}}
	inv.Subtotal = 100
	inv.Total = 100

	repo := &mockInvoiceRepo{invoices: []*domain.Invoice{inv}}
	svc := newTestService(repo)

	paidAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if err := svc.MarkPaid(context.Background(), 1, "abc-uuid", paidAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.updated == nil {
		t.Fatal("expected invoice update to be called")
	}
	if repo.updated.Status != domain.InvoiceStatusPaid {
		t.Fatalf("expected PAID status, got %s", repo.updated.Status)
	}
	if repo.updated.PaidDate == nil || !repo.updated.PaidDate.Equal(paidAt) {
		t.Fatalf("expected paid date %v, got %v", paidAt, repo.updated.PaidDate)
	}

	// paying twice is rejected
	if err := svc.MarkPaid(context.Background(), 1, "abc-uuid", paidAt); err == nil {
		t.Fatal("expected error when paying an already paid invoice")
	}
}

func TestCancel_RejectsPaidInvoice(t *testing.T) {
	inv := domain.NewInvoice("abc-uuid", "INV-2026-0001", 5, 7)
	inv.ID = 1
	inv.Status = domain.InvoiceStatusPaid

	repo := &mockInvoiceRepo{invoices: []*domain.Invoice{inv}}
	svc := newTestService(repo)

	if err := svc.Cancel(context.Background(), 1, "abc-uuid"); err == nil {
		t.Fatal("expected error cancelling a paid invoice")
	}
}

func TestGetInvoice_NotFound(t *testing.T) {
	repo := &mockInvoiceRepo{}
	svc := newTestService(repo)

	_, err := svc.GetInvoice(context.Background(), 1, "missing-uuid")
	if !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}
}
