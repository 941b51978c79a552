package service

import (
	"context"
	"time"

	"github.com/mara/billdesk/internal/domain"
	"github.com/mara/billdesk/internal/repository"
)

// DashboardSummary provides the at-a-glance financial numbers for a user
type DashboardSummary struct {
	Currency         string
	OutstandingTotal float64 // pending + overdue invoices
	OverdueTotal     float64
	PaidThisMonth    float64
	TotalsByStatus   map[domain.InvoiceStatus]float64
	ActiveClients    int
	RecentInvoices   []*domain.Invoice
}

// DashboardService provides aggregations and analytics
type DashboardService interface {
	GetSummary(ctx context.Context, userID int64) (*DashboardSummary, error)
	GetRevenueByMonth(ctx context.Context, userID int64, year int) (map[time.Month]float64, error)
}

type dashboardService struct {
	userRepo    repository.UserRepository
	clientRepo  repository.ClientRepository
	invoiceRepo repository.InvoiceRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	userRepo repository.UserRepository,
	clientRepo repository.ClientRepository,
	invoiceRepo repository.InvoiceRepository,
) DashboardService {
	return &dashboardService{
		userRepo:    userRepo,
		clientRepo:  clientRepo,
		invoiceRepo: invoiceRepo,
	}
}

const recentInvoiceLimit = 8

func (s *dashboardService) GetSummary(ctx context.Context, userID int64) (*DashboardSummary, error) {
	business, err := s.business(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals, err := s.invoiceRepo.SumTotalsByStatus(ctx, business.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	paidThisMonth, err := s.invoiceRepo.PaidTotalSince(ctx, business.ID, monthStart)
	if err != nil {
		return nil, err
	}

	activeClients, err := s.clientRepo.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.List(ctx, business.ID, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(invoices) > recentInvoiceLimit {
		invoices = invoices[:recentInvoiceLimit]
	}

	return &DashboardSummary{
		Currency:         business.Currency,
		OutstandingTotal: totals[domain.InvoiceStatusPending] + totals[domain.InvoiceStatusOverdue],
		OverdueTotal:     totals[domain.InvoiceStatusOverdue],
		PaidThisMonth:    paidThisMonth,
		TotalsByStatus:   totals,
		ActiveClients:    activeClients,
		RecentInvoices:   invoices,
	}, nil
}

func (s *dashboardService) GetRevenueByMonth(ctx context.Context, userID int64, year int) (map[time.Month]float64, error) {
	business, err := s.business(ctx, userID)
	if err != nil {
		return nil, err
	}

	paidStatus := domain.InvoiceStatusPaid
	invoices, err := s.invoiceRepo.List(ctx, business.ID, nil, &paidStatus)
	if err != nil {
		return nil, err
	}

	revenue := make(map[time.Month]float64)
	for m := time.January; m <= time.December; m++ {
		revenue[m] = 0
	}

	for _, invoice := range invoices {
		// Use paid date if available, otherwise use updated date
		paymentDate := invoice.UpdatedAt
		if invoice.PaidDate != nil {
			paymentDate = *invoice.PaidDate
		}
		if paymentDate.Year() == year {
			revenue[paymentDate.Month()] += invoice.Total
		}
	}

	return revenue, nil
}

func (s *dashboardService) business(ctx context.Context, userID int64) (*domain.Business, error) {
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
