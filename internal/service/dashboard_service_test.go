package service

import (
	"context"
	"testing"
	"time"

	"github.com/mara/billdesk/internal/domain"
)

func TestGetSummary(t *testing.T) {
	now := time.Now()
	paid := time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, now.Location())

	repo := &mockInvoiceRepo{invoices: []*domain.Invoice{
		{ID: 1, BusinessID: 5, Total: 100, Status: domain.InvoiceStatusPending},
		{ID: 2, BusinessID: 5, Total: 50, Status: domain.InvoiceStatusOverdue},
		{ID: 3, BusinessID: 5, Total: 200, Status: domain.InvoiceStatusPaid, PaidDate: &paid},
		{ID: 4, BusinessID: 99, Total: 999, Status: domain.InvoiceStatusPending},
	}}

	base := newTestService(repo)
	svc := &dashboardService{
		userRepo:    base.userRepo,
		clientRepo:  base.clientRepo,
		invoiceRepo: repo,
	}

	summary, err := svc.GetSummary(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.OutstandingTotal != 150 {
		t.Fatalf("expected outstanding 150, got %v", summary.OutstandingTotal)
	}
	if summary.OverdueTotal != 50 {
		t.Fatalf("expected overdue 50, got %v", summary.OverdueTotal)
	}
	if summary.PaidThisMonth != 200 {
		t.Fatalf("expected paid this month 200, got %v", summary.PaidThisMonth)
	}
	if summary.Currency != "USD" {
		t.Fatalf("expected currency USD, got %q", summary.Currency)
	}
}

func TestGetSummary_NoBusiness(t *testing.T) {
	base := newTestService(&mockInvoiceRepo{})
	svc := &dashboardService{
		userRepo:    base.userRepo,
		clientRepo:  base.clientRepo,
		invoiceRepo: base.invoiceRepo,
	}

	if _, err := svc.GetSummary(context.Background(), 2); err != domain.ErrBusinessNotFound {
		t.Fatalf("expected ErrBusinessNotFound, got %v", err)
	}
}
