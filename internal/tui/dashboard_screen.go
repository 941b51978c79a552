package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mara/billdesk/internal/app"
	"github.com/mara/billdesk/internal/service"
)

// DashboardModel represents the dashboard home screen
type DashboardModel struct {
	app    *app.App
	userID int64

	summary *service.DashboardSummary
	loading bool
	err     error
}

type dashboardDataMsg struct {
	summary *service.DashboardSummary
	err     error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(a *app.App, userID int64) tea.Model {
	return &DashboardModel{
		app:     a,
		userID:  userID,
		loading: true,
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *DashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		// Refresh overdue state first so the numbers below are current
		m.app.InvoiceService.CheckOverdue(ctx)

		summary, err := m.app.DashboardService.GetSummary(ctx, m.userID)
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		return dashboardDataMsg{summary: summary}
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.summary = msg.summary
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()
	}

	return m, nil
}

func (m *DashboardModel) View() string {
	if m.loading {
		return "Loading dashboard..."
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	}

	cur := m.summary.Currency

	var s string
	s += fmt.Sprintf(
		"  Outstanding:  %-16s  Overdue:        %s\n  Paid (month): %-16s  Active clients: %d\n",
		amountStyle.Render(formatMoney(m.summary.OutstandingTotal, cur)),
		statusOverdueStyle.Render(formatMoney(m.summary.OverdueTotal, cur)),
		statusPaidStyle.Render(formatMoney(m.summary.PaidThisMonth, cur)),
		m.summary.ActiveClients,
	)

	s += "\n" + m.renderRecentInvoices()

	return s
}

func (m *DashboardModel) renderRecentInvoices() string {
	header := "  Recent Invoices\n"
	if len(m.summary.RecentInvoices) == 0 {
		return header + subtitleStyle.Render("  No invoices yet. Press 'i' to create one.") + "\n"
	}

	s := header
	for _, invoice := range m.summary.RecentInvoices {
		clientName := fmt.Sprintf("Client #%d", invoice.ClientID)
		if invoice.Client != nil {
			clientName = invoice.Client.Name
		}

		due := ""
		if invoice.DueDate != nil {
			due = "due " + invoice.DueDate.Format("Jan 2")
		}

		s += fmt.Sprintf("  %-15s %-20s %14s  %-10s %s\n",
			invoice.InvoiceNumber,
			truncateStr(clientName, 20),
			formatMoney(invoice.Total, invoice.Currency),
			statusStyle(invoice.Status).Render(string(invoice.Status)),
			subtitleStyle.Render(due),
		)
	}

	return s
}
