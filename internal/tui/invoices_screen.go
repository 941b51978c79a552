package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mara/billdesk/internal/app"
	"github.com/mara/billdesk/internal/domain"
)

// invoiceMode represents the current screen mode
type invoiceMode int

const (
	invoiceModeList invoiceMode = iota
	invoiceModeDetail
)

// statusFilters cycles with the 'f' key; nil means all statuses
var statusFilters = []*domain.InvoiceStatus{
	nil,
	statusPtr(domain.InvoiceStatusPending),
	statusPtr(domain.InvoiceStatusOverdue),
	statusPtr(domain.InvoiceStatusPaid),
	statusPtr(domain.InvoiceStatusCancelled),
}

func statusPtr(s domain.InvoiceStatus) *domain.InvoiceStatus {
	return &s
}

// InvoicesModel displays a navigable list of invoices with a detail view
type InvoicesModel struct {
	app    *app.App
	userID int64

	invoices    []*domain.Invoice
	cursor      int
	filterIndex int
	mode        invoiceMode
	loading     bool
	err         error
	statusMsg   string
}

type invoicesDataMsg struct {
	invoices []*domain.Invoice
	err      error
}

type invoiceUpdatedMsg struct {
	number string
	action string
	err    error
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(a *app.App, userID int64) tea.Model {
	return &InvoicesModel{
		app:     a,
		userID:  userID,
		loading: true,
	}
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		invoices, err := m.app.InvoiceService.ListInvoices(ctx, m.userID, nil, statusFilters[m.filterIndex])
		if err != nil {
			return invoicesDataMsg{err: err}
		}
		return invoicesDataMsg{invoices: invoices}
	}
}

func (m *InvoicesModel) selected() *domain.Invoice {
	if len(m.invoices) == 0 || m.cursor >= len(m.invoices) {
		return nil
	}
	return m.invoices[m.cursor]
}

func (m *InvoicesModel) markPaid() tea.Cmd {
	invoice := m.selected()
	if invoice == nil {
		return nil
	}
	return func() tea.Msg {
		err := m.app.InvoiceService.MarkPaid(context.Background(), m.userID, invoice.UUID, time.Now())
		return invoiceUpdatedMsg{number: invoice.InvoiceNumber, action: "marked paid", err: err}
	}
}

func (m *InvoicesModel) cancel() tea.Cmd {
	invoice := m.selected()
	if invoice == nil {
		return nil
	}
	return func() tea.Msg {
		err := m.app.InvoiceService.Cancel(context.Background(), m.userID, invoice.UUID)
		return invoiceUpdatedMsg{number: invoice.InvoiceNumber, action: "cancelled", err: err}
	}
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadInvoices()

	case invoicesDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.invoices = msg.invoices
			if m.cursor >= len(m.invoices) {
				m.cursor = max(0, len(m.invoices)-1)
			}
		}
		return m, nil

	case invoiceUpdatedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.statusMsg = fmt.Sprintf("Invoice %s %s", msg.number, msg.action)
		m.loading = true
		return m, m.loadInvoices()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		m.statusMsg = ""
		m.err = nil

		if m.mode == invoiceModeDetail {
			switch {
			case key.Matches(msg, DefaultKeyMap.Back):
				m.mode = invoiceModeList
			case msg.String() == "p":
				return m, m.markPaid()
			case msg.String() == "x":
				return m, m.cancel()
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.invoices)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.Select):
			if m.selected() != nil {
				m.mode = invoiceModeDetail
			}
		case msg.String() == "f":
			m.filterIndex = (m.filterIndex + 1) % len(statusFilters)
			m.cursor = 0
			m.loading = true
			return m, m.loadInvoices()
		case msg.String() == "p":
			return m, m.markPaid()
		case msg.String() == "x":
			return m, m.cancel()
		}
	}

	return m, nil
}

func (m *InvoicesModel) View() string {
	if m.loading {
		return "Loading invoices..."
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	}

	if m.mode == invoiceModeDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m *InvoicesModel) viewList() string {
	var s string

	header := "Invoices"
	if filter := statusFilters[m.filterIndex]; filter != nil {
		header += subtitleStyle.Render(fmt.Sprintf("  (%s only)", *filter))
	}
	s += titleStyle.Render(header) + "\n\n"

	if m.statusMsg != "" {
		s += lipgloss.NewStyle().Foreground(successColor).
			Render("  "+m.statusMsg) + "\n\n"
	}

	if len(m.invoices) == 0 {
		s += subtitleStyle.Render("  No invoices found.") + "\n"
		s += subtitleStyle.Render("  Create one with: billdesk invoices create") + "\n"
		s += "\n" + helpStyle.Render("  f: cycle status filter")
		return s
	}

	for i, invoice := range m.invoices {
		s += m.renderInvoice(i, invoice) + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: details  p: mark paid  x: cancel  f: filter")

	return s
}

func (m *InvoicesModel) renderInvoice(index int, invoice *domain.Invoice) string {
	selected := index == m.cursor

	clientName := fmt.Sprintf("Client #%d", invoice.ClientID)
	if invoice.Client != nil {
		clientName = invoice.Client.Name
	}

	due := ""
	if invoice.DueDate != nil {
		due = "due " + invoice.DueDate.Format("2006-01-02")
	}

	indicator := "  "
	if selected {
		indicator = "> "
	}

	line := fmt.Sprintf("%s%-15s %-20s %14s  %-10s %s",
		indicator,
		invoice.InvoiceNumber,
		truncateStr(clientName, 20),
		formatMoney(invoice.Total, invoice.Currency),
		statusStyle(invoice.Status).Render(string(invoice.Status)),
		subtitleStyle.Render(due),
	)

	if selected {
		return lipgloss.NewStyle().Bold(true).Render(line)
	}
	return line
}

func (m *InvoicesModel) viewDetail() string {
	invoice := m.selected()
	if invoice == nil {
		return "No invoice selected"
	}

	clientName := fmt.Sprintf("Client #%d", invoice.ClientID)
	if invoice.Client != nil {
		clientName = invoice.Client.Name
	}

	var s string
	s += titleStyle.Render(fmt.Sprintf("Invoice %s", invoice.InvoiceNumber)) + "  " +
		statusStyle(invoice.Status).Render(string(invoice.Status)) + "\n\n"

	s += fmt.Sprintf("  Client:  %s\n", clientName)
	if invoice.DueDate != nil {
		s += fmt.Sprintf("  Due:     %s\n", invoice.DueDate.Format("2006-01-02"))
	}
	if invoice.PaidDate != nil {
		s += fmt.Sprintf("  Paid:    %s\n", invoice.PaidDate.Format("2006-01-02"))
	}
	s += "\n"

	for _, item := range invoice.Items {
		s += fmt.Sprintf("  %-32s %4d × %12s  %14s\n",
			truncateStr(item.Description, 32),
			item.Quantity,
			formatMoney(item.UnitPrice, ""),
			formatMoney(item.Total, ""),
		)
	}

	s += "\n"
	s += fmt.Sprintf("  Subtotal:  %14s\n", formatMoney(invoice.Subtotal, ""))
	if invoice.TaxAmount > 0 {
		s += fmt.Sprintf("  Tax:       %14s\n", formatMoney(invoice.TaxAmount, ""))
	}
	if invoice.DiscountAmount > 0 {
		s += fmt.Sprintf("  Discount:  %14s\n", formatMoney(invoice.DiscountAmount, ""))
	}
	s += fmt.Sprintf("  Total:     %14s\n", amountStyle.Render(formatMoney(invoice.Total, invoice.Currency)))

	if invoice.Notes != "" {
		s += "\n" + subtitleStyle.Render("  "+truncateStr(invoice.Notes, 70)) + "\n"
	}

	s += "\n" + helpStyle.Render("  p: mark paid  x: cancel  esc: back")

	return s
}
