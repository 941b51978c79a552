package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mara/billdesk/internal/billing"
	"github.com/mara/billdesk/internal/domain"
	"github.com/mara/billdesk/internal/service"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	Long:  `Create, list, and manage invoices.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		user, err := appInstance.CurrentUser(ctx)
		if err != nil {
			return err
		}

		// Parse filters
		var clientID *int64
		if cmd.Flags().Changed("client") {
			id, _ := cmd.Flags().GetInt64("client")
			clientID = &id
		}

		var status *domain.InvoiceStatus
		if cmd.Flags().Changed("status") {
			statusStr, _ := cmd.Flags().GetString("status")
			s := domain.InvoiceStatus(strings.ToUpper(statusStr))
			status = &s
		}

		invoices, err := appInstance.InvoiceService.ListInvoices(ctx, user.ID, clientID, status)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		if len(invoices) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		// Print table header
		fmt.Printf("%-15s %-20s %-12s %-12s %-12s\n", "Number", "Client", "Total", "Due", "Status")
		fmt.Println("----------------------------------------------------------------------------")

		// Print invoices
		for _, invoice := range invoices {
			clientName := fmt.Sprintf("Client #%d", invoice.ClientID)
			if invoice.Client != nil {
				clientName = invoice.Client.Name
			}

			due := "-"
			if invoice.DueDate != nil {
				due = invoice.DueDate.Format("2006-01-02")
			}

			fmt.Printf("%-15s %-20s %-12s %-12s %-12s\n",
				invoice.InvoiceNumber,
				truncate(clientName, 20),
				fmt.Sprintf("%.2f %s", invoice.Total, invoice.Currency),
				due,
				invoice.Status,
			)
		}

		fmt.Printf("\nTotal: %d invoice(s)\n", len(invoices))
		return nil
	},
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new invoice",
	Long: `Create a new invoice for a client.

Each --item flag adds one line in "description:quantity:unit price" form:

  billdesk invoices create --client 3 \
    --item "Logo design:1:450" \
    --item "Landing page:2:300" \
    --tax 19 --discount 10 --discount-type PERCENTAGE`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		user, err := appInstance.CurrentUser(ctx)
		if err != nil {
			return err
		}

		clientID, _ := cmd.Flags().GetInt64("client")
		itemFlags, _ := cmd.Flags().GetStringArray("item")
		taxValue, _ := cmd.Flags().GetFloat64("tax")
		taxType, _ := cmd.Flags().GetString("tax-type")
		number, _ := cmd.Flags().GetString("number")
		notes, _ := cmd.Flags().GetString("notes")

		items := make([]billing.RawLineItem, 0, len(itemFlags))
		for _, raw := range itemFlags {
			item, err := parseItemFlag(raw)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		if taxType == "" {
			taxType = appInstance.Config.Invoice.DefaultTaxType
		}

		input := service.CreateInvoiceInput{
			ClientID:      clientID,
			Items:         items,
			TaxValue:      taxValue,
			TaxType:       billing.AdjustmentType(strings.ToUpper(taxType)),
			InvoiceNumber: number,
			Notes:         notes,
		}

		if cmd.Flags().Changed("discount") {
			discount, _ := cmd.Flags().GetFloat64("discount")
			discountType, _ := cmd.Flags().GetString("discount-type")
			input.DiscountValue = &discount
			input.DiscountType = billing.AdjustmentType(strings.ToUpper(discountType))
		}

		if cmd.Flags().Changed("account") {
			accountID, _ := cmd.Flags().GetInt64("account")
			input.PaymentAccountID = &accountID
		}

		if cmd.Flags().Changed("due") {
			dueStr, _ := cmd.Flags().GetString("due")
			due, err := time.Parse("2006-01-02", dueStr)
			if err != nil {
				return fmt.Errorf("invalid due date (want YYYY-MM-DD): %w", err)
			}
			input.DueDate = &due
		}

		invoice, err := appInstance.InvoiceService.CreateInvoice(ctx, user.ID, input)
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		fmt.Printf("✓ Invoice created: %s\n", invoice.InvoiceNumber)
		for _, item := range invoice.Items {
			fmt.Printf("  %-30s %4d × %10.2f = %10.2f\n", truncate(item.Description, 30), item.Quantity, item.UnitPrice, item.Total)
		}
		fmt.Printf("  Subtotal: %10.2f\n", invoice.Subtotal)
		if invoice.TaxAmount > 0 {
			fmt.Printf("  Tax:      %10.2f\n", invoice.TaxAmount)
		}
		if invoice.DiscountAmount > 0 {
			fmt.Printf("  Discount: %10.2f\n", invoice.DiscountAmount)
		}
		fmt.Printf("  Total:    %10.2f %s\n", invoice.Total, invoice.Currency)
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [number_or_uuid]",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		user, err := appInstance.CurrentUser(ctx)
		if err != nil {
			return err
		}

		invoice, err := resolveInvoice(ctx, user.ID, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Invoice %s (%s)\n", invoice.InvoiceNumber, invoice.Status)
		fmt.Printf("UUID: %s\n", invoice.UUID)
		if invoice.Client != nil {
			fmt.Printf("Client: %s\n", invoice.Client.Name)
		}
		if invoice.DueDate != nil {
			fmt.Printf("Due: %s\n", invoice.DueDate.Format("2006-01-02"))
		}
		if invoice.PaidDate != nil {
			fmt.Printf("Paid: %s\n", invoice.PaidDate.Format("2006-01-02"))
		}
		if invoice.PaymentAccountID != nil {
			account, err := appInstance.AccountRepo.Get(ctx, invoice.BusinessID, *invoice.PaymentAccountID)
			if err == nil && account != nil {
				fmt.Printf("Pay to: %s (%s)\n", account.Label, account.Details)
			}
		}
		fmt.Println()
		for _, item := range invoice.Items {
			fmt.Printf("  %-30s %4d × %10.2f = %10.2f\n", truncate(item.Description, 30), item.Quantity, item.UnitPrice, item.Total)
		}
		fmt.Println()
		fmt.Printf("  Subtotal: %10.2f\n", invoice.Subtotal)
		if invoice.TaxAmount > 0 {
			fmt.Printf("  Tax:      %10.2f\n", invoice.TaxAmount)
		}
		if invoice.DiscountAmount > 0 {
			fmt.Printf("  Discount: %10.2f\n", invoice.DiscountAmount)
		}
		fmt.Printf("  Total:    %10.2f %s\n", invoice.Total, invoice.Currency)
		if invoice.Notes != "" {
			fmt.Printf("\nNotes: %s\n", invoice.Notes)
		}
		return nil
	},
}

var invoicesMarkPaidCmd = &cobra.Command{
	Use:   "mark-paid [number_or_uuid]",
	Short: "Mark an invoice as paid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		user, err := appInstance.CurrentUser(ctx)
		if err != nil {
			return err
		}

		invoice, err := resolveInvoice(ctx, user.ID, args[0])
		if err != nil {
			return err
		}

		paidDate := time.Now()
		if cmd.Flags().Changed("date") {
			dateStr, _ := cmd.Flags().GetString("date")
			paidDate, err = time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid date (want YYYY-MM-DD): %w", err)
			}
		}

		if err := appInstance.InvoiceService.MarkPaid(ctx, user.ID, invoice.UUID, paidDate); err != nil {
			return fmt.Errorf("failed to mark invoice paid: %w", err)
		}

		fmt.Printf("✓ Invoice %s marked as paid\n", invoice.InvoiceNumber)
		return nil
	},
}

var invoicesCancelCmd = &cobra.Command{
	Use:   "cancel [number_or_uuid]",
	Short: "Cancel an unpaid invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		user, err := appInstance.CurrentUser(ctx)
		if err != nil {
			return err
		}

		invoice, err := resolveInvoice(ctx, user.ID, args[0])
		if err != nil {
			return err
		}

		if err := appInstance.InvoiceService.Cancel(ctx, user.ID, invoice.UUID); err != nil {
			return fmt.Errorf("failed to cancel invoice: %w", err)
		}

		fmt.Printf("✓ Invoice %s cancelled\n", invoice.InvoiceNumber)
		return nil
	},
}

var invoicesCheckOverdueCmd = &cobra.Command{
	Use:   "check-overdue",
	Short: "Flip pending invoices past their due date to overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		n, err := appInstance.InvoiceService.CheckOverdue(ctx)
		if err != nil {
			return fmt.Errorf("failed to check overdue invoices: %w", err)
		}

		if n == 0 {
			fmt.Println("No invoices became overdue")
		} else {
			fmt.Printf("✓ %d invoice(s) marked overdue\n", n)
		}
		return nil
	},
}

// parseItemFlag parses "description:quantity:unit price". Descriptions may
// contain colons, so the split anchors on the last two.
func parseItemFlag(raw string) (billing.RawLineItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return billing.RawLineItem{}, fmt.Errorf("invalid item %q (want description:quantity:price)", raw)
	}

	priceStr := parts[len(parts)-1]
	qtyStr := parts[len(parts)-2]
	description := strings.Join(parts[:len(parts)-2], ":")

	qty, err := strconv.ParseFloat(qtyStr, 64)
	if err != nil {
		return billing.RawLineItem{}, fmt.Errorf("invalid quantity in item %q: %w", raw, err)
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return billing.RawLineItem{}, fmt.Errorf("invalid price in item %q: %w", raw, err)
	}

	return billing.RawLineItem{Description: description, Quantity: qty, UnitPrice: price}, nil
}

// resolveInvoice accepts either an invoice number or a UUID
func resolveInvoice(ctx context.Context, userID int64, arg string) (*domain.Invoice, error) {
	user, err := appInstance.UserRepo.GetWithBusiness(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if user.Business == nil {
		return nil, domain.ErrBusinessNotFound
	}

	invoice, err := appInstance.InvoiceRepo.GetByNumber(ctx, user.Business.ID, arg)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		invoice, err = appInstance.InvoiceRepo.GetByUUID(ctx, user.Business.ID, arg)
		if err != nil {
			return nil, err
		}
	}
	if invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesMarkPaidCmd)
	invoicesCmd.AddCommand(invoicesCancelCmd)
	invoicesCmd.AddCommand(invoicesCheckOverdueCmd)

	// List flags
	invoicesListCmd.Flags().Int64("client", 0, "Filter by client ID")
	invoicesListCmd.Flags().String("status", "", "Filter by status (PENDING, PAID, OVERDUE, CANCELLED)")

	// Create flags
	invoicesCreateCmd.Flags().Int64("client", 0, "Client ID (required)")
	invoicesCreateCmd.MarkFlagRequired("client")
	invoicesCreateCmd.Flags().StringArray("item", nil, "Line item as description:quantity:price (repeatable, required)")
	invoicesCreateCmd.MarkFlagRequired("item")
	invoicesCreateCmd.Flags().Float64("tax", 0, "Tax value")
	invoicesCreateCmd.Flags().String("tax-type", "", "Tax type: PERCENTAGE or FIXED")
	invoicesCreateCmd.Flags().Float64("discount", 0, "Discount value")
	invoicesCreateCmd.Flags().String("discount-type", "PERCENTAGE", "Discount type: PERCENTAGE or FIXED")
	invoicesCreateCmd.Flags().String("number", "", "Explicit invoice number (generated when omitted)")
	invoicesCreateCmd.Flags().Int64("account", 0, "Payment account ID (defaults to the business default)")
	invoicesCreateCmd.Flags().String("due", "", "Due date as YYYY-MM-DD (defaults from config)")
	invoicesCreateCmd.Flags().String("notes", "", "Notes shown on the invoice")

	// Mark-paid flags
	invoicesMarkPaidCmd.Flags().String("date", "", "Payment date as YYYY-MM-DD (defaults to today)")
}
