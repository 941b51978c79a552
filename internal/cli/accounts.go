package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mara/billdesk/internal/domain"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage payment accounts",
	Long:  `Manage the payout destinations shown on your invoices.`,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payment accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		business, err := currentBusiness(ctx)
		if err != nil {
			return err
		}

		accounts, err := appInstance.AccountRepo.ListByBusiness(ctx, business.ID)
		if err != nil {
			return fmt.Errorf("failed to list payment accounts: %w", err)
		}

		if len(accounts) == 0 {
			fmt.Println("No payment accounts found")
			return nil
		}

		fmt.Printf("%-5s %-8s %-25s %-30s %-8s\n", "ID", "Type", "Label", "Details", "Default")
		fmt.Println("--------------------------------------------------------------------------------")
		for _, account := range accounts {
			def := ""
			if account.IsDefault {
				def = "✓"
			}
			fmt.Printf("%-5d %-8s %-25s %-30s %-8s\n",
				account.ID,
				account.Type,
				truncate(account.Label, 25),
				truncate(account.Details, 30),
				def,
			)
		}
		return nil
	},
}

var accountsAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Add a payment account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		business, err := currentBusiness(ctx)
		if err != nil {
			return err
		}

		typeStr, _ := cmd.Flags().GetString("type")
		details, _ := cmd.Flags().GetString("details")

		account := domain.NewPaymentAccount(
			business.ID,
			domain.PaymentAccountType(strings.ToUpper(typeStr)),
			args[0],
			details,
		)

		if err := account.Validate(); err != nil {
			return fmt.Errorf("invalid payment account: %w", err)
		}

		if err := appInstance.AccountRepo.Create(ctx, account); err != nil {
			return fmt.Errorf("failed to create payment account: %w", err)
		}

		fmt.Printf("✓ Payment account created: %s (ID: %d)\n", account.Label, account.ID)
		return nil
	},
}

var accountsSetDefaultCmd = &cobra.Command{
	Use:   "set-default [id]",
	Short: "Make a payment account the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		business, err := currentBusiness(ctx)
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid account ID: %w", err)
		}

		if err := appInstance.AccountRepo.SetDefault(ctx, business.ID, id); err != nil {
			return fmt.Errorf("failed to set default account: %w", err)
		}

		fmt.Printf("✓ Account %d is now the default\n", id)
		return nil
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a payment account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		business, err := currentBusiness(ctx)
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid account ID: %w", err)
		}

		if err := appInstance.AccountRepo.Delete(ctx, business.ID, id); err != nil {
			return fmt.Errorf("failed to remove payment account: %w", err)
		}

		fmt.Printf("✓ Account %d removed\n", id)
		return nil
	},
}

// currentBusiness resolves the active user's business profile
func currentBusiness(ctx context.Context) (*domain.Business, error) {
	user, err := appInstance.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	business, err := appInstance.BusinessRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	if business == nil {
		return nil, domain.ErrBusinessNotFound
	}
	return business, nil
}

func init() {
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsSetDefaultCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)

	accountsAddCmd.Flags().String("type", "BANK", "Account type: PAYPAL, BANK, or OTHER")
	accountsAddCmd.Flags().String("details", "", "Account details (IBAN, email, ...)")
}
