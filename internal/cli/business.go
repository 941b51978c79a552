package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mara/billdesk/internal/domain"
)

var businessCmd = &cobra.Command{
	Use:   "business",
	Short: "Manage your business profile",
	Long:  `Set up and inspect the business profile invoices are issued from.`,
}

var businessInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create your account and business profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		businessName, _ := cmd.Flags().GetString("business")
		currency, _ := cmd.Flags().GetString("currency")
		address, _ := cmd.Flags().GetString("address")
		taxID, _ := cmd.Flags().GetString("tax-id")

		email = strings.ToLower(strings.TrimSpace(email))

		existing, err := appInstance.UserRepo.GetByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check for existing account: %w", err)
		}

		user := existing
		if user == nil {
			user = domain.NewUser(name, email)
			if err := user.Validate(); err != nil {
				return fmt.Errorf("invalid user: %w", err)
			}
			if err := appInstance.UserRepo.Create(ctx, user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
		}

		business, err := appInstance.BusinessRepo.GetByUserID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to check for existing business: %w", err)
		}
		if business != nil {
			return fmt.Errorf("a business profile already exists for %s", email)
		}

		business = domain.NewBusiness(user.ID, businessName)
		business.Currency = strings.ToUpper(currency)
		business.Address = address
		business.TaxID = taxID

		if err := business.Validate(); err != nil {
			return fmt.Errorf("invalid business: %w", err)
		}
		if err := appInstance.BusinessRepo.Create(ctx, business); err != nil {
			return fmt.Errorf("failed to create business: %w", err)
		}

		// Remember this account for future CLI sessions
		appInstance.Config.User.Email = email
		if err := appInstance.SaveConfig(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("✓ Business created: %s (%s)\n", business.Name, business.Currency)
		fmt.Printf("  Account: %s\n", email)
		return nil
	},
}

var businessShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active business profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		user, err := appInstance.CurrentUser(ctx)
		if err != nil {
			return err
		}

		business, err := appInstance.BusinessRepo.GetByUserID(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("failed to get business: %w", err)
		}
		if business == nil {
			return domain.ErrBusinessNotFound
		}

		fmt.Printf("Business: %s\n", business.Name)
		fmt.Printf("Account:  %s\n", user.Email)
		fmt.Printf("Currency: %s\n", business.Currency)
		if business.Address != "" {
			fmt.Printf("Address:  %s\n", business.Address)
		}
		if business.TaxID != "" {
			fmt.Printf("Tax ID:   %s\n", business.TaxID)
		}
		return nil
	},
}

func init() {
	businessCmd.AddCommand(businessInitCmd)
	businessCmd.AddCommand(businessShowCmd)

	businessInitCmd.Flags().String("email", "", "Account email (required)")
	businessInitCmd.MarkFlagRequired("email")
	businessInitCmd.Flags().String("name", "", "Your name (required)")
	businessInitCmd.MarkFlagRequired("name")
	businessInitCmd.Flags().String("business", "", "Business name (required)")
	businessInitCmd.MarkFlagRequired("business")
	businessInitCmd.Flags().String("currency", "USD", "3-letter currency code")
	businessInitCmd.Flags().String("address", "", "Business address")
	businessInitCmd.Flags().String("tax-id", "", "Tax identifier shown on invoices")
}
