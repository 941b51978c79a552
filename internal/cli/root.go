package cli

import (
	"github.com/spf13/cobra"

	"github.com/mara/billdesk/internal/app"
)

var appInstance *app.App

var rootCmd = &cobra.Command{
	Use:   "billdesk",
	Short: "A CLI invoicing tool for freelancers and small businesses",
	Long: `Billdesk helps freelancers manage clients, create invoices, and track payments.

By default, running billdesk without arguments launches the interactive TUI.
Use subcommands for CLI operations.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Default behavior: launch TUI
		launchTUI(cmd, args)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

func init() {
	// Add all subcommands
	rootCmd.AddCommand(businessCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(resetCmd)
}
