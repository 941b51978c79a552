package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mara/billdesk/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  `Serve the invoicing API over HTTP, including /metrics for Prometheus.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = appInstance.Config.Server.Addr
		}

		srv := server.New(appInstance)
		fmt.Printf("Listening on %s\n", addr)
		return srv.Run(addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (defaults from config)")
}
