package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the full chain held by the node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, "/chain", nil)
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
}
