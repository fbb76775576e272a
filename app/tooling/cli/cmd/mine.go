package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine the next block on the node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, "/mine", nil)
	},
}

func init() {
	rootCmd.AddCommand(mineCmd)
}
