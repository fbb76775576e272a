package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register [address...]",
	Short: "Register peer nodes with the node.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := struct {
			URLs []string `json:"urls"`
		}{
			URLs: args,
		}

		return call(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, "/nodes/register", req)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Run consensus on the node against its peers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, "/nodes/resolve", nil)
	},
}

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Print the peers known by the node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, "/nodes/list", nil)
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(peersCmd)
}
