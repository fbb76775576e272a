package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var (
	sender    string
	recipient string
	amount    int64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a transaction to the node's pending pool.",
	RunE: func(cmd *cobra.Command, args []string) error {
		tx := struct {
			Sender    string `json:"sender"`
			Recipient string `json:"recipient"`
			Amount    int64  `json:"amount"`
		}{
			Sender:    sender,
			Recipient: recipient,
			Amount:    amount,
		}

		return call(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, "/transactions/new", tx)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sender, "sender", "s", "", "Address of the sender.")
	sendCmd.Flags().StringVarP(&recipient, "recipient", "r", "", "Address of the recipient.")
	sendCmd.Flags().Int64VarP(&amount, "amount", "a", 0, "Amount to send.")
}
