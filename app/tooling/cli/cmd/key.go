package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var keyPath string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a node key, its address is credited with mining rewards.",
	RunE: func(cmd *cobra.Command, args []string) error {
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(keyPath), 0o755); err != nil {
			return err
		}

		if err := crypto.SaveECDSA(keyPath, privateKey); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), crypto.PubkeyToAddress(privateKey.PublicKey).Hex())
		return nil
	},
}

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Print the node identity for a key.",
	RunE: func(cmd *cobra.Command, args []string) error {
		privateKey, err := crypto.LoadECDSA(keyPath)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), crypto.PubkeyToAddress(privateKey.PublicKey).Hex())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(identityCmd)
	keygenCmd.Flags().StringVarP(&keyPath, "key", "k", "zblock/node.ecdsa", "Path to the private key.")
	identityCmd.Flags().StringVarP(&keyPath, "key", "k", "zblock/node.ecdsa", "Path to the private key.")
}
