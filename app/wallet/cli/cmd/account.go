package cmd

import (
	"crypto/ed25519"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gonano/wallet/business/core/wallet"
	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the account address for the specific wallet",
	Run:   accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(getSeedPath())
	if err != nil {
		log.Fatal(err)
	}

	key, err := wallet.KeyFromSeed(strings.TrimSpace(string(data)))
	if err != nil {
		log.Fatal(err)
	}

	account, err := address.FromPublicKey(key.Public().(ed25519.PublicKey))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(account)
}
