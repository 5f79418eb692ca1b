// Package cmd contains the wallet app.
package cmd

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gonano/wallet/business/core/wallet"
	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/rpc"
	"github.com/gonano/wallet/foundation/nano/work"
	"github.com/spf13/cobra"
)

var (
	seedName       string
	seedPath       string
	nodeURL        string
	representative string
)

const (
	seedExtension = ".seed"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&seedName, "seed", "s", "private.seed", "Name of the seed file.")
	rootCmd.PersistentFlags().StringVarP(&seedPath, "seed-path", "p", "zwallet/", "Path to the directory with seed files.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "node", "n", "http://localhost:7076", "Url of the node RPC endpoint.")
	rootCmd.PersistentFlags().StringVarP(&representative, "representative", "r", "nano_3caprkc56ebsaakn4j4n7g9p8h358mycfjcyzkrfw1nai6prbyk8ihc5yjjk", "Representative used when opening the account.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "A simple single account wallet",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func getSeedPath() string {
	if !strings.HasSuffix(seedName, seedExtension) {
		seedName += seedExtension
	}

	return filepath.Join(seedPath, seedName)
}

// loadAccount builds an account handle from the seed on disk and a node
// client. The returned cleanup stops the work generator.
func loadAccount() (*wallet.Account, func()) {
	data, err := os.ReadFile(getSeedPath())
	if err != nil {
		log.Fatal(err)
	}

	key, err := wallet.KeyFromSeed(strings.TrimSpace(string(data)))
	if err != nil {
		log.Fatal(err)
	}

	rep, err := address.Parse(representative)
	if err != nil {
		log.Fatal(err)
	}

	generator := work.NewGenerator(work.CPUBackend{}, work.LivePolicy())

	account, err := wallet.New(wallet.Config{
		PrivateKey:            key,
		Node:                  rpc.New(nodeURL),
		Work:                  generator,
		DefaultRepresentative: rep,
	})
	if err != nil {
		generator.Shutdown()
		log.Fatal(err)
	}

	return account, generator.Shutdown
}
