package cmd

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gonano/wallet/business/core/wallet"
	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new wallet seed",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		log.Fatal(err)
	}

	path := getSeedPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		log.Fatal(err)
	}

	if _, err := os.Stat(path); err == nil {
		log.Fatalf("seed file %s already exists, refusing to overwrite", path)
	}

	seedHex := hex.EncodeToString(seed)
	if err := os.WriteFile(path, []byte(seedHex), 0600); err != nil {
		log.Fatal(err)
	}

	key, err := wallet.KeyFromSeed(seedHex)
	if err != nil {
		log.Fatal(err)
	}
	account, err := address.FromPublicKey(key.Public().(ed25519.PublicKey))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("New account created:", account)
}
