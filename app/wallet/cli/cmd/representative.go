package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/spf13/cobra"
)

var newRep string

var representativeCmd = &cobra.Command{
	Use:   "representative",
	Short: "Change the account's voting representative",
	Run:   representativeRun,
}

func init() {
	rootCmd.AddCommand(representativeCmd)
	representativeCmd.Flags().StringVarP(&newRep, "to", "t", "", "Account address of the new representative.")
}

func representativeRun(cmd *cobra.Command, args []string) {
	rep, err := address.Parse(newRep)
	if err != nil {
		log.Fatal(err)
	}

	account, shutdown := loadAccount()
	defer shutdown()

	published, err := account.ChangeRepresentative(context.Background(), rep)
	if err != nil {
		log.Fatal(err)
	}

	if published == nil {
		fmt.Println("Representative already set, nothing to do.")
		return
	}

	fmt.Println("Published block:", published.Hash())
}
