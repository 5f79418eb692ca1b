package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/gonano/wallet/business/core/wallet"
	"github.com/gonano/wallet/foundation/nano/amount"
	"github.com/spf13/cobra"
)

var threshold string

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Receive all pending funds sent to this account",
	Run:   receiveRun,
}

func init() {
	rootCmd.AddCommand(receiveCmd)
	receiveCmd.Flags().StringVarP(&threshold, "threshold", "m", wallet.DefaultReceiveThreshold.String(), "Minimum pending amount to receive in raw units.")
}

func receiveRun(cmd *cobra.Command, args []string) {
	min, err := amount.FromRaw(threshold)
	if err != nil {
		log.Fatal(err)
	}

	account, shutdown := loadAccount()
	defer shutdown()

	published, err := account.ReceiveAll(context.Background(), min)
	if err != nil {
		log.Fatal(err)
	}

	if len(published) == 0 {
		fmt.Println("Nothing pending.")
		return
	}

	for _, b := range published {
		fmt.Println("Published block:", b.Hash())
	}
}
