package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/gonano/wallet/foundation/nano/address"
	"github.com/gonano/wallet/foundation/nano/amount"
	"github.com/spf13/cobra"
)

var (
	to    string
	value string
	all   bool
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send funds to another account",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Destination account address.")
	sendCmd.Flags().StringVarP(&value, "value", "v", "0", "Value to send in raw units.")
	sendCmd.Flags().BoolVarP(&all, "all", "a", false, "Send the entire balance.")
}

func sendRun(cmd *cobra.Command, args []string) {
	destination, err := address.Parse(to)
	if err != nil {
		log.Fatal(err)
	}

	account, shutdown := loadAccount()
	defer shutdown()

	if all {
		published, err := account.SendAll(context.Background(), destination)
		if err != nil {
			log.Fatal(err)
		}
		if published == nil {
			fmt.Println("Nothing to send, balance is zero.")
			return
		}
		fmt.Println("Published block:", published.Hash())
		return
	}

	amt, err := amount.FromRaw(value)
	if err != nil {
		log.Fatal(err)
	}

	published, err := account.Send(context.Background(), destination, amt)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Published block:", published.Hash())
}
