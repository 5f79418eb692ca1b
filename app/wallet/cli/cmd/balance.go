package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your confirmed balance in raw units.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	account, shutdown := loadAccount()
	defer shutdown()

	fmt.Println("For Account:", account.Address())

	balance, err := account.Balance(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(balance)
}
