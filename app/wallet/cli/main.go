package main

import "github.com/gonano/wallet/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
