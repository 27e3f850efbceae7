package main

import (
	"fmt"
	"os"
	_ "time/tzdata" // display.timezone must resolve on hosts without a zone database

	"github.com/febros/localesdash/cmd/localesdash/commands"
)

func main() {
	if err := commands.NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
