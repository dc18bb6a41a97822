package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"budgeteer/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background(), os.Args[1:], cli.WithOutput(color.Output)); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
