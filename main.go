package main

import (
	"context"
	"fmt"
	"os"

	"account-explorer/internal/command"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	args := os.Args
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	}
	return command.Run(context.Background(), args, os.Stdout)
}
