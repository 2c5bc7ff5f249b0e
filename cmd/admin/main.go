package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/sendly-app/sendly/internal/admin"
	"github.com/sendly-app/sendly/internal/logging"
)

func main() {
	log, err := logging.New(os.Stderr, logging.Options{Format: "text"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli := &admin.CLI{
		Open:       admin.OpenPostgres(log),
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		IsTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
	if err := cli.Run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
