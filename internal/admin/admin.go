// Package admin implements the sendly-admin command line: schema migrations
// and account provisioning run directly against the database.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/sendly-app/sendly/internal/server/models"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Backend is what the commands need from an opened database.
type Backend interface {
	Migrate(ctx context.Context) error
	Provision(ctx context.Context, name, email, password string) (*models.User, error)
	Close() error
}

// Opener connects to the database named by dsn.
type Opener func(ctx context.Context, dsn string) (Backend, error)

type CLI struct {
	Open   Opener
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// IsTerminal reports whether Stdin is an interactive terminal.
	IsTerminal func() bool
}

const usage = `Usage: sendly-admin <command> [flags]

Commands:
  migrate       apply database migrations
  create-user   create an account (password is prompted)
`

// Run dispatches args[0] to a subcommand.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.Stderr, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "migrate":
		return c.migrate(ctx, args[1:])
	case "create-user":
		return c.createUser(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(c.Stdout, usage)
		return nil
	default:
		fmt.Fprint(c.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (c *CLI) flagSet(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.Stderr)
	dsn := fs.String("dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN (default $DATABASE_URL)")
	return fs, dsn
}

func (c *CLI) open(ctx context.Context, dsn string) (Backend, error) {
	if dsn == "" {
		return nil, errors.New("--dsn or DATABASE_URL is required")
	}
	return c.Open(ctx, dsn)
}

func (c *CLI) migrate(ctx context.Context, args []string) error {
	fs, dsn := c.flagSet("migrate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	b, err := c.open(ctx, *dsn)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(c.Stdout, "migrations applied")
	return nil
}

func (c *CLI) createUser(ctx context.Context, args []string) error {
	fs, dsn := c.flagSet("create-user")
	email := fs.StringP("email", "e", "", "account email")
	name := fs.StringP("name", "n", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}

	password, err := c.password()
	if err != nil {
		return err
	}

	b, err := c.open(ctx, *dsn)
	if err != nil {
		return err
	}
	defer b.Close()

	u, err := b.Provision(ctx, *name, *email, password)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(c.Stdout, "created user %s (%s)\n", u.Email, u.ID)
	return nil
}

// password prompts twice on a terminal; otherwise the first line of Stdin
// is taken so the command can be scripted.
func (c *CLI) password() (string, error) {
	if c.IsTerminal == nil || !c.IsTerminal() {
		line, err := readLine(c.Stdin)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return line, nil
	}

	first, err := c.prompt("Enter password: ")
	if err != nil {
		return "", err
	}
	second, err := c.prompt("Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func (c *CLI) prompt(label string) (string, error) {
	fmt.Fprint(c.Stderr, label)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(c.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
