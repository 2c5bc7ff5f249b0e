package admin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sendly-app/sendly/internal/common"
	"github.com/sendly-app/sendly/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	migrated   bool
	migrateErr error
	created    []models.User
	password   string
	closed     bool
}

func (b *fakeBackend) Migrate(context.Context) error {
	b.migrated = true
	return b.migrateErr
}

func (b *fakeBackend) Provision(_ context.Context, name, email, password string) (*models.User, error) {
	for _, u := range b.created {
		if u.Email == email {
			return nil, common.ErrorAlreadyExists
		}
	}
	u := models.User{ID: "u-1", Name: name, Email: email}
	b.created = append(b.created, u)
	b.password = password
	return &u, nil
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

func newCLI(b *fakeBackend, stdin string) (*CLI, *bytes.Buffer, *string) {
	out := &bytes.Buffer{}
	var gotDSN string
	return &CLI{
		Open: func(_ context.Context, dsn string) (Backend, error) {
			gotDSN = dsn
			return b, nil
		},
		Stdin:  strings.NewReader(stdin),
		Stdout: out,
		Stderr: &bytes.Buffer{},
	}, out, &gotDSN
}

func TestCLI_Migrate(t *testing.T) {
	b := &fakeBackend{}
	cli, out, dsn := newCLI(b, "")

	err := cli.Run(t.Context(), []string{"migrate", "--dsn", "postgres://x"})
	require.NoError(t, err)
	assert.True(t, b.migrated)
	assert.True(t, b.closed)
	assert.Equal(t, "postgres://x", *dsn)
	assert.Contains(t, out.String(), "migrations applied")
}

func TestCLI_Migrate_Error(t *testing.T) {
	b := &fakeBackend{migrateErr: errors.New("boom")}
	cli, _, _ := newCLI(b, "")

	err := cli.Run(t.Context(), []string{"migrate", "--dsn", "postgres://x"})
	assert.ErrorContains(t, err, "boom")
	assert.True(t, b.closed)
}

func TestCLI_MissingDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cli, _, _ := newCLI(&fakeBackend{}, "")
	assert.ErrorContains(t, cli.Run(t.Context(), []string{"migrate"}), "DATABASE_URL")
}

func TestCLI_DSNFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	cli, _, dsn := newCLI(&fakeBackend{}, "")
	require.NoError(t, cli.Run(t.Context(), []string{"migrate"}))
	assert.Equal(t, "postgres://env", *dsn)
}

func TestCLI_CreateUser_FromStdin(t *testing.T) {
	b := &fakeBackend{}
	cli, out, _ := newCLI(b, "password123\n")

	err := cli.Run(t.Context(), []string{"create-user", "--dsn", "postgres://x", "-e", "admin@example.com", "--name", "Admin"})
	require.NoError(t, err)
	require.Len(t, b.created, 1)
	assert.Equal(t, "Admin", b.created[0].Name)
	assert.Equal(t, "password123", b.password)
	assert.Contains(t, out.String(), "created user admin@example.com")
}

func TestCLI_CreateUser_Terminal(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	tests := []struct {
		name    string
		inputs  []string
		wantErr string
	}{
		{"matching", []string{"password123", "password123"}, ""},
		{"mismatch", []string{"password123", "password124"}, "do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			readPassword = func(int) ([]byte, error) {
				v := tt.inputs[calls]
				calls++
				return []byte(v), nil
			}
			b := &fakeBackend{}
			cli, _, _ := newCLI(b, "")
			cli.IsTerminal = func() bool { return true }

			err := cli.Run(t.Context(), []string{"create-user", "--dsn", "postgres://x", "--email", "a@example.com"})
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Empty(t, b.created)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "password123", b.password)
		})
	}
}

func TestCLI_CreateUser_Errors(t *testing.T) {
	cli, _, _ := newCLI(&fakeBackend{}, "password123\n")
	assert.ErrorContains(t, cli.Run(t.Context(), []string{"create-user", "--dsn", "postgres://x"}), "--email")

	b := &fakeBackend{created: []models.User{{Email: "a@example.com"}}}
	cli, _, _ = newCLI(b, "password123\n")
	err := cli.Run(t.Context(), []string{"create-user", "--dsn", "postgres://x", "--email", "a@example.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCLI_UnknownCommand(t *testing.T) {
	cli, _, _ := newCLI(&fakeBackend{}, "")
	assert.Error(t, cli.Run(t.Context(), nil))
	assert.ErrorContains(t, cli.Run(t.Context(), []string{"frobnicate"}), "unknown command")
	assert.NoError(t, cli.Run(t.Context(), []string{"help"}))
}
