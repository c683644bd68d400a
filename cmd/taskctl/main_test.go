package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskpulse/internal/config"
	"github.com/gurkanbulca/taskpulse/internal/database"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
	"github.com/gurkanbulca/taskpulse/internal/service"
	"github.com/gurkanbulca/taskpulse/pkg/auth"
)

const cliPassword = "Passw0rd!"

// testOpener returns an opener over a shared in-memory database. The anchor
// connection keeps the database alive between commands.
func testOpener(t *testing.T, migrate bool) (opener, *sqlx.DB) {
	t.Helper()
	dsn := "file:cli_" + uuid.NewString() + "?mode=memory&cache=shared&_fk=1"
	anchor, err := database.Open(database.Config{Driver: "sqlite3", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = anchor.Close() })
	if migrate {
		require.NoError(t, database.Migrate(context.Background(), anchor))
	}

	cfg := &config.Config{
		Security:   config.SecurityConfig{BcryptCost: 4, PasswordMinLength: 8},
		Validation: service.DefaultValidationConfig(),
	}
	open := func(context.Context) (*sqlx.DB, *config.Config, error) {
		db, err := database.Open(database.Config{Driver: "sqlite3", DSN: dsn, MaxOpenConns: 1})
		return db, cfg, err
	}
	return open, anchor
}

func run(t *testing.T, open opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateAndCheckDB(t *testing.T) {
	open, _ := testOpener(t, false)

	_, err := run(t, open, "check-db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run migrate")

	out, err := run(t, open, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")

	out, err = run(t, open, "check-db")
	require.NoError(t, err)
	assert.Contains(t, out, "Database OK (sqlite3, 0 users)")
}

func TestUserCommands(t *testing.T) {
	open, anchor := testOpener(t, true)
	users := repository.NewStore(anchor).Users
	ctx := context.Background()

	out, err := run(t, open, "create-admin", "Root@Example.com", "-p", cliPassword, "--first-name", "Root")
	require.NoError(t, err)
	assert.Contains(t, out, "Created admin root@example.com")

	out, err = run(t, open, "create-user", "bob@example.com", "-p", cliPassword, "-r", "manager")
	require.NoError(t, err)
	assert.Contains(t, out, "Created manager bob@example.com")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "duplicate email", args: []string{"create-user", "bob@example.com", "-p", cliPassword}, wantErr: "Email already registered"},
		{name: "weak password", args: []string{"create-user", "weak@example.com", "-p", "short"}, wantErr: "password"},
		{name: "missing password flag", args: []string{"create-user", "x@example.com"}, wantErr: "password"},
		{name: "unknown role", args: []string{"promote-user", "bob@example.com", "-r", "owner"}, wantErr: "role"},
		{name: "unknown user", args: []string{"deactivate-user", "ghost@example.com"}, wantErr: "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, open, tt.args...)
			require.Error(t, err)
			assert.Contains(t, strings.ToLower(err.Error()), strings.ToLower(tt.wantErr))
		})
	}

	out, err = run(t, open, "promote-user", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "bob@example.com is now admin")
	bob, err := users.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, bob.Role)

	_, err = run(t, open, "reset-password", "bob@example.com", "-p", "N3wPassword")
	require.NoError(t, err)
	bob, err = users.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.True(t, auth.NewPasswordManagerWithCost(4, 8).VerifyPassword("N3wPassword", bob.PasswordHash))

	out, err = run(t, open, "deactivate-user", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Deactivated bob@example.com")

	out, err = run(t, open, "list-users")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "EMAIL")
	assert.Contains(t, out, "root@example.com")
	assert.Regexp(t, `bob@example\.com\s+\S*\s*admin\s+false`, out)
}
