package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/deskspin/config"
	"github.com/otherjamesbrown/deskspin/pkg/db"
)

func TestDbCommand_Structure(t *testing.T) {
	cmd := NewDbCommand(newTestEnv(t).deps)

	assert.Equal(t, "db", cmd.Use)
	assert.NotEmpty(t, cmd.Long)

	migrate, _, err := cmd.Find([]string{"migrate"})
	require.NoError(t, err)
	assert.Equal(t, "migrate", migrate.Name())
	for _, name := range []string{"dry-run", "yes"} {
		flag := migrate.Flags().Lookup(name)
		require.NotNil(t, flag, "missing --%s", name)
		assert.Equal(t, "bool", flag.Value.Type())
	}

	status, _, err := cmd.Find([]string{"status"})
	require.NoError(t, err)
	assert.NotNil(t, status.Flags().Lookup("output"))
}

func TestDbCommand_ConnectError(t *testing.T) {
	env := newTestEnv(t)
	env.deps.ConnectToDB = func(context.Context, *config.Config) (*pgxpool.Pool, error) {
		return nil, errors.New("connection refused")
	}

	for _, sub := range []string{"migrate", "status"} {
		cmd := NewDbCommand(env.deps)
		cmd.SetArgs([]string{sub})
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true

		err := cmd.Execute()
		require.Error(t, err, sub)
		assert.Contains(t, err.Error(), "connecting to database")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" y \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		assert.Equal(t, tt.want, confirm(&out, strings.NewReader(tt.input), "Apply? "), "input %q", tt.input)
		assert.Equal(t, "Apply? ", out.String())
	}
}

func TestPrintMigrationStatus(t *testing.T) {
	applied := time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)
	status := &db.MigrationStatus{
		Applied: []db.MigrationStatusEntry{{Version: "001", Name: "create_catalog", AppliedAt: &applied}},
		Pending: []db.MigrationStatusEntry{{Version: "002", Name: "seed_categories"}},
	}

	var out bytes.Buffer
	require.NoError(t, printMigrationStatus(&out, status))

	text := out.String()
	assert.Contains(t, text, "create_catalog")
	assert.Contains(t, text, "2026-09-30 12:00:00")
	assert.Contains(t, text, "seed_categories")
	assert.Contains(t, text, "Summary: 1 applied, 1 pending")
	assert.NotContains(t, text, "drift")
}

func TestPrintMigrationStatus_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printMigrationStatus(&out, &db.MigrationStatus{}))
	assert.Equal(t, "No migrations found.\n", out.String())
}

func TestEmbeddedMigrations(t *testing.T) {
	found, err := db.FindMigrations(migrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, "001_create_catalog", found[0].Version)
}
