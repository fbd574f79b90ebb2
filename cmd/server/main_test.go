package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"serve", "migrate", "seed", "reindex"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestSeedCommand_Idempotent(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "shop.db"))

	run := func() string {
		var out bytes.Buffer
		cmd := newRootCommand()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"seed"})
		require.NoError(t, cmd.Execute())
		return out.String()
	}

	first := run()
	assert.Contains(t, first, "admin: admin@example.com / admin123")
	assert.Contains(t, first, "products created: 6")

	second := run()
	assert.NotContains(t, second, "admin:")
	assert.Contains(t, second, "products created: 0")
}
