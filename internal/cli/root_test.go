package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "shopq", cmd.Use)
	assert.Contains(t, cmd.Long, "commerce catalog")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"customer", "add"}, {"customer", "get"}, {"customer", "list"}, {"customer", "exclude"},
		{"customer", "counts"}, {"customer", "latest"}, {"customer", "orders"}, {"customer", "delete"},
		{"product", "add"}, {"product", "get"}, {"product", "list"}, {"product", "cheaper"},
		{"product", "search"}, {"product", "find"}, {"product", "tagged"}, {"product", "ordered-by"},
		{"product", "top-rated"}, {"product", "tag"}, {"product", "tags"}, {"product", "reviews"},
		{"product", "ratings"}, {"product", "sold"}, {"product", "price"}, {"product", "decrease"},
		{"product", "discount"}, {"product", "delete"},
		{"order", "add"}, {"order", "get"}, {"order", "list"}, {"order", "year"}, {"order", "latest"},
		{"order", "delete"}, {"order", "add-item"}, {"order", "items"}, {"order", "total-items"},
		{"order", "max-price"}, {"order", "totals"}, {"order", "rank"}, {"order", "stats"},
		{"review", "add"},
		{"seed"}, {"sql"}, {"test"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(filepath.Join(path...), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db", "driver"} {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, "", f.DefValue, name)
	}
}

func TestDecimalFlags(t *testing.T) {
	cmd := NewRootCommand()

	totals, _, err := cmd.Find([]string{"order", "totals"})
	require.NoError(t, err)
	threshold := totals.Flags().Lookup("threshold")
	require.NotNil(t, threshold)
	assert.Equal(t, "decimal", threshold.Value.Type())
	assert.Equal(t, "100", threshold.DefValue)

	require.NoError(t, threshold.Value.Set("249.99"))
	assert.Equal(t, "249.99", threshold.Value.String())
	assert.Error(t, threshold.Value.Set("lots"))
}

func TestRootInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "customer", "list", "--db", filepath.Join(t.TempDir(), "shop.db")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootConfigFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "from-config.db")
	cfgPath := filepath.Join(dir, "shopq.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[database]
driver = "sqlite3"
dsn = "`+filepath.ToSlash(db)+`"

[output]
format = "json"
`), 0644))

	out, err := execute(t, "--config", cfgPath, "customer", "add", "--name", "Ada", "--email", "ada@x.com")
	require.NoError(t, err)

	// output.format from the file applies when --format is not given.
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	_, err = os.Stat(db)
	assert.NoError(t, err, "database.dsn from the file is used")
}

func TestRootConfigFileInvalid(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "shopq.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  driver: oracle\n"), 0644))

	_, err := execute(t, "--config", cfgPath, "customer", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "shopq.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  format: json\n"), 0644))

	db := filepath.Join(dir, "flag.db")
	out, err := execute(t, "--config", cfgPath, "--db", db, "--format", "text", "customer", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "(no results)")

	_, err = os.Stat(db)
	assert.NoError(t, err)
}
