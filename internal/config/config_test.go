package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoad_YAML(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "shopq.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Database{Driver: "sqlite", DSN: "/tmp/shop.db"}, cfg.Database)
	assert.Equal(t, Log{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_TOMLKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "shopq.toml"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	// Not set in the file.
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	for _, name := range []string{"unknown_key.yaml", "unknown_key.toml"} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(filepath.Join("testdata", name))
			require.Error(t, err)
		})
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "bad_values.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "output.format")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopq.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "shopq.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Find(dir))

	toml := filepath.Join(dir, "shopq.toml")
	require.NoError(t, os.WriteFile(toml, nil, 0644))
	assert.Equal(t, toml, Find(dir))

	yml := filepath.Join(dir, "shopq.yaml")
	require.NoError(t, os.WriteFile(yml, nil, 0644))
	assert.Equal(t, yml, Find(dir))
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log = Log{Level: "info", Format: "json"}

	logger := cfg.Logger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
