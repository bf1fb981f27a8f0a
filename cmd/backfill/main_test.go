package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNeedsTicker(t *testing.T) {
	assert.Equal(t, 2, run(nil))
	assert.Equal(t, 2, run([]string{"AAPL", "MSFT"}))
}

func TestRunWithoutAPIKeyFails(t *testing.T) {
	t.Setenv("POLYGON_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "storage:\n  backend: postgres\npostgres:\n  dsn: postgres://u:p@127.0.0.1:1/none\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	assert.Equal(t, 1, run([]string{"AAPL", "--config", path}))
}
