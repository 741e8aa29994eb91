package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, mr *miniredis.Miniredis) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.yaml")
	cfg := "kind: remote\nremote:\n  url: redis://" + mr.Addr() + "\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_SetGetKeysDel(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, mr)
	env := filepath.Join(t.TempDir(), "absent.env")

	code, _, errOut := runCLI(t, "-config", cfg, "-env", env, "set", "-ttl", "30s", "user:1", "ada")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "30s", mr.TTL("user:1").String())

	code, out, _ := runCLI(t, "-config", cfg, "-env", env, "get", "user:1")
	require.Equal(t, 0, code)
	assert.Equal(t, "ada\n", out)

	require.NoError(t, mr.Set("user:2", "grace"))
	code, out, _ = runCLI(t, "-config", cfg, "-env", env, "keys", "user:*")
	require.Equal(t, 0, code)
	assert.Equal(t, "user:1\nuser:2\n", out)

	code, out, _ = runCLI(t, "-config", cfg, "-env", env, "dbsize")
	require.Equal(t, 0, code)
	assert.Equal(t, "2\n", out)

	code, out, _ = runCLI(t, "-config", cfg, "-env", env, "incr", "visits")
	require.Equal(t, 0, code)
	assert.Equal(t, "1\n", out)

	code, _, _ = runCLI(t, "-config", cfg, "-env", env, "del", "user:1", "user:2")
	require.Equal(t, 0, code)
	assert.False(t, mr.Exists("user:1"))

	code, _, errOut = runCLI(t, "-config", cfg, "-env", env, "get", "user:1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")
}

func TestCLI_Info(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, mr)

	code, out, errOut := runCLI(t, "-config", cfg, "-env", filepath.Join(t.TempDir(), "x.env"), "info")
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, "connected_clients: "), out)
}

func TestCLI_UsageErrors(t *testing.T) {
	code, _, _ := runCLI(t)
	assert.Equal(t, 2, code)

	mr := miniredis.RunT(t)
	cfg := writeConfig(t, mr)
	env := filepath.Join(t.TempDir(), "absent.env")

	code, _, errOut := runCLI(t, "-config", cfg, "-env", env, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown command")

	code, _, _ = runCLI(t, "-config", cfg, "-env", env, "set", "only-key")
	assert.Equal(t, 2, code)
}

func TestCLI_InitFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: false\n"), 0o600))

	code, _, errOut := runCLI(t, "-config", path, "-env", filepath.Join(t.TempDir(), "x.env"), "dbsize")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "cache must be enabled")
}
