package main

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("EMAIL_PROVIDER", "log")
}

func TestRun_ListenFailureReturnsInsteadOfExiting(t *testing.T) {
	memoryEnv(t)

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	code := run([]string{"-addr", busy.Addr().String(), "-no-sched"})
	assert.Equal(t, 1, code)
}

func TestRun_ConfigErrorsExitTwo(t *testing.T) {
	memoryEnv(t)

	assert.Equal(t, 2, run([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")}))
	assert.Equal(t, 2, run([]string{"-bogus"}))

	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORE_DSN", "")
	assert.Equal(t, 2, run([]string{"-no-sched"}))
}
