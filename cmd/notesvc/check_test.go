package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommand_ReportsUnreachableDependencies(t *testing.T) {
	mr := miniredis.RunT(t)

	t.Setenv("REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("PGHOST", "127.0.0.1")
	t.Setenv("PGPORT", "1")
	t.Setenv("ES_NODE", "http://127.0.0.1:1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("LOG_LEVEL", "")

	var out bytes.Buffer
	root := newRootCmd("test")
	root.SetOut(&out)
	root.SetArgs([]string{"check", "--env-file", ""})

	err := root.ExecuteContext(context.Background())
	require.ErrorIs(t, err, errNotReady)

	var report struct {
		OK   bool     `json:"ok"`
		Deps []string `json:"deps"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.False(t, report.OK)
	assert.Equal(t, []string{"cache"}, report.Deps)
}

func TestCheckCommand_LogsStayOffStdout(t *testing.T) {
	mr := miniredis.RunT(t)

	t.Setenv("REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("PGHOST", "127.0.0.1")
	t.Setenv("PGPORT", "1")
	t.Setenv("ES_NODE", "http://127.0.0.1:1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("LOG_LEVEL", "debug")

	var out, logs bytes.Buffer
	root := newRootCmd("test")
	root.SetOut(&out)
	root.SetErr(&logs)
	root.SetArgs([]string{"check", "--env-file", ""})

	require.ErrorIs(t, root.ExecuteContext(context.Background()), errNotReady)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report), out.String())
	assert.ElementsMatch(t, []string{"ok", "deps"}, keys(report))
	assert.Contains(t, logs.String(), `"message":"Dependency probe failed"`)
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd("1.2.3")

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "check")
	assert.Equal(t, "1.2.3", root.Version)

	for _, flag := range []string{"config", "log-level", "env-file"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}
