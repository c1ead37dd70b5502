package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IvanBrykalov/singleton/internal/config"
	"github.com/IvanBrykalov/singleton/policy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quick(kinds ...policy.Kind) config.Scenario {
	return config.Scenario{
		Policies:   kinds,
		Workers:    16,
		Duration:   config.Duration(20 * time.Millisecond),
		BuildDelay: config.Duration(time.Millisecond),
	}.Defaults()
}

func TestRunPolicy_SafePolicies(t *testing.T) {
	reg := prometheus.NewRegistry()
	for _, k := range policy.All() {
		if !policy.Describe(k).SingleConstruction {
			continue
		}
		res, err := runPolicy(context.Background(), k, quick(k), reg, zerolog.Nop())
		require.NoError(t, err, k.String())
		assert.True(t, res.Single(), "%s: %+v", k, res)
		assert.NotZero(t, res.Ops, k.String())
	}
}

func TestRunPolicy_FailFirst(t *testing.T) {
	reg := prometheus.NewRegistry()
	for _, k := range []policy.Kind{policy.Static, policy.Holder, policy.DoubleChecked} {
		sc := quick(k)
		sc.FailFirst = true
		res, err := runPolicy(context.Background(), k, sc, reg, zerolog.Nop())
		require.NoError(t, err, k.String())
		assert.EqualValues(t, 1, res.RaceErrors, k.String())
		assert.EqualValues(t, 1, res.Constructions, k.String())
	}
}

func TestRootCmd_Policies(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"policies"})
	require.NoError(t, cmd.Execute())

	for _, k := range policy.All() {
		assert.Contains(t, out.String(), k.String())
	}
}

func TestRootCmd_RunWithConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policies: [holder, synchronized]\nworkers: 4\nduration: 10ms\n"), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"run", "--config", path, "--policies", "double-checked", "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	s := out.String()
	assert.Contains(t, s, "workers=4")
	assert.Contains(t, s, "double-checked")
	assert.NotContains(t, s, "synchronized", "--policies must override the config file")
	lines := strings.Split(strings.TrimSpace(s), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[2], "true"))
}

// A policy named twice runs once instead of registering its metrics twice.
func TestRootCmd_RunRepeatedPolicy(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"run", "--policies", "holder,holder", "--workers", "2", "--duration", "5ms", "--log-level", "error"})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
}

func TestRootCmd_RunUnknownPolicy(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"run", "--policies", "quintuple-checked"})
	require.ErrorIs(t, cmd.Execute(), policy.ErrUnknownKind)
}
