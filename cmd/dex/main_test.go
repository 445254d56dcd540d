package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SupremaLex/DummyDEX/internal/model"
)

const (
	alice   = "0x00000000000000000000000000000000000000a1"
	bob     = "0x00000000000000000000000000000000000000b0"
	tokenA  = "0x0000000000000000000000000000000000000001"
	tokenB  = "0x0000000000000000000000000000000000000002"
	poolAcc = "0x0000000000000000000000000000000000000065"
)

type cli struct {
	t      *testing.T
	common []string
	events string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	events := filepath.Join(dir, "events.jsonl")
	return &cli{
		t:      t,
		events: events,
		common: []string{
			"--state-file", filepath.Join(dir, "state.json"),
			"--events-out", events,
			"--log-level", "error",
		},
	}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, c.common...))
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func TestSimulationAcrossInvocations(t *testing.T) {
	c := newCLI(t)

	c.mustRun("token", "init", "--from", alice, "--asset", tokenA, "--supply", "1000")
	c.mustRun("token", "init", "--from", alice, "--asset", tokenB, "--supply", "1000")
	c.mustRun("token", "approve", "--from", alice, "--asset", tokenA, "--spender", poolAcc, "--amount", "1000")
	c.mustRun("token", "approve", "--from", alice, "--asset", tokenB, "--spender", poolAcc, "--amount", "1000")

	out := c.mustRun("pool", "init", "--from", alice, "--pool", poolAcc,
		"--asset-a", tokenA, "--amount-a", "100", "--asset-b", tokenB, "--amount-b", "1000")
	require.Contains(t, out, "shares 1100000000")

	out = c.mustRun("pool", "buy", "--from", alice, "--asset-in", tokenA, "--amount", "100")
	require.Contains(t, out, "bought 497.487437")

	out = c.mustRun("token", "balance", "--asset", tokenB, "--account", poolAcc)
	require.Equal(t, "502.512563", out)

	out = c.mustRun("pool", "show")
	var view poolView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Equal(t, "200.000000", view.ReserveA)
	require.Equal(t, "502.512563", view.ReserveB)
	require.Equal(t, "1100000000", view.TotalShares)
	require.Len(t, view.Providers, 1)

	data, err := os.ReadFile(c.events)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	var rec model.PoolEventRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	require.Equal(t, model.EventTokenBought, rec.EventName)
	require.Equal(t, uint64(2), rec.Sequence)
	require.Equal(t, uint8(6), rec.PoolMeta.DecimalsA)
}

func TestFailedCommandKeepsState(t *testing.T) {
	c := newCLI(t)
	c.mustRun("token", "init", "--from", alice, "--asset", tokenA, "--supply", "10")

	_, err := c.run("token", "transfer", "--from", alice, "--asset", tokenA, "--to", bob, "--amount", "11")
	require.Error(t, err)

	out := c.mustRun("token", "balance", "--asset", tokenA, "--account", alice)
	require.Equal(t, "10.000000", out)

	_, err = c.run("token", "balance", "--asset", "not-an-address", "--account", alice)
	require.Error(t, err)
}
