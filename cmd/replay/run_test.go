package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
version: "1"
builds:
  - class: hunter
    spec: beastmastery
    modules:
      - type: buffs
      - type: beastCleave
`

const bmParse = `{
  "fight": {"id": 3, "start_time": 0, "end_time": 10000},
  "combatant": {"id": 1, "class": "Hunter", "spec": "BeastMastery", "pets": [2]},
  "events": [
    {"type": "applybuff", "timestamp": 1000, "sourceID": 1, "sourceIsFriendly": true, "targetID": 1, "targetIsFriendly": true, "ability": {"guid": 268877}},
    {"type": "damage", "timestamp": 1500, "sourceID": 2, "sourceIsFriendly": true, "targetID": 100, "ability": {"guid": 118459}, "amount": 100},
    {"type": "removebuff", "timestamp": 3000, "sourceID": 1, "sourceIsFriendly": true, "targetID": 1, "targetIsFriendly": true, "ability": {"guid": 268877}}
  ]
}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func lines(t *testing.T, out string) []fileResult {
	t.Helper()
	var res []fileResult
	sc := bufio.NewScanner(bytes.NewBufferString(out))
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		var r fileResult
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		res = append(res, r)
	}
	return res
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "builds.yaml", testConfig)
	a := writeFile(t, dir, "a.json", bmParse)
	b := writeFile(t, dir, "b.json", bmParse)

	out, err := execute(t, "run", "--config", cfg, "--parallel", "2", a, b)
	require.NoError(t, err)

	res := lines(t, out)
	require.Len(t, res, 2)
	assert.Equal(t, a, res[0].File)
	require.NotNil(t, res[0].Report)
	assert.Equal(t, "a", res[0].Report.ParseID)
	assert.Equal(t, "b", res[1].Report.ParseID)

	bc, ok := res[0].Report.Get("beastCleave")
	require.True(t, ok)
	damage, _ := bc.Statistic.Get("damage")
	uptime, _ := bc.Statistic.Get("uptime")
	assert.Equal(t, float64(100), damage)
	assert.InDelta(t, 0.2, uptime, 1e-9)
}

func TestRunCommandFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", bmParse)
	bad := writeFile(t, dir, "bad.json", `{"events": [{"type": "teleport", "timestamp": 1}]}`)

	// Without a config no build can be resolved.
	out, err := execute(t, "run", good)
	require.Error(t, err)
	res := lines(t, out)
	require.Len(t, res, 1)
	assert.Contains(t, res[0].Error, "no build configured")

	cfg := writeFile(t, dir, "builds.yaml", testConfig)
	out, err = execute(t, "run", "-c", cfg, good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	res = lines(t, out)
	require.Len(t, res, 2)
	assert.Empty(t, res[0].Error)
	assert.Contains(t, res[1].Error, "unknown event type")

	_, err = execute(t, "run")
	assert.Error(t, err)
}

func TestModulesCommand(t *testing.T) {
	out, err := execute(t, "modules")
	require.NoError(t, err)
	assert.Contains(t, out, "beastCleave (reads buffs)\n")
	assert.Contains(t, out, "counter\n")
}
