package main

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tradesim/internal/world"
)

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug"))
	assert.NoError(t, setupLogging("WARN"))
	assert.Error(t, setupLogging("chatty"))
}

func parse(t *testing.T, withRepeats bool, args ...string) (*cobra.Command, *runFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := &runFlags{}
	f.register(cmd, withRepeats)
	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, f
}

func TestFlagsOverrideConfig(t *testing.T) {
	cmd, f := parse(t, true, "--max-depth", "8", "--policy", "random", "-n", "4", "--seed", "5")

	cfg, err := f.load(cmd)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.Equal(t, "random", cfg.SortStrategy)
	assert.Equal(t, 4, cfg.Repeats)
	assert.Equal(t, int64(5), cfg.Seed)
	assert.Equal(t, 100, cfg.StepBudget, "unset flags keep defaults")
}

func TestFlagsValidate(t *testing.T) {
	cmd, f := parse(t, false, "--policy", "greedy")
	_, err := f.load(cmd)
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	for _, c := range []*cobra.Command{newRunCmd(), newRepeatCmd(), newAggregateCmd(), newGenWorldCmd()} {
		assert.NotEmpty(t, c.Short, c.Use)
	}
	assert.NotNil(t, newRepeatCmd().Flags().Lookup("parallel"))
	assert.Nil(t, newRunCmd().Flags().Lookup("parallel"))
}

func TestGenWorldSmall(t *testing.T) {
	out := filepath.Join(t.TempDir(), "world.csv")
	cmd := newGenWorldCmd()
	cmd.SetArgs([]string{"--small", "--out", out})
	require.NoError(t, cmd.Execute())

	tbl, err := world.LoadWorldState(out)
	require.NoError(t, err)
	assert.Equal(t, world.SmallGenConfig().Agents, tbl.Agents)
	assert.Len(t, tbl.Resources, 3)
}
