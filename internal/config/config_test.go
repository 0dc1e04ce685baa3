package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tradesim/internal/engine"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []float64{200, 150, 100, 50}, cfg.CreateMultipliers)
	assert.Equal(t, []float64{200, 150, 100, 50}, cfg.TransferMinimums)
	assert.Equal(t, 1, cfg.MaxRepeats)
	assert.Equal(t, 20, cfg.MaxDepth)
	assert.Equal(t, 100, cfg.StepBudget)
	assert.Equal(t, "utility_first", cfg.SortStrategy)
	assert.Len(t, cfg.Agents, 4)
}

func TestLoadOverlaysYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tradesim.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
agents: [Atlantis, Erewhon]
max_depth: 6
sort_strategy: random_and_reduce
create_multipliers: [10]
`), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Atlantis", "Erewhon"}, cfg.Agents)
	assert.Equal(t, 6, cfg.MaxDepth)
	assert.Equal(t, []float64{10}, cfg.CreateMultipliers)
	// Untouched keys keep their defaults.
	assert.Equal(t, 100, cfg.StepBudget)
	assert.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("max_depth: [nope"), 0o644))
	_, err = Load(p)
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TRADESIM_MAX_DEPTH", "8")
	t.Setenv("TRADESIM_SEED", "123")
	t.Setenv("TRADESIM_STEP_BUDGET", "not-a-number")
	t.Setenv("TRADESIM_AGENTS", "A, B ,,C")
	t.Setenv("TRADESIM_DB", "runs.db")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.Equal(t, int64(123), cfg.Seed)
	assert.Equal(t, 100, cfg.StepBudget)
	assert.Equal(t, []string{"A", "B", "C"}, cfg.Agents)
	assert.Equal(t, "runs.db", cfg.DBPath)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("TRADESIM_TEST_DOTENV=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("TRADESIM_TEST_DOTENV") })

	require.NoError(t, LoadEnv(filepath.Join(dir, "absent.env"), p))
	assert.Equal(t, "from-file", os.Getenv("TRADESIM_TEST_DOTENV"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		is     error
	}{
		{"no agents", func(c *Config) { c.Agents = nil }, nil},
		{"duplicate agent", func(c *Config) { c.Agents = []string{"A", "A"} }, nil},
		{"bad policy", func(c *Config) { c.SortStrategy = "greedy" }, engine.ErrUnknownPolicy},
		{"shallow", func(c *Config) { c.MaxDepth = 3 }, engine.ErrInsufficientDepth},
		{"no multipliers", func(c *Config) { c.CreateMultipliers = nil }, nil},
		{"no minimums", func(c *Config) { c.TransferMinimums = nil }, nil},
		{"zero minimum", func(c *Config) { c.TransferMinimums = []float64{0} }, nil},
		{"reduce too big", func(c *Config) { c.ReduceFraction = 1 }, nil},
		{"negative repeats", func(c *Config) { c.MaxRepeats = -1 }, nil},
		{"negative budget", func(c *Config) { c.StepBudget = -1 }, nil},
		{"no repeats", func(c *Config) { c.Repeats = 0 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	cfg := Default()
	sc := cfg.Search(42)
	assert.Equal(t, int64(42), sc.Seed)
	assert.Equal(t, engine.PolicyUtilityFirst, sc.Policy)
	assert.Equal(t, cfg.MaxRepeats, sc.Options.MaxRepeats)
	assert.NoError(t, sc.Validate())
}
