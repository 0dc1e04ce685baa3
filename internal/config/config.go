// Package config loads planner settings from defaults, an optional YAML
// file, an optional .env file and TRADESIM_* environment variables, in
// that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/talgya/tradesim/internal/economy"
	"github.com/talgya/tradesim/internal/engine"
)

// Config holds every setting of a planning run.
type Config struct {
	// Inputs
	Agents     []string `yaml:"agents"`
	WorldState string   `yaml:"world_state"`
	Weights    string   `yaml:"weights"`
	Templates  string   `yaml:"templates"`

	// Search
	CreateMultipliers []float64 `yaml:"create_multipliers"`
	TransferMinimums  []float64 `yaml:"transfer_minimums"`
	MaxRepeats        int       `yaml:"max_repeats"`
	MaxDepth          int       `yaml:"max_depth"`
	SortStrategy      string    `yaml:"sort_strategy"`
	ReduceFraction    float64   `yaml:"reduce_fraction"`
	StepBudget        int       `yaml:"step_budget"`
	Seed              int64     `yaml:"seed"` // 0 = random

	// Repeats
	Repeats  int `yaml:"repeats"`
	Parallel int `yaml:"parallel"`

	// Outputs
	OutputDir       string `yaml:"output_dir"`
	CompressNodeLog bool   `yaml:"compress_node_log"`
	DBPath          string `yaml:"db_path"` // Empty disables the run store
	StepBatch       int    `yaml:"step_batch"`
	Serve           string `yaml:"serve"` // Status API address, empty = off
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Agents:            []string{"Atlantis", "Brobdingnag", "Carpania", "Dinotopia"},
		WorldState:        "config/initial_world_state.csv",
		Weights:           "config/resource_weight.csv",
		Templates:         "config/templates.json",
		CreateMultipliers: []float64{200, 150, 100, 50},
		TransferMinimums:  []float64{200, 150, 100, 50},
		MaxRepeats:        1,
		MaxDepth:          20,
		SortStrategy:      string(engine.PolicyUtilityFirst),
		ReduceFraction:    0.25,
		StepBudget:        100,
		Repeats:           1,
		Parallel:          1,
		OutputDir:         "sim_runs",
		StepBatch:         500,
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv reads KEY=value pairs from the given .env files into the process
// environment. Missing files are skipped; existing variables win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays TRADESIM_* environment variables. Malformed numeric
// values are ignored.
func (c *Config) ApplyEnv() {
	c.WorldState = envOrDefault("TRADESIM_WORLD_STATE", c.WorldState)
	c.Weights = envOrDefault("TRADESIM_WEIGHTS", c.Weights)
	c.Templates = envOrDefault("TRADESIM_TEMPLATES", c.Templates)
	c.OutputDir = envOrDefault("TRADESIM_OUTPUT_DIR", c.OutputDir)
	c.DBPath = envOrDefault("TRADESIM_DB", c.DBPath)
	c.SortStrategy = envOrDefault("TRADESIM_SORT_STRATEGY", c.SortStrategy)
	c.Serve = envOrDefault("TRADESIM_SERVE", c.Serve)
	c.MaxDepth = envIntOrDefault("TRADESIM_MAX_DEPTH", c.MaxDepth)
	c.MaxRepeats = envIntOrDefault("TRADESIM_MAX_REPEATS", c.MaxRepeats)
	c.StepBudget = envIntOrDefault("TRADESIM_STEP_BUDGET", c.StepBudget)
	c.Repeats = envIntOrDefault("TRADESIM_REPEATS", c.Repeats)
	c.Parallel = envIntOrDefault("TRADESIM_PARALLEL", c.Parallel)
	c.Seed = int64(envIntOrDefault("TRADESIM_SEED", int(c.Seed)))
	if v := os.Getenv("TRADESIM_AGENTS"); v != "" {
		c.Agents = splitList(v)
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the settings a run cannot start without.
func (c Config) Validate() error {
	if len(c.Agents) == 0 {
		return errors.New("config: no agents")
	}
	seen := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		if seen[a] {
			return fmt.Errorf("config: agent %q listed twice", a)
		}
		seen[a] = true
	}
	if _, err := engine.ParsePolicy(c.SortStrategy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MaxDepth < len(c.Agents) {
		return fmt.Errorf("config: max_depth %d, %d agents: %w", c.MaxDepth, len(c.Agents), engine.ErrInsufficientDepth)
	}
	if len(c.CreateMultipliers) == 0 {
		return errors.New("config: create_multipliers is empty")
	}
	if len(c.TransferMinimums) == 0 {
		return errors.New("config: transfer_minimums is empty")
	}
	for _, v := range append(append([]float64(nil), c.CreateMultipliers...), c.TransferMinimums...) {
		if v <= 0 {
			return fmt.Errorf("config: multipliers and minimums must be positive, got %v", v)
		}
	}
	if c.ReduceFraction < 0 || c.ReduceFraction >= 1 {
		return fmt.Errorf("config: reduce_fraction %v outside [0, 1)", c.ReduceFraction)
	}
	if c.MaxRepeats < 0 {
		return fmt.Errorf("config: max_repeats %d is negative", c.MaxRepeats)
	}
	if c.StepBudget < 0 {
		return fmt.Errorf("config: step_budget %d is negative", c.StepBudget)
	}
	if c.Repeats < 1 {
		return fmt.Errorf("config: repeats %d, need at least 1", c.Repeats)
	}
	return nil
}

// Search returns the walker configuration for the given seed.
func (c Config) Search(seed int64) engine.Config {
	return engine.Config{
		MaxDepth: c.MaxDepth,
		Options: economy.OptionParams{
			CreateMultipliers: c.CreateMultipliers,
			TransferMinimums:  c.TransferMinimums,
			MaxRepeats:        c.MaxRepeats,
		},
		Policy:         engine.Policy(c.SortStrategy),
		ReduceFraction: c.ReduceFraction,
		Seed:           seed,
	}
}
