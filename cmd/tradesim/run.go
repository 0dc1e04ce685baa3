package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/tradesim/internal/api"
	"github.com/talgya/tradesim/internal/config"
	"github.com/talgya/tradesim/internal/entropy"
	"github.com/talgya/tradesim/internal/metrics"
	"github.com/talgya/tradesim/internal/orchestrator"
	"github.com/talgya/tradesim/internal/persistence"
)

// runFlags are shared by run and repeat.
type runFlags struct {
	configPath string
	envFile    string
	seed       int64
	maxDepth   int
	budget     int
	policy     string
	outDir     string
	dbPath     string
	serve      string
	compress   bool
	repeats    int
	parallel   int
}

func (f *runFlags) register(cmd *cobra.Command, withRepeats bool) {
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	fl.StringVar(&f.envFile, "env-file", ".env", "dotenv file with TRADESIM_* overrides")
	fl.Int64Var(&f.seed, "seed", 0, "random seed (0 = random)")
	fl.IntVar(&f.maxDepth, "max-depth", 0, "search depth")
	fl.IntVar(&f.budget, "budget", 0, "step budget per run (0 runs to exhaustion)")
	fl.StringVar(&f.policy, "policy", "", "ranking policy")
	fl.StringVarP(&f.outDir, "out", "o", "", "output directory")
	fl.StringVar(&f.dbPath, "db", "", "SQLite run store")
	fl.StringVar(&f.serve, "serve", "", "serve the status API on this address, e.g. :8080")
	fl.BoolVar(&f.compress, "compress", false, "zstd-compress node logs")
	if withRepeats {
		fl.IntVarP(&f.repeats, "repeats", "n", 0, "number of runs")
		fl.IntVarP(&f.parallel, "parallel", "p", 0, "runs at once")
	}
}

// load resolves defaults, file, env and flags, in that order.
func (f *runFlags) load(cmd *cobra.Command) (config.Config, error) {
	if err := config.LoadEnv(f.envFile); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()

	fl := cmd.Flags()
	if fl.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fl.Changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}
	if fl.Changed("budget") {
		cfg.StepBudget = f.budget
	}
	if fl.Changed("policy") {
		cfg.SortStrategy = f.policy
	}
	if fl.Changed("out") {
		cfg.OutputDir = f.outDir
	}
	if fl.Changed("db") {
		cfg.DBPath = f.dbPath
	}
	if fl.Changed("serve") {
		cfg.Serve = f.serve
	}
	if fl.Changed("compress") {
		cfg.CompressNodeLog = f.compress
	}
	if fl.Changed("repeats") {
		cfg.Repeats = f.repeats
	}
	if fl.Changed("parallel") {
		cfg.Parallel = f.parallel
	}
	return cfg, cfg.Validate()
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Perform one planning run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			return execute(cfg, func(ctx context.Context, deps orchestrator.Deps) error {
				res, err := orchestrator.Run(ctx, cfg, deps)
				if err != nil {
					return err
				}
				printResult(res)
				return nil
			})
		},
	}
	f.register(cmd, false)
	return cmd
}

func newRepeatCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "repeat",
		Short: "Perform independent runs with consecutive seeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			return execute(cfg, func(ctx context.Context, deps orchestrator.Deps) error {
				results, err := orchestrator.Repeat(ctx, cfg, deps)
				if err != nil {
					return err
				}
				for _, res := range results {
					printResult(res)
				}
				return nil
			})
		},
	}
	f.register(cmd, true)
	return cmd
}

// execute wires the optional store, metrics and status API around body
// and cancels it on SIGINT/SIGTERM.
func execute(cfg config.Config, body func(context.Context, orchestrator.Deps) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, stopping search", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	deps := orchestrator.Deps{
		Progress: api.NewProgress(),
		Metrics:  metrics.New(),
		Seeds:    entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY")),
	}
	if deps.Seeds.Enabled() {
		slog.Info("seeding from random.org")
	}

	if cfg.DBPath != "" {
		db, err := persistence.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		deps.Store = db
		slog.Info("run store opened", "path", cfg.DBPath)
	}

	if cfg.Serve != "" {
		adminKey := os.Getenv("TRADESIM_ADMIN_KEY")
		if adminKey == "" {
			slog.Warn("TRADESIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		srv := &api.Server{
			Progress: deps.Progress,
			Metrics:  deps.Metrics,
			Addr:     cfg.Serve,
			AdminKey: adminKey,
			Stop:     cancel,
		}
		if deps.Store != nil {
			srv.Store = deps.Store
		}
		srv.Start()
		defer srv.Close()
	}

	return body(ctx, deps)
}

func printResult(res *orchestrator.Result) {
	fmt.Printf("run %s (seed %d): %s steps", res.RunID, res.Seed, humanize.Comma(int64(res.Summary.Stats.Steps)))
	if best := res.Summary.Best; best != nil {
		fmt.Printf(", best utility %.6g at depth %d (%+.6g)", best.GlobalUtility, best.Depth, best.GlobalUtility-res.InitialUtility)
	} else {
		fmt.Print(", no action committed")
	}
	fmt.Printf("\n  %s\n", res.Files.Transactions)
}
