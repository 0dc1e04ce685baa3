// Package orchestrator runs complete planning runs: it loads the inputs,
// drives a walker within the step budget and hands progress and results
// to the report writers, the run store, the status API and the metrics.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/tradesim/internal/api"
	"github.com/talgya/tradesim/internal/config"
	"github.com/talgya/tradesim/internal/economy"
	"github.com/talgya/tradesim/internal/engine"
	"github.com/talgya/tradesim/internal/entropy"
	"github.com/talgya/tradesim/internal/metrics"
	"github.com/talgya/tradesim/internal/persistence"
	"github.com/talgya/tradesim/internal/report"
	"github.com/talgya/tradesim/internal/world"
)

// Deps are the optional collaborators of a run. Nil fields are skipped.
type Deps struct {
	Store    *persistence.DB
	Progress *api.Progress
	Metrics  *metrics.Metrics
	Seeds    *entropy.Client // Source for seed 0; nil uses crypto/rand
}

// Inputs are the loaded, validated files a run starts from.
type Inputs struct {
	Table   *world.StateTable
	Weights *economy.WeightTable
	Catalog *economy.Catalog
	Digest  string // SHA-256 of the templates file
}

// Files are the artifacts written for one run.
type Files struct {
	Transactions string
	Metadata     string
	NodeLog      string
}

// Result describes one finished run.
type Result struct {
	RunID          string
	Seed           int64
	InitialUtility float64
	Summary        engine.Summary
	Files          Files
}

// LoadInputs reads the world state, weights and templates named by cfg.
func LoadInputs(cfg config.Config) (*Inputs, error) {
	table, err := world.LoadWorldState(cfg.WorldState)
	if err != nil {
		return nil, err
	}
	weights, err := world.LoadWeights(cfg.Weights)
	if err != nil {
		return nil, err
	}
	cat, digest, err := world.LoadCatalog(cfg.Templates)
	if err != nil {
		return nil, err
	}
	slog.Debug("inputs loaded",
		"countries", len(table.Agents),
		"resources", len(table.Resources),
		"weights", weights.Len(),
		"templates", cat.Len(),
	)
	return &Inputs{Table: table, Weights: weights, Catalog: cat, Digest: digest}, nil
}

// Run loads the inputs and performs one complete run.
func Run(ctx context.Context, cfg config.Config, deps Deps) (*Result, error) {
	in, err := LoadInputs(cfg)
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = deps.Seeds.Seed(ctx)
	}
	return RunWith(ctx, cfg, in, seed, deps)
}

// Repeat performs cfg.Repeats independent runs over the same inputs with
// seeds seed, seed+1, ... and at most cfg.Parallel running at once. The
// first failing run cancels the rest.
func Repeat(ctx context.Context, cfg config.Config, deps Deps) ([]*Result, error) {
	in, err := LoadInputs(cfg)
	if err != nil {
		return nil, err
	}
	base := cfg.Seed
	if base == 0 {
		base = deps.Seeds.Seed(ctx)
	}
	parallel := cfg.Parallel
	if parallel < 1 {
		parallel = 1
	}

	results := make([]*Result, cfg.Repeats)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i := 0; i < cfg.Repeats; i++ {
		i := i
		g.Go(func() error {
			res, err := RunWith(gctx, cfg, in, base+int64(i), deps)
			if err != nil {
				return fmt.Errorf("repeat %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunWith performs one run over already loaded inputs.
func RunWith(ctx context.Context, cfg config.Config, in *Inputs, seed int64, deps Deps) (*Result, error) {
	ledgers, err := world.BuildLedgers(in.Table, in.Weights, cfg.Agents)
	if err != nil {
		return nil, err
	}
	w, err := engine.NewWorld(ledgers)
	if err != nil {
		return nil, err
	}
	walker, err := engine.NewWalker(cfg.Search(seed), in.Catalog, w)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:          uuid.NewString(),
		Seed:           seed,
		InitialUtility: walker.InitialUtility(),
	}
	log := slog.With("run_id", res.RunID)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	res.Files = filesFor(cfg, res.RunID)

	nodeLog, err := report.CreateNodeLog(res.Files.NodeLog)
	if err != nil {
		return nil, err
	}
	defer nodeLog.Close()

	if deps.Store != nil {
		err := deps.Store.SaveRun(persistence.Run{
			ID:             res.RunID,
			Seed:           seed,
			Policy:         cfg.SortStrategy,
			MaxDepth:       cfg.MaxDepth,
			StepBudget:     cfg.StepBudget,
			CatalogDigest:  in.Digest,
			InitialUtility: res.InitialUtility,
		})
		if err != nil {
			return nil, err
		}
	}
	if deps.Progress != nil {
		deps.Progress.Start(res.RunID, seed, res.InitialUtility)
	}

	// From here on a failed run is still marked finished.
	failed := func(sum engine.Summary, err error) (*Result, error) {
		log.Error("run failed", "error", err, "steps", sum.Stats.Steps)
		if deps.Store != nil {
			if ferr := deps.Store.FailRun(res.RunID, sum, err); ferr != nil {
				log.Error("record failed run", "error", ferr)
			}
		}
		if deps.Progress != nil {
			deps.Progress.Fail(res.RunID, sum, err)
		}
		return nil, err
	}

	// Sink failures stop the search; the first one is reported.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var sinkErr error
	fail := func(err error) {
		if sinkErr == nil {
			sinkErr = err
			cancel()
		}
	}

	var steps []persistence.StepRow
	flush := func() {
		if deps.Store == nil || len(steps) == 0 {
			return
		}
		if err := deps.Store.SaveSteps(res.RunID, steps); err != nil {
			fail(fmt.Errorf("save steps: %w", err))
		}
		steps = steps[:0]
	}

	meta := func(best *engine.Snapshot, stepsTaken int) report.Metadata {
		return report.Metadata{
			RunID:          res.RunID,
			GlobalUtility:  best.GlobalUtility,
			InitialUtility: res.InitialUtility,
			MaxDepth:       cfg.MaxDepth,
			BestDepth:      best.Depth,
			SortStrategy:   cfg.SortStrategy,
			Seed:           seed,
			Steps:          stepsTaken,
			CatalogDigest:  in.Digest,
		}
	}

	eng := engine.NewEngine(walker, cfg.StepBudget)
	eng.OnStep = func(r engine.StepResult, remaining int) {
		step := walker.Stats().Steps - 1
		if err := nodeLog.Write(step, r.GlobalUtility, r.Depth, remaining); err != nil {
			fail(fmt.Errorf("node log: %w", err))
		}
		if deps.Store != nil {
			steps = append(steps, persistence.StepRow{
				Step: step, GlobalUtil: r.GlobalUtility, Depth: r.Depth, CountRemaining: remaining,
			})
			if len(steps) >= cfg.StepBatch {
				flush()
			}
		}
		if deps.Progress != nil {
			deps.Progress.Step(res.RunID, r, remaining)
		}
		if deps.Metrics != nil {
			deps.Metrics.ObserveStep(res.RunID, r)
		}
	}
	eng.OnBest = func(best *engine.Snapshot) {
		log.Info("new best",
			"global_utility", best.GlobalUtility,
			"delta", best.GlobalUtility-res.InitialUtility,
			"depth", best.Depth,
			"step", humanize.Comma(int64(best.FoundAtStep)),
		)
		if err := report.WriteTransactions(res.Files.Transactions, res.RunID, best); err != nil {
			fail(err)
		}
		if err := report.WriteMetadata(res.Files.Metadata, meta(best, best.FoundAtStep)); err != nil {
			fail(err)
		}
		if deps.Progress != nil {
			deps.Progress.Best(res.RunID, best)
		}
		if deps.Metrics != nil {
			deps.Metrics.ObserveBest(res.RunID, best)
		}
	}

	log.Info("run started",
		"seed", seed,
		"policy", cfg.SortStrategy,
		"max_depth", cfg.MaxDepth,
		"budget", humanize.Comma(int64(cfg.StepBudget)),
	)
	sum, err := eng.Run(ctx)
	flush()
	res.Summary = sum
	if deps.Metrics != nil {
		deps.Metrics.ObserveRun(sum, err)
	}
	if err != nil {
		return failed(sum, err)
	}
	if sinkErr != nil {
		return failed(sum, sinkErr)
	}

	if sum.Best == nil {
		// Nothing was ever committed; still leave an empty list behind.
		if err := report.WriteTransactions(res.Files.Transactions, res.RunID, nil); err != nil {
			return failed(sum, err)
		}
	} else if err := report.WriteMetadata(res.Files.Metadata, meta(sum.Best, sum.Stats.Steps)); err != nil {
		return failed(sum, err)
	}

	if deps.Store != nil {
		err := deps.Store.SaveResult(res.RunID, sum, map[string]string{
			"transactions": res.Files.Transactions,
			"node_log":     res.Files.NodeLog,
			"seed":         strconv.FormatInt(seed, 10),
		})
		if err != nil {
			return failed(sum, err)
		}
	}
	if err := nodeLog.Close(); err != nil {
		return failed(sum, fmt.Errorf("close node log: %w", err))
	}
	if deps.Progress != nil {
		deps.Progress.Finish(res.RunID, sum)
	}

	log.Info("run finished",
		"steps", humanize.Comma(int64(sum.Stats.Steps)),
		"commits", humanize.Comma(int64(sum.Stats.Commits)),
		"backtracks", humanize.Comma(int64(sum.Stats.Backtracks)),
		"terminated", sum.Terminated,
		"elapsed", sum.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}

// filesFor names a run's artifacts: <timestamp>_<short id>_best_node...
func filesFor(cfg config.Config, runID string) Files {
	prefix := filepath.Join(cfg.OutputDir,
		time.Now().Format("2006-01-02_15-04-05")+"_"+runID[:8])
	nodeLog := prefix + "_node_log.csv"
	if cfg.CompressNodeLog {
		nodeLog += ".zst"
	}
	return Files{
		Transactions: prefix + "_best_node" + report.TransactionSuffix,
		Metadata:     prefix + "_best_node_metadata.txt",
		NodeLog:      nodeLog,
	}
}
