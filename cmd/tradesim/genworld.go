package main

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/tradesim/internal/world"
)

func newGenWorldCmd() *cobra.Command {
	var (
		out       string
		seed      int64
		agents    []string
		resources []string
		small     bool
	)
	cmd := &cobra.Command{
		Use:   "genworld",
		Short: "Generate a synthetic initial world state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := world.DefaultGenConfig()
			if small {
				cfg = world.SmallGenConfig()
			}
			if !small || cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if len(agents) > 0 {
				cfg.Agents = agents
			}
			if len(resources) > 0 {
				cfg.Resources = resources
			}

			t := world.Generate(cfg)
			if err := world.WriteWorldState(out, t); err != nil {
				return err
			}

			totals := world.Totals(t)
			names := make([]string, 0, len(totals))
			for r := range totals {
				names = append(names, r)
			}
			sort.Strings(names)
			for _, r := range names {
				slog.Info("resource", "name", r, "total", humanize.Commaf(totals[r]))
			}
			fmt.Printf("wrote %d countries x %d resources to %s\n", len(t.Agents), len(t.Resources), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "initial_world_state.csv", "output CSV")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = random)")
	cmd.Flags().StringSliceVar(&agents, "agents", nil, "country names")
	cmd.Flags().StringSliceVar(&resources, "resources", nil, "resource columns")
	cmd.Flags().BoolVar(&small, "small", false, "two countries, three resources, fixed seed")
	return cmd
}
