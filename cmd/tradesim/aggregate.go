package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talgya/tradesim/internal/report"
)

func newAggregateCmd() *cobra.Command {
	var dir, out string
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Concatenate every transaction list in a directory into one CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := report.Aggregate(dir, out)
			if err != nil {
				return err
			}
			if n == 0 {
				slog.Warn("no transaction lists found", "dir", dir)
			}
			fmt.Printf("aggregated %d files into %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "sim_runs", "directory holding *"+report.TransactionSuffix)
	cmd.Flags().StringVarP(&out, "out", "o", "results.csv", "output CSV")
	return cmd
}
