// Package report writes the artifacts of a planning run: the best path's
// transaction list, the per-step node log and the run metadata file.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/talgya/tradesim/internal/engine"
)

// TransactionHeaders is the header row of a transaction list.
var TransactionHeaders = []string{
	"Model_ID", "Global_Utility", "Depth", "Action_Type",
	"Actor", "Target", "Action", "Quantity", "Score",
}

// TransactionSuffix ends every transaction list file name.
const TransactionSuffix = "_transaction_list.csv"

// WriteTransactions writes the best snapshot's path to path, replacing any
// previous list. Each row carries the utility reached after that step. A
// nil snapshot writes the header only.
func WriteTransactions(path, runID string, best *engine.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transaction list: %w", err)
	}
	var steps []engine.Step
	if best != nil {
		steps = best.Path
	}
	if err := writeTransactions(f, runID, engine.Transactions(steps)); err != nil {
		f.Close()
		return fmt.Errorf("write transaction list: %w", err)
	}
	return f.Close()
}

func writeTransactions(w io.Writer, runID string, txs []engine.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TransactionHeaders); err != nil {
		return err
	}
	for _, t := range txs {
		rec := []string{
			runID,
			formatFloat(t.GlobalUtility),
			strconv.Itoa(t.Depth),
			t.ActionType,
			t.Actor,
			t.Target,
			t.Action,
			formatFloat(t.Quantity),
			formatFloat(t.Score),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
