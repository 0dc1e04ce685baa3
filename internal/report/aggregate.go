package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Aggregate concatenates every transaction list in dir into out. Columns
// are the union of the inputs' headers in first-seen order; the first
// output column is a running row index. It returns the number of files read.
func Aggregate(dir, out string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+TransactionSuffix))
	if err != nil {
		return 0, err
	}
	sort.Strings(files)

	var columns []string
	colIndex := make(map[string]int)
	var rows []map[string]string

	for _, p := range files {
		recs, err := readCSV(p)
		if err != nil {
			return 0, err
		}
		if len(recs) == 0 {
			continue
		}
		header := recs[0]
		for _, h := range header {
			if _, ok := colIndex[h]; !ok {
				colIndex[h] = len(columns)
				columns = append(columns, h)
			}
		}
		for _, rec := range recs[1:] {
			row := make(map[string]string, len(header))
			for i, h := range header {
				row[h] = rec[i]
			}
			rows = append(rows, row)
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("create aggregate: %w", err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(append([]string{""}, columns...)); err != nil {
		f.Close()
		return 0, err
	}
	for i, row := range rows {
		rec := make([]string, 0, len(columns)+1)
		rec = append(rec, strconv.Itoa(i))
		for _, c := range columns {
			rec = append(rec, row[c])
		}
		if err := cw.Write(rec); err != nil {
			f.Close()
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return 0, err
	}
	return len(files), f.Close()
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return recs, nil
}
