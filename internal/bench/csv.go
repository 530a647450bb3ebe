package bench

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

var csvHeader = []string{
	"batch", "algo", "case", "lots", "plots", "vehicles", "forklifts", "runs",
	"time_best_ms", "time_mean_ms", "time_std_ms",
	"makespan_best", "makespan_mean", "makespan_std",
	"convergence_mean", "iterations_mean", "fallbacks",
	"reference", "gap_pct",
}

func (r Record) row() []string {
	return []string{
		r.Batch,
		r.Algo,
		r.Case,
		strconv.Itoa(r.Lots),
		strconv.Itoa(r.Plots),
		strconv.Itoa(r.Vehicles),
		strconv.Itoa(r.Forklifts),
		strconv.Itoa(r.Runs),

		formatFloat(r.TimeBestMs),
		formatFloat(r.TimeMeanMs),
		formatFloat(r.TimeStdMs),

		formatFloat(r.MakespanBest),
		formatFloat(r.MakespanMean),
		formatFloat(r.MakespanStd),

		formatFloat(r.ConvergenceMean),
		formatFloat(r.IterationsMean),
		strconv.Itoa(r.Fallbacks),

		formatFloat(r.Reference),
		formatFloat(r.GapPct),
	}
}

// WriteCSV writes records to path, creating parent directories.
func WriteCSV(path string, records []Record) (err error) {
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return writeRecords(f, records)
}

func writeRecords(out io.Writer, records []Record) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write(r.row()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// formatFloat leaves missing values (NaN) empty.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
