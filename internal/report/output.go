// Package report serialises backtest output for the charting layer.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/inf-covid19/prederr/internal/backtest"
	"github.com/inf-covid19/prederr/internal/fileio"
)

// Header of the CSV error series, same keys as the JSON objects
var csvHeader = []string{"x", "y", "is_prediction", "raw_value", "pred_value", "raw_error"}

// WriteJSON writes records as an indented list of flat objects.
// An undefined percentage error is written as null.
func WriteJSON(w io.Writer, records []backtest.ErrorRecord) error {
	if records == nil {
		records = []backtest.ErrorRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes records with a header row. An undefined percentage error
// is an empty cell.
func WriteCSV(w io.Writer, records []backtest.ErrorRecord) error {
	// Initialize a new CSV writer
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	// Write data rows
	for _, r := range records {
		y := ""
		if pct, ok := r.ErrorPct(); ok {
			y = strconv.FormatFloat(pct, 'f', -1, 64)
		}
		record := []string{
			r.X,
			y,
			strconv.FormatBool(r.IsPrediction),
			strconv.FormatInt(r.RawValue, 10),
			strconv.FormatInt(r.PredValue, 10),
			strconv.FormatInt(r.RawError, 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteProjectionJSON writes projected days as a list of {date, value}.
func WriteProjectionJSON(w io.Writer, projections []backtest.Projection) error {
	if projections == nil {
		projections = []backtest.Projection{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(projections)
}

// WriteFile writes records to path, choosing JSON or CSV from the extension
// and compressing for .gz/.zst suffixes.
func WriteFile(path string, records []backtest.ErrorRecord) (err error) {
	var write func(io.Writer, []backtest.ErrorRecord) error
	switch format := fileio.Format(path); format {
	case "json":
		write = WriteJSON
	case "csv":
		write = WriteCSV
	default:
		return fmt.Errorf("unsupported output format %q in %s", format, path)
	}

	f, err := fileio.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := write(f, records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteProjectionFile writes projections to a JSON file (optionally compressed).
func WriteProjectionFile(path string, projections []backtest.Projection) (err error) {
	if format := fileio.Format(path); format != "json" {
		return fmt.Errorf("unsupported projection format %q in %s", format, path)
	}

	f, err := fileio.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := WriteProjectionJSON(f, projections); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
