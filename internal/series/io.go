package series

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inf-covid19/prederr/internal/fileio"
)

// Load reads a series from a .json or .csv file, optionally compressed
// (.json.gz, .csv.zst, ...).
func Load(path string) ([]DailyRecord, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	switch format := fileio.Format(path); format {
	case "json":
		return ReadJSON(r)
	case "csv":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("unsupported input format %q in %s", format, path)
	}
}

// ReadJSON accepts either a bare list of records or an object with the list
// under "data". Extra fields on each record are ignored.
func ReadJSON(r io.Reader) ([]DailyRecord, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty json input")
	}

	var records []DailyRecord
	if raw[0] == '{' {
		var wrapped struct {
			Data []DailyRecord `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		records = wrapped.Data
	} else if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	return records, nil
}

// UnmarshalJSON reads counts as JSON numbers so that integral floats (12.0)
// load the same way they do from CSV.
func (r *DailyRecord) UnmarshalJSON(b []byte) error {
	var raw struct {
		Date   string      `json:"date"`
		Cases  json.Number `json:"cases"`
		Deaths json.Number `json:"deaths"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	cases, err := parseCount(raw.Cases.String())
	if err != nil {
		return fmt.Errorf("%w: cases on %s: %v", ErrInvalidRecord, raw.Date, err)
	}
	deaths, err := parseCount(raw.Deaths.String())
	if err != nil {
		return fmt.Errorf("%w: deaths on %s: %v", ErrInvalidRecord, raw.Date, err)
	}

	*r = DailyRecord{Date: raw.Date, Cases: cases, Deaths: deaths}
	return nil
}

// ReadCSV reads a header row naming at least date, cases and deaths, in any
// order, followed by one row per day.
func ReadCSV(r io.Reader) ([]DailyRecord, error) {
	// 1. Make CSV reader
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	// 2. Read header row and locate the columns we need
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{"date": -1, "cases": -1, "deaths": -1}
	for j, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := cols[name]; ok {
			cols[name] = j
		}
	}
	for name, j := range cols {
		if j < 0 {
			return nil, fmt.Errorf("missing %q column in header %v", name, header)
		}
	}

	// 3. Read each data row
	var (
		records []DailyRecord
		row     int
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+1, err) // +1 for header
		}

		// Skip completely empty lines
		if len(record) == 1 && record[0] == "" {
			continue
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", row+1, len(header), len(record))
		}

		cases, err := parseCount(record[cols["cases"]])
		if err != nil {
			return nil, fmt.Errorf("parse cases at row %d: %w", row+1, err)
		}
		deaths, err := parseCount(record[cols["deaths"]])
		if err != nil {
			return nil, fmt.Errorf("parse deaths at row %d: %w", row+1, err)
		}

		records = append(records, DailyRecord{
			Date:   strings.TrimSpace(record[cols["date"]]),
			Cases:  cases,
			Deaths: deaths,
		})
	}

	return records, nil
}

// parseCount accepts integers and integral floats ("12", "12.0"); an empty
// cell counts as zero.
func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int64(f), nil
}
