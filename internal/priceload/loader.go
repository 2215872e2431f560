// Package priceload is a thin, external loader for semicolon-delimited
// price-curve CSV files (spec.md §6): it is never imported by the core
// model/action/transition/dp/scenario packages, only by cmd/ entry
// points and the API layer, keeping the optimizer itself free of file
// I/O concerns.
package priceload

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Row is one parsed line of a price-curve CSV: a timestamp and a price,
// adapted from the teacher's LMPInterval market-data row shape to this
// system's single-price-per-step convention.
type Row struct {
	Time  time.Time
	Price float64 // currency per MWh, as stored in the CSV
}

// Load reads a semicolon-delimited CSV of "timestamp;price" rows
// (RFC3339 timestamp, price in currency/MWh) from path.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price curve %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = 2

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse price curve %q: %w", path, err)
	}

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("price curve %q: row %d: bad timestamp %q: %w", path, i, rec[0], err)
		}
		price, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("price curve %q: row %d: bad price %q: %w", path, i, rec[1], err)
		}
		rows = append(rows, Row{Time: ts, Price: price})
	}
	return rows, nil
}

// ToWattHourPrice converts a currency-per-MWh price curve into the
// currency-per-Wh convention dp.Inputs.Price expects.
func ToWattHourPrice(rows []Row) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Price / 1e6
	}
	return out
}

// Times extracts the row timestamps as a time grid.
func Times(rows []Row) []time.Time {
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.Time
	}
	return out
}
