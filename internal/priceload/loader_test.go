package priceload_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"hydro-dispatch/internal/priceload"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ParsesSemicolonDelimitedRows(t *testing.T) {
	path := writeCSV(t, "2026-01-01T00:00:00Z;10.5\n2026-01-01T01:00:00Z;20\n")

	rows, err := priceload.Load(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 10.5, rows[0].Price)
	require.Equal(t, 20.0, rows[1].Price)
}

func TestLoad_BadTimestampErrors(t *testing.T) {
	path := writeCSV(t, "not-a-time;10\n")

	_, err := priceload.Load(path)
	require.Error(t, err)
}

func TestToWattHourPrice_ConvertsFromPerMWh(t *testing.T) {
	rows := []priceload.Row{{Price: 50}}
	out := priceload.ToWattHourPrice(rows)
	require.Equal(t, 50.0/1e6, out[0])
}

func TestComputeStats_Basics(t *testing.T) {
	rows := []priceload.Row{{Price: 1}, {Price: 2}, {Price: 3}}
	s := priceload.ComputeStats(rows)
	require.Equal(t, 3, s.Count)
	require.Equal(t, 1.0, s.Min)
	require.Equal(t, 3.0, s.Max)
	require.InDelta(t, 2.0, s.Mean, 1e-9)
}

func TestCache_ReturnsSameParseForUnchangedFile(t *testing.T) {
	path := writeCSV(t, "2026-01-01T00:00:00Z;10\n")
	c := priceload.NewCache(0)

	first, err := c.Load(path)
	require.NoError(t, err)
	second, err := c.Load(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}
