package scenario

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// WriteTableCSV writes rows to path in the flattened row-per-step shape
// used by the CLI and demo entry points, grounded on the teacher's
// WriteLedgerCSV.
func WriteTableCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	maxTurbines := 0
	for _, r := range rows {
		if len(r.TurbinePowerW) > maxTurbines {
			maxTurbines = len(r.TurbinePowerW)
		}
	}
	maxBasins := 0
	for _, r := range rows {
		if len(r.BasinVolume) > maxBasins {
			maxBasins = len(r.BasinVolume)
		}
	}

	header := []string{"index", "time", "price"}
	for i := 0; i < maxTurbines; i++ {
		header = append(header, "turbine_"+strconv.Itoa(i)+"_power_w", "turbine_"+strconv.Itoa(i)+"_label")
	}
	for b := 0; b < maxBasins; b++ {
		header = append(header, "basin_"+strconv.Itoa(b)+"_volume_m3")
	}
	header = append(header, "feasible")
	if err := w.Write(header); err != nil {
		return err
	}

	for i, r := range rows {
		row := []string{strconv.Itoa(i), fmtTime(r.Time), fmtFloat(r.Price)}
		for t := 0; t < maxTurbines; t++ {
			row = append(row, fmtFloat(r.TurbinePowerW[t]), string(r.TurbineLabel[t]))
		}
		for b := 0; b < maxBasins; b++ {
			row = append(row, fmtFloat(r.BasinVolume[b]))
		}
		row = append(row, strconv.FormatBool(r.Feasible))
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
