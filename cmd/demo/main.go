package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"hydro-dispatch/internal/config"
	"hydro-dispatch/internal/priceload"
	"hydro-dispatch/internal/scenario"
)

// Demo:
// - Load a plant/constraints config and a price curve
// - Run the scenario to completion
// - Print the first handful of rows to show how the pieces fit together
func main() {
	cfgPath := flag.String("config", "", "Path to plant/constraints YAML config")
	pricePath := flag.String("prices", "", "Path to semicolon-delimited price curve CSV")
	n := flag.Int("n", 12, "Number of rows to print")
	outCSV := flag.String("out", "", "Optional path to write the dispatch table CSV")
	flag.Parse()

	if *cfgPath == "" || *pricePath == "" {
		fmt.Println("usage: demo --config plant.yaml --prices prices.csv [--n 12] [--out results/table.csv]")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	plant, turbineIDs, err := cfg.BuildPlant()
	if err != nil {
		panic(err)
	}
	constraints, err := cfg.BuildConstraints(turbineIDs)
	if err != nil {
		panic(err)
	}

	rows, err := priceload.Load(*pricePath)
	if err != nil {
		panic(err)
	}
	if len(rows) == 0 {
		panic("no rows in price curve")
	}
	underlyings := scenario.Underlyings{
		Time:  priceload.Times(rows),
		Price: priceload.ToWattHourPrice(rows),
	}

	sc, err := scenario.New(cfg.Plant.Name, plant, underlyings, constraints, scenario.Options{
		WaterValueEnd:     cfg.Scenario.WaterValueEnd,
		BasinLimitPenalty: cfg.Scenario.BasinLimitPenalty,
		Workers:           cfg.Scenario.Workers,
	})
	if err != nil {
		panic(err)
	}

	if err := sc.Run(context.Background()); err != nil {
		panic(err)
	}

	table, err := sc.Table()
	if err != nil {
		panic(err)
	}
	value, err := sc.Valuation()
	if err != nil {
		panic(err)
	}

	fmt.Printf("Loaded %d price rows for plant %q\n", len(rows), cfg.Plant.Name)
	fmt.Printf("Basins=%d Turbines=%d\n\n", len(plant.Basins), len(plant.Turbines))

	for i := 0; i < min(*n, len(table)); i++ {
		r := table[i]
		fmt.Printf("%s price=%8.5f power=%v label=%v volume=%v feasible=%v\n",
			r.Time.Format("2006-01-02 15:04"), r.Price, r.TurbinePowerW, r.TurbineLabel, r.BasinVolume, r.Feasible)
	}

	if *outCSV != "" {
		if err := scenario.WriteTableCSV(*outCSV, table); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	fmt.Printf("\nDone. Expected value=%.2f\n", value)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
