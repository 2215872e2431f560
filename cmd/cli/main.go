package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"hydro-dispatch/internal/config"
	"hydro-dispatch/internal/priceload"
	"hydro-dispatch/internal/scenario"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "stats":
		cmdStats(os.Args[2:])
	case "describe":
		cmdDescribe(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli run --config plant.yaml --prices prices.csv --out results/table.csv")
	fmt.Println("  cli stats --prices prices.csv")
	fmt.Println("  cli describe --config plant.yaml")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - run solves the plant's dispatch by backward induction and writes the")
	fmt.Println("    realized dispatch table as CSV")
	fmt.Println("  - stats reports order statistics (min/max/mean/p05/p95) of a price curve")
	fmt.Println("  - describe prints the plant's basin and turbine topology without running")
	fmt.Println("    a scenario")
}

func cmdDescribe(args []string) {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to plant/constraints YAML config")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	plant, _, err := cfg.BuildPlant()
	if err != nil {
		panic(err)
	}

	fmt.Print(plant.Summary())
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to plant/constraints YAML config")
	pricePath := fs.String("prices", "", "Path to semicolon-delimited price curve CSV")
	outPath := fs.String("out", "results/table.csv", "Output CSV path")
	_ = fs.Parse(args)

	if *cfgPath == "" || *pricePath == "" {
		fmt.Println("--config and --prices are required")
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

	value, err := sc.Valuation()
	if err != nil {
		panic(err)
	}
	timings, err := sc.Timings()
	if err != nil {
		panic(err)
	}

	table, err := sc.Table()
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := scenario.WriteTableCSV(*outPath, table); err != nil {
		panic(err)
	}

	fmt.Printf("Wrote %d rows to %s\n", len(table), *outPath)
	fmt.Printf("Expected value=%.2f backward=%s forward=%s\n", value, timings.BackwardInduction, timings.ForwardPropagation)
}

func cmdStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	pricePath := fs.String("prices", "", "Path to semicolon-delimited price curve CSV")
	_ = fs.Parse(args)

	if *pricePath == "" {
		fmt.Println("--prices is required")
		os.Exit(2)
	}

	rows, err := priceload.Load(*pricePath)
	if err != nil {
		panic(err)
	}
	s := priceload.ComputeStats(rows)
	fmt.Printf("count=%d min=%.3f max=%.3f mean=%.3f p05=%.3f p95=%.3f spread=%.3f\n",
		s.Count, s.Min, s.Max, s.Mean, s.P05, s.P95, s.SpreadP95P05)
}
