// Command calc computes absolute humidity for a single temperature and
// relative humidity pair. It uses the same calculator package as the
// service, so results match the API exactly.
//
// Usage:
//
//	go run ./cmd/calc -temperature 25.5 -humidity 60
//	go run ./cmd/calc -temperature 25.5 -humidity 60 -strategy ashrae -json
//	go run ./cmd/calc -temperature 25.5 -humidity 60 -compare
//
// With -compare both strategies run and -strategy is ignored.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/hygrolab/humidity-service/internal/psychro"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	temperature := flag.String("temperature", "", "air temperature in °C")
	humidity := flag.String("humidity", "", "relative humidity in percent (0..100)")
	strategy := flag.String("strategy", "magnus", "calculation strategy: magnus or ashrae")
	compare := flag.Bool("compare", false, "run both strategies and show the difference")
	jsonOut := flag.Bool("json", false, "emit the result as JSON")
	flag.Parse()

	if *temperature == "" || *humidity == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -temperature, -humidity")
	}

	tempC, err := strconv.ParseFloat(*temperature, 64)
	if err != nil {
		return fmt.Errorf("-temperature: %w", err)
	}
	rh, err := strconv.ParseFloat(*humidity, 64)
	if err != nil {
		return fmt.Errorf("-humidity: %w", err)
	}

	if *compare {
		return runCompare(tempC, rh, *jsonOut)
	}

	s, err := psychro.ParseStrategy(*strategy)
	if err != nil {
		return err
	}
	calc, err := psychro.New(s)
	if err != nil {
		return err
	}

	res, err := calc.Calculate(tempC, rh)
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(res)
	}

	fmt.Printf("temperature: %g °C\n", res.TemperatureC)
	fmt.Printf("humidity:    %g %%\n", res.HumidityPct)
	fmt.Printf("strategy:    %s\n", s)
	fmt.Printf("\nabsolute humidity: %.2f %s\n", res.AbsoluteHumidity, res.Unit)
	return nil
}

// compareResult pairs both strategies' outputs for the same inputs.
type compareResult struct {
	Magnus     psychro.Result `json:"magnus"`
	ASHRAE     psychro.Result `json:"ashrae"`
	Difference float64        `json:"difference_gm3"`
}

func runCompare(tempC, rh float64, jsonOut bool) error {
	magnus, err := psychro.New(psychro.StrategyMagnus)
	if err != nil {
		return err
	}
	ashrae, err := psychro.New(psychro.StrategyASHRAE)
	if err != nil {
		return err
	}

	mRes, err := magnus.Calculate(tempC, rh)
	if err != nil {
		return err
	}
	aRes, err := ashrae.Calculate(tempC, rh)
	if err != nil {
		return err
	}

	diff := math.Abs(mRes.AbsoluteHumidity - aRes.AbsoluteHumidity)
	diff = math.Round(diff*100) / 100

	if jsonOut {
		return printJSON(compareResult{Magnus: mRes, ASHRAE: aRes, Difference: diff})
	}

	fmt.Printf("temperature: %g °C\n", tempC)
	fmt.Printf("humidity:    %g %%\n", rh)
	fmt.Printf("\nmagnus:     %.2f %s\n", mRes.AbsoluteHumidity, mRes.Unit)
	fmt.Printf("ashrae:     %.2f %s\n", aRes.AbsoluteHumidity, aRes.Unit)
	fmt.Printf("difference: %.2f %s\n", diff, mRes.Unit)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = os.Stdout.Write(data)
	return err
}
