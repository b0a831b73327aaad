package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/joho/godotenv"

	gridref "github.com/doy/geo-uk-gridref"
)

// conversion is one converted input line. Forward conversions fill GridRef,
// inverse conversions fill Lat and Lon.
type conversion struct {
	Input   string   `json:"input"`
	GridRef string   `json:"grid_ref,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

func main() {
	if err := run(os.Stdout, os.Stderr, os.Stdin, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the program logic apart from process wiring so tests can
// drive it with their own writers and arguments.
func run(outW, errW io.Writer, inR io.Reader, args []string) error {
	_ = godotenv.Load() // a .env file is optional

	defaultPrecision := gridref.DefaultPrecision
	if v := os.Getenv("GRIDREF_PRECISION"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			defaultPrecision = p
		}
	}

	flagSet := flag.NewFlagSet("gridref", flag.ContinueOnError)
	flagSet.SetOutput(errW)
	flagSet.Usage = func() {
		fmt.Fprint(errW, `
Gridref converts between British National Grid references and Airy 1830
latitude/longitude.

Usage:
  gridref [options] [INPUT ...]

Arguments:
  INPUT
    A grid reference ("TG 51409 13177", quote references containing
    spaces) or a latitude,longitude pair in degrees
    ("52.657568,1.717908"). With no arguments, inputs are read one per
    line from standard input.

Options:
`)
		flagSet.PrintDefaults()
	}

	precisionFlag := flagSet.Int("precision", defaultPrecision, "Digit count of produced grid references. Options: 0, 2, 4, 6, 8 or 10.")
	jsonFlag := flagSet.Bool("json", false, "Write results as JSON, one object per line.")
	logLevelFlag := flagSet.String("log-level", getEnv("GRIDREF_LOG_LEVEL", "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	log := newLogger(*logLevelFlag, errW)

	inputs := flagSet.Args()
	if len(inputs) == 0 {
		sc := bufio.NewScanner(inR)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("reading standard input: %w", err)
		}
	}

	enc := json.NewEncoder(outW)
	failed := 0
	for _, input := range inputs {
		conv, err := convert(input, *precisionFlag)
		if err != nil {
			log.Error("conversion failed", "input", input, "error", err)
			failed++
			continue
		}
		log.Debug("converted", "input", input)

		if *jsonFlag {
			if err := enc.Encode(conv); err != nil {
				return err
			}
			continue
		}
		if conv.GridRef != "" {
			fmt.Fprintln(outW, conv.GridRef)
		} else {
			fmt.Fprintf(outW, "%.6f %.6f\n", *conv.Lat, *conv.Lon)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(inputs))
	}
	return nil
}

// convert maps one input to a result. Inputs containing a comma are read as
// a latitude,longitude pair; anything else is read as a grid reference.
func convert(input string, precision int) (conversion, error) {
	if !strings.Contains(input, ",") {
		lat, lon, err := gridref.GridRefToLatLon(input)
		if err != nil {
			return conversion{}, err
		}
		return conversion{Input: input, Lat: &lat, Lon: &lon}, nil
	}

	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return conversion{}, fmt.Errorf("coordinate pair %q must be latitude,longitude", input)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return conversion{}, fmt.Errorf("bad latitude in %q: %w", input, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return conversion{}, fmt.Errorf("bad longitude in %q: %w", input, err)
	}

	ref, err := gridref.DefaultNationalGridConverter.ConvertFromGeodetic(s2.LatLngFromDegrees(lat, lon), precision)
	if err != nil {
		return conversion{}, err
	}
	return conversion{Input: input, GridRef: ref}, nil
}

// newLogger creates and configures the tool's logger. It does not set the
// global logger.
func newLogger(levelStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(outW, &slog.HandlerOptions{Level: level}))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
