// liquidar computes liquidaciones de sueldo offline.
//
// Usage:
//
//	liquidar calculate --input request.json [--fetch-indicators | --uf X --utm Y]
//	liquidar book --input requests.json [--workers N]
//	liquidar params [--period YYYY-MM]
//	liquidar indicators [--date YYYY-MM-DD]
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "liquidar",
		Usage:   "Chilean payroll liquidation engine",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "tables",
				Usage:   "Directory of legal parameter YAML files (defaults to the embedded tables)",
				EnvVars: []string{"LEGAL_TABLES_DIR"},
			},
			&cli.StringFlag{
				Name:    "indicators-url",
				Value:   "https://mindicador.cl",
				Usage:   "Base URL of the UF/UTM indicators service",
				EnvVars: []string{"INDICATORS_URL"},
			},
			&cli.DurationFlag{
				Name:    "indicators-timeout",
				Value:   defaultIndicatorsTimeout,
				Usage:   "Timeout for each indicators request",
				EnvVars: []string{"INDICATORS_TIMEOUT"},
			},
		},
		Commands: []*cli.Command{
			calculateCommand(),
			bookCommand(),
			paramsCommand(),
			indicatorsCommand(),
		},
	}
}
