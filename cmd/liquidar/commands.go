package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"remuneraciones/internal/domain/legal"
	"remuneraciones/internal/domain/liquidation"
	"remuneraciones/internal/platform/indicators"
)

const defaultIndicatorsTimeout = 10 * time.Second

var inputFlag = &cli.StringFlag{
	Name:     "input",
	Aliases:  []string{"i"},
	Usage:    "Path to the JSON input, or - for stdin",
	Required: true,
}

func calculateCommand() *cli.Command {
	return &cli.Command{
		Name:  "calculate",
		Usage: "Compute one liquidación from a request JSON",
		Flags: []cli.Flag{
			inputFlag,
			&cli.StringFlag{Name: "uf", Usage: "Pin the UF value (CLP) instead of the table value"},
			&cli.StringFlag{Name: "utm", Usage: "Pin the UTM value (CLP) instead of the table value"},
			&cli.BoolFlag{Name: "fetch-indicators", Usage: "Fetch UF/UTM for the last day of the period before calculating"},
		},
		Action: runCalculate,
	}
}

func bookCommand() *cli.Command {
	return &cli.Command{
		Name:  "book",
		Usage: "Compute a libro de remuneraciones from a JSON array of requests",
		Flags: []cli.Flag{
			inputFlag,
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Value: 4, Usage: "Parallel calculations"},
		},
		Action: runBook,
	}
}

func paramsCommand() *cli.Command {
	return &cli.Command{
		Name:  "params",
		Usage: "Print the parameter set for a period, or every known window",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "period", Aliases: []string{"p"}, Usage: "Period in YYYY-MM format"},
		},
		Action: runParams,
	}
}

func indicatorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "indicators",
		Usage: "Fetch UF and UTM for a date",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Date in YYYY-MM-DD format (defaults to today)"},
		},
		Action: runIndicators,
	}
}

func runCalculate(c *cli.Context) error {
	var req liquidation.Request
	if err := readInput(c, &req); err != nil {
		return err
	}
	table, err := loadTable(c)
	if err != nil {
		return err
	}
	period, err := legal.NewPeriod(req.Period.Year, req.Period.Month)
	if err != nil {
		return &liquidation.InvalidInputError{Field: "period", Reason: err.Error()}
	}
	params, err := table.Resolve(period)
	if err != nil {
		return err
	}

	uf, err := decimalFlag(c, "uf")
	if err != nil {
		return err
	}
	utm, err := decimalFlag(c, "utm")
	if err != nil {
		return err
	}
	if c.Bool("fetch-indicators") {
		client := indicators.New(c.String("indicators-url"), c.Duration("indicators-timeout"))
		values, err := client.Values(c.Context, lastDay(period))
		if err != nil {
			return fmt.Errorf("fetch indicators: %w", err)
		}
		uf, utm = values.UF, values.UTM
	}
	if uf.IsPositive() || utm.IsPositive() {
		if params, err = params.WithIndicators(uf, utm); err != nil {
			return err
		}
	}

	result, err := liquidation.CalculateWith(params, req)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, result)
}

func runBook(c *cli.Context) error {
	var requests []liquidation.Request
	if err := readInput(c, &requests); err != nil {
		return err
	}
	if len(requests) == 0 {
		return errors.New("input has no requests")
	}
	table, err := loadTable(c)
	if err != nil {
		return err
	}
	book := liquidation.NewEngine(table).CalculateBook(requests, c.Int("workers"))
	return writeJSON(c.App.Writer, book)
}

func runParams(c *cli.Context) error {
	table, err := loadTable(c)
	if err != nil {
		return err
	}
	raw := c.String("period")
	if raw == "" {
		return writeJSON(c.App.Writer, table.Windows())
	}
	period, err := legal.ParsePeriod(raw)
	if err != nil {
		return err
	}
	set, err := table.Resolve(period)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, set)
}

func runIndicators(c *cli.Context) error {
	date := time.Now()
	if raw := c.String("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("date %q must use YYYY-MM-DD format", raw)
		}
		date = parsed
	}
	client := indicators.New(c.String("indicators-url"), c.Duration("indicators-timeout"))
	values, err := client.Values(c.Context, date)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, values)
}

func loadTable(c *cli.Context) (*legal.Table, error) {
	if dir := c.String("tables"); dir != "" {
		return legal.LoadDir(dir)
	}
	return legal.Default()
}

func readInput(c *cli.Context, v any) error {
	path := c.String("input")
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(c.App.Reader)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if err := json.Unmarshal(bytes.TrimSpace(data), v); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	return nil
}

func decimalFlag(c *cli.Context, name string) (decimal.Decimal, error) {
	raw := c.String(name)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || !value.IsPositive() {
		return decimal.Zero, fmt.Errorf("--%s must be a positive number, got %q", name, raw)
	}
	return value, nil
}

// lastDay is the date UF/UTM are read for: the payday at the end of the period.
func lastDay(period legal.Period) time.Time {
	return time.Date(period.Year, time.Month(period.Month), period.DaysInMonth(), 0, 0, 0, 0, time.UTC)
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
