package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"phmagent/domain/core"
	"phmagent/internal/config"
	"phmagent/internal/container"
	"phmagent/internal/report"
	"phmagent/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// cli holds state shared by every subcommand
type cli struct {
	table    string
	markdown bool
	out      io.Writer
	c        *container.Container
}

func main() {
	_ = godotenv.Load()

	app := &cli{out: os.Stdout}
	rootCmd := &cobra.Command{
		Use:           "phm-cli",
		Short:         "Query vibration statistics and outliers from the sensor table",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.c != nil {
				return app.c.Shutdown(context.Background())
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&app.table, "table", "", "Sensor table (default $SENSOR_TABLE)")
	rootCmd.PersistentFlags().BoolVar(&app.markdown, "markdown", false, "Print Markdown instead of JSON where supported")

	rootCmd.AddCommand(
		app.newColumnsCmd(),
		app.newReadingsCmd(),
		app.newMaxCmd(),
		app.newSummaryCmd(),
		app.newOutliersCmd(),
		app.newRangeCmd(),
		app.newProfileCmd(),
		app.newPreviewCmd(),
		app.newIngestCmd(),
		app.newSeedCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *cli) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.table != "" {
		cfg.Sensor.Table = a.table
	}
	c, err := container.New(cfg)
	if err != nil {
		return err
	}
	if err := c.Open(ctx); err != nil {
		return err
	}
	a.c = c
	return nil
}

func (a *cli) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dateArg(s string) (core.Date, error) {
	return core.ParseDate(s)
}

func (a *cli) newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List the sensor table's columns and the detected time/value roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			columns, err := a.c.Vibration.Columns(cmd.Context())
			if err != nil {
				return err
			}
			out := map[string]interface{}{"table": a.c.Vibration.Table(), "columns": columns}
			if roles, err := a.c.Vibration.ResolveColumns(cmd.Context()); err == nil {
				out["roles"] = roles
			} else {
				out["schema_error"] = err.Error()
			}
			return a.printJSON(out)
		},
	}
}

func (a *cli) newReadingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "readings [date]",
		Short: "Print every reading of a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dateArg(args[0])
			if err != nil {
				return err
			}
			result, err := a.c.Vibration.ReadingsOnDate(cmd.Context(), date)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
}

func (a *cli) newMaxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "max [date]",
		Short: "Print the largest reading of a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dateArg(args[0])
			if err != nil {
				return err
			}
			result, err := a.c.Vibration.MaxOnDate(cmd.Context(), date)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
}

func (a *cli) newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [date | value...]",
		Short: "Summarize a day's readings, or a list of numbers",
		Long: `Summarize a day's readings, or a list of numbers given as arguments.

Example: phm-cli summary 2025-07-25
         phm-cli summary 0.12 0.15 0.11`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if date, err := dateArg(args[0]); err == nil && len(args) == 1 {
				summary, err := a.c.Vibration.SummaryOnDate(cmd.Context(), date)
				if err != nil {
					return err
				}
				if a.markdown {
					_, err = fmt.Fprint(a.out, report.SummaryMarkdown(summary))
					return err
				}
				return a.printJSON(summary)
			}

			values := make([]float64, len(args))
			for i, arg := range args {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("%q is neither a date nor a number", arg)
				}
				values[i] = v
			}
			summary, err := a.c.Vibration.AnalyzeList(values)
			if err != nil {
				return err
			}
			return a.printJSON(map[string]interface{}{"summary": summary, "sum": a.c.Vibration.Sum(values)})
		},
	}
}

func (a *cli) newOutliersCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "outliers [date]",
		Short: "Flag readings more than --threshold standard deviations from the day's mean",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dateArg(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = a.c.Vibration.DefaultThreshold()
			}
			result, err := a.c.Vibration.OutliersOnDate(cmd.Context(), date, threshold)
			if err != nil {
				return err
			}
			if a.markdown {
				_, err = fmt.Fprint(a.out, report.OutlierMarkdown(result))
				return err
			}
			return a.printJSON(result)
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 3.0, "Outlier threshold in standard deviations")
	return cmd
}

func (a *cli) newRangeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "range [from] [to]",
		Short: "Summarize every day in an inclusive date range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := dateArg(args[0])
			if err != nil {
				return err
			}
			to, err := dateArg(args[1])
			if err != nil {
				return err
			}
			days, err := a.c.Vibration.SummaryRange(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			if a.markdown {
				_, err = fmt.Fprint(a.out, report.RangeMarkdown(days))
				return err
			}
			return a.printJSON(days)
		},
	}
}

func (a *cli) newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile [date]",
		Short: "Describe the distribution of a day's readings: quartiles, fences, skew, normality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dateArg(args[0])
			if err != nil {
				return err
			}
			result, err := a.c.Vibration.ProfileOnDate(cmd.Context(), date)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
}

func (a *cli) newPreviewCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the table's columns, first rows and time spans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			preview, err := a.c.Vibration.Preview(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if !preview.Exists {
				return fmt.Errorf("table %s does not exist", preview.Table)
			}
			return a.printJSON(preview)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "Number of rows to show")
	return cmd
}

func (a *cli) newIngestCmd() *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Append a CSV or XLSX export to the sensor table",
		Long: `Append a CSV or XLSX export to the sensor table, creating it from the
file's headers when missing. Headers are trimmed and spaces or dashes become
underscores. Empty cells are stored as NULL.

Example: phm-cli ingest equipment_data.xlsx --table equipment_data`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.c.Ingest.IngestFile(cmd.Context(), a.c.Vibration.Table(), args[0], sheet)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Worksheet name (default: first sheet)")
	return cmd
}

func (a *cli) newSeedCmd() *cobra.Command {
	sensorCfg := testkit.DefaultSensorConfig()
	var start string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the sensor table with synthetic readings and injected spikes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if start != "" {
				d, err := dateArg(start)
				if err != nil {
					return err
				}
				sensorCfg.StartDate = d.Time()
			}
			if err := a.c.Migrate(cmd.Context()); err != nil {
				return err
			}

			gen := testkit.NewSensorDataGenerator(sensorCfg)
			began := time.Now()
			n, err := a.c.Store.InsertRows(cmd.Context(), a.c.Vibration.Table(), gen.Columns(), gen.GenerateValues())
			if err != nil {
				return err
			}
			return a.printJSON(map[string]interface{}{
				"table":       a.c.Vibration.Table(),
				"rows":        n,
				"spikes":      len(gen.Spikes()),
				"from":        sensorCfg.StartDate.Format(core.DateLayout),
				"days":        sensorCfg.Days,
				"duration_ms": time.Since(began).Milliseconds(),
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day, YYYY-MM-DD")
	cmd.Flags().IntVar(&sensorCfg.Days, "days", sensorCfg.Days, "Number of days")
	cmd.Flags().IntVar(&sensorCfg.DeviceCount, "devices", sensorCfg.DeviceCount, "Number of devices")
	cmd.Flags().DurationVar(&sensorCfg.Interval, "interval", sensorCfg.Interval, "Time between readings")
	cmd.Flags().Float64Var(&sensorCfg.SpikeRate, "spike-rate", sensorCfg.SpikeRate, "Probability of a vibration spike per reading")
	cmd.Flags().Int64Var(&sensorCfg.Seed, "seed", sensorCfg.Seed, "Random seed")
	return cmd
}
