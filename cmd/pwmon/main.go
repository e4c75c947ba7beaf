//go:build linux

package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/socpower/pwmon/pkg/monitor"
	"github.com/socpower/pwmon/pkg/power"
	"github.com/socpower/pwmon/pkg/system/util"
	"github.com/socpower/pwmon/pkg/types"
)

type opts struct {
	// sampling
	frequency int
	interval  time.Duration
	duration  time.Duration
	samples   int
	scan      bool

	// outputs
	csvPath  string
	jsonPath string
}

type row struct {
	At      time.Time `json:"time"`
	Name    string    `json:"name"`
	Voltage float64   `json:"voltage_v"`
	Current float64   `json:"current_a"`
	Power   float64   `json:"power_w"`
	Online  bool      `json:"online"`
	Status  string    `json:"status"`
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "pwmon",
		Short: "SoC board power rail monitor",
		Long: `The pwmon tool samples the on-board power monitor ICs of Zynq-class
SoC boards through sysfs and reports per-rail voltage, current and power,
plus PS/PL subsystem and board totals with running statistics.

Examples:
  pwmon -f 10 -i 1s
  pwmon --scan --csv rails.csv -s 30
  pwmon top`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o)
		},
	}

	root.PersistentFlags().IntVarP(&o.frequency, "frequency", "f", monitor.DefaultFrequency, "sampling frequency in Hz")
	root.PersistentFlags().BoolVar(&o.scan, "scan", false, "discover sensors by scanning the i2c bus instead of the fixed hwmon layout")
	root.Flags().DurationVarP(&o.interval, "interval", "i", time.Second, "display interval (e.g. 1s, 500ms)")
	root.Flags().DurationVarP(&o.duration, "duration", "d", 0, "total capture duration (0 = run until Ctrl-C)")
	root.Flags().IntVarP(&o.samples, "samples", "s", 0, "number of display rows to print (0 = run until Ctrl-C)")
	root.Flags().StringVar(&o.csvPath, "csv", "", "write per-tick channel rows to CSV file")
	root.Flags().StringVar(&o.jsonPath, "json", "", "write per-tick channel rows to JSON file")

	root.AddCommand(sensorsCmd(&o))
	root.AddCommand(topCmd(&o))

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func newMonitor(o *opts) (*monitor.Monitor, error) {
	strategy := monitor.StrategyRails
	if o.scan {
		strategy = monitor.StrategyScan
	}
	return monitor.New(
		monitor.WithStrategy(strategy),
		monitor.WithFrequency(o.frequency),
	)
}

func sensorsCmd(o *opts) *cobra.Command {
	return &cobra.Command{
		Use:   "sensors",
		Short: "List the discovered power channels and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMonitor(o)
			if err != nil {
				return err
			}
			defer m.Close()

			snap := m.Snapshot()
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CHANNEL\tWARN (W)\tCRIT (W)")
			for _, r := range snap.Sensors {
				fmt.Fprintf(tw, "%s\t%.1f\t%.1f\n", r.Name, r.WarnPower, r.CritPower)
			}
			fmt.Fprintf(tw, "%s\t%.1f\t%.1f\n", snap.Total.Name, snap.Total.WarnPower, snap.Total.CritPower)
			return tw.Flush()
		},
	}
}

func run(ctx context.Context, o opts) error {
	if o.interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}

	m, err := newMonitor(&o)
	if err != nil {
		return err
	}
	defer m.Close()

	fmt.Printf("pwmon: %d channels, sampling at %d Hz, displaying every %s\n\n",
		m.SensorCount(), m.Frequency(), o.interval)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	printHeader(tw)

	var (
		csvF *os.File
		csvW *csv.Writer
	)
	if o.csvPath != "" {
		if err := os.MkdirAll(filepath.Dir(o.csvPath), 0o755); err == nil {
			if f, er := os.Create(o.csvPath); er == nil {
				csvF = f
				csvW = csv.NewWriter(f)
				_ = csvW.Write([]string{
					"time", "name", "voltage_v", "current_a", "power_w", "online", "status",
				})
				csvW.Flush()
			}
		}
	}
	var jsonF *os.File
	if o.jsonPath != "" {
		if err := os.MkdirAll(filepath.Dir(o.jsonPath), 0o755); err == nil {
			jsonF, _ = os.Create(o.jsonPath)
			if jsonF != nil {
				_, _ = jsonF.WriteString("[\n")
			}
		}
	}

	if err := m.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if o.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	writeN := 0
	shown := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("capture stopped", "reason", context.Cause(ctx))
			goto END

		case <-ticker.C:
			snap := m.Snapshot()
			printRow(tw, snap.Total)

			for _, r := range channelRows(snap) {
				if csvW != nil {
					_ = csvW.Write([]string{
						r.At.Format(time.RFC3339),
						r.Name,
						util.FmtFloat(r.Voltage), util.FmtFloat(r.Current), util.FmtFloat(r.Power),
						strconv.FormatBool(r.Online),
						r.Status,
					})
				}
				if jsonF != nil {
					b, _ := json.MarshalIndent(r, "  ", "  ")
					if writeN > 0 {
						_, _ = jsonF.WriteString(",\n")
					}
					_, _ = jsonF.Write(b)
					writeN++
				}
			}
			if csvW != nil {
				csvW.Flush()
			}

			shown++
			if o.samples > 0 && shown >= o.samples {
				goto END
			}
		}
	}

END:
	if err := m.Stop(); err != nil {
		slog.Warn("stop sampler", "err", err)
	}

	if csvW != nil {
		csvW.Flush()
	}
	if csvF != nil {
		_ = csvF.Close()
	}
	if jsonF != nil {
		_, _ = jsonF.WriteString("\n]\n")
		_ = jsonF.Close()
	}

	printSummary(m.Statistics())
	return nil
}

func channelRows(snap power.Snapshot) []row {
	out := make([]row, 0, len(snap.Sensors)+3)
	add := func(r power.Reading) {
		out = append(out, row{
			At:      snap.Taken,
			Name:    r.Name,
			Voltage: r.Voltage,
			Current: r.Current,
			Power:   r.Power,
			Online:  r.Online,
			Status:  r.Status,
		})
	}
	for _, r := range snap.Sensors {
		add(r)
	}
	add(snap.PS)
	add(snap.PL)
	add(snap.Total)
	return out
}

func printHeader(tw *tabwriter.Writer) {
	fmt.Fprintln(tw, "TIME\tCHANNEL\tVOLTAGE\tCURRENT\tPOWER\tSTATUS")
	fmt.Fprintln(tw, "----\t-------\t-------\t-------\t-----\t------")
	tw.Flush()
}

func printRow(tw *tabwriter.Writer, r power.Reading) {
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		time.Now().Format("15:04:05"), r.Name,
		types.Volts(r.Voltage), types.Amps(r.Current), types.Watts(r.Power), r.Status,
	)
	tw.Flush()
}

func printSummary(stats power.Stats) {
	fmt.Println()
	fmt.Printf("power summary (over %d ticks):\n", stats.Total.Power.Count)
	printChannelSummary(stats.PS)
	printChannelSummary(stats.PL)
	printChannelSummary(stats.Total)
	fmt.Println()
}

func printChannelSummary(c power.ChannelStats) {
	if c.Power.Count == 0 {
		return
	}
	fmt.Printf("- %-10s min %s  avg %s  max %s\n", c.Name+":",
		types.Watts(c.Power.Min), types.Watts(c.Power.Avg), types.Watts(c.Power.Max))
}
