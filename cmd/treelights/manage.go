package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/treelights/internal/analysis"
	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/config"
	"github.com/san-kum/treelights/internal/effects"
	"github.com/san-kum/treelights/internal/export"
	"github.com/san-kum/treelights/internal/spatial"
	"github.com/san-kum/treelights/internal/wled"
)

func newRunsCmd() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "plot a run's brightness over time and find its period",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeSVG, "svg", "", "also write the brightness curve to this SVG file")

	runsCmd.AddCommand(
		analyzeCmd,
		&cobra.Command{
			Use:   "export [run_id]",
			Short: "print a run as JSON",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				st, err := openStore(cfg)
				if err != nil {
					return err
				}
				return st.Export(cmd.OutOrStdout(), args[0])
			},
		},
		&cobra.Command{
			Use:   "rm [run_id]",
			Short: "delete a recorded run",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				st, err := openStore(cfg)
				if err != nil {
					return err
				}
				if err := st.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			},
		},
	)
	return runsCmd
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEFFECT\tPRESET\tTIME\tDURATION\tFRAMES\tFPS\tLEDS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%d\t%d\t%d\n",
			run.ID,
			run.Effect,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Frames,
			run.FPS,
			run.LEDCount,
		)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("run %s has no frames", meta.ID)
	}

	series := analysis.BrightnessSeries(frames)
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run: %s (%s, %d frames at %d fps)\n\n", meta.ID, meta.Effect, meta.Frames, meta.FPS)
	fmt.Fprintln(w, asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("mean brightness per frame"),
	))
	fmt.Fprintln(w)
	if period, ok := analysis.DominantPeriod(series, meta.FPS); ok {
		fmt.Fprintf(w, "dominant period: %.2fs\n", period)
	} else {
		fmt.Fprintln(w, "dominant period: none")
	}
	printMetrics(w, meta.Metrics)

	if analyzeSVG == "" {
		return nil
	}
	if err := writeFile(analyzeSVG, func(f io.Writer) error {
		return export.CurveToSVG(f, series, 800, 200, "#2ecc71")
	}); err != nil {
		return err
	}
	fmt.Fprintf(w, "curve written to %s\n", analyzeSVG)
	return nil
}

func newEffectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "effects",
		Short: "list available effects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := effects.NewRegistry()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSPATIAL\tDESCRIPTION")
			for _, name := range registry.List() {
				spatialMark := "no"
				if registry.Spatial(name) {
					spatialMark = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, spatialMark, registry.Description(name))
			}
			return w.Flush()
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEFFECT\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, p.Effect, p.Description)
			}
			return w.Flush()
		},
	}
}

func newCoordsCmd() *cobra.Command {
	coordsCmd := &cobra.Command{
		Use:   "coords",
		Short: "inspect or generate LED coordinate files",
	}

	checkCmd := &cobra.Command{
		Use:   "check [csv]",
		Short: "validate a coordinate file against the configured LED count",
		Args:  cobra.MaximumNArgs(1),
		RunE:  checkCoords,
	}

	var count int
	generateCmd := &cobra.Command{
		Use:   "generate [csv]",
		Short: "write a cone-spiral test geometry (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("count") {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				count = cfg.LEDs.Count
			}
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			points := spatial.GenerateSpiral(count)
			if args[0] == "-" {
				return spatial.WriteCSV(cmd.OutOrStdout(), points)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := spatial.WriteCSV(f, points); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d coordinates to %s\n", count, args[0])
			return nil
		},
	}
	generateCmd.Flags().IntVar(&count, "count", 0, "number of LEDs (defaults to leds.count)")

	coordsCmd.AddCommand(checkCmd, generateCmd)
	return coordsCmd
}

func checkCoords(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := cfg.LEDs.Coordinates
	if len(args) > 0 {
		path = args[0]
	}
	points, err := spatial.LoadCSVFile(path)
	if err != nil {
		return err
	}
	model, err := spatial.Build(points, cfg.LEDs.Count)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "file: %s\n", path)
	fmt.Fprintln(w, model)
	stats := model.Stats()
	fmt.Fprintf(w, "height: min %.3f max %.3f mean %.3f\n", stats.Height.Min, stats.Height.Max, stats.Height.Mean)
	fmt.Fprintf(w, "radial: min %.3f max %.3f mean %.3f\n", stats.Radial.Min, stats.Radial.Max, stats.Radial.Mean)
	fmt.Fprintf(w, "bounding diagonal: %.3f\n", model.BoundingDiagonal())
	if d := model.Duplicates(); d > 0 {
		fmt.Fprintf(w, "duplicates: %d LEDs share a coordinate\n", d)
	}
	if mm := model.Mismatch(); mm != nil {
		fmt.Fprintf(w, "mismatch: %v\n", mm)
		return mm
	}
	fmt.Fprintln(w, "ok")
	return nil
}

func newDeviceCmd() *cobra.Command {
	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "talk to the WLED controller",
	}

	printJSON := func(cmd *cobra.Command, v any) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "show controller info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			info, err := newWLEDClient(cfg).Info(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "name\t%s\n", info.Name)
			fmt.Fprintf(w, "version\t%s\n", info.Version)
			fmt.Fprintf(w, "product\t%s %s\n", info.Brand, info.Product)
			fmt.Fprintf(w, "address\t%s (%s)\n", info.IP, info.MAC)
			fmt.Fprintf(w, "leds\t%d\n", info.LEDs.Count)
			fmt.Fprintf(w, "fps\t%d\n", info.LEDs.FPS)
			fmt.Fprintf(w, "live\t%t\n", info.Live)
			fmt.Fprintf(w, "uptime\t%ds\n", info.Uptime)
			if err := w.Flush(); err != nil {
				return err
			}
			if info.LEDs.Count != cfg.LEDs.Count {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: controller reports %d LEDs, config expects %d\n", info.LEDs.Count, cfg.LEDs.Count)
			}
			return nil
		},
	}

	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "show controller state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			state, err := newWLEDClient(cfg).State(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, state)
		},
	}

	powerCmd := &cobra.Command{
		Use:       "power [on|off]",
		Short:     "switch the controller on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return newWLEDClient(cfg).SetPower(cmd.Context(), on)
		},
	}

	brightnessCmd := &cobra.Command{
		Use:   "brightness [0-255]",
		Short: "set master brightness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("brightness: %w", err)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return newWLEDClient(cfg).SetBrightness(cmd.Context(), level)
		},
	}

	colorCmd := &cobra.Command{
		Use:   "color [#rrggbb]",
		Short: "fill the strip with a solid color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := color.ParseHex(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return newWLEDClient(cfg).SetColor(cmd.Context(), c)
		},
	}

	listenCmd := &cobra.Command{
		Use:   "listen",
		Short: "receive DDP frames and print a summary of each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := net.ListenPacket("udp", net.JoinHostPort("", strconv.Itoa(listenPort)))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", conn.LocalAddr())
			frames := 0
			err = wled.Listen(ctx, conn, func(p []color.RGB) {
				frames++
				lit := 0
				for _, c := range p {
					if c != color.Black {
						lit++
					}
				}
				first := color.Black
				if len(p) > 0 {
					first = p[0]
				}
				fmt.Fprintf(cmd.OutOrStdout(), "frame %d: %d LEDs, %d lit, first %s\n", frames, len(p), lit, first.Hex())
			})
			fmt.Fprintf(cmd.OutOrStdout(), "received %d frames\n", frames)
			return err
		},
	}
	listenCmd.Flags().IntVar(&listenPort, "port", wled.DefaultUDPPort, "UDP port")

	deviceCmd.AddCommand(infoCmd, stateCmd, powerCmd, brightnessCmd, colorCmd, listenCmd)
	return deviceCmd
}

var errOnOff = errors.New("expected on or off")

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w, got %q", errOnOff, s)
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "show or write configuration",
	}
	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "print the effective configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				return config.Write(cmd.OutOrStdout(), cfg)
			},
		},
		&cobra.Command{
			Use:   "init [path]",
			Short: "write the default configuration to a file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := os.Stat(args[0]); err == nil {
					return fmt.Errorf("%s already exists", args[0])
				}
				if err := config.Save(args[0], config.DefaultConfig()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
				return nil
			},
		},
	)
	return configCmd
}
