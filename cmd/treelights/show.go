package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/treelights/internal/automation"
	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/config"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/export"
	"github.com/san-kum/treelights/internal/metrics"
	"github.com/san-kum/treelights/internal/monitoring"
	"github.com/san-kum/treelights/internal/sink"
	"github.com/san-kum/treelights/internal/storage"
	"github.com/san-kum/treelights/internal/viz"
)

const (
	defaultRecordLength = 10 * time.Second
	profileBins         = 80
	snapshotWidth       = 72
	snapshotHeight      = 30
	snapshotScale       = 10
)

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name := effectName(cfg, args)
	fx, _, err := buildEffect(cfg, name)
	if err != nil {
		return err
	}

	dev, err := openSink(cfg)
	if err != nil {
		return err
	}
	set := metrics.Default(fx.FPS())
	members := []sink.Sink{dev, set}
	var rec *storage.Recorder
	if recordRun {
		st, err := openStore(cfg)
		if err != nil {
			dev.Close()
			return err
		}
		rec, err = st.Create(storage.RunMetadata{Effect: name, Preset: presetName, FPS: fx.FPS(), LEDCount: fx.LEDCount()})
		if err != nil {
			dev.Close()
			return err
		}
		members = append(members, rec)
	}
	out := sink.NewTee(members...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "running %s on %d LEDs via %s (ctrl+c to stop)\n", name, fx.LEDCount(), cfg.Sink.Type)
	stats, runErr := sink.NewDriver(out).Run(ctx, fx, duration)
	if rec != nil {
		rec.SetMetrics(set.Values())
	}
	closeErr := out.Close()
	printStats(cmd.OutOrStdout(), stats)
	printMetrics(cmd.OutOrStdout(), set.Values())
	if rec != nil && closeErr == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "run id: %s\n", rec.ID())
	}
	return errors.Join(runErr, closeErr)
}

func printStats(w io.Writer, s sink.Stats) {
	fmt.Fprintf(w, "frames: %d\n", s.Frames)
	fmt.Fprintf(w, "failures: %d\n", s.Failures)
	fmt.Fprintf(w, "elapsed: %v\n", s.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "average fps: %.1f\n", s.AverageFPS())
}

func printMetrics(w io.Writer, values map[string]float64) {
	for _, name := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(w, "%s: %.3f\n", name, values[name])
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fx, model, err := buildEffect(cfg, effectName(cfg, args))
	if err != nil {
		return err
	}

	// The alt screen owns the terminal; diagnostics go to a file instead.
	if err := os.MkdirAll(cfg.DataDir, 0755); err == nil {
		if f, err := tea.LogToFile(filepath.Join(cfg.DataDir, "preview.log"), "preview"); err == nil {
			defer f.Close()
		}
	}

	opts := []viz.Option{viz.WithTheme(themeName)}
	if stripView {
		opts = append(opts, viz.WithStripView())
	}
	if mirror {
		out, err := openSink(cfg)
		if err != nil {
			return err
		}
		defer out.Close()
		if s, ok := out.(sink.Session); ok {
			if err := s.Begin(cmd.Context()); err != nil {
				return err
			}
			defer func() {
				if err := s.End(context.Background()); err != nil {
					monitoring.Warnf("ending sink session: %v", err)
				}
			}()
		}
		opts = append(opts, viz.WithFrameHook(func(p []color.RGB) {
			if err := out.Send(p); err != nil {
				monitoring.Debugf("mirror frame failed: %v", err)
			}
		}))
	}
	return viz.Run(viz.NewModel(fx, model, opts...))
}

// stepTo advances a started effect in whole frames until it reaches t
// seconds. At least one frame is always rendered.
func stepTo(fx *effect.Effect, t float64) {
	dt := 1.0 / float64(fx.FPS())
	fx.Step(dt)
	for fx.Time()+dt/2 < t {
		fx.Step(dt)
	}
}

func profileEffect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name := effectName(cfg, args)
	fx, model, err := buildEffect(cfg, name)
	if err != nil {
		return err
	}
	fx.Start()
	stepTo(fx, profileAt)

	pixels := fx.Buffer().Pixels()
	lumas := make([]float64, len(pixels))
	lit := 0
	for i, p := range pixels {
		lumas[i] = p.Luma()
		if p != color.Black {
			lit++
		}
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "effect: %s\n", name)
	fmt.Fprintf(w, "leds: %d (%d lit)\n", len(pixels), lit)
	fmt.Fprintf(w, "time: %.2fs (%d frames)\n\n", fx.Time(), fx.FrameCount())

	fmt.Fprintln(w, asciigraph.Plot(lumas,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("brightness by LED index"),
	))
	fmt.Fprintln(w)
	fmt.Fprintln(w, asciigraph.Plot(heightProfile(lumas, model.HeightNormalized(), profileBins),
		asciigraph.Height(10),
		asciigraph.Width(profileBins),
		asciigraph.Caption("brightness by height (bottom to top)"),
	))

	mean, std := stat.MeanStdDev(lumas, nil)
	fmt.Fprintf(w, "\nmean brightness: %.3f\n", mean)
	fmt.Fprintf(w, "std deviation:   %.3f\n", std)
	fmt.Fprintf(w, "est. current:    %.0f mA\n", metrics.DefaultPowerModel.Current(pixels))

	if profileSVG == "" {
		return nil
	}
	cv := viz.NewCanvas(snapshotWidth, snapshotHeight)
	viz.Render3D(cv, viz.NewScene(model), pixels, viz.NewCamera())
	if err := writeFile(profileSVG, func(f io.Writer) error {
		return export.CanvasToSVG(f, cv, snapshotScale)
	}); err != nil {
		return err
	}
	fmt.Fprintf(w, "snapshot written to %s\n", profileSVG)
	return nil
}

// writeFile creates path and hands it to fn, keeping the first error.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// heightProfile averages values into bins by normalized height. Empty bins
// stay at zero.
func heightProfile(values, heights []float64, bins int) []float64 {
	sums := make([]float64, bins)
	counts := make([]int, bins)
	for i, v := range values {
		if i >= len(heights) {
			break
		}
		b := min(int(heights[i]*float64(bins)), bins-1)
		b = max(b, 0)
		sums[b] += v
		counts[b]++
	}
	for i := range sums {
		if counts[i] > 0 {
			sums[i] /= float64(counts[i])
		}
	}
	return sums
}

func recordShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name := effectName(cfg, args)
	fx, _, err := buildEffect(cfg, name)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	length := duration
	if length <= 0 {
		length = defaultRecordLength
	}
	n := int(length.Seconds() * float64(fx.FPS()))

	rec, err := st.Create(storage.RunMetadata{Effect: name, Preset: presetName, FPS: fx.FPS(), LEDCount: fx.LEDCount()})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recording %s: %d frames at %d fps...\n", name, n, fx.FPS())
	start := time.Now()

	set := metrics.Default(fx.FPS())
	out := sink.NewTee(set, rec)
	fx.Start()
	dt := 1.0 / float64(fx.FPS())
	for i := 0; i < n; i++ {
		if err := out.Send(fx.Step(dt).Pixels()); err != nil {
			out.Close()
			return err
		}
	}
	rec.SetMetrics(set.Values())
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "completed in %v\n", time.Since(start).Round(time.Millisecond))
	printMetrics(cmd.OutOrStdout(), set.Values())
	fmt.Fprintf(cmd.OutOrStdout(), "run id: %s\n", rec.ID())
	return nil
}

func replayShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	pb, meta, err := st.OpenPlayback(args[0])
	if err != nil {
		return err
	}
	if meta.Frames == 0 {
		return fmt.Errorf("run %s has no frames", meta.ID)
	}
	if meta.LEDCount != cfg.LEDs.Count {
		monitoring.Warnf("run %s was recorded for %d LEDs, configured tree has %d", meta.ID, meta.LEDCount, cfg.LEDs.Count)
	}

	length := duration
	if length <= 0 {
		length = time.Duration(float64(max(loopCount, 1)) * meta.Duration * float64(time.Second))
	}

	dev, err := openSink(cfg)
	if err != nil {
		return err
	}
	set := metrics.Default(meta.FPS)
	out := sink.NewTee(dev, set)
	defer out.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "replaying %s (%s, %d frames) via %s\n", meta.ID, meta.Effect, meta.Frames, cfg.Sink.Type)
	stats, err := sink.NewDriver(out).Run(ctx, effect.New(pb, meta.LEDCount, meta.FPS), length)
	printStats(cmd.OutOrStdout(), stats)
	printMetrics(cmd.OutOrStdout(), set.Values())
	return err
}

// playScenario streams a scripted show. Each step is built from a copy of
// the config so a step's preset never leaks into the next one.
func playScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if shuffleShow {
		sc.Shuffle = true
	}
	if loopShow {
		sc.Loop = true
	}

	build := func(step automation.ScenarioStep) (*effect.Effect, error) {
		stepCfg := *cfg
		if step.Preset != "" {
			p := config.GetPreset(step.Preset)
			if p == nil {
				return nil, fmt.Errorf("unknown preset: %s", step.Preset)
			}
			p.Apply(&stepCfg)
		}
		name := stepCfg.Effect
		if step.Effect != "" {
			name = step.Effect
		}
		fx, _, err := buildEffect(&stepCfg, name)
		return fx, err
	}

	out, err := openSink(cfg)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	title := sc.Name
	if title == "" {
		title = filepath.Base(args[0])
	}
	fmt.Fprintf(w, "playing %s: %d steps via %s\n", title, len(sc.Steps), cfg.Sink.Type)
	results, err := automation.RunScenario(ctx, sc, build, out)
	for _, r := range results {
		fmt.Fprintf(w, "%-24s %6d frames  %5.1f fps  %d failed\n", r.Step, r.Stats.Frames, r.Stats.AverageFPS(), r.Stats.Failures)
	}
	return err
}
