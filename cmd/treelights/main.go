package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/treelights/internal/config"
	"github.com/san-kum/treelights/internal/effect"
	"github.com/san-kum/treelights/internal/effects"
	"github.com/san-kum/treelights/internal/monitoring"
	"github.com/san-kum/treelights/internal/sink"
	"github.com/san-kum/treelights/internal/spatial"
	"github.com/san-kum/treelights/internal/storage"
	"github.com/san-kum/treelights/internal/wled"
)

var (
	configFile string
	coordsFile string
	dataDir    string
	logLevel   string
	presetName string
	sinkType   string
	duration   time.Duration
	frameRate  int
	// record/replay
	recordRun bool
	loopCount int
	// preview
	mirror    bool
	stripView bool
	themeName string
	// profile
	profileAt  float64
	profileSVG string
	// show
	shuffleShow bool
	loopShow    bool
	// runs analyze
	analyzeSVG string
	// device
	listenPort int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd registers every command and its flags on a fresh tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "treelights",
		Short:         "3D-aware animations for a WLED christmas tree",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&coordsFile, "coords", "", "LED coordinate CSV (overrides config)")
	pf.StringVar(&dataDir, "data", "", "recorded runs directory (overrides config)")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warning or error")
	pf.StringVar(&presetName, "preset", "", "apply a named preset")
	pf.StringVar(&sinkType, "sink", "", "wled, adalight or null (overrides config)")
	pf.DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	pf.IntVar(&frameRate, "fps", 0, "frame rate (overrides config)")

	runCmd := &cobra.Command{
		Use:   "run [effect]",
		Short: "stream an effect to the configured sink",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runShow,
	}
	runCmd.Flags().BoolVar(&recordRun, "record", false, "also record the stream to the data directory")

	previewCmd := &cobra.Command{
		Use:   "preview [effect]",
		Short: "render an effect in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPreview,
	}
	previewCmd.Flags().BoolVar(&mirror, "mirror", false, "also stream the preview to the configured sink")
	previewCmd.Flags().BoolVar(&stripView, "strip", false, "start in strip view")
	previewCmd.Flags().StringVar(&themeName, "theme", "pine", "preview theme")

	profileCmd := &cobra.Command{
		Use:   "profile [effect]",
		Short: "plot per-LED brightness at a point in time",
		Args:  cobra.MaximumNArgs(1),
		RunE:  profileEffect,
	}
	profileCmd.Flags().Float64Var(&profileAt, "at", 1.0, "animation time in seconds")
	profileCmd.Flags().StringVar(&profileSVG, "svg", "", "also write a 3D snapshot of the frame to this SVG file")

	recordCmd := &cobra.Command{
		Use:   "record [effect]",
		Short: "render an effect offline and store the frames",
		Args:  cobra.MaximumNArgs(1),
		RunE:  recordShow,
	}

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "stream a recorded run to the configured sink",
		Args:  cobra.ExactArgs(1),
		RunE:  replayShow,
	}
	replayCmd.Flags().IntVar(&loopCount, "loops", 1, "times to play the run when --duration is not set")

	showCmd := &cobra.Command{
		Use:   "show [scenario.yaml]",
		Short: "play a scripted sequence of effects",
		Args:  cobra.ExactArgs(1),
		RunE:  playScenario,
	}
	showCmd.Flags().BoolVar(&shuffleShow, "shuffle", false, "shuffle the steps on every pass")
	showCmd.Flags().BoolVar(&loopShow, "loop", false, "repeat until interrupted")

	rootCmd.AddCommand(runCmd, previewCmd, profileCmd, recordCmd, replayCmd, showCmd,
		newRunsCmd(), newEffectsCmd(), newPresetsCmd(), newCoordsCmd(), newDeviceCmd(), newConfigCmd())
	return rootCmd
}

// loadConfig reads the config file, then applies the preset and any flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configFile)
	if err != nil {
		return nil, err
	}
	if presetName != "" {
		p := config.GetPreset(presetName)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets())
		}
		p.Apply(cfg)
	}
	flags := cmd.Flags()
	if flags.Changed("coords") {
		cfg.LEDs.Coordinates = coordsFile
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("sink") {
		cfg.Sink.Type = sinkType
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("fps") {
		cfg.LEDs.FPS = frameRate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, err := monitoring.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	monitoring.SetLevel(level)
	return cfg, nil
}

// effectName picks the positional argument over the configured effect.
func effectName(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Effect
}

// buildEffect loads the tree geometry and builds the named effect for it.
// The LED count follows the geometry so every effect covers every mapped
// LED.
func buildEffect(cfg *config.Config, name string, opts ...effect.Option) (*effect.Effect, *spatial.Model, error) {
	registry := effects.NewRegistry()
	if _, err := registry.Get(name); err != nil {
		return nil, nil, fmt.Errorf("%w (available: %v)", err, registry.List())
	}
	model := spatial.Load(cfg.LEDs.Coordinates, cfg.LEDs.Count)
	fx, err := registry.Build(name, model.Len(), cfg.LEDs.FPS, model, cfg.Effects, opts...)
	if err != nil {
		return nil, nil, err
	}
	return fx, model, nil
}

func newWLEDClient(cfg *config.Config) *wled.Client {
	return wled.NewClient(cfg.WLED.Host, cfg.WLED.HTTPPort, &http.Client{Timeout: cfg.WLED.Timeout})
}

// openSink opens the transport named by the config.
func openSink(cfg *config.Config) (sink.Sink, error) {
	switch cfg.Sink.Type {
	case config.SinkWLED:
		return wled.Dial(cfg.WLED.Host, cfg.WLED.UDPPort, newWLEDClient(cfg))
	case config.SinkAdalight:
		return sink.OpenAdalight(cfg.Sink.SerialPort, cfg.Sink.BaudRate)
	case config.SinkNull:
		return sink.NewNull(), nil
	}
	return nil, fmt.Errorf("unknown sink: %s", cfg.Sink.Type)
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}
