// Package main provides the CLI entrypoint for hexcaster.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/hexcaster/internal/action"
	"github.com/verte-zerg/hexcaster/internal/config"
	"github.com/verte-zerg/hexcaster/internal/hid"
	"github.com/verte-zerg/hexcaster/internal/logging"
	"github.com/verte-zerg/hexcaster/internal/model"
	"github.com/verte-zerg/hexcaster/internal/pipeline"
	"github.com/verte-zerg/hexcaster/internal/spell"
	"github.com/verte-zerg/hexcaster/internal/stats"
	"github.com/verte-zerg/hexcaster/internal/store"
	"github.com/verte-zerg/hexcaster/internal/synth"
	"github.com/verte-zerg/hexcaster/internal/trackpad"
)

const (
	defaultShortcut       = "ctrl+alt+h"
	defaultSampleInterval = 8 * time.Millisecond
	defaultStatsWindow    = 5
	defaultSynthPoints    = 70
)

var (
	runReplay   string
	runTrackpad string
	runKeyboard string
	runMode     string
	runThresh   float64
	runLogLevel string
	runShortcut string
	runInterval time.Duration
	runJournal  bool

	statsSession string
	statsSince   string
	statsLast    int
	statsWindow  int

	synthShape  string
	synthPoints int
	synthCount  int
	synthJitter float64
	synthSeed   int64
	synthOut    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hexcaster",
		Short:         "Trackpad gesture to keyboard shortcut bridge",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newKeysCmd())
	rootCmd.AddCommand(newSynthCmd())

	return rootCmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Learn and cast gestures",
		Long: "Run the recognition pipeline. Without --replay or --trackpad an interactive console\n" +
			"stands in for the trackpad and the serial link.",
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}
	cmd.Flags().StringVar(&runReplay, "replay", "", "replay file used as the trackpad")
	cmd.Flags().StringVar(&runTrackpad, "trackpad", "", "trackpad device producing 9-byte reports")
	cmd.Flags().StringVar(&runKeyboard, "keyboard", "", "HID keyboard gadget device (empty logs reports)")
	cmd.Flags().StringVar(&runMode, "mode", model.ModeLearning.String(), "initial mode (learn or cast)")
	cmd.Flags().Float64Var(&runThresh, "threshold", spell.DefaultThreshold, "minimum score that fires the shortcut")
	cmd.Flags().StringVar(&runLogLevel, "log-level", logging.DefaultLevel, "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&runShortcut, "shortcut", defaultShortcut, "shortcut fired on a match")
	cmd.Flags().DurationVar(&runInterval, "interval", defaultSampleInterval, "replay pacing between samples")
	cmd.Flags().BoolVar(&runJournal, "journal", true, "record outcomes in the journal database")
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show journal stats for a session",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSession, "session", "", "session id (default: latest)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to the last N strokes")
	cmd.Flags().IntVar(&statsWindow, "window", defaultStatsWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	cfg := model.StatsConfig{
		Session: statsSession,
		Since:   sinceTime,
		Last:    statsLast,
		Window:  statsWindow,
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	threshold := spell.DefaultThreshold
	if fileCfg.Recognition.Threshold != nil {
		threshold = *fileCfg.Recognition.Threshold
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if err := stats.Render(cmd.OutOrStdout(), report, cfg.Window, 0, threshold); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List key and modifier names accepted in shortcuts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "Modifiers: %s\n", strings.Join(hid.ModifierNames(), ", ")); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if _, err := fmt.Fprintf(out, "Keys: %s\n", strings.Join(hid.KeyNames(), ", ")); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}

func newSynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic replay file",
		Args:  cobra.NoArgs,
		RunE:  runSynthCmd,
	}
	cmd.Flags().StringVar(&synthShape, "shape", "circle", fmt.Sprintf("shape to draw (%s)", strings.Join(synth.Shapes(), ", ")))
	cmd.Flags().IntVar(&synthPoints, "points", defaultSynthPoints, "samples per stroke")
	cmd.Flags().IntVar(&synthCount, "count", 1, "number of strokes")
	cmd.Flags().Float64Var(&synthJitter, "jitter", 0, "maximum per-axis noise in trackpad units")
	cmd.Flags().Int64Var(&synthSeed, "seed", 0, "random seed (0 uses the clock)")
	cmd.Flags().StringVar(&synthOut, "out", "", "output path (default: replay dir/<shape>.txt)")
	return cmd
}

func runSynthCmd(cmd *cobra.Command, _ []string) error {
	if synthCount <= 0 {
		return fmt.Errorf("--count must be > 0")
	}
	if synthJitter < 0 {
		return fmt.Errorf("--jitter must be >= 0")
	}
	gen := synth.New(synthSeed)
	strokes := make([]model.Stroke, 0, synthCount)
	for i := 0; i < synthCount; i++ {
		s, err := gen.Shape(synthShape, synthPoints, synthJitter)
		if err != nil {
			return err
		}
		strokes = append(strokes, s)
	}
	path := synthOut
	if path == "" {
		path = filepath.Join(config.DefaultReplayDir(), synthShape+".txt")
	}
	if err := trackpad.WriteReplayFile(path, strokes...); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *config.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = value.Duration
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# hexcaster configuration
# Uncomment a value to enable it. CLI flags override config values.

[pipeline]
# channel-capacity = %d    # Capacity of every pipeline channel
# initial-mode = %q     # learn or cast

[recognition]
# threshold = %.2f         # Minimum score that fires the shortcut
# min-points = %d           # Shorter strokes are ignored
# apply-rotation = false   # Rotate candidates by the best angle before scoring
# corpus-capacity = 0      # Maximum templates kept, oldest dropped first (0 = unbounded)

[action]
# shortcut = %q   # Chord fired on a match, see "hexcaster keys"
# release-delay = %q    # Time between key press and release
#
# [[action.binding]]       # Per-template shortcut
# template = 0             # Learning order from 0; evicted templates keep their numbers
# shortcut = "ctrl+alt+1"

[trackpad]
# device = ""              # Device node producing 9-byte reports
# sample-interval = %q   # Replay pacing between samples

[keyboard]
# device = ""              # HID gadget node such as /dev/hidg0 (empty logs reports)

[journal]
# enabled = true           # Record outcomes in the journal database

[log]
# level = %q           # debug, info, warn or error
`,
		pipeline.DefaultCapacity,
		model.ModeLearning.String(),
		spell.DefaultThreshold,
		spell.DefaultMinPoints,
		defaultShortcut,
		action.DefaultReleaseDelay.String(),
		defaultSampleInterval.String(),
		logging.DefaultLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
