// Package cmd provides the command-line interface for evtsched.
package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/evtsched/config"
	"github.com/sarchlab/evtsched/event"
	"github.com/sarchlab/evtsched/params"
)

// Environment variables that provide defaults for the global flags. They can
// also be set in a .env file in the working directory.
const (
	envConfig   = "EVTSCHED_CONFIG"
	envLogLevel = "EVTSCHED_LOG_LEVEL"
)

var (
	configPath string
	logLevel   string

	logger = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "evtsched",
	Short: "evtsched derives section timelines from cyclic event schedules.",
	Long: `evtsched loads a schedule file (YAML, JSON or TOML) that declares ` +
		`parameters, events, durations and dependencies, and derives the ` +
		`section grid and parameter timelines of one cycle.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()

		if !cmd.Flags().Changed("config") && configPath == "" {
			configPath = os.Getenv(envConfig)
		}

		if !cmd.Flags().Changed("log-level") {
			if v := os.Getenv(envLogLevel); v != "" {
				logLevel = v
			}
		}

		logger = newLogger(cmd, logLevel)

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"schedule file (.yaml, .yml, .json or .toml), defaults to $"+envConfig)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"log level (trace, debug, info, warn, error), defaults to $"+envLogLevel)
}

func newLogger(cmd *cobra.Command, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	cw := zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: "15:04:05"}

	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

var errNoConfig = errors.New("no schedule file given, use --config or $" + envConfig)

// loadSchedule loads the schedule file and builds the handler. Every
// registry mutation is logged.
func loadSchedule() (config.Schedule, *event.Handler, *params.Tree, error) {
	if configPath == "" {
		return config.Schedule{}, nil, nil, errNoConfig
	}

	s, err := config.Load(configPath)
	if err != nil {
		return s, nil, nil, err
	}

	h, tree, err := config.Build(s, event.NewLogHook(logger))
	if err != nil {
		return s, nil, nil, err
	}

	logger.Info().
		Str("config", configPath).
		Int("events", len(h.Events())).
		Int("durations", len(h.Durations())).
		Float64("cycle_time", h.CycleTime()).
		Msg("schedule loaded")

	return s, h, tree, nil
}
