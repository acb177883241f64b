package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alireza787b/mavsdk-vtol-transition/internal/connection"
	"github.com/alireza787b/mavsdk-vtol-transition/internal/monitor"
	"github.com/alireza787b/mavsdk-vtol-transition/internal/transition"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/consts"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/errors"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/logger"
	"github.com/alireza787b/mavsdk-vtol-transition/pkg/protocol"
)

const version = "1.0.0"

// Exit codes reported to the operator's shell.
const (
	exitCompleted       = 0
	exitFailed          = 1
	exitConfigError     = 2
	exitConnectionError = 3
)

var (
	cfgFile     string
	yawOverride float64
)

var rootCmd = &cobra.Command{
	Use:   "vtol-transition",
	Short: "Offboard forward-transition controller for tailsitter VTOL airframes",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the transition against the configured vehicle endpoint",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runTransition(""))
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the transition against the built-in loopback vehicle",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runTransition("sim://"))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the transition parameter file and exit",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
			os.Exit(exitConfigError)
		}
		fmt.Printf("Configuration OK: %s to %.1f m/s from %.1f m base altitude, post action %s\n",
			cfg.Transition.Type, cfg.Ramp.TransitionAirSpeed,
			cfg.Climb.TransitionBaseAltitude, cfg.PostTransition.Action)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the controller version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c",
		"config/transition_parameters_template.yaml", "transition parameter file")
	rootCmd.PersistentFlags().Float64Var(&yawOverride, "yaw", -1,
		"override the transition yaw angle in degrees; negative keeps the configured value")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(path string) (*protocol.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "load config", "cannot read "+path, err)
	}
	var cfg protocol.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "load config", "cannot parse "+path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func exitCode(status consts.TerminalStatus) int {
	switch status {
	case consts.StatusCompleted:
		return exitCompleted
	case consts.StatusConfigError:
		return exitConfigError
	case consts.StatusConnectionError:
		return exitConnectionError
	default:
		return exitFailed
	}
}

// runTransition executes one full run: load and validate parameters, dial the
// vehicle, drive the control loop until a terminal phase. A non-empty
// endpointOverride replaces the configured vehicle endpoint.
func runTransition(endpointOverride string) int {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
		return exitConfigError
	}
	if endpointOverride != "" {
		cfg.Connection.Endpoint = endpointOverride
	}

	logger.InitLogger(cfg.Observability.LogLevel, cfg.Observability.LogFile)
	logger.Log.Info("starting transition controller",
		"version", version,
		"type", cfg.Transition.Type,
		"endpoint", cfg.Connection.Endpoint)

	// SIGINT/SIGTERM request a cooperative stop; the engine aborts the run
	// and still issues the configured failsafe responses on the way down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vehicle, err := connection.Connect(ctx, cfg)
	if err != nil {
		logger.Log.Error("vehicle connection failed", "err", err)
		return exitCode(consts.StatusConnectionError)
	}

	engine := transition.NewEngine(cfg, vehicle, vehicle)
	engine.SetYawOverride(yawOverride)
	monitor.Init(ctx, cfg.Observability.MetricsAddr, func() any { return engine.Snapshot() })

	status := engine.Run(ctx)
	if status == consts.StatusCompleted {
		logger.Log.Info("transition completed")
	} else {
		logger.Log.Error("transition did not complete", "status", status, "reason", engine.FailReason())
	}
	return exitCode(status)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(exitFailed)
	}
}
