package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thiefmaster/signallight/comm"
	"github.com/thiefmaster/signallight/light"
	"github.com/thiefmaster/signallight/logging"
	"github.com/thiefmaster/signallight/protocol"
)

const defaultConfigPath = "signallight.yaml"

var (
	configPath string
	portFlag   string
	logLevel   string
	dryRun     bool

	cfg = defaultConfig()
)

var rootCmd = &cobra.Command{
	Use:           "signallight",
	Short:         "Drive an RGBW indicator light over a serial port",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(logLevel); err != nil {
			return err
		}
		if err := loadConfig(cmd.Flags().Changed("config")); err != nil {
			return err
		}
		if portFlag != "" {
			cfg.Port = portFlag
		}
		return cfg.validate()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", defaultConfigPath, "config file")
	flags.StringVarP(&portFlag, "port", "p", "", "serial port, overrides the config file")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error), default from "+logging.LogLevelEnvVar)
	flags.BoolVar(&dryRun, "dry-run", false, "log frames instead of sending them")

	rgbwCmd.Flags().Bool("percent", false, "values are percentages (0-100) instead of bytes")
	flashCmd.Flags().Duration("period", 0, "flashing period, rounded to 27ms steps")
	demoCmd.Flags().Duration("delay", 400*time.Millisecond, "delay between demo steps")

	idCmd.AddCommand(idReadCmd, idSetCmd)
	rootCmd.AddCommand(colorCmd, rgbwCmd, flashCmd, periodCmd, idCmd, demoCmd, runCmd)
}

// loadConfig reads the config file. A missing default file is not an error.
func loadConfig(explicit bool) error {
	err := cfg.load(configPath)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		logging.GetLogger().Info("no config file, using defaults")
		return nil
	}
	return err
}

// withController opens the light, runs fn and closes the light on every path.
func withController(fn func(ctrl *light.Controller) error) error {
	log := logging.GetLogger()
	var (
		ctrl *light.Controller
		err  error
	)
	if dryRun {
		ctrl, err = light.New(comm.NewDryRun(log), light.WithLogger(log))
	} else {
		ctrl, err = light.Open(cfg.Port, light.WithLogger(log), light.WithReadTimeout(cfg.ReadTimeout))
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Warn("could not close light", zap.Error(err))
		}
	}()
	return fn(ctrl)
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a byte", protocol.ErrInvalidArgument, s)
	}
	return byte(v), nil
}

var colorCmd = &cobra.Command{
	Use:   "color NAME",
	Short: "Show a named color (off, red, green, blue, white, yellow, orange, cyan, magenta)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, err := protocol.ParseColor(args[0])
		if err != nil {
			return err
		}
		return withController(func(ctrl *light.Controller) error {
			return ctrl.SetColor(color)
		})
	},
}

var rgbwCmd = &cobra.Command{
	Use:   "rgbw R G B W",
	Short: "Show a color given as four channel values",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		percent, _ := cmd.Flags().GetBool("percent")
		if percent {
			var p [protocol.ChannelCount]float64
			for i, arg := range args {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("%w: %q is not a number", protocol.ErrInvalidArgument, arg)
				}
				p[i] = v
			}
			return withController(func(ctrl *light.Controller) error {
				return ctrl.SetColorPercent(p[0], p[1], p[2], p[3])
			})
		}

		raw := make([]byte, 0, protocol.ChannelCount)
		for _, arg := range args {
			b, err := parseByte(arg)
			if err != nil {
				return err
			}
			raw = append(raw, b)
		}
		v, err := protocol.RGBWFromBytes(raw)
		if err != nil {
			return err
		}
		return withController(func(ctrl *light.Controller) error {
			return ctrl.SetColorRGBW(v)
		})
	},
}

var flashCmd = &cobra.Command{
	Use:   "flash COLOR1 COLOR2 | flash off",
	Short: "Alternate between two colors, or stop flashing",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if args[0] != "off" {
				return errors.New("flash needs two colors or \"off\"")
			}
			return withController(func(ctrl *light.Controller) error {
				return ctrl.SetFlashing(false)
			})
		}

		period, _ := cmd.Flags().GetDuration("period")
		l, err := lookConfig{Flash: args, Period: period}.parse()
		if err != nil {
			return err
		}
		return withController(func(ctrl *light.Controller) error {
			return applyLook(ctrl, l)
		})
	},
}

var periodCmd = &cobra.Command{
	Use:   "period STEPS",
	Short: "Set the flashing period in device steps of about 27ms",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := parseByte(args[0])
		if err != nil {
			return err
		}
		return withController(func(ctrl *light.Controller) error {
			return ctrl.SetFlashingPeriod(steps)
		})
	},
}

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Read or set the device identifier",
}

var idReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Ask the device for its identifier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl *light.Controller) error {
			id, err := ctrl.ReadID()
			if err != nil {
				return err
			}
			if id < 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no answer")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", id)
			return nil
		})
	},
}

var idSetCmd = &cobra.Command{
	Use:   "set ID",
	Short: "Assign the device identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseByte(args[0])
		if err != nil {
			return err
		}
		return withController(func(ctrl *light.Controller) error {
			return ctrl.SetID(id)
		})
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Cycle through colors, fade and flash",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		delay, _ := cmd.Flags().GetDuration("delay")
		err := withController(func(ctrl *light.Controller) error {
			return runDemo(cmd.Context(), ctrl, delay)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Show the state of the configured status feed, Mattermost and remote",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withController(func(ctrl *light.Controller) error {
			if cfg.DeviceID != nil {
				if err := ctrl.SetID(byte(*cfg.DeviceID)); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg, ctrl)
		})
	},
}
