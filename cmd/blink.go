package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/smazurov/doorlight/internal/led"
	"github.com/smazurov/doorlight/internal/logging"
	"github.com/spf13/cobra"
)

var errBadStep = errors.New("invalid step")

// CreateBlinkCmd creates the blink command.
func CreateBlinkCmd() *cobra.Command {
	var (
		driver    string
		pin       string
		activeLow bool
		steps     []string
		duration  time.Duration
		tick      time.Duration
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "blink",
		Short: "Play an action sequence on one output pin",
		Long: `Starts an indicator on the given pin, queues each --step in order and lets the ` +
			`scheduler play them for --for, or until interrupted. Steps are action[:repeats]; ` +
			`repeats defaults to -1 (forever).`,
		Example: `  doorlight blink --pin GPIO17 --step blink-once:2 --step off
  doorlight blink --driver sysfs --pin user --step blink-angry --for 3s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: logLevel, Format: "text"})
			logger := logging.GetLogger("led")

			parsed, err := ParseSteps(steps)
			if err != nil {
				return err
			}

			out, err := led.OpenPin(driver, pin, logger)
			if err != nil {
				return err
			}

			cfg := led.DefaultConfig()
			cfg.TickQuantum = tick
			reg := led.NewRegistry(cfg, led.WithLogger(logger))

			h, err := reg.Init(out, !activeLow)
			if err != nil {
				return err
			}
			indicator := reg.Bind(h)
			defer indicator.Close()

			for _, s := range parsed {
				indicator.Push(s.Action, s.Repeats)
			}
			logger.Info("Playing sequence", "pin", out.Name(), "steps", len(parsed), "for", duration)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			<-ctx.Done()

			if snap, ok := indicator.State(); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "final: action=%s repeats=%d queued=%d lit=%t\n",
					snap.Action, snap.Repeats, snap.Queued, snap.Lit)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", led.DriverAuto, "Output driver ("+strings.Join(led.Drivers(), ", ")+")")
	cmd.Flags().StringVar(&pin, "pin", "GPIO2", "Pin or LED name")
	cmd.Flags().BoolVar(&activeLow, "active-low", false, "LED lights when the pin is driven low")
	cmd.Flags().StringArrayVar(&steps, "step", nil, "Step as action[:repeats], repeatable")
	cmd.Flags().DurationVar(&duration, "for", 5*time.Second, "How long to play, 0 until interrupted")
	cmd.Flags().DurationVar(&tick, "tick", 10*time.Millisecond, "Scheduler tick")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("step")

	return cmd
}

// ParseSteps parses action[:repeats] arguments.
func ParseSteps(args []string) ([]led.Step, error) {
	out := make([]led.Step, 0, len(args))
	for _, arg := range args {
		name, count, hasCount := strings.Cut(arg, ":")
		action, err := led.ParseAction(name)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", errBadStep, arg, err)
		}

		repeats := led.Forever
		if hasCount {
			repeats, err = strconv.Atoi(count)
			if err != nil || repeats < led.Forever {
				return nil, fmt.Errorf("%w %q: repeats must be -1 or a non-negative integer", errBadStep, arg)
			}
		}
		out = append(out, led.Step{Action: action, Repeats: repeats})
	}
	return out, nil
}
