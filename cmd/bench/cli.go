package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IvanBrykalov/singleton/internal/config"
	"github.com/IvanBrykalov/singleton/policy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bench",
		Short:         "Contention benchmark for singleton initialization policies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error (default info)")

	root.AddCommand(newRunCmd(), newPoliciesCmd())
	return root
}

func newPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "Print the guarantees of every policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-16s %-5s %-11s %-9s %-6s  %s\n", "POLICY", "LAZY", "THREAD-SAFE", "HOT-LOCK", "SINGLE", "NOTES")
			for _, k := range policy.All() {
				tr := policy.Describe(k)
				fmt.Fprintf(w, "%-16s %-5t %-11t %-9t %-6t  %s\n",
					k, tr.Lazy, tr.ThreadSafe, tr.LockOnHotPath, tr.SingleConstruction, tr.Notes)
			}
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Race workers against a fresh provider per policy",
		Example: "  bench run --policies holder,double-checked --workers 64 --duration 2s\n  bench run --config scenario.yaml --http :8080",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := scenarioFromFlags(cmd)
			if err != nil {
				return err
			}
			log := newLogger(sc.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			if sc.HTTPAddr != "" {
				srv := serveDiagnostics(sc.HTTPAddr, reg, log)
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(sctx)
				}()
			}

			results := make([]Result, 0, len(sc.Policies))
			for _, k := range sc.Policies {
				res, err := runPolicy(ctx, k, sc, reg, log)
				if err != nil {
					return fmt.Errorf("%s: %w", k, err)
				}
				results = append(results, res)
			}
			report(cmd.OutOrStdout(), sc, results)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("config", "", "Scenario file (.yaml, .json, .toml); flags override its values")
	f.StringSlice("policies", nil, "Policies to run (default all)")
	f.Int("workers", 0, "Goroutines per policy (default 4*GOMAXPROCS)")
	f.Duration("duration", 0, "Steady-state phase per policy (default 2s)")
	f.Duration("build-delay", 0, "Artificial constructor latency; widens the race window")
	f.Bool("fail-first", false, "Make the first construction attempt fail")
	f.String("http", "", "Serve /metrics, /healthz and /debug/pprof at addr (e.g. :8080)")
	return cmd
}

// scenarioFromFlags loads --config (if any), then applies explicitly set flags.
func scenarioFromFlags(cmd *cobra.Command) (config.Scenario, error) {
	var sc config.Scenario
	f := cmd.Flags()

	if path, _ := f.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return sc, err
		}
		sc = loaded
	}
	if f.Changed("policies") {
		names, _ := f.GetStringSlice("policies")
		sc.Policies = sc.Policies[:0]
		for _, n := range names {
			k, err := policy.Parse(n)
			if err != nil {
				return sc, err
			}
			sc.Policies = append(sc.Policies, k)
		}
	}
	if f.Changed("workers") {
		sc.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("duration") {
		d, _ := f.GetDuration("duration")
		sc.Duration = config.Duration(d)
	}
	if f.Changed("build-delay") {
		d, _ := f.GetDuration("build-delay")
		sc.BuildDelay = config.Duration(d)
	}
	if f.Changed("fail-first") {
		sc.FailFirst, _ = f.GetBool("fail-first")
	}
	if f.Changed("http") {
		sc.HTTPAddr, _ = f.GetString("http")
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		sc.LogLevel = lvl
	}
	return sc.Defaults(), nil
}

// newLogger returns a console zerolog logger on stderr.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}
