package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IvanBrykalov/singleton/instance"
	"github.com/IvanBrykalov/singleton/internal/config"
	pmet "github.com/IvanBrykalov/singleton/metrics/prom"
	"github.com/IvanBrykalov/singleton/policy"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one policy run.
type Result struct {
	Policy        policy.Kind
	Constructions int64 // constructor calls that returned an instance
	Distinct      int   // distinct pointers seen by the racing workers
	RaceErrors    int64 // workers whose first Get failed
	Ops           uint64
	Elapsed       time.Duration
}

// Single reports whether every racing worker saw the same instance and the
// constructor produced exactly one.
func (r Result) Single() bool {
	want := int64(1)
	if !policy.Describe(r.Policy).Constructs {
		want = 0
	}
	return r.Distinct <= 1 && r.Constructions == want
}

type payload struct{ seq int64 }

var errInjected = errors.New("injected first-attempt failure")

// runPolicy races sc.Workers goroutines on a fresh provider, then keeps them
// calling Get until sc.Duration elapses or ctx ends.
func runPolicy(ctx context.Context, k policy.Kind, sc config.Scenario, reg prometheus.Registerer, log zerolog.Logger) (Result, error) {
	res := Result{Policy: k}

	var attempts, built atomic.Int64
	opt := instance.Options[struct{}, payload]{
		Policy:  k,
		Name:    "bench." + k.String(),
		Metrics: pmet.New(reg, "singleton", "bench", prometheus.Labels{"policy": k.String()}),
		Logger:  &log,
		Constructor: func(*struct{}) (*payload, error) {
			n := attempts.Add(1)
			if sc.BuildDelay > 0 {
				time.Sleep(time.Duration(sc.BuildDelay))
			}
			if sc.FailFirst && n == 1 {
				return nil, errInjected
			}
			built.Add(1)
			return &payload{seq: n}, nil
		},
	}
	if k == policy.FixedSet {
		opt.Value = &payload{}
	}
	p, err := instance.New(opt)
	if errors.Is(err, errInjected) {
		// eager policies build in New; the injected failure surfaces here
		res.RaceErrors++
		p, err = instance.New(opt)
	}
	if err != nil {
		return res, err
	}

	// ---- race phase: all workers released at once on an empty provider ----
	seen := make(map[*payload]struct{})
	var mu sync.Mutex
	var raceErrs atomic.Int64
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(sc.Workers)
	for w := 0; w < sc.Workers; w++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := p.Get()
			if err != nil {
				raceErrs.Add(1)
				return
			}
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	// ---- steady phase ----
	var ops atomic.Uint64
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(sc.Duration))
	defer cancel()

	began := time.Now()
	g, gctx := errgroup.WithContext(runCtx)
	for w := 0; w < sc.Workers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				if _, err := p.Get(); err != nil {
					return err
				}
				ops.Add(1)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	res.Elapsed = time.Since(began)
	res.Ops = ops.Load()
	res.Distinct = len(seen)
	res.RaceErrors += raceErrs.Load()
	res.Constructions = built.Load()

	log.Info().
		Stringer("policy", k).
		Int64("constructions", res.Constructions).
		Int("distinct", res.Distinct).
		Int64("race_errors", res.RaceErrors).
		Uint64("ops", res.Ops).
		Dur("elapsed", res.Elapsed).
		Msg("policy done")
	return res, nil
}

// report prints one line per policy.
func report(w io.Writer, sc config.Scenario, results []Result) {
	fmt.Fprintf(w, "workers=%d duration=%v build-delay=%v fail-first=%t\n",
		sc.Workers, time.Duration(sc.Duration), time.Duration(sc.BuildDelay), sc.FailFirst)
	fmt.Fprintf(w, "%-16s %8s %8s %8s %14s  %s\n", "POLICY", "BUILT", "DISTINCT", "ERRORS", "OPS/S", "SINGLE")
	for _, r := range results {
		rate := 0.0
		if s := r.Elapsed.Seconds(); s > 0 {
			rate = float64(r.Ops) / s
		}
		fmt.Fprintf(w, "%-16s %8d %8d %8d %14.0f  %t\n",
			r.Policy, r.Constructions, r.Distinct, r.RaceErrors, rate, r.Single())
	}
}

// serveDiagnostics exposes metrics, a health probe and pprof on addr.
func serveDiagnostics(addr string, reg *prometheus.Registry, log zerolog.Logger) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount("/debug", middleware.Profiler())

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("diagnostics: serving /metrics /healthz /debug/pprof")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("diagnostics server")
		}
	}()
	return srv
}
