package cli

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrEthical07/regulator/metrics/export/prometheus"
)

var (
	benchOps         int
	benchConcurrency int
	benchMetrics     bool
	benchSelect      []string
	benchPreset      string
	benchBackend     backendFlags
)

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntVar(&benchOps, "ops", 200000, "Regulate calls to run")
	benchCmd.Flags().IntVar(&benchConcurrency, "concurrency", 64, "Concurrent workers")
	benchCmd.Flags().BoolVar(&benchMetrics, "metrics", false, "Print Prometheus metrics after the run")
	benchCmd.Flags().StringSliceVar(&benchSelect, "select", nil, "Action names to select")
	benchCmd.Flags().StringVar(&benchPreset, "preset", "", "Preset to select")
	benchCmd.MarkFlagsMutuallyExclusive("select", "preset")
	benchBackend.register(benchCmd)
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Round-trip --rules through a backend, then regulate concurrently",
	Long:  "Saves the rule set to Redis (an embedded miniredis when no address is given) or SQLite, loads it back, compiles it, and measures Regulate latency across workers.",
	Args:  cobra.NoArgs,
	RunE:  runBench,
}

func runBench(cmd *cobra.Command, _ []string) error {
	if benchOps <= 0 || benchConcurrency <= 0 {
		return fmt.Errorf("ops and concurrency must be > 0")
	}

	rs, _, eng, logger, err := loadRules()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	eng.close()

	s, done, err := benchBackend.open(true)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	version, err := s.Save(ctx, rs)
	if err != nil {
		return err
	}
	stored, _, err := s.Get(ctx, rs.Name)
	if err != nil {
		return err
	}
	logger.Info("rule set stored", zap.String("name", stored.Name), zap.Int64("version", version))

	eng, err = buildEngine(stored, logger)
	if err != nil {
		return err
	}
	defer eng.close()

	run, source, err := eng.runner(selection{names: benchSelect, preset: benchPreset})
	if err != nil {
		return err
	}

	stats := runPhase(run, benchOps, benchConcurrency)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "---- results ----")
	printStats(out, "regulate", stats)
	if benchMetrics {
		fmt.Fprint(out, prometheus.NewExporter(source).Render())
	}
	return nil
}

func runPhase(run func() error, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]time.Duration, 0, ops/concurrency+1)
			for atomic.AddInt64(&cursor, 1) <= int64(ops) {
				t0 := time.Now()
				err := run()
				local = append(local, time.Since(t0))
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
