package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shivam-909/sectorheap/alloc"
	"github.com/shivam-909/sectorheap/internal/workload"
)

var (
	stressHeap        string
	stressThreads     int
	stressIterations  int
	stressSize        int
	stressMetricsAddr string
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Run concurrent allocate/release cycles and check for overlap",
	Args:  cobra.NoArgs,
	RunE:  runStress,
}

func init() {
	stressCmd.Flags().StringVar(&stressHeap, "heap", "sector", "Allocator: sector or direct")
	stressCmd.Flags().IntVarP(&stressThreads, "threads", "t", 16, "Concurrent goroutines")
	stressCmd.Flags().IntVarP(&stressIterations, "iterations", "k", 10000, "Cycles per goroutine")
	stressCmd.Flags().IntVarP(&stressSize, "size", "s", 64, "Bytes per allocation")
	stressCmd.Flags().StringVar(&stressMetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address while running")
}

func runStress(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	var (
		heap        alloc.Interface
		outstanding func() int64
	)
	switch stressHeap {
	case "sector":
		a, err := newAllocator(alloc.DefaultConfig(), logger)
		if err != nil {
			return err
		}
		defer a.Close()
		heap, outstanding = a, a.Outstanding

		if stressMetricsAddr != "" {
			shutdown := serveMetrics(a, logger)
			defer shutdown()
		}
	case "direct":
		d := alloc.NewDirect(nil, alloc.WithDirectLogger(logger))
		heap, outstanding = d, d.Outstanding
	default:
		return fmt.Errorf("unknown heap %q", stressHeap)
	}

	stop, err := startProfile()
	if err != nil {
		return err
	}
	start := time.Now()
	res, err := workload.Stress(ctx, heap, workload.StressConfig{
		Threads:    stressThreads,
		Iterations: stressIterations,
		Size:       uintptr(stressSize),
		Align:      8,
	})
	elapsed := time.Since(start)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s heap || %d ALLOCS || %d FAILED || TOTAL: %v || OUTSTANDING: %d\n",
		stressHeap, res.Allocs, res.Failures, elapsed, outstanding())
	if n := outstanding(); n != 0 {
		return fmt.Errorf("%d allocations outstanding after stress", n)
	}
	return nil
}

func serveMetrics(a *alloc.Allocator, logger *zap.Logger) func() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		alloc.NewCollector(a, "", nil),
		collectors.NewGoCollector(),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: stressMetricsAddr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", stressMetricsAddr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
