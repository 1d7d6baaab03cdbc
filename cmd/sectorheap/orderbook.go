package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shivam-909/sectorheap/alloc"
	"github.com/shivam-909/sectorheap/internal/orderbook"
	manualbook "github.com/shivam-909/sectorheap/internal/orderbook/manual"
	standardbook "github.com/shivam-909/sectorheap/internal/orderbook/standard"
)

var (
	bookHeap  string
	bookOps   int
	bookSeed  uint64
	bookPrint bool
)

var orderbookCmd = &cobra.Command{
	Use:   "orderbook",
	Short: "Run a random order-book workload",
	Long: `Runs random inserts and removals against a BST order book whose nodes
come from the sector allocator (sector), one mapping per node (direct) or the
Go heap (standard).`,
	Args: cobra.NoArgs,
	RunE: runOrderbook,
}

func init() {
	orderbookCmd.Flags().StringVar(&bookHeap, "heap", "sector", "Node allocator: sector, direct or standard")
	orderbookCmd.Flags().IntVarP(&bookOps, "ops", "n", 2500000, "Number of operations")
	orderbookCmd.Flags().Uint64Var(&bookSeed, "seed", 1, "Workload seed")
	orderbookCmd.Flags().BoolVar(&bookPrint, "print", false, "Print the final book")
}

func runOrderbook(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var (
		ob        orderbook.OrderBook
		label     string
		heapStats func() alloc.Stats
	)
	switch bookHeap {
	case "sector":
		a, err := newAllocator(alloc.Config{
			SectorSize: alloc.DefaultSectorSize,
			MaxSectors: 1024,
		}, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		mb := manualbook.New(a)
		defer mb.Close()
		ob, label, heapStats = mb, "Sector Allocator", a.Stats
	case "direct":
		mb := manualbook.New(alloc.NewDirect(nil, alloc.WithDirectLogger(logger)))
		defer mb.Close()
		ob, label = mb, "Direct Allocator"
	case "standard":
		ob, label = standardbook.New(), "Standard Allocator"
	default:
		return fmt.Errorf("unknown heap %q", bookHeap)
	}

	stop, err := startProfile()
	if err != nil {
		return err
	}
	gen := orderbook.NewGenerator(bookSeed)
	failed := 0

	start := time.Now()
	for i := 0; i < bookOps; i++ {
		if err := gen.Act(ob); err != nil {
			if !errors.Is(err, alloc.ErrExhausted) {
				stop()
				return err
			}
			failed++
		}
	}
	elapsed := time.Since(start)
	stop()

	average := elapsed / time.Duration(max(bookOps, 1))
	fmt.Fprintf(cmd.OutOrStdout(), "%s || %d OPS || TOTAL: %v || AVERAGE: %v || LIVE: %d || FAILED: %d\n",
		label, bookOps, elapsed, average, ob.Len(), failed)
	if heapStats != nil {
		// taken while the book still holds its nodes
		st := heapStats()
		logger.Info("sector heap", zap.Stringer("stats", st))
		fmt.Fprintf(cmd.OutOrStdout(), "HEAP: %s\n", st)
	}

	if p, ok := ob.(interface{ Print(w io.Writer) }); ok && bookPrint {
		p.Print(cmd.OutOrStdout())
	}
	return nil
}
