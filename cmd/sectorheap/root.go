package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shivam-909/sectorheap/alloc"
)

var (
	// Global flags
	configFile  string
	verbose     bool
	profileMode string
	sectorSize  int
	maxSectors  int
)

// fileConfig is the layout of the --config TOML file.
type fileConfig struct {
	Heap alloc.Config `toml:"heap"`
}

var rootCmd = &cobra.Command{
	Use:   "sectorheap",
	Short: "Exercise and benchmark the sector allocator",
	Long: `sectorheap drives the lock-free sector allocator with synthetic
workloads and compares it against per-allocation mappings and the Go heap.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML file with a [heap] section")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&profileMode, "profile", "", "Profile the run: cpu, mem, mutex, block, trace, goroutine")
	rootCmd.PersistentFlags().IntVar(&sectorSize, "sector-size", 0, "Sector payload in bytes (overrides config)")
	rootCmd.PersistentFlags().IntVar(&maxSectors, "max-sectors", 0, "Active sector capacity (overrides config)")

	rootCmd.AddCommand(orderbookCmd, stressCmd)
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// heapConfig merges defaults, the config file and flags, in that order.
func heapConfig(defaults alloc.Config) (alloc.Config, error) {
	fc := fileConfig{Heap: defaults}
	if configFile != "" {
		if _, err := toml.DecodeFile(configFile, &fc); err != nil {
			return alloc.Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	if sectorSize != 0 {
		fc.Heap.SectorSize = sectorSize
	}
	if maxSectors != 0 {
		fc.Heap.MaxSectors = maxSectors
	}
	if err := fc.Heap.Validate(); err != nil {
		return alloc.Config{}, err
	}
	return fc.Heap, nil
}

func newAllocator(defaults alloc.Config, logger *zap.Logger) (*alloc.Allocator, error) {
	cfg, err := heapConfig(defaults)
	if err != nil {
		return nil, err
	}
	return alloc.New(cfg, alloc.WithLogger(logger))
}

// startProfile begins profiling if --profile was given. The returned stop
// function is always safe to call.
func startProfile() (func(), error) {
	var mode func(*profile.Profile)
	switch profileMode {
	case "":
		return func() {}, nil
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "mutex":
		mode = profile.MutexProfile
	case "block":
		mode = profile.BlockProfile
	case "trace":
		mode = profile.TraceProfile
	case "goroutine":
		mode = profile.GoroutineProfile
	default:
		return nil, fmt.Errorf("unknown profile mode %q", profileMode)
	}
	p := profile.Start(mode, profile.ProfilePath("."), profile.NoShutdownHook)
	return p.Stop, nil
}
