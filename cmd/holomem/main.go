// Package main implements the holomem command line tool.
//
// It learns sentences into a persistent hyperdimensional memory and predicts
// their continuations. State is kept as a snapshot in the configured blob
// store (a local directory by default).
//
// Usage:
//
//	holomem learn "the cat sat on the mat" "the dog ran in the park"
//	holomem predict the cat
//	holomem inspect --vocab
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/holomem"
	"github.com/hupe1980/holomem/blobstore"
	"github.com/hupe1980/holomem/internal/config"
)

type app struct {
	configPath string
	storePath  string
	brain      string
	seed       int64
	verbose    bool
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "holomem",
		Short: "Hyperdimensional sequence memory",
		Long: `holomem learns token sequences as holographic bindings of 10,000-bit
hypervectors and predicts the next token without any gradient training.

Learned state is stored as a snapshot in a blob store: a local directory,
S3 or MinIO, selected through the YAML configuration file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "holomem.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&a.storePath, "store-path", "", "Use a local store at this directory")
	rootCmd.PersistentFlags().StringVarP(&a.brain, "brain", "b", "", "Snapshot name inside the store")
	rootCmd.PersistentFlags().Int64Var(&a.seed, "seed", 0, "Instance seed for a new brain")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(
		newLearnCmd(a),
		newPredictCmd(a),
		newInspectCmd(a),
		newDemoCmd(a),
		newConfigCmd(a),
	)
	return rootCmd
}

// loadConfig reads the configuration file and applies flag overrides.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("store-path") {
		cfg.Store.Kind = config.StoreLocal
		cfg.Store.Path = a.storePath
	}
	if flags.Changed("brain") {
		cfg.Snapshot.Name = a.brain
	}
	if flags.Changed("seed") {
		seed := a.seed
		cfg.Engine.Seed = &seed
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openBrain loads the configured snapshot, or creates an empty brain when
// none exists yet.
func (a *app) openBrain(ctx context.Context, cfg *config.Config) (*holomem.Orchestrator, blobstore.Store, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, nil, err
	}
	store, err := cfg.OpenStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	hm, err := holomem.Load(ctx, store, cfg.Snapshot.Name, opts...)
	if errors.Is(err, blobstore.ErrNotFound) {
		hm, err = holomem.New(opts...)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open brain %q: %w", cfg.Snapshot.Name, err)
	}
	return hm, store, nil
}

func (a *app) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, a.timeout)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
