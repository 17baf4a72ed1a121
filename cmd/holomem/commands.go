package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/holomem"
	"github.com/hupe1980/holomem/internal/config"
)

func newLearnCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "learn [sentence...]",
		Short: "Learn sentences and save the brain",
		Long: `Learns each argument (and each non-empty line of --file) as one sentence.
Sentences are lower-cased and split on whitespace. The updated brain is saved
back to the store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			sentences := args
			if file != "" {
				lines, err := readLines(file)
				if err != nil {
					return err
				}
				sentences = append(sentences, lines...)
			}
			if len(sentences) == 0 {
				return fmt.Errorf("nothing to learn: pass sentences or --file")
			}

			hm, store, err := a.openBrain(ctx, cfg)
			if err != nil {
				return err
			}
			for _, s := range sentences {
				if err := hm.LearnText(ctx, s); err != nil {
					return fmt.Errorf("failed to learn %q: %w", s, err)
				}
			}
			if err := hm.Save(ctx, store, cfg.Snapshot.Name); err != nil {
				return fmt.Errorf("failed to save brain: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "learned %d sentences (vocabulary %d, transitions %d)\n",
				len(sentences), hm.VocabSize(), hm.MemorySize())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read sentences from a file, one per line")
	return cmd
}

func newPredictCmd(a *app) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "predict <token...>",
		Short: "Predict the token following the given context",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			hm, _, err := a.openBrain(ctx, cfg)
			if err != nil {
				return err
			}

			tokens := holomem.Tokenize(strings.Join(args, " "))
			out := cmd.OutOrStdout()

			m, err := hm.PredictMatch(ctx, tokens)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%.4f\n", m.Symbol, m.Similarity)

			if top > 0 {
				matches, err := hm.Candidates(ctx, tokens, top)
				if err != nil {
					return err
				}
				for i, c := range matches {
					fmt.Fprintf(out, "  %d. %s\t%.4f\n", i+1, c.Symbol, c.Similarity)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "k", 0, "Also list the k most similar tokens")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	var vocab bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show statistics of the stored brain",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			hm, _, err := a.openBrain(ctx, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printStats(out, cfg.Snapshot.Name, hm.Stats())
			if vocab {
				for _, tok := range hm.Vocabulary() {
					fmt.Fprintln(out, tok)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&vocab, "vocab", false, "List the vocabulary in first-seen order")
	return cmd
}

func printStats(w io.Writer, name string, s holomem.Stats) {
	fmt.Fprintf(w, "brain:        %s\n", name)
	fmt.Fprintf(w, "dimension:    %d\n", s.Dimension)
	fmt.Fprintf(w, "seed:         %d\n", s.Seed)
	fmt.Fprintf(w, "vocabulary:   %d\n", s.Vocabulary)
	fmt.Fprintf(w, "transitions:  %d / %d / %d\n", s.Transitions[0], s.Transitions[1], s.Transitions[2])
	fmt.Fprintf(w, "order3:       %t\n", s.Order3)
}

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Learn a toy corpus in memory and show predictions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd)
			defer cancel()

			opts, err := cfg.Options()
			if err != nil {
				return err
			}
			hm, err := holomem.New(opts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range demoCorpus {
				if err := hm.LearnText(ctx, s); err != nil {
					return err
				}
				fmt.Fprintf(out, "learned: %s\n", s)
			}
			for _, q := range demoQueries {
				m, err := hm.PredictMatch(ctx, holomem.Tokenize(q))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s -> %s (%.4f)\n", q, m.Symbol, m.Similarity)
			}
			return nil
		},
	}
}

var demoCorpus = []string{
	"the cat sat on the mat",
	"the dog ran in the park",
	"a bird flew over the tree",
}

var demoQueries = []string{
	"the cat",
	"the dog",
	"a bird",
	"cat sat on",
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.configPath); err == nil {
				return fmt.Errorf("%s already exists", a.configPath)
			}
			if err := config.DefaultConfig().Save(a.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			return yamlEncode(cmd.OutOrStdout(), cfg)
		},
	})
	return cmd
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// yamlEncode prints cfg with credentials masked.
func yamlEncode(w io.Writer, cfg *config.Config) error {
	masked := *cfg
	if masked.Store.SecretKey != "" {
		masked.Store.SecretKey = "****"
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return err
	}
	return enc.Close()
}
