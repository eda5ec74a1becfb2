package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/log"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/pool"
	"github.com/dudk/timbre/recipe"
	"github.com/dudk/timbre/session"
)

var analyzeFlags struct {
	recipe    string
	format    string
	out       string
	aggregate bool
	stats     []string
	jobs      int
	quiet     bool
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <files>...",
		Short: "Extract descriptors from audio files",
		Long: `Analyze runs recipe network over every file and writes pool contents.

The filename parameter of recipe generator is set to each file. Files are
analyzed concurrently, each with its own network and pool. Without --out
results are written to stdout in order of arguments, otherwise each file
gets <out>/<name>.<format>.

Usage:
  timbre analyze --recipe=spectrum.yaml song.wav
  timbre analyze --recipe=spectrum.yaml --aggregate --format=json --out=results *.wav`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}
	f := cmd.Flags()
	f.StringVarP(&analyzeFlags.recipe, "recipe", "r", "", "Path to recipe YAML")
	f.StringVarP(&analyzeFlags.format, "format", "f", string(pool.YAML), "Output format: yaml or json")
	f.StringVarP(&analyzeFlags.out, "out", "o", "", "Output directory (default: stdout)")
	f.BoolVar(&analyzeFlags.aggregate, "aggregate", false, "Write statistics of sequences instead of frame values")
	f.StringSliceVar(&analyzeFlags.stats, "stats", nil, "Statistics computed with --aggregate (default: mean,var,min,max)")
	f.IntVarP(&analyzeFlags.jobs, "jobs", "j", 4, "Number of files analyzed at once")
	f.BoolVarP(&analyzeFlags.quiet, "quiet", "q", false, "Don't log progress")
	_ = cmd.MarkFlagRequired("recipe")
	return cmd
}

func runAnalyze(cmd *cobra.Command, files []string) error {
	format := pool.Format(strings.ToLower(analyzeFlags.format))
	if format != pool.YAML && format != pool.JSON {
		return fmt.Errorf("%w: format %q", timbre.ErrConfiguration, analyzeFlags.format)
	}
	stats := make([]pool.Stat, 0, len(analyzeFlags.stats))
	for _, s := range analyzeFlags.stats {
		st, err := pool.ParseStat(s)
		if err != nil {
			return err
		}
		stats = append(stats, st)
	}
	if analyzeFlags.jobs < 1 {
		return fmt.Errorf("%w: jobs must be positive", timbre.ErrConfiguration)
	}
	r, err := recipe.Load(analyzeFlags.recipe)
	if err != nil {
		return err
	}
	var paths []string
	if analyzeFlags.out != "" {
		if paths, err = outputPaths(analyzeFlags.out, files, format); err != nil {
			return err
		}
		if err := os.MkdirAll(analyzeFlags.out, 0o755); err != nil {
			return err
		}
	}

	l := log.GetLogger()
	l.SetOutput(cmd.ErrOrStderr())
	var logger log.Logger = l
	if analyzeFlags.quiet {
		logger = log.Silent()
	}
	s, err := session.New(session.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.Close()

	a := analyzer{
		session:   s,
		recipe:    r,
		log:       logger,
		format:    format,
		aggregate: analyzeFlags.aggregate,
		stats:     stats,
	}
	results := make([][]byte, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(analyzeFlags.jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			b, err := a.analyze(ctx, file)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			if analyzeFlags.out == "" {
				results[i] = b
				return nil
			}
			return os.WriteFile(paths[i], b, 0o644)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, b := range results {
		if _, err := cmd.OutOrStdout().Write(b); err != nil {
			return err
		}
	}
	return nil
}

// analyzer runs recipe over single files. It's safe for concurrent use
// because every file gets its own network and pool.
type analyzer struct {
	session   *session.Session
	recipe    *recipe.Recipe
	log       log.Logger
	format    pool.Format
	aggregate bool
	stats     []pool.Stat
}

func (a analyzer) analyze(ctx context.Context, file string) ([]byte, error) {
	p := pool.New()
	n, err := a.recipe.Build(a.session, p, recipe.Overrides{
		a.recipe.Generator: param.Map{"filename": file},
	})
	if err != nil {
		return nil, err
	}
	l := log.With(a.log, "file", file)
	l.Info("analyze started")
	err = n.RunContext(ctx)
	if cerr := n.Clear(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	if a.aggregate {
		if p, err = pool.Aggregate(p, a.stats...); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := pool.Encode(&buf, p, a.format); err != nil {
		return nil, err
	}
	l.Info(fmt.Sprintf("analyze finished: %d descriptors", len(p.DescriptorNames())))
	return buf.Bytes(), nil
}

// outputPaths returns result path of every file. Files which would write
// the same result are rejected.
func outputPaths(dir string, files []string, format pool.Format) ([]string, error) {
	paths := make([]string, len(files))
	written := make(map[string]string, len(files))
	for i, file := range files {
		paths[i] = outputPath(dir, file, format)
		if prev, ok := written[paths[i]]; ok {
			return nil, fmt.Errorf("%w: %s and %s both write %s", timbre.ErrConfiguration, prev, file, paths[i])
		}
		written[paths[i]] = file
	}
	return paths, nil
}

// outputPath returns path of result file in dir named after audio file.
func outputPath(dir, file string, format pool.Format) string {
	base := filepath.Base(file)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+"."+string(format))
}
