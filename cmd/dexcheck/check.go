package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/dexcheck/internal/baseline"
	"github.com/dshills/dexcheck/internal/checker"
	"github.com/dshills/dexcheck/internal/checks"
	"github.com/dshills/dexcheck/internal/config"
	"github.com/dshills/dexcheck/internal/dex"
	"github.com/dshills/dexcheck/internal/render"
	"github.com/dshills/dexcheck/internal/schema"
	"github.com/dshills/dexcheck/internal/verdict"
	"github.com/dshills/dexcheck/internal/wikicache"
)

type checkFlags struct {
	cfg           *config.Config
	dexPath       string
	entities      []string
	format        string
	out           string
	baselineFile  string
	writeBaseline string
	failOn        string
	offline       bool
	noSync        bool
}

func newCheckCmd(g *globalFlags) *cobra.Command {
	var f checkFlags
	cmd := &cobra.Command{
		Use:   "check [entity...]",
		Short: "Check wiki articles against the database",
		Long: `Check runs every check the profile enables, or only those for the named
entities (species or move identifiers), and writes a report.

Exit codes:
  0  success
  1  internal error
  2  the verdict reaches --fail-on
  3  bad input (config, profile, dataset, baseline or flags)
  4  articles could not be fetched`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.cfg = g.cfg
			f.entities = args
			return runCheck(cmd.Context(), f)
		},
	}
	fl := cmd.Flags()
	fl.StringP("profile", "p", "", "wiki profile (default from config)")
	fl.StringVar(&f.dexPath, "dex", "", "database file (default from config)")
	fl.StringVarP(&f.format, "format", "f", "terminal", "output format: "+strings.Join(render.Formats, ", "))
	fl.StringVarP(&f.out, "out", "o", "", "write the report to this file instead of stdout")
	fl.StringVar(&f.baselineFile, "baseline", "", "file of expected mismatches to leave out of the report")
	fl.StringVar(&f.writeBaseline, "write-baseline", "", "write every mismatch found to this baseline file")
	fl.StringVar(&f.failOn, "fail-on", "", "exit 2 when the verdict is at least this one (CLEAN, MISMATCHES, INCOMPLETE)")
	fl.BoolVar(&f.offline, "offline", false, "use only cached articles")
	fl.BoolVar(&f.noSync, "no-sync", false, "skip the recent changes sync before checking")
	return cmd
}

func runCheck(ctx context.Context, f checkFlags) error {
	if !slices.Contains(render.Formats, f.format) {
		return badInput(fmt.Errorf("unknown format %q (want %s)", f.format, strings.Join(render.Formats, ", ")))
	}
	var threshold schema.Verdict
	if f.failOn != "" {
		v, err := verdict.Parse(f.failOn)
		if err != nil {
			return badInput(err)
		}
		threshold = v
	}

	cfg := f.cfg
	p, err := selectedProfile(cfg)
	if err != nil {
		return err
	}
	dexPath := cmp.Or(f.dexPath, cfg.Data.Dex)
	store, err := dex.Open(dexPath)
	if err != nil {
		return badInput(err)
	}
	set, err := checks.New(store, p)
	if err != nil {
		return err
	}

	base := &baseline.Baseline{}
	if f.baselineFile != "" {
		if base, err = baseline.Load(f.baselineFile); err != nil {
			return badInput(err)
		}
	}

	cache, err := openCache(ctx, cfg, p, f.offline)
	if err != nil {
		return err
	}
	defer cache.Close()

	if !f.offline && !cfg.Cache.Offline && !f.noSync {
		if _, err := cache.UpdateIfStale(ctx, cfg.Cache.SyncAge); err != nil {
			return &exitError{code: exitCodeFetch, err: err}
		}
	}

	runner := checker.New(cache,
		checker.WithBatch(cfg.Batch.MaxArticles, cfg.Batch.MaxChecks),
		checker.WithLogger(logger))
	res, err := runner.Run(ctx, checks.Filter(set.All(), f.entities))
	if err != nil {
		if errors.Is(err, wikicache.ErrNotCached) {
			err = fmt.Errorf("%w (run without --offline to fetch it)", err)
		}
		return &exitError{code: exitCodeFetch, err: err}
	}

	if f.writeBaseline != "" {
		if err := writeBaselineFile(f.writeBaseline, res.Discrepancies); err != nil {
			return err
		}
	}
	found, ignored := base.Filter(res.Discrepancies)
	if ignored > 0 {
		logger.Info("Expected mismatches ignored", zap.Int("count", ignored))
	}

	info, err := cache.Info(ctx)
	if err != nil {
		return err
	}
	report := buildReport(cfg.APIURL(p), p.Name, dexPath, p.Checks, f.baselineFile, found, ignored, res, info)

	if err := writeReport(report, f.format, f.out); err != nil {
		return err
	}

	if threshold != "" && verdict.Fails(report.Summary.Verdict, threshold) {
		return &exitError{
			code: exitCodeFailOn,
			err:  fmt.Errorf("verdict %s reaches --fail-on %s", report.Summary.Verdict, threshold),
		}
	}
	return nil
}

func buildReport(
	wikiURL, profileName, dexPath string,
	checkNames []string,
	baselineFile string,
	found []schema.Discrepancy,
	ignored int,
	res *checker.Result,
	info wikicache.Info,
) *schema.Report {
	if found == nil {
		found = []schema.Discrepancy{}
	}
	return &schema.Report{
		Tool:    "dexcheck",
		Version: version,
		Input: schema.Input{
			Profile:  profileName,
			WikiURL:  wikiURL,
			DexPath:  dexPath,
			Checks:   checkNames,
			Baseline: baselineFile,
		},
		Summary:       verdict.Summarize(found, ignored),
		Discrepancies: found,
		Meta: schema.Meta{
			RunID:        uuid.NewString(),
			WikiRevision: info.LastRevision,
			WikiUpdated:  info.LastUpdate,
			Checks:       res.Checks,
			Articles:     res.Articles,
			Fetches:      res.Fetches,
		},
	}
}

// renderReport renders report in format. w is where the output goes; the
// terminal format adapts its colours to it.
func renderReport(report *schema.Report, format string, w io.Writer) ([]byte, error) {
	switch format {
	case "json":
		return render.RenderJSON(report)
	case "html":
		return render.RenderHTML(report)
	case "text":
		return []byte(render.RenderText(report)), nil
	case "wiki":
		return []byte(render.RenderWiki(report)), nil
	case "markdown":
		return []byte(render.RenderMarkdown(report)), nil
	case "terminal":
		return []byte(render.RenderTerminal(report, lipgloss.NewRenderer(w))), nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func writeReport(report *schema.Report, format, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	data, err := renderReport(report, format, w)
	if err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeBaselineFile(path string, ds []schema.Discrepancy) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create baseline: %w", err)
	}
	if err := baseline.Write(f, ds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
