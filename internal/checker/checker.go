// Package checker runs article checks against a wiki article source,
// batching article fetches and collecting discrepancies.
package checker

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"go.uber.org/zap"

	"github.com/dshills/dexcheck/internal/logging"
	"github.com/dshills/dexcheck/internal/schema"
	"github.com/dshills/dexcheck/internal/wikiparse"
)

// Default batching thresholds.
const (
	DefaultMaxArticles = 20
	DefaultMaxChecks   = 50
)

// ArticleSource provides article text. Get reports ok=false for an article
// the wiki does not have. MarkNeededPages hints titles that a later
// FetchPages call should include.
type ArticleSource interface {
	Get(ctx context.Context, title string) (text string, ok bool, err error)
	IsUpToDate(ctx context.Context, title string) (bool, error)
	FetchPages(ctx context.Context, titles []string) error
	MarkNeededPages(titles []string)
}

// RunFunc checks one parsed article. title is the article actually used.
type RunFunc func(title string, doc *wikiparse.Content) ([]schema.Discrepancy, error)

// Check is one named check of one entity against one article. Articles lists
// candidate titles in order of preference; the first one that exists is
// checked. When none exists a single MISSING_ARTICLE is reported for the
// first.
type Check struct {
	Name     string
	Entity   string
	Articles []string
	Run      RunFunc
}

// Result is the outcome of a run.
type Result struct {
	Discrepancies []schema.Discrepancy
	Checks        int
	Articles      int
	Fetches       int
}

// Runner executes checks. The zero value is not usable; use New.
type Runner struct {
	source      ArticleSource
	log         *zap.Logger
	maxArticles int
	maxChecks   int

	// OnDiscrepancy, if set, is called for each discrepancy as it is found.
	OnDiscrepancy func(schema.Discrepancy)
}

// Option configures a Runner.
type Option func(*Runner)

// WithBatch sets the batching thresholds: a fetch is issued once
// maxArticles distinct stale articles or more than maxChecks waiting checks
// accumulate.
func WithBatch(maxArticles, maxChecks int) Option {
	return func(r *Runner) {
		r.maxArticles = maxArticles
		r.maxChecks = maxChecks
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// New returns a Runner reading articles from source.
func New(source ArticleSource, opts ...Option) *Runner {
	r := &Runner{
		source:      source,
		log:         zap.NewNop(),
		maxArticles: DefaultMaxArticles,
		maxChecks:   DefaultMaxChecks,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run holds the state of one pass.
type run struct {
	*Runner
	ctx context.Context

	pending  []Check
	needed   []string
	neededOK map[string]bool
	seen     map[string]bool
	parsed   map[string]*wikiparse.Content
	result   Result
}

// Run executes checks in order. Checks whose articles are all fresh run
// immediately; the others wait for the next batch fetch. Discrepancies are
// returned sorted with schema.Compare. Errors from the source or from a
// check abort the run.
func (r *Runner) Run(ctx context.Context, checks iter.Seq[Check]) (*Result, error) {
	st := &run{
		Runner:   r,
		ctx:      ctx,
		neededOK: make(map[string]bool),
		seen:     make(map[string]bool),
		parsed:   make(map[string]*wikiparse.Content),
	}
	for c := range checks {
		if err := st.add(c); err != nil {
			return nil, err
		}
	}
	if err := st.flush(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(st.result.Discrepancies, schema.Compare)
	r.log.Info("Check run finished",
		zap.Int("checks", st.result.Checks),
		zap.Int("articles", st.result.Articles),
		zap.Int("fetches", st.result.Fetches),
		zap.Int("discrepancies", len(st.result.Discrepancies)))
	return &st.result, nil
}

func (st *run) add(c Check) error {
	if len(c.Articles) == 0 {
		return fmt.Errorf("checker: check %q for %q names no article", c.Name, c.Entity)
	}
	var stale []string
	for _, title := range c.Articles {
		if !st.seen[title] {
			st.seen[title] = true
			st.result.Articles++
		}
		fresh, err := st.source.IsUpToDate(st.ctx, title)
		if err != nil {
			return fmt.Errorf("checker: %s: %w", title, err)
		}
		if fresh {
			continue
		}
		stale = append(stale, title)
		if !st.neededOK[title] {
			st.neededOK[title] = true
			st.needed = append(st.needed, title)
		}
	}
	if len(stale) == 0 {
		return st.exec(c)
	}
	st.source.MarkNeededPages(stale)
	st.pending = append(st.pending, c)
	if len(st.needed) >= st.maxArticles || len(st.pending) > st.maxChecks {
		return st.flush()
	}
	return nil
}

// flush fetches the stale articles and runs the checks waiting for them.
func (st *run) flush() error {
	if len(st.needed) > 0 {
		st.log.Info("Fetching articles",
			zap.Int("checks", len(st.pending)),
			zap.Int("articles", len(st.needed)))
		if err := st.ctx.Err(); err != nil {
			return fmt.Errorf("checker: %w", err)
		}
		if err := st.source.FetchPages(st.ctx, st.needed); err != nil {
			return fmt.Errorf("checker: fetch pages: %w", err)
		}
		st.result.Fetches++
	}
	clear(st.parsed)
	for _, c := range st.pending {
		if err := st.exec(c); err != nil {
			return err
		}
	}
	st.pending = st.pending[:0]
	st.needed = st.needed[:0]
	clear(st.neededOK)
	return nil
}

func (st *run) exec(c Check) error {
	st.result.Checks++
	title, doc, err := st.article(c.Articles)
	if err != nil {
		return err
	}
	var found []schema.Discrepancy
	if doc == nil {
		st.log.Debug("Article missing", zap.String("article", c.Articles[0]), zap.String("check", c.Name))
		found = []schema.Discrepancy{schema.MissingArticle(c.Articles[0])}
		title = c.Articles[0]
	} else {
		st.log.Debug("Checking article", zap.String("article", title), zap.String("check", c.Name))
		found, err = c.Run(title, doc)
		if err != nil {
			return fmt.Errorf("checker: %s on %s: %w", c.Name, title, err)
		}
	}
	for _, d := range found {
		if d.Article == "" {
			d.Article = title
		}
		if d.Check == "" {
			d.Check = c.Name
		}
		if d.Entity == "" {
			d.Entity = c.Entity
		}
		st.result.Discrepancies = append(st.result.Discrepancies, d)
		if st.OnDiscrepancy != nil {
			st.OnDiscrepancy(d)
		}
	}
	return nil
}

// article returns the first existing candidate, parsed. doc is nil when
// none exists.
func (st *run) article(titles []string) (string, *wikiparse.Content, error) {
	for _, title := range titles {
		if doc, ok := st.parsed[title]; ok {
			return title, doc, nil
		}
		text, ok, err := st.source.Get(st.ctx, title)
		if err != nil {
			return "", nil, fmt.Errorf("checker: get %s: %w", title, err)
		}
		if !ok {
			continue
		}
		doc := wikiparse.Options{Warn: logging.ParserWarn(st.log, title)}.Parse(text)
		st.parsed[title] = doc
		return title, doc, nil
	}
	return "", nil, nil
}
