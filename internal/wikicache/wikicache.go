// Package wikicache keeps a local SQLite copy of wiki articles keyed by title
// and revision.
//
// Articles are marked up to date when fetched and invalidated when the
// recent changes feed shows an edit, so a run only downloads what changed
// since the last one. No locking is done: one process per cache file.
package wikicache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/dshills/dexcheck/internal/mwapi"
)

// ErrNotCached is returned when an article is needed but not up to date and
// the cache has no API to fetch it from.
var ErrNotCached = errors.New("wikicache: article not cached")

// Fetch limits. Revision queries take up to 50 titles and 400 characters of
// names; content downloads take 10 titles.
const (
	maxInfoTitles    = 50
	maxTitleChars    = 400
	maxContentTitles = 10
	maxChanges       = 5000
	changesPerQuery  = 100
)

// API is the subset of the MediaWiki API the cache uses. *mwapi.Client
// implements it.
type API interface {
	PageRevisions(ctx context.Context, titles []string) ([]mwapi.PageInfo, error)
	PageContents(ctx context.Context, titles []string) ([]mwapi.Page, error)
	RecentChanges(ctx context.Context, cont string, limit int) ([]mwapi.Change, string, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS article (
	name       TEXT PRIMARY KEY NOT NULL,
	contents   TEXT,
	revision   INTEGER NOT NULL,
	up_to_date BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS dbinfo (
	url_base      TEXT PRIMARY KEY NOT NULL,
	last_revision INTEGER,
	last_update   INTEGER
);
`

// Info describes the state of a cache.
type Info struct {
	URLBase      string
	LastRevision int64
	LastUpdate   time.Time
	Articles     int
	UpToDate     int
	Missing      int
}

// Cache is a local article cache for one wiki.
type Cache struct {
	db      *sql.DB
	api     API
	urlBase string
	log     *zap.Logger
	now     func() time.Time

	needed    []string
	neededSet map[string]bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithAPI sets the API used to fetch articles. Without one the cache is
// offline and only serves what it already holds.
func WithAPI(api API) Option {
	return func(c *Cache) { c.api = api }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithClock sets the time source used for update timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Open opens or creates the cache at path for the wiki at urlBase. An
// existing cache must belong to the same wiki.
func Open(ctx context.Context, path, urlBase string, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("wikicache: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("wikicache: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	c := &Cache{
		db:        db,
		urlBase:   urlBase,
		log:       zap.NewNop(),
		now:       time.Now,
		neededSet: map[string]bool{},
	}
	for _, o := range opts {
		o(c)
	}
	if err := c.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("wikicache: create schema: %w", err)
	}
	query, args, err := sq.Select("url_base").From("dbinfo").ToSql()
	if err != nil {
		return fmt.Errorf("wikicache: %w", err)
	}
	var existing string
	switch err := c.db.QueryRowContext(ctx, query, args...).Scan(&existing); {
	case errors.Is(err, sql.ErrNoRows):
		ins, args, err := sq.Insert("dbinfo").Columns("url_base").Values(c.urlBase).ToSql()
		if err != nil {
			return fmt.Errorf("wikicache: %w", err)
		}
		if _, err := c.db.ExecContext(ctx, ins, args...); err != nil {
			return fmt.Errorf("wikicache: init dbinfo: %w", err)
		}
	case err != nil:
		return fmt.Errorf("wikicache: read dbinfo: %w", err)
	case existing != c.urlBase:
		return fmt.Errorf("wikicache: cache belongs to %s, not %s", existing, c.urlBase)
	}
	return nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Info returns the cache state.
func (c *Cache) Info(ctx context.Context) (Info, error) {
	info := Info{URLBase: c.urlBase}
	query, args, err := sq.Select("last_revision", "last_update").From("dbinfo").ToSql()
	if err != nil {
		return info, fmt.Errorf("wikicache: %w", err)
	}
	var rev, updated sql.NullInt64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&rev, &updated); err != nil {
		return info, fmt.Errorf("wikicache: read dbinfo: %w", err)
	}
	info.LastRevision = rev.Int64
	if updated.Valid {
		info.LastUpdate = time.Unix(updated.Int64, 0).UTC()
	}

	query, args, err = sq.Select(
		"COUNT(*)",
		"COALESCE(SUM(up_to_date), 0)",
		"COALESCE(SUM(CASE WHEN contents IS NULL THEN 1 ELSE 0 END), 0)",
	).From("article").ToSql()
	if err != nil {
		return info, fmt.Errorf("wikicache: %w", err)
	}
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&info.Articles, &info.UpToDate, &info.Missing); err != nil {
		return info, fmt.Errorf("wikicache: count articles: %w", err)
	}
	return info, nil
}

type article struct {
	name     string
	contents sql.NullString
	revision int64
	upToDate bool
}

// load returns the stored article, or an out-of-date placeholder at revision
// zero when title is unknown.
func (c *Cache) load(ctx context.Context, title string) (article, error) {
	a := article{name: title}
	query, args, err := sq.Select("contents", "revision", "up_to_date").
		From("article").Where(sq.Eq{"name": title}).ToSql()
	if err != nil {
		return a, fmt.Errorf("wikicache: %w", err)
	}
	err = c.db.QueryRowContext(ctx, query, args...).Scan(&a.contents, &a.revision, &a.upToDate)
	if errors.Is(err, sql.ErrNoRows) {
		return a, nil
	}
	if err != nil {
		return a, fmt.Errorf("wikicache: load %q: %w", title, err)
	}
	return a, nil
}

// Put stores an article as up to date. A nil contents records a page the
// wiki does not have.
func (c *Cache) Put(ctx context.Context, title string, contents *string, revision int64) error {
	var text sql.NullString
	if contents != nil {
		text = sql.NullString{String: *contents, Valid: true}
	}
	query, args, err := sq.Insert("article").
		Columns("name", "contents", "revision", "up_to_date").
		Values(title, text, revision, true).
		Suffix("ON CONFLICT(name) DO UPDATE SET contents = excluded.contents, " +
			"revision = excluded.revision, up_to_date = excluded.up_to_date").
		ToSql()
	if err != nil {
		return fmt.Errorf("wikicache: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("wikicache: store %q: %w", title, err)
	}
	return nil
}

func (c *Cache) markUpToDate(ctx context.Context, title string) error {
	query, args, err := sq.Update("article").Set("up_to_date", true).
		Where(sq.Eq{"name": title}).ToSql()
	if err != nil {
		return fmt.Errorf("wikicache: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("wikicache: mark %q: %w", title, err)
	}
	return nil
}

// IsUpToDate reports whether title is cached and current.
func (c *Cache) IsUpToDate(ctx context.Context, title string) (bool, error) {
	a, err := c.load(ctx, title)
	return a.upToDate, err
}

// Get returns the wikitext of title, fetching it first if needed. ok is
// false when the wiki has no such page. Pages marked as needed are left for
// the next FetchPages call.
func (c *Cache) Get(ctx context.Context, title string) (text string, ok bool, err error) {
	a, err := c.load(ctx, title)
	if err != nil {
		return "", false, err
	}
	if !a.upToDate {
		if err := c.fetch(ctx, []string{title}); err != nil {
			return "", false, err
		}
		if a, err = c.load(ctx, title); err != nil {
			return "", false, err
		}
	}
	if !a.upToDate {
		return "", false, fmt.Errorf("%w: %s", ErrNotCached, title)
	}
	return a.contents.String, a.contents.Valid, nil
}

// MarkNeededPages records titles to be fetched along with the next
// FetchPages call.
func (c *Cache) MarkNeededPages(titles []string) {
	for _, t := range titles {
		if !c.neededSet[t] {
			c.neededSet[t] = true
			c.needed = append(c.needed, t)
		}
	}
}

// FetchPages makes sure titles, and any pages marked as needed, are up to
// date. Pages whose revision did not change are only re-validated; changed
// pages are downloaded.
func (c *Cache) FetchPages(ctx context.Context, titles []string) error {
	c.MarkNeededPages(titles)
	if err := c.fetch(ctx, c.needed); err != nil {
		return err
	}
	c.clearNeeded()
	return nil
}

// fetch brings the stale pages among requested up to date.
func (c *Cache) fetch(ctx context.Context, requested []string) error {
	byName := map[string]article{}
	var stale []string
	for _, t := range requested {
		a, err := c.load(ctx, t)
		if err != nil {
			return err
		}
		if !a.upToDate {
			byName[t] = a
			stale = append(stale, t)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if c.api == nil {
		return fmt.Errorf("%w: %s", ErrNotCached, strings.Join(stale, ", "))
	}
	slices.Sort(stale)
	c.log.Info("Fetching articles", zap.Int("count", len(stale)))

	var download []string
	for _, chunk := range chunkTitles(stale, maxInfoTitles) {
		infos, err := c.api.PageRevisions(ctx, chunk)
		if err != nil {
			return fmt.Errorf("wikicache: page revisions: %w", err)
		}
		for _, info := range infos {
			a, ok := byName[info.Title]
			if !ok {
				c.log.Warn("Unrequested page in API response", zap.String("title", info.Title))
				continue
			}
			switch {
			case info.Missing:
				if err := c.Put(ctx, info.Title, nil, 0); err != nil {
					return err
				}
			case info.LastRevID != a.revision:
				download = append(download, info.Title)
			default:
				if err := c.markUpToDate(ctx, info.Title); err != nil {
					return err
				}
			}
		}
	}

	for _, chunk := range chunkTitles(download, maxContentTitles) {
		pages, err := c.api.PageContents(ctx, chunk)
		if err != nil {
			return fmt.Errorf("wikicache: page contents: %w", err)
		}
		for _, p := range pages {
			if _, ok := byName[p.Title]; !ok {
				continue
			}
			c.log.Debug("Downloaded article", zap.String("title", p.Title), zap.Int64("revision", p.RevID))
			if err := c.Put(ctx, p.Title, &p.Contents, p.RevID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Cache) clearNeeded() {
	c.needed = nil
	clear(c.neededSet)
}

// chunkTitles splits titles into chunks of at most n titles and at most
// maxTitleChars characters of names. A single longer title gets its own chunk.
func chunkTitles(titles []string, n int) [][]string {
	var chunks [][]string
	var cur []string
	chars := 0
	for _, t := range titles {
		l := utf8.RuneCountInString(t)
		if len(cur) > 0 && (len(cur) >= n || chars+l > maxTitleChars) {
			chunks = append(chunks, cur)
			cur, chars = nil, 0
		}
		cur = append(cur, t)
		chars += l
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

// InvalidatePages marks titles for re-download on next use.
func (c *Cache) InvalidatePages(ctx context.Context, titles []string) error {
	if len(titles) == 0 {
		return nil
	}
	query, args, err := sq.Update("article").Set("up_to_date", false).
		Where(sq.Eq{"name": titles}).ToSql()
	if err != nil {
		return fmt.Errorf("wikicache: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("wikicache: invalidate: %w", err)
	}
	return nil
}

// InvalidateAll marks every article for re-validation. Articles whose
// revision is unchanged are not downloaded again.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	query, args, err := sq.Update("article").Set("up_to_date", false).ToSql()
	if err != nil {
		return fmt.Errorf("wikicache: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("wikicache: invalidate all: %w", err)
	}
	return nil
}

// UpdateIfStale runs Update when the last one is older than maxAge. It
// reports whether an update ran.
func (c *Cache) UpdateIfStale(ctx context.Context, maxAge time.Duration) (bool, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return false, err
	}
	if !info.LastUpdate.IsZero() && c.now().Sub(info.LastUpdate) < maxAge {
		c.log.Debug("Skipping cache update", zap.Time("last_update", info.LastUpdate))
		return false, nil
	}
	return true, c.Update(ctx)
}

// Update synchronises the cache with the wiki's recent changes feed: pages
// edited since the last known revision are invalidated. A fresh cache, or
// one more than maxChanges edits behind, is invalidated entirely.
func (c *Cache) Update(ctx context.Context) error {
	if c.api == nil {
		return fmt.Errorf("%w: no API to update from", ErrNotCached)
	}
	info, err := c.Info(ctx)
	if err != nil {
		return err
	}

	changes, cont, err := c.api.RecentChanges(ctx, "", changesPerQuery)
	if err != nil {
		return fmt.Errorf("wikicache: recent changes: %w", err)
	}
	var newest int64
	for _, ch := range changes {
		if ch.RevID != 0 {
			newest = ch.RevID
			break
		}
	}

	if info.LastRevision == 0 {
		if err := c.InvalidateAll(ctx); err != nil {
			return err
		}
	} else if err := c.purgeSince(ctx, info.LastRevision, changes, cont); err != nil {
		return err
	}

	b := sq.Update("dbinfo").Set("last_update", c.now().Unix())
	if newest != 0 {
		b = b.Set("last_revision", newest)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("wikicache: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("wikicache: write dbinfo: %w", err)
	}
	c.log.Info("Wiki cache updated", zap.Int64("revision", max(newest, info.LastRevision)))
	return nil
}

// purgeSince walks the feed from the newest change back to revision last,
// invalidating every page edited on the way.
func (c *Cache) purgeSince(ctx context.Context, last int64, changes []mwapi.Change, cont string) error {
	purged := map[string]bool{}
	for range maxChanges {
		if len(changes) == 0 {
			if cont == "" {
				break
			}
			var err error
			changes, cont, err = c.api.RecentChanges(ctx, cont, changesPerQuery)
			if err != nil {
				return fmt.Errorf("wikicache: recent changes: %w", err)
			}
			continue
		}
		ch := changes[0]
		changes = changes[1:]
		if ch.RevID == last {
			return nil
		}
		if !purged[ch.Title] {
			c.log.Info("Purging article", zap.String("title", ch.Title), zap.String("user", ch.User))
			if err := c.InvalidatePages(ctx, []string{ch.Title}); err != nil {
				return err
			}
			purged[ch.Title] = true
		}
	}
	c.log.Warn("Too many recent changes, invalidating the whole cache")
	return c.InvalidateAll(ctx)
}
