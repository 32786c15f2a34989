package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/dexcheck/internal/config"
)

type cacheFlags struct {
	cfg *config.Config
}

func newCacheCmd(g *globalFlags) *cobra.Command {
	var f cacheFlags
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local article cache",
	}
	cmd.PersistentFlags().StringP("profile", "p", "", "wiki profile (default from config)")

	withConfig := func(run func(ctx context.Context, f cacheFlags, args []string, w io.Writer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			f.cfg = g.cfg
			return run(cmd.Context(), f, args, cmd.OutOrStdout())
		}
	}

	var all bool
	invalidate := &cobra.Command{
		Use:   "invalidate [title...]",
		Short: "Mark articles for re-validation on next use",
		RunE: withConfig(func(ctx context.Context, f cacheFlags, args []string, w io.Writer) error {
			return runCacheInvalidate(ctx, f, args, all, w)
		}),
	}
	invalidate.Flags().BoolVar(&all, "all", false, "invalidate every cached article")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "update",
			Short: "Invalidate articles edited since the last update",
			Args:  cobra.NoArgs,
			RunE:  withConfig(runCacheUpdate),
		},
		invalidate,
		&cobra.Command{
			Use:   "info",
			Short: "Show the cache state",
			Args:  cobra.NoArgs,
			RunE:  withConfig(runCacheInfo),
		},
		&cobra.Command{
			Use:   "seed <dir>",
			Short: "Store every <title>.wiki file in dir as a cached article",
			Args:  cobra.ExactArgs(1),
			RunE:  withConfig(runCacheSeed),
		},
	)
	return cmd
}

func runCacheUpdate(ctx context.Context, f cacheFlags, _ []string, w io.Writer) error {
	cfg := f.cfg
	p, err := selectedProfile(cfg)
	if err != nil {
		return err
	}
	cache, err := openCache(ctx, cfg, p, false)
	if err != nil {
		return err
	}
	defer cache.Close()
	if err := cache.Update(ctx); err != nil {
		return &exitError{code: exitCodeFetch, err: err}
	}
	return runCacheInfo(ctx, f, nil, w)
}

func runCacheInvalidate(ctx context.Context, f cacheFlags, titles []string, all bool, w io.Writer) error {
	if all == (len(titles) > 0) {
		return badInput(errors.New("give either article titles or --all"))
	}
	cfg := f.cfg
	p, err := selectedProfile(cfg)
	if err != nil {
		return err
	}
	cache, err := openCache(ctx, cfg, p, true)
	if err != nil {
		return err
	}
	defer cache.Close()
	if all {
		if err := cache.InvalidateAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(w, "Invalidated all articles")
		return nil
	}
	if err := cache.InvalidatePages(ctx, titles); err != nil {
		return err
	}
	fmt.Fprintf(w, "Invalidated %d articles\n", len(titles))
	return nil
}

func runCacheInfo(ctx context.Context, f cacheFlags, _ []string, w io.Writer) error {
	cfg := f.cfg
	p, err := selectedProfile(cfg)
	if err != nil {
		return err
	}
	cache, err := openCache(ctx, cfg, p, true)
	if err != nil {
		return err
	}
	defer cache.Close()
	info, err := cache.Info(ctx)
	if err != nil {
		return err
	}
	updated := "never"
	if !info.LastUpdate.IsZero() {
		updated = info.LastUpdate.Format(time.DateTime) + " UTC"
	}
	fmt.Fprintf(w, "Wiki:      %s\n", info.URLBase)
	fmt.Fprintf(w, "Cache:     %s\n", cfg.CachePath(p))
	fmt.Fprintf(w, "Revision:  %d\n", info.LastRevision)
	fmt.Fprintf(w, "Updated:   %s\n", updated)
	fmt.Fprintf(w, "Articles:  %d (%d up to date, %d missing on the wiki)\n", info.Articles, info.UpToDate, info.Missing)
	return nil
}

func runCacheSeed(ctx context.Context, f cacheFlags, args []string, w io.Writer) error {
	cfg := f.cfg
	p, err := selectedProfile(cfg)
	if err != nil {
		return err
	}
	files, err := filepath.Glob(filepath.Join(args[0], "*.wiki"))
	if err != nil {
		return badInput(err)
	}
	if len(files) == 0 {
		return badInput(fmt.Errorf("no .wiki files in %s", args[0]))
	}
	cache, err := openCache(ctx, cfg, p, true)
	if err != nil {
		return err
	}
	defer cache.Close()
	for _, file := range files {
		b, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		title := strings.TrimSuffix(filepath.Base(file), ".wiki")
		text := string(b)
		if err := cache.Put(ctx, title, &text, 0); err != nil {
			return err
		}
		logger.Debug("Seeded article", zap.String("title", title))
	}
	fmt.Fprintf(w, "Seeded %d articles\n", len(files))
	return nil
}
