package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/dexcheck/internal/config"
	"github.com/dshills/dexcheck/internal/logging"
	"github.com/dshills/dexcheck/internal/wikiparse"
)

type parseFlags struct {
	cfg      *config.Config
	article  string
	template string
	sections bool
	offline  bool
}

func newParseCmd(g *globalFlags) *cobra.Command {
	var f parseFlags
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Show how wikitext is parsed",
		Long: `Parse reads wikitext from a file, from stdin ("-" or no argument) or, with
--article, from the article cache, and prints the parse tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.cfg = g.cfg
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runParse(cmd.Context(), f, file, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	fl := cmd.Flags()
	fl.StringP("profile", "p", "", "wiki profile for --article (default from config)")
	fl.StringVarP(&f.article, "article", "a", "", "parse this article from the cache")
	fl.StringVarP(&f.template, "template", "t", "", "print only the parameters of the first template with this name")
	fl.BoolVar(&f.sections, "sections", false, "print only the named sections")
	fl.BoolVar(&f.offline, "offline", false, "do not fetch --article from the wiki")
	return cmd
}

func runParse(ctx context.Context, f parseFlags, file string, stdin io.Reader, w io.Writer) error {
	name, text, err := parseInput(ctx, f, file, stdin)
	if err != nil {
		return err
	}
	doc := wikiparse.Options{Warn: logging.ParserWarn(logger, name)}.Parse(text)

	switch {
	case f.template != "":
		t, ok := wikiparse.FindTemplate(doc, f.template)
		if !ok {
			return badInput(fmt.Errorf("no template %q in %s", f.template, name))
		}
		seen := map[string]bool{}
		for _, p := range t.Params() {
			if seen[p.Key] {
				fmt.Fprintf(w, "%s = %s (duplicate)\n", p.Key, p.Value)
				continue
			}
			seen[p.Key] = true
			fmt.Fprintf(w, "%s = %s\n", p.Key, p.Value)
		}
		return nil
	case f.sections:
		for _, s := range wikiparse.NamedSections(doc) {
			fmt.Fprintln(w, s.Title())
		}
		return nil
	}
	return wikiparse.Dump(w, doc)
}

// parseInput returns a display name and the wikitext to parse.
func parseInput(ctx context.Context, f parseFlags, file string, stdin io.Reader) (string, string, error) {
	if f.article != "" {
		p, err := selectedProfile(f.cfg)
		if err != nil {
			return "", "", err
		}
		cache, err := openCache(ctx, f.cfg, p, f.offline)
		if err != nil {
			return "", "", err
		}
		defer cache.Close()
		text, ok, err := cache.Get(ctx, f.article)
		if err != nil {
			return "", "", &exitError{code: exitCodeFetch, err: err}
		}
		if !ok {
			return "", "", badInput(fmt.Errorf("article %q does not exist on %s", f.article, p.Name))
		}
		return f.article, text, nil
	}

	if file == "" || file == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return "stdin", string(b), nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return "", "", badInput(err)
	}
	return file, string(b), nil
}
