// Command dexcheck compares wiki articles with the Pokédex database and
// reports the differences.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/dexcheck/internal/config"
	"github.com/dshills/dexcheck/internal/logging"
	"github.com/dshills/dexcheck/internal/mwapi"
	"github.com/dshills/dexcheck/internal/profile"
	"github.com/dshills/dexcheck/internal/wikicache"
)

var version = "dev"

// Exit codes other than 0 (success) and 1 (internal error).
const (
	exitCodeFailOn   = 2
	exitCodeBadInput = 3
	exitCodeFetch    = 4
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func badInput(err error) error {
	return &exitError{code: exitCodeBadInput, err: err}
}

var (
	logger = zap.NewNop()

	// newAPI builds the wiki API client. Tests replace it.
	newAPI = func(endpoint string, opts ...mwapi.Option) wikicache.API {
		return mwapi.New(endpoint, opts...)
	}
)

type globalFlags struct {
	configFile string
	verbose    bool

	// cfg is loaded once before any subcommand runs.
	cfg *config.Config
}

func main() {
	var g globalFlags
	if err := newRootCmd(&g).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "dexcheck:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func newRootCmd(g *globalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:           "dexcheck",
		Short:         "Check wiki articles against the Pokédex database",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(g.configFile)
			if err != nil {
				return badInput(err)
			}
			if fl := cmd.Flags().Lookup("profile"); fl != nil && fl.Value.String() != "" {
				cfg.Profile = fl.Value.String()
			}
			log, err := logging.New(cfg.Log, g.verbose)
			if err != nil {
				return badInput(err)
			}
			logger = log
			g.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default $DEXCHECK_CONFIG or ./dexcheck.yaml)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newCheckCmd(g), newParseCmd(g), newCacheCmd(g), newProfilesCmd())
	return root
}

// selectedProfile returns the profile cfg names.
func selectedProfile(cfg *config.Config) (profile.Profile, error) {
	p, err := profile.Load(cfg.Profile)
	if err != nil {
		return profile.Profile{}, badInput(err)
	}
	return p, nil
}

// openCache opens the article cache for p. An offline cache has no API and
// serves only what it holds.
func openCache(ctx context.Context, cfg *config.Config, p profile.Profile, offline bool) (*wikicache.Cache, error) {
	apiURL := cfg.APIURL(p)
	opts := []wikicache.Option{wikicache.WithLogger(logger)}
	if !offline && !cfg.Cache.Offline {
		api := newAPI(apiURL,
			mwapi.WithHTTPClient(&http.Client{Timeout: cfg.Cache.Timeout}),
			mwapi.WithInterval(cfg.RequestInterval(p)),
			mwapi.WithMaxRetries(cfg.Cache.MaxRetries),
			mwapi.WithUserAgent("dexcheck/"+version),
			mwapi.WithLogger(logger),
		)
		opts = append(opts, wikicache.WithAPI(api))
	}
	cache, err := wikicache.Open(ctx, cfg.CachePath(p), apiURL, opts...)
	if err != nil {
		return nil, err
	}
	return cache, nil
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in wiki profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, name := range profile.Names() {
				p, err := profile.Load(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%-16s %s\n", p.Name, p.Description)
				fmt.Fprintf(w, "%-16s %s\n", "", p.APIURL)
			}
			return nil
		},
	}
}
