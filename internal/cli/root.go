// Package cli provides the command-line interface for speakerdir.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/wacspeakers/speakerdir/internal/client"
	"github.com/wacspeakers/speakerdir/internal/config"
	"github.com/wacspeakers/speakerdir/internal/metrics"
	"github.com/wacspeakers/speakerdir/internal/service"
	"github.com/wacspeakers/speakerdir/internal/state"
	"github.com/wacspeakers/speakerdir/internal/tokenstore"
)

// sessionAnnotation marks commands that validate the stored token before
// they run.
const sessionAnnotation = "speakerdir/session"

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	baseURL   string
	ephemeral bool

	// Wired in PersistentPreRunE
	cfg        config.Config
	logger     *slog.Logger
	closeLog   func() error
	tokens     tokenstore.Store
	gateway    *client.Client
	collector  *metrics.Collector
	statsOut   io.Writer
	store      *state.Store
	loc        *location
	notifier   *styledNotifier
	searchSvc  *service.SearchService
	accountSvc *service.AccountService
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "speakerdir",
	Short: "Browse the speaker directory and manage your speaker account",
	Long: `Speakerdir is a terminal client for the speaker directory.

Search and page through speaker profiles, open a speaker's detail view and
manage your own account: registration, login, profile edits and passwords.

The session token is kept between commands in the configured token store
(a file by default, or a shared Redis instance).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Nothing to wire for help and completion
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == cobra.ShellCompRequestCmd {
			return nil
		}

		if err := setup(cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
			return err
		}

		if needsSession(cmd) {
			// Failures are already shown; the command runs logged out.
			_ = accountSvc.ValidateToken(cmd.Context())
		}
		return nil
	},
}

// setup loads the config and wires the token store, Gateway client, state
// store and services.
func setup(stdout, stderr io.Writer) error {
	cfg = config.Load()
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if ephemeral {
		cfg.TokenBackend = tokenstore.BackendMemory
	}
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog = config.SetupLogger(cfg.LogFile, cfg.LogLevel)

	var err error
	tokens, err = tokenstore.Open(tokenstore.Options{
		Backend:       cfg.TokenBackend,
		FilePath:      cfg.TokenFile,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("open token store: %w", err)
	}

	gateway = client.New(cfg.BaseURL, cfg.Timeout)
	gateway.SetLogger(logger)
	if verbose {
		collector = metrics.NewCollector()
		gateway.SetMetrics(collector)
		statsOut = stderr
	}
	store = state.NewStore(logger)
	loc = newLocation(stdout)
	notifier = newStyledNotifier(stderr)
	searchSvc = service.NewSearchService(store, gateway, loc, notifier, logger)
	accountSvc = service.NewAccountService(store, gateway, tokens, loc, notifier, logger)

	logger.Debug("wired", "base_url", gateway.BaseURL(), "token_backend", cfg.TokenBackend)
	return nil
}

func teardown() {
	if collector != nil && statsOut != nil {
		printStats(statsOut, collector.Snapshot())
	}
	if closer, ok := tokens.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close token store: %v\n", err)
		}
	}
	if closeLog != nil {
		_ = closeLog()
	}
	tokens, closeLog = nil, nil
	collector, statsOut = nil, nil
}

// needsSession reports whether cmd or one of its parents carries the
// session annotation.
func needsSession(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[sessionAnnotation] == "true" {
			return true
		}
	}
	return false
}

var sessionAnnotations = map[string]string{sessionAnnotation: "true"}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	defer teardown()
	return rootCmd.ExecuteContext(ctx)
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	return errors.Is(err, service.ErrReported)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Gateway base URL (overrides SPEAKERDIR_BASE_URL)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the session token in memory only")

	// Add subcommands
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(speakerCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(passwordCmd)
}
