package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/shopq/internal/config"
	"github.com/roach88/shopq/internal/shop"
	"github.com/roach88/shopq/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // explicit config file; searched in the working directory when empty
	DB      string // overrides database.dsn
	Driver  string // overrides database.driver

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the shopq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shopq",
		Short: "shopq - typed queries over a commerce catalog",
		Long: `Query and maintain a commerce catalog of customers, products, orders,
order items, reviews and tags.

Every read is built as a typed query and compiled to SQL for the configured
database (SQLite, PostgreSQL or MySQL). Use "shopq sql" to see the statement
an operation runs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default: shopq.yaml, shopq.yml or shopq.toml in the working directory)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "database path or connection string (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver: sqlite3, sqlite, postgres, pgx or mysql (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewCustomerCommand(opts))
	cmd.AddCommand(NewProductCommand(opts))
	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewReviewCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads the config file, applies flag overrides and builds the
// logger. It runs once per invocation.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if o.cfg != nil {
		return nil
	}

	cfg := config.Default()
	path := o.Config
	if path == "" {
		path = config.Find(".")
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	if o.DB != "" {
		cfg.Database.DSN = o.DB
	}
	if o.Driver != "" {
		cfg.Database.Driver = o.Driver
	}
	if f := cmd.Flags().Lookup("format"); o.Format == "" || (f != nil && !f.Changed) {
		o.Format = cfg.Output.Format
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}

	// Validate format flag
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	o.cfg = cfg
	o.logger = cfg.Logger(cmd.ErrOrStderr())
	return nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// withService opens the configured database, runs fn against a service
// over it, and closes the database. Failures are reported through the
// formatter and returned as ExitErrors.
func (o *RootOptions) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *shop.Service, f *OutputFormatter) error) error {
	if err := o.resolve(cmd); err != nil {
		return err
	}
	f := o.formatter(cmd)

	f.VerboseLog("Opening %s database %s", o.cfg.Database.Driver, o.cfg.Database.DSN)
	st, err := store.OpenDriver(o.cfg.Database.Driver, o.cfg.Database.DSN)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc := shop.NewService(st, shop.WithLogger(o.logger))
	if err := fn(ctx, svc, f); err != nil {
		return f.Fail(err)
	}
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
