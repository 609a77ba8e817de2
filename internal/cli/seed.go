package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shopq/internal/fixture"
	"github.com/roach88/shopq/internal/shop"
)

// ErrCodeFixture marks a fixture file that failed to parse or validate.
const ErrCodeFixture = "FIXTURE"

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <fixture.cue>",
		Short: "Load a CUE catalog fixture into the database",
		Long: `Load a CUE catalog fixture into the database.

The fixture is validated against the catalog schema before anything is
written: unknown fields, negative stock, malformed emails and references to
undeclared customers or products are reported with their file position.
Rows are then inserted parents first, and orders keep the date given in the
fixture.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, args[0], cmd)
		},
	}
	return cmd
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	if err := opts.resolve(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	cat, err := fixture.Load(path)
	if err != nil {
		var fe *fixture.Error
		if errors.As(err, &fe) {
			_ = formatter.Error(ErrCodeFixture, fe.Error(), map[string]string{"path": fe.Path})
			return &ExitError{Code: ExitFailure, Message: "invalid fixture", Err: err, reported: true}
		}
		_ = formatter.Error(ErrCodeArgs, err.Error(), nil)
		return &ExitError{Code: ExitCommandError, Message: "failed to load fixture", Err: err, reported: true}
	}
	formatter.VerboseLog("Loaded %s: %d customer(s), %d product(s), %d order(s)",
		path, len(cat.Customers), len(cat.Products), len(cat.Orders))

	return opts.withService(cmd, func(ctx context.Context, svc *shop.Service, f *OutputFormatter) error {
		res, err := fixture.Apply(ctx, svc, cat, opts.logger)
		if err != nil {
			return err
		}
		if f.Format == "json" {
			return f.Success(res)
		}
		fmt.Fprintf(f.Writer, "✓ Seeded %s\n", path)
		return f.Table(res, []string{"ENTITY", "ROWS"}, [][]string{
			{"customers", fmt.Sprint(len(res.Customers))},
			{"products", fmt.Sprint(len(res.Products))},
			{"orders", fmt.Sprint(len(res.Orders))},
			{"order items", fmt.Sprint(res.Items)},
			{"reviews", fmt.Sprint(res.Reviews)},
			{"tags", fmt.Sprint(res.Tags)},
		})
	})
}
