package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Flushot/sqlparse/internal/parser"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	MaxDepth int

	// IDs generates response trace IDs. Tests inject a fixed generator.
	IDs TraceIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sqlparse CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{IDs: UUIDv7Generator{}})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlparse",
		Short: "sqlparse - SQL SELECT filters for relational and document stores",
		Long: `Parse a restricted SQL SELECT dialect and compile its WHERE clause
into a parameterized SQL filter or a document-store filter.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.MaxDepth < 1 {
				return fmt.Errorf("invalid max depth %d: must be positive", opts.MaxDepth)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().IntVar(&opts.MaxDepth, "max-depth", parser.DefaultMaxDepth, "maximum expression nesting depth")

	// Add subcommands
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newFormatter builds the formatter for one command run and stamps it with
// a fresh trace ID.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
		TraceID:   ids.Generate(),
	}
}

// newLogger returns the logger handed to builders: debug-level text on
// stderr with --verbose, silent otherwise.
func newLogger(f *OutputFormatter) *slog.Logger {
	if !f.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := slog.NewTextHandler(f.GetErrWriter(), &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h).With("trace_id", f.TraceID)
}
