package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Schema string
}

// SnapshotResult is the JSON payload of the snapshot command.
type SnapshotResult struct {
	Path        string         `json:"path"`
	Collections map[string]int `json:"collections"` // documents per collection
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot <data.json> <out.snap>",
		Short: "Convert a JSON document file to a compressed snapshot",
		Long: `Load a {"<collection>": [documents...]} JSON file and write it as a
zstd-compressed MessagePack snapshot that "query --target doc --data"
reads directly. Decimal values keep their exact digits.

Examples:
  sqlparse snapshot users.json users.snap
  sqlparse snapshot --schema ./models users.json users.snap`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema directory")

	return cmd
}

func runSnapshot(opts *SnapshotOptions, in, out string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	resolver, err := LoadResolver(opts.Schema)
	if err != nil {
		return outputError(formatter, err, nil)
	}
	db, err := loadCollections(in, resolver)
	if err != nil {
		return outputError(formatter, err, nil)
	}

	f, err := os.Create(out)
	if err != nil {
		return outputError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("failed to create snapshot: %v", err), Err: err}, nil)
	}
	if err := db.WriteSnapshot(f); err != nil {
		f.Close()
		return outputError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Err: err}, nil)
	}
	if err := f.Close(); err != nil {
		return outputError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Err: err}, nil)
	}

	result := SnapshotResult{Path: out, Collections: map[string]int{}}
	total := 0
	for _, name := range db.Names() {
		n := db.Collection(name, "").Len()
		result.Collections[name] = n
		total += n
	}
	formatter.VerboseLog("Wrote %d collection(s) to %s", len(result.Collections), out)

	return formatter.Success(result, fmt.Sprintf("✓ Wrote %d %s in %d %s to %s",
		total, plural(total, "document", "documents"),
		len(result.Collections), plural(len(result.Collections), "collection", "collections"), out))
}
