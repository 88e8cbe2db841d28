package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/korosuke613/ghasweep/prune"
)

// DeleteOptions contains the options for the delete command.
type DeleteOptions struct {
	Owner   string
	Repo    string
	RunIDs  []int64
	Input   string
	Workers int
}

// NewDeleteCommand creates the delete command for batch run deletion.
func NewDeleteCommand() *cobra.Command {
	opts := &DeleteOptions{}

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete workflow runs by ID",
		Long: `Issue one deletion request per run ID. A failed deletion does not
stop the remaining ones; every ID is attempted and reported.

Run IDs come from repeated --run-id flags, or from --input as a JSON
array in the query command's output format ("-" reads stdin):

  ghasweep query ... --format json | ghasweep delete --owner o --repo r --input -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "repository owner (required)")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "repository name (required)")
	cmd.Flags().Int64SliceVar(&opts.RunIDs, "run-id", nil, "run ID to delete (repeatable)")
	cmd.Flags().StringVar(&opts.Input, "input", "", "JSON file with query output, or - for stdin")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel deletions (0 = use GHSWEEP_DELETE_WORKERS)")

	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("repo")
	cmd.MarkFlagsMutuallyExclusive("run-id", "input")

	return cmd
}

func runDelete(opts *DeleteOptions) error {
	runIDs := opts.RunIDs
	if opts.Input != "" {
		ids, err := readRunIDs(opts.Input)
		if err != nil {
			return err
		}
		runIDs = ids
	}
	if len(runIDs) == 0 {
		return fmt.Errorf("no run IDs given (use --run-id or --input)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newGitHubClient(cfg)
	if err != nil {
		return err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Sweep.DeleteWorkers
	}

	// Ctrl-C stops issuing further requests; deletions already issued
	// cannot be undone.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deleter := &prune.Deleter{Client: client, Workers: workers}
	results := deleter.Delete(ctx, opts.Owner, opts.Repo, runIDs)

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("failed %d: %v\n", r.RunID, r.Err)
		} else {
			fmt.Printf("deleted %d\n", r.RunID)
		}
	}

	if failed := prune.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d deletions failed", len(failed), len(results))
	}
	return nil
}

// readRunIDs parses query JSON output, skipping no-match records.
func readRunIDs(input string) ([]int64, error) {
	var reader io.Reader
	if input == "-" {
		reader = os.Stdin
	} else {
		f, err := os.Open(input)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var results []prune.RunResult
	if err := json.NewDecoder(reader).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to parse input as query output: %w", err)
	}

	return prune.RunIDs(results), nil
}
