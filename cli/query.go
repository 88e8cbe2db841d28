package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/korosuke613/ghasweep/github"
	"github.com/korosuke613/ghasweep/prune"
)

// QueryOptions contains the options for the query command.
type QueryOptions struct {
	Owner         string
	Repo          string
	Workflow      string
	Conclusion    string
	Actor         string
	OlderThanDays int
	Format        string
}

// NewQueryCommand creates the query command for listing matching run IDs.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List workflow run IDs matching a filter",
		Long: `Resolve a workflow by name and list the IDs of its runs that match
exactly one filter: conclusion, triggering actor, or age.

A query that matches nothing still prints one record with an absent
run ID, so downstream tooling can tell "no match" from "no output".

Examples:
  ghasweep query --owner korosuke613 --repo ghasweep --workflow CI --conclusion failure
  ghasweep query --owner korosuke613 --repo ghasweep --workflow CI --actor renovate[bot]
  ghasweep query --owner korosuke613 --repo ghasweep --workflow CI --older-than-days 90 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "repository owner (required)")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "repository name (required)")
	cmd.Flags().StringVar(&opts.Workflow, "workflow", "", "workflow display name, matched exactly (required)")
	cmd.Flags().StringVar(&opts.Conclusion, "conclusion", "", "select runs with this conclusion (success, skipped, cancelled, failure)")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "select runs triggered by this login")
	cmd.Flags().IntVar(&opts.OlderThanDays, "older-than-days", 0, "select runs started more than N days ago")
	cmd.Flags().StringVar(&opts.Format, "format", "table", "output format (table, json, plain)")

	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("workflow")
	cmd.MarkFlagsMutuallyExclusive("conclusion", "actor", "older-than-days")

	return cmd
}

// Criterion builds the run selection criterion from the flag values.
func (o *QueryOptions) Criterion() (prune.Criterion, error) {
	switch {
	case o.Conclusion != "":
		c, err := github.ParseConclusion(o.Conclusion)
		if err != nil {
			return prune.Criterion{}, err
		}
		return prune.ByConclusion(c), nil
	case o.Actor != "":
		return prune.ByActor(o.Actor), nil
	case o.OlderThanDays > 0:
		return prune.ByOlderThan(o.OlderThanDays), nil
	case o.OlderThanDays < 0:
		return prune.Criterion{}, fmt.Errorf("--older-than-days must be positive, got %d", o.OlderThanDays)
	}
	return prune.Criterion{}, errors.New("one of --conclusion, --actor, --older-than-days is required")
}

func runQuery(opts *QueryOptions) error {
	criterion, err := opts.Criterion()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newGitHubClient(cfg)
	if err != nil {
		return err
	}

	results, err := prune.QueryRuns(context.Background(), client, opts.Owner, opts.Repo, opts.Workflow, criterion)
	if err != nil {
		if errors.Is(err, prune.ErrWorkflowNotFound) {
			return fmt.Errorf("workflow %q not found in %s/%s", opts.Workflow, opts.Owner, opts.Repo)
		}
		return err
	}

	return printResults(results, opts.Format)
}

func printResults(results []prune.RunResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "plain":
		for _, r := range results {
			fmt.Printf("%s/%s %s %s\n", r.Owner, r.Repo, r.Workflow, runIDString(r))
		}
		return nil
	case "table":
		tbl := table.New("OWNER", "REPO", "WORKFLOW", "RUN ID")
		tbl.WithWriter(os.Stdout)
		for _, r := range results {
			tbl.AddRow(r.Owner, r.Repo, r.Workflow, runIDString(r))
		}
		tbl.Print()
		return nil
	}
	return fmt.Errorf("invalid format %q: must be one of table, json, plain", format)
}

func runIDString(r prune.RunResult) string {
	if r.RunID == nil {
		return "-"
	}
	return strconv.FormatInt(*r.RunID, 10)
}
