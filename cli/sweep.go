package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/korosuke613/ghasweep/sweep"
)

// SweepOptions contains the options for the sweep command.
type SweepOptions struct {
	Policies string
	DryRun   bool
}

// NewSweepCommand creates the sweep command for one-shot policy application.
func NewSweepCommand() *cobra.Command {
	opts := &SweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Apply every retention policy once and exit",
		Long: `Load a policy file and apply each policy once, ignoring schedules.
With --dry-run the matched run IDs are logged but nothing is deleted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Policies, "policies", "", "policy file path (default from GHSWEEP_POLICY_FILE)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "log matched runs without deleting")

	return cmd
}

func runSweep(opts *SweepOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	policyFile := opts.Policies
	if policyFile == "" {
		policyFile = cfg.Sweep.PolicyFile
	}

	policies, err := sweep.LoadPolicies(policyFile)
	if err != nil {
		return err
	}

	client, err := newGitHubClient(cfg)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.Sweep.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	dryRun := opts.DryRun || cfg.Sweep.DryRun
	sweeper := sweep.New(client, cfg.Sweep.DeleteWorkers, dryRun, loc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var totalDeleted, failures int
	for _, p := range policies {
		deleted, err := sweeper.Apply(ctx, p)
		totalDeleted += deleted
		if err != nil {
			failures++
			fmt.Printf("policy %s: %v\n", p.Key(), err)
			continue
		}
		fmt.Printf("policy %s: deleted %d runs\n", p.Key(), deleted)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d policies failed (deleted %d runs)", failures, len(policies), totalDeleted)
	}
	fmt.Printf("swept %d policies, deleted %d runs\n", len(policies), totalDeleted)
	return nil
}
