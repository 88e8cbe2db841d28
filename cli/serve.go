package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/korosuke613/ghasweep/api"
	"github.com/korosuke613/ghasweep/sweep"
)

// ServeOptions contains the options for the serve command.
type ServeOptions struct {
	Policies string
}

// NewServeCommand creates the serve command for scheduled sweeping.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a daemon, sweeping on each policy's cron schedule",
		Long: `Register every policy's cron schedule and sweep on it until stopped.
A status API (health, policies, sweep counters) is served alongside
unless disabled via GHSWEEP_WEBAPI_ENABLED=false.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Policies, "policies", "", "policy file path (default from GHSWEEP_POLICY_FILE)")

	return cmd
}

func runServe(opts *ServeOptions) error {
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

	sweeper := sweep.New(client, cfg.Sweep.DeleteWorkers, cfg.Sweep.DryRun, loc)
	for _, p := range policies {
		if err := sweeper.Register(p); err != nil {
			return err
		}
	}

	apiServer := api.NewServer(&cfg.WebAPI, cfg)
	apiServer.SetStatusProvider(sweeper)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	sweeper.Start()

	slog.Info("ghasweep serving",
		"policies", len(policies),
		"dry_run", cfg.Sweep.DryRun,
		"delete_workers", cfg.Sweep.DeleteWorkers,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	slog.Info("received signal, shutting down", "signal", sig.String())

	sweeper.Stop()
	apiServer.Stop()

	slog.Info("ghasweep stopped")
	return nil
}
