package cmd

import (
	"context"
	"fmt"

	"sg2pl/core/awsapi"
	"sg2pl/core/config"
	"sg2pl/core/logger"
	"sg2pl/feature/membership"
	"sg2pl/feature/onboard"
	"sg2pl/feature/prefixlist"
	"sg2pl/feature/registry"

	"github.com/spf13/cobra"
)

var (
	// Flags for the onboard command
	onboardGroup        string
	onboardRegion       string
	onboardSourceRegion string
	onboardMaxEntries   int
)

// onboardCmd creates a prefix list for a security group and registers it.
var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create a prefix list for a security group and register the mapping",
	Long: `Onboard resolves the current membership of a security group, creates a
sized prefix list in the target region seeded with up to one batch of
entries, registers the mapping and runs a first sync to converge anything
unseeded.

Examples:
  # Mirror a group into a prefix list in another region
  sg2pl onboard --security-group sg-0123456789abcdef0 --region eu-west-1

  # Source region differs from the home region
  sg2pl onboard --security-group sg-0123456789abcdef0 --source-region us-west-2 --region eu-west-1

  # Force an exact list size instead of the computed one
  sg2pl onboard --security-group sg-0123456789abcdef0 --region eu-west-1 --max-entries 60`,
	RunE: runOnboard,
}

func init() {
	onboardCmd.Flags().StringVar(&onboardGroup, "security-group", "", "Security group to mirror (required)")
	onboardCmd.Flags().StringVar(&onboardRegion, "region", "", "Region the prefix list is created in (required)")
	onboardCmd.Flags().StringVar(&onboardSourceRegion, "source-region", "", "Region of the security group (defaults to the home region)")
	onboardCmd.Flags().IntVar(&onboardMaxEntries, "max-entries", 0, "Exact list size (default: membership plus headroom, clamped to quota)")
	_ = onboardCmd.MarkFlagRequired("security-group")
	_ = onboardCmd.MarkFlagRequired("region")
	RootCmd.AddCommand(onboardCmd)
}

func runOnboard(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Sync = cfg.Sync.Normalize()

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logg.Sync()

	provider := awsapi.NewFactory(cfg.AWS)
	store, err := registry.Open(cfg.Registry, cfg.Database, provider, logg)
	if err != nil {
		return fmt.Errorf("opening mapping registry: %w", err)
	}

	resolver := membership.NewService(provider, logg)
	lists := prefixlist.NewService(provider, logg, cfg.Sync.ManagedTag)
	svc := onboard.NewService(store, resolver, lists, provider, logg, cfg.Onboard, cfg.Sync.ManagedTag)

	sourceRegion := onboardSourceRegion
	if sourceRegion == "" {
		sourceRegion = cfg.AWS.Region
	}

	res, err := svc.Onboard(ctx, onboard.Request{
		SecurityGroupID:  onboardGroup,
		SourceRegion:     sourceRegion,
		PrefixListRegion: onboardRegion,
		MaxEntries:       onboardMaxEntries,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Created %s in %s (max %d entries) and registered the mapping\n",
		res.Mapping.PrefixListID, res.Mapping.PrefixListRegion, res.MaxEntries)
	if res.Seeded < res.Members {
		fmt.Printf("  Seeded %d of %d members, running a first sync for the rest...\n", res.Seeded, res.Members)
	} else {
		fmt.Printf("  Seeded all %d current members, verifying with a first sync...\n", res.Members)
	}

	stack, err := buildSyncStack(cfg, logg, staticRegistry{mapping: res.Mapping})
	if err != nil {
		return err
	}
	rep, err := stack.scheduler.RunAll(ctx, false)
	if err != nil {
		return err
	}
	printBatchReport(rep, false)
	if !rep.Ok() {
		return fmt.Errorf("initial sync of %s did not converge", res.Mapping.PrefixListID)
	}
	return nil
}
