package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"sg2pl/core/awsapi"
	"sg2pl/core/config"
	"sg2pl/core/logger"
	"sg2pl/core/reconcile"
	"sg2pl/core/storage"
	"sg2pl/feature/membership"
	"sg2pl/feature/prefixlist"
	"sg2pl/feature/registry"
	"sg2pl/feature/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	dryRunSync  bool
	syncMapping string
)

// syncCmd runs one batch over the registered mappings and exits.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync batch over the registered mappings",
	Long: `Sync resolves the membership of every registered security group and
reconciles the paired prefix lists in one batch, then exits. The exit code is
non-zero when any mapping failed or only partially converged.

Examples:
  # Sync everything in the registry
  sg2pl sync

  # See what would change without touching anything
  sg2pl sync --dry-run

  # Sync a single ad-hoc mapping, bypassing the registry
  sg2pl sync --mapping sg-0123456789abcdef0@us-east-1=pl-0123456789abcdef0@eu-west-1`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&dryRunSync, "dry-run", false, "Plan changes without mutating any prefix list")
	syncCmd.Flags().StringVar(&syncMapping, "mapping", "", "Sync one ad-hoc mapping (sg-...@region=pl-...@region) instead of the registry")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
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

	var reg reconcile.Registry
	if syncMapping != "" {
		m, err := parseMapping(syncMapping)
		if err != nil {
			return err
		}
		reg = staticRegistry{mapping: m}
	}

	stack, err := buildSyncStack(cfg, logg, reg)
	if err != nil {
		return err
	}

	rep, err := stack.scheduler.RunAll(ctx, dryRunSync)
	if err != nil {
		return err
	}

	printBatchReport(rep, dryRunSync)

	if !rep.Ok() {
		return fmt.Errorf("%d of %d mappings did not converge", rep.Failed+rep.PartialFailures, rep.Total)
	}
	return nil
}

// syncStack bundles the wired batch machinery shared by sync and daemon.
type syncStack struct {
	scheduler *reconcile.Scheduler
	// archive is nil when report archiving is disabled.
	archive *report.ArchiveSink
}

// buildSyncStack wires resolver, prefix list service, orchestrator, sinks
// and scheduler from the configuration. A non-nil reg replaces the mapping
// store as the batch source (used for ad-hoc mappings).
func buildSyncStack(cfg *config.Config, logg *zap.Logger, reg reconcile.Registry) (*syncStack, error) {
	provider := awsapi.NewFactory(cfg.AWS)

	if reg == nil {
		store, err := registry.Open(cfg.Registry, cfg.Database, provider, logg)
		if err != nil {
			return nil, fmt.Errorf("opening mapping registry: %w", err)
		}
		reg = store
	}

	resolver := membership.NewService(provider, logg)
	lists := prefixlist.NewService(provider, logg, cfg.Sync.ManagedTag)
	runner := reconcile.NewOrchestrator(resolver, lists, logg, cfg.Sync)

	sinks := []reconcile.ReportSink{report.NewLogSink(logg)}
	if cfg.Report.SNSTopicARN != "" {
		sinks = append(sinks, report.NewSNSNotifier(provider, cfg.Report.SNSTopicARN, logg))
	}
	var archive *report.ArchiveSink
	if cfg.Report.ArchiveEnabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("connecting to report archive storage: %w", err)
		}
		archive = report.NewArchiveSink(client, cfg.Storage.Bucket, cfg.Report.ArchivePrefix, logg)
		sinks = append(sinks, archive)
	}

	scheduler := reconcile.NewScheduler(reg, runner, sinks, logg, cfg.Sync)
	return &syncStack{scheduler: scheduler, archive: archive}, nil
}

// staticRegistry serves one ad-hoc mapping without touching the store.
type staticRegistry struct {
	mapping reconcile.Mapping
}

func (r staticRegistry) ListMappings(ctx context.Context) ([]reconcile.Mapping, error) {
	return []reconcile.Mapping{r.mapping}, nil
}

// parseMapping parses the sg-...@region=pl-...@region flag syntax.
func parseMapping(s string) (reconcile.Mapping, error) {
	var m reconcile.Mapping
	sides := strings.SplitN(s, "=", 2)
	if len(sides) != 2 {
		return m, fmt.Errorf("mapping %q must look like sg-...@region=pl-...@region", s)
	}
	src := strings.SplitN(sides[0], "@", 2)
	dst := strings.SplitN(sides[1], "@", 2)
	if len(src) != 2 || len(dst) != 2 {
		return m, fmt.Errorf("mapping %q must look like sg-...@region=pl-...@region", s)
	}
	m = reconcile.Mapping{
		SecurityGroupID:  src[0],
		SourceRegion:     src[1],
		PrefixListID:     dst[0],
		PrefixListRegion: dst[1],
	}
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

// printBatchReport writes a per-mapping table and a one-line summary to
// stdout. The structured per-run log lines come from the log sink; this is
// the human-facing view.
func printBatchReport(rep *reconcile.Report, dryRun bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MAPPING\tSTATUS\tPHASE\tADD\tREMOVE\tATTEMPTS\tERROR")
	for _, o := range rep.Outcomes {
		added, removed := o.Added, o.Removed
		if o.DryRun {
			added, removed = o.PlannedAdds, o.PlannedRemoves
		}
		errMsg := o.Error
		if len(errMsg) > 60 {
			errMsg = errMsg[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			o.Key(), o.Status, o.Phase, added, removed, o.Attempts, errMsg)
	}
	w.Flush()

	mode := ""
	if dryRun {
		mode = " (dry-run, nothing was changed)"
	}
	fmt.Printf("\n%d mappings: %d succeeded, %d partial, %d failed in %s%s\n",
		rep.Total, rep.Succeeded, rep.PartialFailures, rep.Failed, rep.Duration.Round(time.Millisecond), mode)
}
