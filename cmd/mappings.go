package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"sg2pl/core/awsapi"
	"sg2pl/core/config"
	"sg2pl/core/logger"
	"sg2pl/feature/registry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for mappings remove
	removeGroup  string
	removeRegion string
	yesRemove    bool
)

// mappingsCmd lists the registry contents.
var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "List registered mappings",
	Long:  `Lists every security group to prefix list mapping in the registry.`,
	RunE:  runMappingsList,
}

// mappingsRemoveCmd unregisters a mapping; the prefix list is kept.
var mappingsRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a mapping from the registry (the prefix list is kept)",
	Long: `Remove stops syncing a security group into its prefix list. The prefix
list itself and its entries are left untouched; delete it manually if it is
no longer referenced anywhere.

Examples:
  sg2pl mappings remove --security-group sg-0123456789abcdef0 --region eu-west-1
  sg2pl mappings remove --security-group sg-0123456789abcdef0 --region eu-west-1 --yes`,
	RunE: runMappingsRemove,
}

func init() {
	mappingsRemoveCmd.Flags().StringVar(&removeGroup, "security-group", "", "Security group of the mapping (required)")
	mappingsRemoveCmd.Flags().StringVar(&removeRegion, "region", "", "Prefix list region of the mapping (required)")
	mappingsRemoveCmd.Flags().BoolVar(&yesRemove, "yes", false, "Auto-confirm removal (non-interactive)")
	_ = mappingsRemoveCmd.MarkFlagRequired("security-group")
	_ = mappingsRemoveCmd.MarkFlagRequired("region")

	mappingsCmd.AddCommand(mappingsRemoveCmd)
	RootCmd.AddCommand(mappingsCmd)
}

func openStore() (registry.Store, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	provider := awsapi.NewFactory(cfg.AWS)
	store, err := registry.Open(cfg.Registry, cfg.Database, provider, logg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening mapping registry: %w", err)
	}
	return store, logg, nil
}

func runMappingsList(cmd *cobra.Command, args []string) error {
	store, logg, err := openStore()
	if err != nil {
		return err
	}
	defer logg.Sync()

	mappings, err := store.ListMappings(context.Background())
	if err != nil {
		return fmt.Errorf("listing mappings: %w", err)
	}
	if len(mappings) == 0 {
		fmt.Println("No mappings registered. Use 'sg2pl onboard' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SECURITY GROUP\tSOURCE REGION\tPREFIX LIST\tPL REGION")
	for _, m := range mappings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			m.SecurityGroupID, m.SourceRegion, m.PrefixListID, m.PrefixListRegion)
	}
	w.Flush()
	fmt.Printf("\n%d mappings\n", len(mappings))
	return nil
}

func runMappingsRemove(cmd *cobra.Command, args []string) error {
	store, logg, err := openStore()
	if err != nil {
		return err
	}
	defer logg.Sync()

	if !confirmRemoval() {
		fmt.Println("Cancelled. No changes were made.")
		return nil
	}

	if err := store.Delete(context.Background(), removeGroup, removeRegion); err != nil {
		return fmt.Errorf("removing mapping for %s in %s: %w", removeGroup, removeRegion, err)
	}

	fmt.Printf("✓ Removed the mapping for %s in %s. The prefix list was kept.\n", removeGroup, removeRegion)
	return nil
}

// confirmRemoval prompts the user for confirmation or uses the --yes flag.
func confirmRemoval() bool {
	if yesRemove {
		fmt.Println("✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("⚠️  Type 'yes' to stop syncing %s into its prefix list: ", removeGroup)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
