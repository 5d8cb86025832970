package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"sg2pl/core/awsapi"
	"sg2pl/core/config"
	"sg2pl/core/reconcile"
	"sg2pl/feature/membership"
	"sg2pl/feature/prefixlist"

	"go.uber.org/zap"
)

// Ad-hoc diff inspector: resolves a group, reads a list, prints what a sync
// run would do without mutating anything.
//
// Usage: go run ./cmd/debug_diff sg-... <sg-region> pl-... <pl-region>
func main() {
	if len(os.Args) != 5 {
		fmt.Println("usage: debug_diff <security-group-id> <sg-region> <prefix-list-id> <pl-region>")
		os.Exit(2)
	}
	sgID, sgRegion, plID, plRegion := os.Args[1], os.Args[2], os.Args[3], os.Args[4]

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}
	cfg.Sync = cfg.Sync.Normalize()

	logg := zap.NewNop()
	provider := awsapi.NewFactory(cfg.AWS)
	resolver := membership.NewService(provider, logg)
	lists := prefixlist.NewService(provider, logg, cfg.Sync.ManagedTag)

	ctx := context.Background()

	fmt.Println("=== Desired membership ===")
	set, err := resolver.Resolve(ctx, sgID, sgRegion)
	if err != nil {
		log.Fatal(err)
	}
	desired := set.CIDRs()
	fmt.Printf("%d addresses behind %s\n", len(desired), sgID)
	for _, c := range desired {
		fmt.Println("  " + c)
	}

	fmt.Println("\n=== Prefix list state ===")
	state, err := lists.Read(ctx, plID, plRegion)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("version=%d managed=%d foreign=%d total=%d max=%d\n",
		state.Version, len(state.Managed), state.ForeignCount, state.Total, state.MaxEntries)

	fmt.Println("\n=== Diff ===")
	diff := reconcile.ComputeDiff(desired, state.Managed)
	out, err := json.MarshalIndent(diff, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
	if diff.Empty() {
		fmt.Println("in sync, a run would change nothing")
	}
}
