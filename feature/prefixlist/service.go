package prefixlist

import (
	"context"
	"fmt"
	"net/netip"
	"sort"
	"strings"
	"time"

	"sg2pl/core/awsapi"
	"sg2pl/core/reconcile"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pollInterval paces the wait for a prefix list to settle after a mutation.
const pollInterval = time.Second

// Service reads and mutates managed prefix lists, translating provider
// failures into the engine's error taxonomy.
type Service struct {
	provider   awsapi.Provider
	logger     *zap.Logger
	managedTag string
}

// NewService creates a new prefix list service. managedTag is the
// description prefix that marks entries as owned by this system.
func NewService(provider awsapi.Provider, logger *zap.Logger, managedTag string) *Service {
	return &Service{
		provider:   provider,
		logger:     logger,
		managedTag: managedTag,
	}
}

// Read returns the current state of a prefix list. Entries count as managed
// only when they are a /32 IPv4 prefix carrying the ownership tag in their
// description; everything else is foreign and only counted, never touched.
func (s *Service) Read(ctx context.Context, prefixListID, region string) (*reconcile.PrefixListState, error) {
	clients, err := s.provider.ForRegion(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("clients for %s: %w", region, err)
	}

	pl, err := describeOne(ctx, clients.EC2, prefixListID)
	if err != nil {
		return nil, err
	}
	switch pl.State {
	case types.PrefixListStateDeleteInProgress, types.PrefixListStateDeleteComplete:
		return nil, fmt.Errorf("prefix list %s is deleted: %w", prefixListID, reconcile.ErrNotFound)
	}

	state := &reconcile.PrefixListState{
		ID:         prefixListID,
		Version:    aws.ToInt64(pl.Version),
		MaxEntries: int(aws.ToInt32(pl.MaxEntries)),
	}

	paginator := ec2.NewGetManagedPrefixListEntriesPaginator(clients.EC2, &ec2.GetManagedPrefixListEntriesInput{
		PrefixListId: aws.String(prefixListID),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translate("get prefix list entries", err)
		}
		for _, entry := range page.Entries {
			state.Total++
			cidr, ok := s.managedCIDR(entry)
			if !ok {
				state.ForeignCount++
				continue
			}
			state.Managed = append(state.Managed, reconcile.Entry{
				CIDR:        cidr,
				Description: aws.ToString(entry.Description),
			})
		}
	}
	sort.Slice(state.Managed, func(i, j int) bool {
		return state.Managed[i].CIDR < state.Managed[j].CIDR
	})

	s.logger.Debug("read prefix list",
		zap.String("prefix_list_id", prefixListID),
		zap.Int64("version", state.Version),
		zap.Int("managed", len(state.Managed)),
		zap.Int("foreign", state.ForeignCount),
	)
	return state, nil
}

// managedCIDR reports whether the entry belongs to this system and returns
// its canonical rendering.
func (s *Service) managedCIDR(entry types.PrefixListEntry) (string, bool) {
	if !strings.HasPrefix(aws.ToString(entry.Description), s.managedTag) {
		return "", false
	}
	p, err := netip.ParsePrefix(aws.ToString(entry.Cidr))
	if err != nil || !p.Addr().Is4() || p.Bits() != 32 {
		return "", false
	}
	return p.String(), true
}

// Mutate applies one batch of changes against the expected version and
// returns the version the list settled on. A list busy with someone else's
// modification surfaces as a version conflict so the caller re-reads
// instead of blindly resending.
func (s *Service) Mutate(ctx context.Context, req reconcile.MutateRequest) (int64, error) {
	clients, err := s.provider.ForRegion(ctx, req.Region)
	if err != nil {
		return 0, fmt.Errorf("clients for %s: %w", req.Region, err)
	}

	input := &ec2.ModifyManagedPrefixListInput{
		PrefixListId:   aws.String(req.PrefixListID),
		CurrentVersion: aws.Int64(req.CurrentVersion),
	}
	for _, e := range req.Add {
		input.AddEntries = append(input.AddEntries, types.AddPrefixListEntry{
			Cidr:        aws.String(e.CIDR),
			Description: aws.String(e.Description),
		})
	}
	for _, cidr := range req.Remove {
		input.RemoveEntries = append(input.RemoveEntries, types.RemovePrefixListEntry{
			Cidr: aws.String(cidr),
		})
	}

	if _, err := clients.EC2.ModifyManagedPrefixList(ctx, input); err != nil {
		code := awsapi.ErrorCode(err)
		switch {
		case code == "PrefixListVersionMismatch", code == "IncorrectState":
			return 0, fmt.Errorf("modify %s at version %d: %v: %w",
				req.PrefixListID, req.CurrentVersion, err, reconcile.ErrVersionConflict)
		case code == "InvalidPrefixListID.NotFound":
			return 0, fmt.Errorf("prefix list %s: %w", req.PrefixListID, reconcile.ErrNotFound)
		case strings.Contains(code, "MaxEntries"):
			return 0, fmt.Errorf("modify %s: %v: %w", req.PrefixListID, err, reconcile.ErrCapacityExceeded)
		default:
			return 0, translate("modify prefix list", err)
		}
	}

	pl, err := s.waitSettled(ctx, clients.EC2, req.PrefixListID)
	if err != nil {
		return 0, err
	}
	return aws.ToInt64(pl.Version), nil
}

// CreateRequest describes a prefix list to provision for a new mapping.
type CreateRequest struct {
	Region     string
	Name       string
	MaxEntries int
	Entries    []reconcile.Entry
	Tags       map[string]string
}

// Create provisions a new managed prefix list, optionally seeded with up to
// one batch of entries, and returns its ID once the list is usable.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	clients, err := s.provider.ForRegion(ctx, req.Region)
	if err != nil {
		return "", fmt.Errorf("clients for %s: %w", req.Region, err)
	}

	input := &ec2.CreateManagedPrefixListInput{
		PrefixListName: aws.String(req.Name),
		AddressFamily:  aws.String("IPv4"),
		MaxEntries:     aws.Int32(int32(req.MaxEntries)),
		ClientToken:    aws.String(uuid.NewString()),
	}
	for _, e := range req.Entries {
		input.Entries = append(input.Entries, types.AddPrefixListEntry{
			Cidr:        aws.String(e.CIDR),
			Description: aws.String(e.Description),
		})
	}
	if len(req.Tags) > 0 {
		spec := types.TagSpecification{ResourceType: types.ResourceTypePrefixList}
		for k, v := range req.Tags {
			spec.Tags = append(spec.Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
		}
		sort.Slice(spec.Tags, func(i, j int) bool {
			return aws.ToString(spec.Tags[i].Key) < aws.ToString(spec.Tags[j].Key)
		})
		input.TagSpecifications = []types.TagSpecification{spec}
	}

	out, err := clients.EC2.CreateManagedPrefixList(ctx, input)
	if err != nil {
		return "", translate("create prefix list", err)
	}
	id := aws.ToString(out.PrefixList.PrefixListId)

	if _, err := s.waitSettled(ctx, clients.EC2, id); err != nil {
		return id, err
	}
	s.logger.Info("created prefix list",
		zap.String("prefix_list_id", id),
		zap.String("region", clients.Region),
		zap.Int("max_entries", req.MaxEntries),
		zap.Int("seeded", len(req.Entries)),
	)
	return id, nil
}

// waitSettled polls until the prefix list leaves its in-progress state.
func (s *Service) waitSettled(ctx context.Context, api awsapi.EC2API, prefixListID string) (*types.ManagedPrefixList, error) {
	for {
		pl, err := describeOne(ctx, api, prefixListID)
		if err != nil {
			return nil, err
		}
		switch pl.State {
		case types.PrefixListStateCreateComplete,
			types.PrefixListStateModifyComplete,
			types.PrefixListStateRestoreComplete:
			return pl, nil
		case types.PrefixListStateDeleteInProgress,
			types.PrefixListStateDeleteComplete:
			return nil, fmt.Errorf("prefix list %s is deleted: %w", prefixListID, reconcile.ErrNotFound)
		case types.PrefixListStateCreateFailed,
			types.PrefixListStateModifyFailed,
			types.PrefixListStateRestoreFailed:
			return nil, fmt.Errorf("prefix list %s in state %s: %s",
				prefixListID, pl.State, aws.ToString(pl.StateMessage))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func describeOne(ctx context.Context, api awsapi.EC2API, prefixListID string) (*types.ManagedPrefixList, error) {
	out, err := api.DescribeManagedPrefixLists(ctx, &ec2.DescribeManagedPrefixListsInput{
		PrefixListIds: []string{prefixListID},
	})
	if err != nil {
		if awsapi.ErrorCode(err) == "InvalidPrefixListID.NotFound" {
			return nil, fmt.Errorf("prefix list %s: %w", prefixListID, reconcile.ErrNotFound)
		}
		return nil, translate("describe prefix list", err)
	}
	if len(out.PrefixLists) == 0 {
		return nil, fmt.Errorf("prefix list %s: %w", prefixListID, reconcile.ErrNotFound)
	}
	return &out.PrefixLists[0], nil
}

// translate maps EC2 failures onto the engine's error taxonomy.
func translate(op string, err error) error {
	switch {
	case awsapi.IsThrottle(err):
		return fmt.Errorf("%s: %v: %w", op, err, reconcile.ErrRateLimited)
	case awsapi.IsServerFault(err), awsapi.IsTransport(err):
		return fmt.Errorf("%s: %v: %w", op, err, reconcile.ErrUpstreamUnavailable)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
