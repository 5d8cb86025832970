package onboard

import (
	"context"
	"fmt"
	"strings"

	"sg2pl/core/awsapi"
	"sg2pl/core/reconcile"
	"sg2pl/feature/prefixlist"
	"sg2pl/feature/registry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	"go.uber.org/zap"
)

// maxSeedEntries caps how many entries a prefix list is seeded with at
// create time. Anything beyond that converges on the first sync run.
const maxSeedEntries = 100

// Config tunes how new prefix lists are sized.
type Config struct {
	// PaddingPercent is the growth headroom added on top of the current
	// membership when sizing a new list.
	PaddingPercent int `mapstructure:"padding_percent" default:"25"`

	// BaseHeadroom is a flat number of spare entries added regardless of
	// membership size, so tiny groups still have room to grow.
	BaseHeadroom int `mapstructure:"base_headroom" default:"10"`

	// QuotaService and QuotaCode identify the service quota that bounds
	// prefix list size. The defaults point at "Max entries per prefix list".
	QuotaService string `mapstructure:"quota_service" default:"vpc"`
	QuotaCode    string `mapstructure:"quota_code" default:"L-0EA8095F"`
}

// PrefixListCreator provisions prefix lists. *prefixlist.Service implements it.
type PrefixListCreator interface {
	Create(ctx context.Context, req prefixlist.CreateRequest) (string, error)
}

// Request describes the security group to onboard and where its prefix
// list should live.
type Request struct {
	SecurityGroupID  string
	SourceRegion     string
	PrefixListRegion string

	// MaxEntries forces an exact list size. Zero sizes the list from the
	// current membership plus headroom.
	MaxEntries int
}

// Result summarizes a completed onboarding.
type Result struct {
	Mapping    reconcile.Mapping
	Members    int
	MaxEntries int
	Seeded     int
}

// Service creates a prefix list for a security group and registers the
// mapping that keeps the two in sync.
type Service struct {
	store      registry.Store
	resolver   reconcile.MembershipResolver
	lists      PrefixListCreator
	provider   awsapi.Provider
	logger     *zap.Logger
	cfg        Config
	managedTag string
}

// NewService wires an onboarding service. The managed tag must match the
// one the sync engine stamps on entry descriptions, or the first sync will
// not recognize the seeded entries as its own.
func NewService(store registry.Store, resolver reconcile.MembershipResolver, lists PrefixListCreator, provider awsapi.Provider, logger *zap.Logger, cfg Config, managedTag string) *Service {
	return &Service{
		store:      store,
		resolver:   resolver,
		lists:      lists,
		provider:   provider,
		logger:     logger.Named("onboard"),
		cfg:        cfg,
		managedTag: managedTag,
	}
}

// Onboard resolves the group's current membership, provisions a sized
// prefix list in the target region seeded with up to one batch of entries,
// and registers the mapping. The group must not already be mapped to a
// list in that region.
func (s *Service) Onboard(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	existing, err := s.store.ListMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}
	for _, m := range existing {
		if m.SecurityGroupID == req.SecurityGroupID && m.PrefixListRegion == req.PrefixListRegion {
			return nil, fmt.Errorf("%s already maps to %s in %s: %w",
				req.SecurityGroupID, m.PrefixListID, m.PrefixListRegion, registry.ErrAlreadyRegistered)
		}
	}

	members, err := s.resolver.Resolve(ctx, req.SecurityGroupID, req.SourceRegion)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", req.SecurityGroupID, err)
	}
	cidrs := members.CIDRs()

	size, err := s.size(ctx, req, len(cidrs))
	if err != nil {
		return nil, err
	}

	seed := cidrs
	if len(seed) > maxSeedEntries {
		seed = seed[:maxSeedEntries]
	}
	entries := make([]reconcile.Entry, 0, len(seed))
	for _, cidr := range seed {
		entries = append(entries, reconcile.Entry{
			CIDR:        cidr,
			Description: s.managedTag + req.SecurityGroupID,
		})
	}

	name := "sg2pl-" + req.SecurityGroupID
	prefixListID, err := s.lists.Create(ctx, prefixlist.CreateRequest{
		Region:     req.PrefixListRegion,
		Name:       name,
		MaxEntries: size,
		Entries:    entries,
		Tags: map[string]string{
			"Name":                name,
			"sg2pl:source-group":  req.SecurityGroupID,
			"sg2pl:source-region": req.SourceRegion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating prefix list: %w", err)
	}

	mapping := reconcile.Mapping{
		SecurityGroupID:  req.SecurityGroupID,
		SourceRegion:     req.SourceRegion,
		PrefixListID:     prefixListID,
		PrefixListRegion: req.PrefixListRegion,
	}
	if err := s.store.Put(ctx, mapping); err != nil {
		s.logger.Warn("prefix list created but mapping registration failed; register it manually or delete the list",
			zap.String("prefix_list_id", prefixListID),
			zap.String("security_group_id", req.SecurityGroupID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("registering mapping: %w", err)
	}

	s.logger.Info("onboarded security group",
		zap.String("security_group_id", req.SecurityGroupID),
		zap.String("prefix_list_id", prefixListID),
		zap.String("prefix_list_region", req.PrefixListRegion),
		zap.Int("members", members.Len()),
		zap.Int("max_entries", size),
		zap.Int("seeded", len(entries)),
	)
	return &Result{
		Mapping:    mapping,
		Members:    members.Len(),
		MaxEntries: size,
		Seeded:     len(entries),
	}, nil
}

// size picks the list capacity: the explicit request if given, otherwise
// membership plus headroom, clamped to the regional service quota. A size
// the current membership does not fit into is refused outright.
func (s *Service) size(ctx context.Context, req Request, members int) (int, error) {
	size := req.MaxEntries
	if size == 0 {
		size = members + members*s.cfg.PaddingPercent/100 + s.cfg.BaseHeadroom
	}

	limit, err := s.entryQuota(ctx, req.PrefixListRegion)
	switch {
	case err != nil:
		s.logger.Warn("could not read the prefix list size quota, skipping the clamp", zap.Error(err))
	case size > limit:
		s.logger.Warn("requested size exceeds the service quota, clamping",
			zap.Int("requested", size),
			zap.Int("quota", limit),
		)
		size = limit
	}

	if size < members {
		return 0, fmt.Errorf("%d members do not fit a prefix list of %d entries: %w",
			members, size, reconcile.ErrCapacityExceeded)
	}
	return size, nil
}

// entryQuota fetches the per-list entry limit for the target region.
func (s *Service) entryQuota(ctx context.Context, region string) (int, error) {
	clients, err := s.provider.ForRegion(ctx, region)
	if err != nil {
		return 0, fmt.Errorf("clients for %s: %w", region, err)
	}
	out, err := clients.Quotas.GetServiceQuota(ctx, &servicequotas.GetServiceQuotaInput{
		ServiceCode: aws.String(s.cfg.QuotaService),
		QuotaCode:   aws.String(s.cfg.QuotaCode),
	})
	if err != nil {
		return 0, fmt.Errorf("get service quota %s/%s: %w", s.cfg.QuotaService, s.cfg.QuotaCode, err)
	}
	if out.Quota == nil || out.Quota.Value == nil {
		return 0, fmt.Errorf("quota %s/%s has no value", s.cfg.QuotaService, s.cfg.QuotaCode)
	}
	return int(*out.Quota.Value), nil
}

func validate(req Request) error {
	if !strings.HasPrefix(req.SecurityGroupID, "sg-") {
		return fmt.Errorf("invalid security group id %q", req.SecurityGroupID)
	}
	if req.SourceRegion == "" {
		return fmt.Errorf("missing source region for %s", req.SecurityGroupID)
	}
	if req.PrefixListRegion == "" {
		return fmt.Errorf("missing prefix list region for %s", req.SecurityGroupID)
	}
	if req.MaxEntries < 0 {
		return fmt.Errorf("negative max entries %d", req.MaxEntries)
	}
	return nil
}
