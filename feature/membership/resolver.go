package membership

import (
	"context"
	"fmt"
	"net/netip"

	"sg2pl/core/awsapi"
	"sg2pl/core/reconcile"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"go.uber.org/zap"
)

// Service resolves the private IPv4 membership of a security group by
// walking the network interfaces attached to it.
type Service struct {
	provider awsapi.Provider
	logger   *zap.Logger
}

// NewService creates a new membership resolver.
func NewService(provider awsapi.Provider, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// Resolve returns every private IPv4 address, primary and secondary, on
// every network interface associated with the group. A group that no longer
// exists resolves to ErrNotFound rather than an empty set, so a deleted
// group can never silently drain its prefix list.
func (s *Service) Resolve(ctx context.Context, securityGroupID, region string) (reconcile.IPSet, error) {
	clients, err := s.provider.ForRegion(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("clients for %s: %w", region, err)
	}

	groups, err := clients.EC2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		GroupIds: []string{securityGroupID},
	})
	if err != nil {
		code := awsapi.ErrorCode(err)
		if code == "InvalidGroup.NotFound" || code == "InvalidGroupId.Malformed" {
			return nil, fmt.Errorf("security group %s: %w", securityGroupID, reconcile.ErrNotFound)
		}
		return nil, translate("describe security group", err)
	}
	if len(groups.SecurityGroups) == 0 {
		return nil, fmt.Errorf("security group %s: %w", securityGroupID, reconcile.ErrNotFound)
	}

	set := reconcile.NewIPSet()
	pages := 0
	paginator := ec2.NewDescribeNetworkInterfacesPaginator(clients.EC2, &ec2.DescribeNetworkInterfacesInput{
		Filters: []types.Filter{
			{Name: aws.String("group-id"), Values: []string{securityGroupID}},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translate("describe network interfaces", err)
		}
		pages++
		for _, eni := range page.NetworkInterfaces {
			for _, pip := range eni.PrivateIpAddresses {
				if pip.PrivateIpAddress == nil {
					continue
				}
				addr, err := netip.ParseAddr(*pip.PrivateIpAddress)
				if err != nil || !addr.Is4() {
					continue
				}
				set.Add(addr)
			}
		}
	}

	s.logger.Debug("resolved membership",
		zap.String("security_group_id", securityGroupID),
		zap.String("region", clients.Region),
		zap.Int("pages", pages),
		zap.Int("addresses", set.Len()),
	)
	return set, nil
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
