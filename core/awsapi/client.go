package awsapi

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// EC2API is the subset of the EC2 client used by the synchronizer.
// The method set matches the generated client, so *ec2.Client satisfies it
// and the SDK paginators accept it.
type EC2API interface {
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	DescribeNetworkInterfaces(ctx context.Context, params *ec2.DescribeNetworkInterfacesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeNetworkInterfacesOutput, error)
	DescribeManagedPrefixLists(ctx context.Context, params *ec2.DescribeManagedPrefixListsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeManagedPrefixListsOutput, error)
	GetManagedPrefixListEntries(ctx context.Context, params *ec2.GetManagedPrefixListEntriesInput, optFns ...func(*ec2.Options)) (*ec2.GetManagedPrefixListEntriesOutput, error)
	ModifyManagedPrefixList(ctx context.Context, params *ec2.ModifyManagedPrefixListInput, optFns ...func(*ec2.Options)) (*ec2.ModifyManagedPrefixListOutput, error)
	CreateManagedPrefixList(ctx context.Context, params *ec2.CreateManagedPrefixListInput, optFns ...func(*ec2.Options)) (*ec2.CreateManagedPrefixListOutput, error)
}

// SSMAPI is the subset of the SSM client used by the parameter store registry.
type SSMAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	DeleteParameter(ctx context.Context, params *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error)
}

// SNSAPI is the subset of the SNS client used by the report notifier.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// QuotasAPI is the subset of the Service Quotas client used during onboarding.
type QuotasAPI interface {
	GetServiceQuota(ctx context.Context, params *servicequotas.GetServiceQuotaInput, optFns ...func(*servicequotas.Options)) (*servicequotas.GetServiceQuotaOutput, error)
}

// Clients bundles the per-region service clients the synchronizer talks to.
type Clients struct {
	Region string
	EC2    EC2API
	SSM    SSMAPI
	SNS    SNSAPI
	Quotas QuotasAPI
}

// Provider hands out Clients for a region. Adapters depend on this interface
// instead of the concrete Factory so tests can inject mock service clients.
type Provider interface {
	ForRegion(ctx context.Context, region string) (*Clients, error)
}

// Factory builds and caches regional client bundles. Mappings may point at
// prefix lists in other regions, so one process routinely holds clients for
// several regions at once. The cache lives in the factory instance, never in
// package state.
type Factory struct {
	home string

	mu    sync.Mutex
	cache map[string]*Clients
}

// NewFactory creates a client factory with the given home region.
func NewFactory(cfg Config) *Factory {
	return &Factory{
		home:  cfg.Region,
		cache: make(map[string]*Clients),
	}
}

// HomeRegion returns the configured home region.
func (f *Factory) HomeRegion() string {
	return f.home
}

// ForRegion returns the client bundle for a region, building it on first use.
// An empty region selects the home region.
func (f *Factory) ForRegion(ctx context.Context, region string) (*Clients, error) {
	if region == "" {
		region = f.home
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if clients, ok := f.cache[region]; ok {
		return clients, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for region %s: %w", region, err)
	}

	clients := &Clients{
		Region: region,
		EC2:    ec2.NewFromConfig(cfg),
		SSM:    ssm.NewFromConfig(cfg),
		SNS:    sns.NewFromConfig(cfg),
		Quotas: servicequotas.NewFromConfig(cfg),
	}
	f.cache[region] = clients

	return clients, nil
}
