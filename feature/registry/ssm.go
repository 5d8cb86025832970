package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"sg2pl/core/awsapi"
	"sg2pl/core/reconcile"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"go.uber.org/zap"
)

// SSMStore keeps mappings as parameters under a common path:
//
//	{path}/{security-group-id}/{prefix-list-region} = {prefix-list-id}
//
// Parameters live in the home region, which is also taken as the source
// region of every mapping. Use the mysql backend when groups must be
// synced out of other source regions.
type SSMStore struct {
	provider awsapi.Provider
	path     string
	logger   *zap.Logger
}

// NewSSMStore creates a parameter store backed registry rooted at path.
func NewSSMStore(provider awsapi.Provider, path string, logger *zap.Logger) *SSMStore {
	return &SSMStore{
		provider: provider,
		path:     strings.TrimRight(path, "/"),
		logger:   logger,
	}
}

// ListMappings returns every registered mapping, sorted by mapping key.
func (s *SSMStore) ListMappings(ctx context.Context) ([]reconcile.Mapping, error) {
	clients, err := s.provider.ForRegion(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("clients for home region: %w", err)
	}

	var mappings []reconcile.Mapping
	paginator := ssm.NewGetParametersByPathPaginator(clients.SSM, &ssm.GetParametersByPathInput{
		Path:      aws.String(s.path + "/"),
		Recursive: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateSSM("list mappings", err)
		}
		for _, param := range page.Parameters {
			m, ok := s.parse(param, clients.Region)
			if !ok {
				s.logger.Warn("skipping malformed mapping parameter",
					zap.String("name", aws.ToString(param.Name)),
				)
				continue
			}
			mappings = append(mappings, m)
		}
	}
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].Key() < mappings[j].Key()
	})
	return mappings, nil
}

// parse turns a parameter back into a mapping. The two path segments after
// the root are the security group ID and the prefix list region.
func (s *SSMStore) parse(param ssmtypes.Parameter, homeRegion string) (reconcile.Mapping, bool) {
	rel := strings.TrimPrefix(aws.ToString(param.Name), s.path+"/")
	parts := strings.Split(rel, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return reconcile.Mapping{}, false
	}
	m := reconcile.Mapping{
		SecurityGroupID:  parts[0],
		SourceRegion:     homeRegion,
		PrefixListID:     aws.ToString(param.Value),
		PrefixListRegion: parts[1],
	}
	if err := m.Validate(); err != nil {
		return reconcile.Mapping{}, false
	}
	return m, true
}

// Put registers a mapping without overwriting an existing one.
func (s *SSMStore) Put(ctx context.Context, m reconcile.Mapping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	clients, err := s.provider.ForRegion(ctx, "")
	if err != nil {
		return fmt.Errorf("clients for home region: %w", err)
	}
	if m.SourceRegion != clients.Region {
		return fmt.Errorf("the ssm backend stores mappings for home region (%s) groups only, got %s; use the mysql backend",
			clients.Region, m.SourceRegion)
	}

	_, err = clients.SSM.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(s.name(m.SecurityGroupID, m.PrefixListRegion)),
		Value:       aws.String(m.PrefixListID),
		Type:        ssmtypes.ParameterTypeString,
		Overwrite:   aws.Bool(false),
		Description: aws.String("sg2pl mapping"),
	})
	if err != nil {
		if awsapi.ErrorCode(err) == "ParameterAlreadyExists" {
			return fmt.Errorf("%s in %s: %w", m.SecurityGroupID, m.PrefixListRegion, ErrAlreadyRegistered)
		}
		return translateSSM("put mapping", err)
	}

	s.logger.Info("registered mapping", zap.String("mapping", m.Key()))
	return nil
}

// Delete removes a mapping.
func (s *SSMStore) Delete(ctx context.Context, securityGroupID, prefixListRegion string) error {
	clients, err := s.provider.ForRegion(ctx, "")
	if err != nil {
		return fmt.Errorf("clients for home region: %w", err)
	}

	_, err = clients.SSM.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(s.name(securityGroupID, prefixListRegion)),
	})
	if err != nil {
		if awsapi.ErrorCode(err) == "ParameterNotFound" {
			return fmt.Errorf("%s in %s: %w", securityGroupID, prefixListRegion, reconcile.ErrNotFound)
		}
		return translateSSM("delete mapping", err)
	}

	s.logger.Info("removed mapping",
		zap.String("security_group_id", securityGroupID),
		zap.String("prefix_list_region", prefixListRegion),
	)
	return nil
}

func (s *SSMStore) name(securityGroupID, prefixListRegion string) string {
	return s.path + "/" + securityGroupID + "/" + prefixListRegion
}

// translateSSM maps parameter store failures onto the engine's error taxonomy.
func translateSSM(op string, err error) error {
	switch {
	case awsapi.IsThrottle(err):
		return fmt.Errorf("%s: %v: %w", op, err, reconcile.ErrRateLimited)
	case awsapi.IsServerFault(err), awsapi.IsTransport(err):
		return fmt.Errorf("%s: %v: %w", op, err, reconcile.ErrUpstreamUnavailable)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
