package membership_test

import (
	"context"
	"errors"
	"testing"

	"sg2pl/core/awsapi"
	"sg2pl/core/awsapi/mocks"
	"sg2pl/core/reconcile"
	"sg2pl/feature/membership"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// staticProvider hands the same client bundle to every region request.
type staticProvider struct {
	clients *awsapi.Clients
	err     error
}

func (p *staticProvider) ForRegion(ctx context.Context, region string) (*awsapi.Clients, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.clients, nil
}

func sgOutput(id string) *ec2.DescribeSecurityGroupsOutput {
	return &ec2.DescribeSecurityGroupsOutput{
		SecurityGroups: []types.SecurityGroup{{GroupId: aws.String(id)}},
	}
}

func TestResolve_CollectsAcrossPages(t *testing.T) {
	ec2Mock := new(mocks.EC2)
	ec2Mock.On("DescribeSecurityGroups", mock.Anything, mock.Anything).
		Return(sgOutput("sg-0123456789abcdef0"), nil)

	// First page: filtered by group-id, no token yet.
	ec2Mock.On("DescribeNetworkInterfaces", mock.Anything, mock.MatchedBy(func(in *ec2.DescribeNetworkInterfacesInput) bool {
		return in.NextToken == nil &&
			len(in.Filters) == 1 &&
			*in.Filters[0].Name == "group-id" &&
			in.Filters[0].Values[0] == "sg-0123456789abcdef0"
	})).Return(&ec2.DescribeNetworkInterfacesOutput{
		NetworkInterfaces: []types.NetworkInterface{
			{
				PrivateIpAddresses: []types.NetworkInterfacePrivateIpAddress{
					{PrivateIpAddress: aws.String("10.0.1.5"), Primary: aws.Bool(true)},
					{PrivateIpAddress: aws.String("10.0.1.6")},
				},
			},
		},
		NextToken: aws.String("page-2"),
	}, nil).Once()

	// Second page: same IP on another interface plus junk entries.
	ec2Mock.On("DescribeNetworkInterfaces", mock.Anything, mock.MatchedBy(func(in *ec2.DescribeNetworkInterfacesInput) bool {
		return in.NextToken != nil && *in.NextToken == "page-2"
	})).Return(&ec2.DescribeNetworkInterfacesOutput{
		NetworkInterfaces: []types.NetworkInterface{
			{
				PrivateIpAddresses: []types.NetworkInterfacePrivateIpAddress{
					{PrivateIpAddress: aws.String("10.0.1.5")},
					{PrivateIpAddress: aws.String("10.0.2.9"), Primary: aws.Bool(true)},
					{PrivateIpAddress: nil},
					{PrivateIpAddress: aws.String("fe80::1")},
				},
			},
		},
	}, nil).Once()

	svc := membership.NewService(&staticProvider{clients: &awsapi.Clients{Region: "us-east-1", EC2: ec2Mock}}, zap.NewNop())

	set, err := svc.Resolve(context.Background(), "sg-0123456789abcdef0", "us-east-1")

	assert.NoError(t, err)
	assert.Equal(t, []string{"10.0.1.5/32", "10.0.1.6/32", "10.0.2.9/32"}, set.CIDRs())
	ec2Mock.AssertExpectations(t)
}

func TestResolve_SecurityGroupGone(t *testing.T) {
	ec2Mock := new(mocks.EC2)
	ec2Mock.On("DescribeSecurityGroups", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "InvalidGroup.NotFound", Message: "does not exist"})

	svc := membership.NewService(&staticProvider{clients: &awsapi.Clients{Region: "us-east-1", EC2: ec2Mock}}, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "sg-0123456789abcdef0", "us-east-1")

	assert.ErrorIs(t, err, reconcile.ErrNotFound)
	assert.Contains(t, err.Error(), "sg-0123456789abcdef0")
	ec2Mock.AssertNotCalled(t, "DescribeNetworkInterfaces", mock.Anything, mock.Anything)
}

func TestResolve_EmptyGroup(t *testing.T) {
	ec2Mock := new(mocks.EC2)
	ec2Mock.On("DescribeSecurityGroups", mock.Anything, mock.Anything).
		Return(sgOutput("sg-0123456789abcdef0"), nil)
	ec2Mock.On("DescribeNetworkInterfaces", mock.Anything, mock.Anything).
		Return(&ec2.DescribeNetworkInterfacesOutput{}, nil)

	svc := membership.NewService(&staticProvider{clients: &awsapi.Clients{Region: "us-east-1", EC2: ec2Mock}}, zap.NewNop())

	set, err := svc.Resolve(context.Background(), "sg-0123456789abcdef0", "us-east-1")

	// An existing group with no interfaces is a legitimate empty set; the
	// caller drains the prefix list accordingly.
	assert.NoError(t, err)
	assert.Zero(t, set.Len())
}

func TestResolve_Throttled(t *testing.T) {
	ec2Mock := new(mocks.EC2)
	ec2Mock.On("DescribeSecurityGroups", mock.Anything, mock.Anything).
		Return(sgOutput("sg-0123456789abcdef0"), nil)
	ec2Mock.On("DescribeNetworkInterfaces", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "RequestLimitExceeded", Message: "slow down"})

	svc := membership.NewService(&staticProvider{clients: &awsapi.Clients{Region: "us-east-1", EC2: ec2Mock}}, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "sg-0123456789abcdef0", "us-east-1")

	assert.ErrorIs(t, err, reconcile.ErrRateLimited)
}

func TestResolve_ProviderError(t *testing.T) {
	svc := membership.NewService(&staticProvider{err: errors.New("no credentials")}, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "sg-0123456789abcdef0", "eu-west-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "eu-west-1")
}
