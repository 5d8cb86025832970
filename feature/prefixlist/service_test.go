package prefixlist_test

import (
	"context"
	"testing"

	"sg2pl/core/awsapi"
	"sg2pl/core/awsapi/mocks"
	"sg2pl/core/reconcile"
	"sg2pl/feature/prefixlist"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticProvider struct {
	clients *awsapi.Clients
}

func (p *staticProvider) ForRegion(ctx context.Context, region string) (*awsapi.Clients, error) {
	return p.clients, nil
}

func newService(ec2Mock *mocks.EC2) *prefixlist.Service {
	provider := &staticProvider{clients: &awsapi.Clients{Region: "eu-west-1", EC2: ec2Mock}}
	return prefixlist.NewService(provider, zap.NewNop(), "sg2pl:")
}

func describeOutput(state types.PrefixListState, version int64) *ec2.DescribeManagedPrefixListsOutput {
	return &ec2.DescribeManagedPrefixListsOutput{
		PrefixLists: []types.ManagedPrefixList{{
			PrefixListId: aws.String("pl-0123456789abcdef0"),
			State:        state,
			Version:      aws.Int64(version),
			MaxEntries:   aws.Int32(50),
		}},
	}
}

func TestRead_PartitionsManagedAndForeign(t *testing.T) {
	ec2Mock := new(mocks.EC2)
	ec2Mock.On("DescribeManagedPrefixLists", mock.Anything, mock.Anything).
		Return(describeOutput(types.PrefixListStateModifyComplete, 7), nil)

	ec2Mock.On("GetManagedPrefixListEntries", mock.Anything, mock.MatchedBy(func(in *ec2.GetManagedPrefixListEntriesInput) bool {
		return in.NextToken == nil
	})).Return(&ec2.GetManagedPrefixListEntriesOutput{
		Entries: []types.PrefixListEntry{
			{Cidr: aws.String("10.0.1.9/32"), Description: aws.String("sg2pl:sg-abc")},
			{Cidr: aws.String("203.0.113.0/24"), Description: aws.String("corp office")},
		},
		NextToken: aws.String("page-2"),
	}, nil).Once()

	ec2Mock.On("GetManagedPrefixListEntries", mock.Anything, mock.MatchedBy(func(in *ec2.GetManagedPrefixListEntriesInput) bool {
		return in.NextToken != nil && *in.NextToken == "page-2"
	})).Return(&ec2.GetManagedPrefixListEntriesOutput{
		Entries: []types.PrefixListEntry{
			{Cidr: aws.String("10.0.1.5/32"), Description: aws.String("sg2pl:sg-abc")},
			// Untagged /32 entered by hand: foreign.
			{Cidr: aws.String("10.0.2.2/32"), Description: aws.String("added manually")},
			// Tagged but wider than /32: foreign, never removed.
			{Cidr: aws.String("10.0.3.0/24"), Description: aws.String("sg2pl:sg-abc")},
		},
	}, nil).Once()

	state, err := newService(ec2Mock).Read(context.Background(), "pl-0123456789abcdef0", "eu-west-1")

	require.NoError(t, err)
	assert.Equal(t, int64(7), state.Version)
	assert.Equal(t, 50, state.MaxEntries)
	assert.Equal(t, 5, state.Total)
	assert.Equal(t, 3, state.ForeignCount)
	require.Len(t, state.Managed, 2)
	assert.Equal(t, "10.0.1.5/32", state.Managed[0].CIDR)
	assert.Equal(t, "10.0.1.9/32", state.Managed[1].CIDR)
}

func TestRead_NotFound(t *testing.T) {
	ec2Mock := new(mocks.EC2)
	ec2Mock.On("DescribeManagedPrefixLists", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "InvalidPrefixListID.NotFound", Message: "no such list"})

	_, err := newService(ec2Mock).Read(context.Background(), "pl-0123456789abcdef0", "eu-west-1")

	assert.ErrorIs(t, err, reconcile.ErrNotFound)
}

func TestRead_DeletedList(t *testing.T) {
	ec2Mock := new(mocks.EC2)
	ec2Mock.On("DescribeManagedPrefixLists", mock.Anything, mock.Anything).
		Return(describeOutput(types.PrefixListStateDeleteInProgress, 9), nil)

	_, err := newService(ec2Mock).Read(context.Background(), "pl-0123456789abcdef0", "eu-west-1")

	assert.ErrorIs(t, err, reconcile.ErrNotFound)
	ec2Mock.AssertNotCalled(t, "GetManagedPrefixListEntries", mock.Anything, mock.Anything)
}

func TestMutate_Success(t *testing.T) {
	ec2Mock := new(mocks.EC2)
	ec2Mock.On("ModifyManagedPrefixList", mock.Anything, mock.MatchedBy(func(in *ec2.ModifyManagedPrefixListInput) bool {
		return aws.ToInt64(in.CurrentVersion) == 7 &&
			len(in.AddEntries) == 1 &&
			aws.ToString(in.AddEntries[0].Cidr) == "10.0.1.9/32" &&
			aws.ToString(in.AddEntries[0].Description) == "sg2pl:sg-abc" &&
			len(in.RemoveEntries) == 1 &&
			aws.ToString(in.RemoveEntries[0].Cidr) == "10.0.2.1/32"
	})).Return(&ec2.ModifyManagedPrefixListOutput{}, nil)
	ec2Mock.On("DescribeManagedPrefixLists", mock.Anything, mock.Anything).
		Return(describeOutput(types.PrefixListStateModifyComplete, 8), nil)

	version, err := newService(ec2Mock).Mutate(context.Background(), reconcile.MutateRequest{
		PrefixListID:   "pl-0123456789abcdef0",
		Region:         "eu-west-1",
		CurrentVersion: 7,
		Add:            []reconcile.Entry{{CIDR: "10.0.1.9/32", Description: "sg2pl:sg-abc"}},
		Remove:         []string{"10.0.2.1/32"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(8), version)
	ec2Mock.AssertExpectations(t)
}

func TestMutate_WaitsForSettle(t *testing.T) {
	ec2Mock := new(mocks.EC2)
	ec2Mock.On("ModifyManagedPrefixList", mock.Anything, mock.Anything).
		Return(&ec2.ModifyManagedPrefixListOutput{}, nil)
	ec2Mock.On("DescribeManagedPrefixLists", mock.Anything, mock.Anything).
		Return(describeOutput(types.PrefixListStateModifyInProgress, 7), nil).Once()
	ec2Mock.On("DescribeManagedPrefixLists", mock.Anything, mock.Anything).
		Return(describeOutput(types.PrefixListStateModifyComplete, 8), nil)

	version, err := newService(ec2Mock).Mutate(context.Background(), reconcile.MutateRequest{
		PrefixListID:   "pl-0123456789abcdef0",
		Region:         "eu-west-1",
		CurrentVersion: 7,
		Remove:         []string{"10.0.2.1/32"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(8), version)
}

func TestMutate_ErrorTranslation(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{name: "stale version", code: "PrefixListVersionMismatch", want: reconcile.ErrVersionConflict},
		{name: "busy list", code: "IncorrectState", want: reconcile.ErrVersionConflict},
		{name: "gone", code: "InvalidPrefixListID.NotFound", want: reconcile.ErrNotFound},
		{name: "capacity", code: "PrefixListMaxEntriesExceeded", want: reconcile.ErrCapacityExceeded},
		{name: "throttled", code: "RequestLimitExceeded", want: reconcile.ErrRateLimited},
		{name: "server fault", code: "ServiceUnavailable", want: reconcile.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec2Mock := new(mocks.EC2)
			ec2Mock.On("ModifyManagedPrefixList", mock.Anything, mock.Anything).
				Return(nil, &smithy.GenericAPIError{Code: tt.code, Message: tt.name})

			_, err := newService(ec2Mock).Mutate(context.Background(), reconcile.MutateRequest{
				PrefixListID:   "pl-0123456789abcdef0",
				Region:         "eu-west-1",
				CurrentVersion: 7,
				Remove:         []string{"10.0.2.1/32"},
			})

			assert.ErrorIs(t, err, tt.want)
			ec2Mock.AssertNotCalled(t, "DescribeManagedPrefixLists", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_SeedsAndTags(t *testing.T) {
	ec2Mock := new(mocks.EC2)
	ec2Mock.On("CreateManagedPrefixList", mock.Anything, mock.MatchedBy(func(in *ec2.CreateManagedPrefixListInput) bool {
		return aws.ToString(in.PrefixListName) == "sg2pl-sg-abc" &&
			aws.ToString(in.AddressFamily) == "IPv4" &&
			aws.ToInt32(in.MaxEntries) == 35 &&
			aws.ToString(in.ClientToken) != "" &&
			len(in.Entries) == 1 &&
			len(in.TagSpecifications) == 1 &&
			in.TagSpecifications[0].ResourceType == types.ResourceTypePrefixList
	})).Return(&ec2.CreateManagedPrefixListOutput{
		PrefixList: &types.ManagedPrefixList{
			PrefixListId: aws.String("pl-0fedcba9876543210"),
			State:        types.PrefixListStateCreateInProgress,
		},
	}, nil)
	ec2Mock.On("DescribeManagedPrefixLists", mock.Anything, mock.Anything).
		Return(&ec2.DescribeManagedPrefixListsOutput{
			PrefixLists: []types.ManagedPrefixList{{
				PrefixListId: aws.String("pl-0fedcba9876543210"),
				State:        types.PrefixListStateCreateComplete,
				Version:      aws.Int64(1),
			}},
		}, nil)

	id, err := newService(ec2Mock).Create(context.Background(), prefixlist.CreateRequest{
		Region:     "eu-west-1",
		Name:       "sg2pl-sg-abc",
		MaxEntries: 35,
		Entries:    []reconcile.Entry{{CIDR: "10.0.1.5/32", Description: "sg2pl:sg-abc"}},
		Tags:       map[string]string{"ManagedBy": "sg2pl"},
	})

	require.NoError(t, err)
	assert.Equal(t, "pl-0fedcba9876543210", id)
}
