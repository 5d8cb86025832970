package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/stretchr/testify/mock"
)

// EC2 is a mock implementation of awsapi.EC2API
type EC2 struct {
	mock.Mock
}

func (m *EC2) DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*ec2.DescribeSecurityGroupsOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EC2) DescribeNetworkInterfaces(ctx context.Context, params *ec2.DescribeNetworkInterfacesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeNetworkInterfacesOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*ec2.DescribeNetworkInterfacesOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EC2) DescribeManagedPrefixLists(ctx context.Context, params *ec2.DescribeManagedPrefixListsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeManagedPrefixListsOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*ec2.DescribeManagedPrefixListsOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EC2) GetManagedPrefixListEntries(ctx context.Context, params *ec2.GetManagedPrefixListEntriesInput, optFns ...func(*ec2.Options)) (*ec2.GetManagedPrefixListEntriesOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*ec2.GetManagedPrefixListEntriesOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EC2) ModifyManagedPrefixList(ctx context.Context, params *ec2.ModifyManagedPrefixListInput, optFns ...func(*ec2.Options)) (*ec2.ModifyManagedPrefixListOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*ec2.ModifyManagedPrefixListOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EC2) CreateManagedPrefixList(ctx context.Context, params *ec2.CreateManagedPrefixListInput, optFns ...func(*ec2.Options)) (*ec2.CreateManagedPrefixListOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*ec2.CreateManagedPrefixListOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}
