package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/stretchr/testify/mock"
)

// SSM is a mock implementation of awsapi.SSMAPI
type SSM struct {
	mock.Mock
}

func (m *SSM) GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*ssm.GetParametersByPathOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SSM) PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*ssm.PutParameterOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SSM) DeleteParameter(ctx context.Context, params *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*ssm.DeleteParameterOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}
