package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	"github.com/stretchr/testify/mock"
)

// Quotas is a mock implementation of awsapi.QuotasAPI
type Quotas struct {
	mock.Mock
}

func (m *Quotas) GetServiceQuota(ctx context.Context, params *servicequotas.GetServiceQuotaInput, optFns ...func(*servicequotas.Options)) (*servicequotas.GetServiceQuotaOutput, error) {
	args := m.Called(ctx, params)
	if out, ok := args.Get(0).(*servicequotas.GetServiceQuotaOutput); ok {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}
