package onboard_test

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"sg2pl/core/awsapi"
	"sg2pl/core/awsapi/mocks"
	"sg2pl/core/reconcile"
	"sg2pl/feature/onboard"
	"sg2pl/feature/prefixlist"
	"sg2pl/feature/registry"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/servicequotas"
	sqtypes "github.com/aws/aws-sdk-go-v2/service/servicequotas/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testGroup        = "sg-0aa11bb22cc33dd44"
	testSourceRegion = "us-east-1"
	testListRegion   = "eu-west-1"
)

type fakeStore struct {
	mappings []reconcile.Mapping
	listErr  error
	putErr   error
	puts     []reconcile.Mapping
}

func (s *fakeStore) ListMappings(ctx context.Context) ([]reconcile.Mapping, error) {
	return s.mappings, s.listErr
}

func (s *fakeStore) Put(ctx context.Context, m reconcile.Mapping) error {
	s.puts = append(s.puts, m)
	return s.putErr
}

func (s *fakeStore) Delete(ctx context.Context, securityGroupID, prefixListRegion string) error {
	return nil
}

type fakeResolver struct {
	set   reconcile.IPSet
	err   error
	calls int
}

func (r *fakeResolver) Resolve(ctx context.Context, securityGroupID, region string) (reconcile.IPSet, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.set, nil
}

type fakeCreator struct {
	id    string
	err   error
	calls []prefixlist.CreateRequest
}

func (c *fakeCreator) Create(ctx context.Context, req prefixlist.CreateRequest) (string, error) {
	c.calls = append(c.calls, req)
	if c.err != nil {
		return "", c.err
	}
	return c.id, nil
}

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

func memberSet(n int) reconcile.IPSet {
	s := reconcile.NewIPSet()
	for i := 0; i < n; i++ {
		s.Add(netip.AddrFrom4([4]byte{10, 0, byte(i / 250), byte(i%250 + 1)}))
	}
	return s
}

func quotaOutput(v float64) *servicequotas.GetServiceQuotaOutput {
	return &servicequotas.GetServiceQuotaOutput{
		Quota: &sqtypes.ServiceQuota{Value: aws.Float64(v)},
	}
}

func quotaInput(in *servicequotas.GetServiceQuotaInput) bool {
	return aws.ToString(in.ServiceCode) == "vpc" && aws.ToString(in.QuotaCode) == "L-0EA8095F"
}

func newService(store *fakeStore, resolver *fakeResolver, creator *fakeCreator, quotas *mocks.Quotas) *onboard.Service {
	provider := &staticProvider{clients: &awsapi.Clients{Region: testListRegion, Quotas: quotas}}
	cfg := onboard.Config{PaddingPercent: 25, BaseHeadroom: 10, QuotaService: "vpc", QuotaCode: "L-0EA8095F"}
	return onboard.NewService(store, resolver, creator, provider, zap.NewNop(), cfg, "sg2pl:")
}

func request() onboard.Request {
	return onboard.Request{
		SecurityGroupID:  testGroup,
		SourceRegion:     testSourceRegion,
		PrefixListRegion: testListRegion,
	}
}

func TestService_Onboard_CreatesAndRegisters(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{set: memberSet(8)}
	creator := &fakeCreator{id: "pl-0feedfacecafebeef0"}
	quotas := &mocks.Quotas{}
	quotas.On("GetServiceQuota", mock.Anything, mock.MatchedBy(quotaInput)).Return(quotaOutput(60), nil)

	res, err := newService(store, resolver, creator, quotas).Onboard(context.Background(), request())

	require.NoError(t, err)
	require.Len(t, creator.calls, 1)
	created := creator.calls[0]
	assert.Equal(t, testListRegion, created.Region)
	assert.Equal(t, "sg2pl-"+testGroup, created.Name)
	// 8 members + 25% padding + 10 base headroom
	assert.Equal(t, 20, created.MaxEntries)
	require.Len(t, created.Entries, 8)
	assert.Equal(t, "sg2pl:"+testGroup, created.Entries[0].Description)
	assert.Equal(t, "sg2pl-"+testGroup, created.Tags["Name"])
	assert.Equal(t, testGroup, created.Tags["sg2pl:source-group"])
	assert.Equal(t, testSourceRegion, created.Tags["sg2pl:source-region"])

	require.Len(t, store.puts, 1)
	assert.Equal(t, reconcile.Mapping{
		SecurityGroupID:  testGroup,
		SourceRegion:     testSourceRegion,
		PrefixListID:     "pl-0feedfacecafebeef0",
		PrefixListRegion: testListRegion,
	}, store.puts[0])

	assert.Equal(t, 8, res.Members)
	assert.Equal(t, 20, res.MaxEntries)
	assert.Equal(t, 8, res.Seeded)
	assert.Equal(t, "pl-0feedfacecafebeef0", res.Mapping.PrefixListID)
}

func TestService_Onboard_RejectsDuplicate(t *testing.T) {
	store := &fakeStore{mappings: []reconcile.Mapping{{
		SecurityGroupID:  testGroup,
		SourceRegion:     testSourceRegion,
		PrefixListID:     "pl-0123456789abcdef0",
		PrefixListRegion: testListRegion,
	}}}
	resolver := &fakeResolver{set: memberSet(3)}
	creator := &fakeCreator{id: "pl-0feedfacecafebeef0"}

	_, err := newService(store, resolver, creator, &mocks.Quotas{}).Onboard(context.Background(), request())

	assert.ErrorIs(t, err, registry.ErrAlreadyRegistered)
	assert.Contains(t, err.Error(), "pl-0123456789abcdef0")
	assert.Zero(t, resolver.calls)
	assert.Empty(t, creator.calls)
}

func TestService_Onboard_SameGroupOtherRegionAllowed(t *testing.T) {
	store := &fakeStore{mappings: []reconcile.Mapping{{
		SecurityGroupID:  testGroup,
		SourceRegion:     testSourceRegion,
		PrefixListID:     "pl-0123456789abcdef0",
		PrefixListRegion: "ap-southeast-2",
	}}}
	resolver := &fakeResolver{set: memberSet(3)}
	creator := &fakeCreator{id: "pl-0feedfacecafebeef0"}
	quotas := &mocks.Quotas{}
	quotas.On("GetServiceQuota", mock.Anything, mock.Anything).Return(quotaOutput(60), nil)

	_, err := newService(store, resolver, creator, quotas).Onboard(context.Background(), request())

	require.NoError(t, err)
	assert.Len(t, creator.calls, 1)
}

func TestService_Onboard_ClampsToQuota(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{set: memberSet(8)}
	creator := &fakeCreator{id: "pl-0feedfacecafebeef0"}
	quotas := &mocks.Quotas{}
	quotas.On("GetServiceQuota", mock.Anything, mock.Anything).Return(quotaOutput(15), nil)

	res, err := newService(store, resolver, creator, quotas).Onboard(context.Background(), request())

	require.NoError(t, err)
	assert.Equal(t, 15, res.MaxEntries)
	require.Len(t, creator.calls, 1)
	assert.Equal(t, 15, creator.calls[0].MaxEntries)
}

func TestService_Onboard_QuotaBelowMembership(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{set: memberSet(8)}
	creator := &fakeCreator{}
	quotas := &mocks.Quotas{}
	quotas.On("GetServiceQuota", mock.Anything, mock.Anything).Return(quotaOutput(5), nil)

	_, err := newService(store, resolver, creator, quotas).Onboard(context.Background(), request())

	assert.ErrorIs(t, err, reconcile.ErrCapacityExceeded)
	assert.Empty(t, creator.calls)
}

func TestService_Onboard_ExplicitSizeTooSmall(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{set: memberSet(8)}
	creator := &fakeCreator{}
	quotas := &mocks.Quotas{}
	quotas.On("GetServiceQuota", mock.Anything, mock.Anything).Return(quotaOutput(60), nil)

	req := request()
	req.MaxEntries = 2
	_, err := newService(store, resolver, creator, quotas).Onboard(context.Background(), req)

	assert.ErrorIs(t, err, reconcile.ErrCapacityExceeded)
	assert.Empty(t, creator.calls)
}

func TestService_Onboard_QuotaLookupFailureSkipsClamp(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{set: memberSet(8)}
	creator := &fakeCreator{id: "pl-0feedfacecafebeef0"}
	quotas := &mocks.Quotas{}
	quotas.On("GetServiceQuota", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	res, err := newService(store, resolver, creator, quotas).Onboard(context.Background(), request())

	require.NoError(t, err)
	assert.Equal(t, 20, res.MaxEntries)
}

func TestService_Onboard_SeedsAtMostOneBatch(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{set: memberSet(150)}
	creator := &fakeCreator{id: "pl-0feedfacecafebeef0"}
	quotas := &mocks.Quotas{}
	quotas.On("GetServiceQuota", mock.Anything, mock.Anything).Return(quotaOutput(1000), nil)

	res, err := newService(store, resolver, creator, quotas).Onboard(context.Background(), request())

	require.NoError(t, err)
	assert.Equal(t, 150, res.Members)
	assert.Equal(t, 100, res.Seeded)
	require.Len(t, creator.calls, 1)
	assert.Len(t, creator.calls[0].Entries, 100)
	// 150 members + 25% padding + 10 base headroom
	assert.Equal(t, 197, res.MaxEntries)
}

func TestService_Onboard_GroupMissing(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{err: reconcile.ErrNotFound}
	creator := &fakeCreator{}

	_, err := newService(store, resolver, creator, &mocks.Quotas{}).Onboard(context.Background(), request())

	assert.ErrorIs(t, err, reconcile.ErrNotFound)
	assert.Empty(t, creator.calls)
}

func TestService_Onboard_RegistrationFailure(t *testing.T) {
	store := &fakeStore{putErr: errors.New("parameter store down")}
	resolver := &fakeResolver{set: memberSet(3)}
	creator := &fakeCreator{id: "pl-0feedfacecafebeef0"}
	quotas := &mocks.Quotas{}
	quotas.On("GetServiceQuota", mock.Anything, mock.Anything).Return(quotaOutput(60), nil)

	_, err := newService(store, resolver, creator, quotas).Onboard(context.Background(), request())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "registering mapping")
	// the list exists at this point, the failure must not hide that
	assert.Len(t, creator.calls, 1)
}

func TestService_Onboard_InvalidRequest(t *testing.T) {
	store := &fakeStore{}
	resolver := &fakeResolver{set: memberSet(3)}
	creator := &fakeCreator{}

	req := request()
	req.SecurityGroupID = "nope"
	_, err := newService(store, resolver, creator, &mocks.Quotas{}).Onboard(context.Background(), req)

	assert.Error(t, err)
	assert.Zero(t, resolver.calls)
	assert.Empty(t, creator.calls)
}
