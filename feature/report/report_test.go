package report_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"sg2pl/core/awsapi"
	awsmocks "sg2pl/core/awsapi/mocks"
	"sg2pl/core/reconcile"
	"sg2pl/core/storage/mocks"
	"sg2pl/feature/report"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/minio/minio-go/v7"
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

func outcome(status reconcile.RunStatus) reconcile.RunOutcome {
	return reconcile.RunOutcome{
		Mapping: reconcile.Mapping{
			SecurityGroupID:  "sg-0123456789abcdef0",
			SourceRegion:     "us-east-1",
			PrefixListID:     "pl-0123456789abcdef0",
			PrefixListRegion: "eu-west-1",
		},
		RunID:     "11111111-2222-3333-4444-555555555555",
		Status:    status,
		StartedAt: time.Date(2025, 11, 3, 10, 30, 0, 0, time.UTC),
	}
}

func TestLogSink_AllStatuses(t *testing.T) {
	sink := report.NewLogSink(zap.NewNop())

	for _, status := range []reconcile.RunStatus{
		reconcile.StatusSucceeded,
		reconcile.StatusPartialFailure,
		reconcile.StatusFailed,
	} {
		assert.NoError(t, sink.Report(context.Background(), outcome(status)))
	}
	assert.NoError(t, sink.ReportSummary(context.Background(), &reconcile.Report{BatchID: "b-1", Total: 3}))
}

func TestSNSNotifier_SkipsCleanSuccess(t *testing.T) {
	snsMock := new(awsmocks.SNS)
	n := report.NewSNSNotifier(&staticProvider{clients: &awsapi.Clients{SNS: snsMock}}, "arn:aws:sns:us-east-1:123456789012:sg2pl", zap.NewNop())

	err := n.Report(context.Background(), outcome(reconcile.StatusSucceeded))

	assert.NoError(t, err)
	snsMock.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestSNSNotifier_PublishesFailure(t *testing.T) {
	snsMock := new(awsmocks.SNS)
	snsMock.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return aws.ToString(in.TopicArn) == "arn:aws:sns:us-east-1:123456789012:sg2pl" &&
			aws.ToString(in.Subject) == "sg2pl: sg-0123456789abcdef0 failed" &&
			strings.Contains(aws.ToString(in.Message), "\"status\": \"failed\"")
	})).Return(&sns.PublishOutput{MessageId: aws.String("m-1")}, nil)

	n := report.NewSNSNotifier(&staticProvider{clients: &awsapi.Clients{SNS: snsMock}}, "arn:aws:sns:us-east-1:123456789012:sg2pl", zap.NewNop())

	err := n.Report(context.Background(), outcome(reconcile.StatusFailed))

	assert.NoError(t, err)
	snsMock.AssertExpectations(t)
}

func TestSNSNotifier_PublishesSuccessWithWarnings(t *testing.T) {
	snsMock := new(awsmocks.SNS)
	snsMock.On("Publish", mock.Anything, mock.Anything).
		Return(&sns.PublishOutput{MessageId: aws.String("m-2")}, nil)

	n := report.NewSNSNotifier(&staticProvider{clients: &awsapi.Clients{SNS: snsMock}}, "arn:aws:sns:us-east-1:123456789012:sg2pl", zap.NewNop())

	out := outcome(reconcile.StatusSucceeded)
	out.Warnings = []string{"prefix list will hold 9 of 10 entries after sync"}

	assert.NoError(t, n.Report(context.Background(), out))
	snsMock.AssertExpectations(t)
}

func TestArchiveSink_WritesOutcome(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "sg2pl-reports").Return(true, nil)
	client.On("PutObject", mock.Anything, "sg2pl-reports",
		"reports/2025-11-03/11111111-2222-3333-4444-555555555555.json",
		mock.Anything, mock.Anything, mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
			return opts.ContentType == "application/json"
		})).Return(minio.UploadInfo{}, nil)

	sink := report.NewArchiveSink(client, "sg2pl-reports", "reports", zap.NewNop())

	err := sink.Report(context.Background(), outcome(reconcile.StatusSucceeded))

	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestArchiveSink_MissingBucket(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "sg2pl-reports").Return(false, nil)

	sink := report.NewArchiveSink(client, "sg2pl-reports", "reports", zap.NewNop())

	err := sink.Report(context.Background(), outcome(reconcile.StatusSucceeded))

	assert.Error(t, err)
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestArchiveSink_Recent(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "sg2pl-reports", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
		return opts.Prefix == "reports/" && opts.Recursive
	})).Return(func(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
		ch := make(chan minio.ObjectInfo, 3)
		ch <- minio.ObjectInfo{Key: "reports/2025-11-01/aaa.json"}
		ch <- minio.ObjectInfo{Key: "reports/2025-11-03/ccc.json"}
		ch <- minio.ObjectInfo{Key: "reports/2025-11-02/bbb.json"}
		close(ch)
		return ch
	}(context.Background(), "sg2pl-reports", minio.ListObjectsOptions{}))

	sink := report.NewArchiveSink(client, "sg2pl-reports", "reports", zap.NewNop())

	keys, err := sink.Recent(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"reports/2025-11-03/ccc.json",
		"reports/2025-11-02/bbb.json",
	}, keys)
}
