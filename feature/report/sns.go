package report

import (
	"context"
	"encoding/json"
	"fmt"

	"sg2pl/core/awsapi"
	"sg2pl/core/reconcile"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

// SNSNotifier publishes outcomes that need human attention. Clean successes
// stay quiet; failures, partial failures and capacity warnings go out with
// the full outcome as a JSON body.
type SNSNotifier struct {
	provider awsapi.Provider
	topicARN string
	logger   *zap.Logger
}

// NewSNSNotifier creates a notifier publishing to the given topic in the
// home region.
func NewSNSNotifier(provider awsapi.Provider, topicARN string, logger *zap.Logger) *SNSNotifier {
	return &SNSNotifier{
		provider: provider,
		topicARN: topicARN,
		logger:   logger,
	}
}

// Report publishes one notification per noteworthy outcome.
func (n *SNSNotifier) Report(ctx context.Context, out reconcile.RunOutcome) error {
	if out.Status == reconcile.StatusSucceeded && len(out.Warnings) == 0 {
		return nil
	}

	clients, err := n.provider.ForRegion(ctx, "")
	if err != nil {
		return fmt.Errorf("clients for home region: %w", err)
	}
	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding outcome: %w", err)
	}

	_, err = clients.SNS.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(fmt.Sprintf("sg2pl: %s %s", out.SecurityGroupID, out.Status)),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("publishing notification: %w", err)
	}

	n.logger.Debug("published notification",
		zap.String("run_id", out.RunID),
		zap.String("status", string(out.Status)),
	)
	return nil
}
