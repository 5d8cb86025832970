package report

import (
	"context"

	"sg2pl/core/reconcile"

	"go.uber.org/zap"
)

// Config holds the reporting settings.
type Config struct {
	// SNSTopicARN enables failure notifications when set. The topic must
	// live in the home region.
	SNSTopicARN string `mapstructure:"sns_topic_arn" default:""`

	// ArchiveEnabled turns on JSON report archiving to the object store
	// configured under storage.
	ArchiveEnabled bool `mapstructure:"archive_enabled" default:"false"`

	// ArchivePrefix is the object key prefix inside the archive bucket.
	ArchivePrefix string `mapstructure:"archive_prefix" default:"reports"`
}

// LogSink writes every outcome to the structured log, one line per run and
// one per batch. It is always wired in; the other sinks are optional.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log reporting sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Report logs a single run outcome at a level matching its status.
func (s *LogSink) Report(ctx context.Context, out reconcile.RunOutcome) error {
	fields := []zap.Field{
		zap.String("run_id", out.RunID),
		zap.String("mapping", out.Key()),
		zap.String("phase", string(out.Phase)),
		zap.Int("desired", out.Desired),
		zap.Int("added", out.Added),
		zap.Int("removed", out.Removed),
		zap.Int("foreign", out.Foreign),
		zap.Int("attempts", out.Attempts),
		zap.Duration("duration", out.Duration),
	}
	if out.DryRun {
		fields = append(fields, zap.Bool("dry_run", true))
	}
	if len(out.Warnings) > 0 {
		fields = append(fields, zap.Strings("warnings", out.Warnings))
	}

	switch out.Status {
	case reconcile.StatusSucceeded:
		s.logger.Info("sync report", fields...)
	case reconcile.StatusPartialFailure:
		fields = append(fields,
			zap.String("class", string(out.Class)),
			zap.String("error", out.Error),
		)
		s.logger.Warn("sync report", fields...)
	default:
		fields = append(fields,
			zap.String("class", string(out.Class)),
			zap.String("error", out.Error),
		)
		s.logger.Error("sync report", fields...)
	}
	return nil
}

// ReportSummary logs the batch aggregate.
func (s *LogSink) ReportSummary(ctx context.Context, r *reconcile.Report) error {
	fields := []zap.Field{
		zap.String("batch_id", r.BatchID),
		zap.Int("total", r.Total),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("partial_failures", r.PartialFailures),
		zap.Int("failed", r.Failed),
		zap.Duration("duration", r.Duration),
	}
	if r.Ok() {
		s.logger.Info("batch report", fields...)
	} else {
		s.logger.Warn("batch report", fields...)
	}
	return nil
}
