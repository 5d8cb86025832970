package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"sg2pl/core/reconcile"
	"sg2pl/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ArchiveSink writes every outcome and batch summary as a JSON object into
// the archive bucket:
//
//	{prefix}/{yyyy-mm-dd}/{run-id}.json
//	{prefix}/{yyyy-mm-dd}/batch-{batch-id}.json
type ArchiveSink struct {
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewArchiveSink creates an archive sink writing under prefix in bucket.
func NewArchiveSink(client storage.Client, bucket, prefix string, logger *zap.Logger) *ArchiveSink {
	return &ArchiveSink{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// Report archives one run outcome.
func (s *ArchiveSink) Report(ctx context.Context, out reconcile.RunOutcome) error {
	name := fmt.Sprintf("%s/%s/%s.json", s.prefix, out.StartedAt.Format("2006-01-02"), out.RunID)
	return s.put(ctx, name, out)
}

// ReportSummary archives the batch aggregate.
func (s *ArchiveSink) ReportSummary(ctx context.Context, r *reconcile.Report) error {
	name := fmt.Sprintf("%s/%s/batch-%s.json", s.prefix, r.StartedAt.Format("2006-01-02"), r.BatchID)
	return s.put(ctx, name, r)
}

func (s *ArchiveSink) put(ctx context.Context, name string, v interface{}) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}

	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("archiving %s: %w", name, err)
	}

	s.logger.Debug("archived report", zap.String("object", name))
	return nil
}

// Recent returns up to limit archived object keys, newest first. The date
// layer in the key layout makes lexicographic order chronological.
func (s *ArchiveSink) Recent(ctx context.Context, limit int) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing archive: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}
