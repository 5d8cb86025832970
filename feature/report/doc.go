// Package report delivers run outcomes to the outside world.
//
// Reporting is fire and forget: the scheduler hands each outcome to every
// configured sink, logs sink errors and moves on. A broken notifier or an
// unreachable archive can therefore never change a sync result.
//
// # Sinks
//
//   - LogSink: one structured log line per run and per batch. Always on.
//   - SNSNotifier: publishes failures, partial failures and warning-laden
//     successes to a topic. Clean successes stay quiet.
//   - ArchiveSink: stores every outcome and batch summary as JSON in an
//     S3-compatible bucket, laid out by date for easy retention rules.
//
// Sinks that also understand batch aggregates implement ReportSummary on
// top of the per-outcome interface; the scheduler detects that at runtime.
package report
