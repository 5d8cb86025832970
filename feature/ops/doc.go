// Package ops is the operational surface of the daemon.
//
// It owns the single-flight batch slot: the interval ticker and the HTTP
// trigger both go through Service, so batches never overlap. A tick or
// trigger that arrives while a batch is running bounces with
// ErrBatchRunning (409 on the wire) instead of queueing up behind a slow
// AWS API.
//
// # Endpoints
//
//   - GET  /healthz: liveness probe
//   - GET  /status: running flag plus the last batch report
//   - GET  /reports: newest archived report objects, when archiving is on
//   - POST /sync: asynchronous batch trigger, ?dry_run=true supported
package ops
