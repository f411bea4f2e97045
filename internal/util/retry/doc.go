// Package retry retries transient failures with exponential backoff.
//
// [Do] is used for the few remote reads that may be retried without
// changing provisioning semantics (release metadata lookups). Errors
// wrapped with [Fatal] stop the loop immediately.
package retry
