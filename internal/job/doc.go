// Package job runs background work outside the request path.
//
// Jobs are persisted before they are queued so that a restart can recover
// anything still pending or interrupted mid-processing. A fixed pool of
// workers drains an in-memory queue, and a monitor periodically requeues jobs
// that have been processing for too long. Failures are recorded on the job;
// jobs are never retried automatically.
package job
