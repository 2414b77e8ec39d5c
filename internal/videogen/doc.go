// Package videogen submits video generation jobs to a long-running
// operations backend and polls them to completion at a fixed interval.
// Transient poll errors never terminate a job; credential failures and
// done operations do. Finished artifacts are downloaded once and written
// under the configured output directory.
package videogen
