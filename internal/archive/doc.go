// Package archive publishes solve results to object storage.
//
// The assembled text is written as-is at the configured object key and a
// JSON stats manifest is written next to it at <object>.stats.json. Any
// bucket scheme registered with gocloud works (mem://, s3://, gs://); the
// CLI registers the s3 and gcs drivers.
//
// This is publication of one run's output. Fragments themselves are never
// persisted across runs.
package archive
