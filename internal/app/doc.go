// Package app holds the two pipelines.
//
// Poller runs the checkpointed ingestion loop: it leases the last cursor from
// the work queue, searches for newer records, forwards them to the raw sink,
// pushes the new cursor and only then acknowledges the old one.
//
// Curator takes one raw batch, recovers its records, classifies sentiment and
// writes enriched records to the curated sink. Both depend on domain
// interfaces only.
package app
