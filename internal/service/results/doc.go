// Package results computes per-variant and global conversion statistics for
// an experiment.
//
// The aggregator is a read-only projection over assignments and events: it
// performs no writes, so it is safe to run repeatedly and concurrently with
// writers, and cancellation mid-query can never leave partial state. Only
// events recorded strictly after the owning user's assignment count toward
// conversions; everything else is surfaced through the filters.
package results
