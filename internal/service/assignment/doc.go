// Package assignment implements idempotent get-or-create traffic assignment.
//
// The service never recomputes or updates an existing assignment: the first
// durable row for a (experiment, user) pair wins forever. Concurrent first
// requests are resolved by the store's uniqueness constraint, not by any
// in-process lock; a constraint conflict is a benign signal to re-read.
package assignment
