// Package event implements behavioral event recording with assignment
// attribution.
//
// Recording an event never creates an assignment: the lookup is strictly
// read-only, and a user without an assignment in the requested experiment
// still gets their event stored, just unattributed. Attribution is a
// write-time snapshot and is never corrected retroactively.
package event
