// Package domain defines the core entities of the experimentation platform:
// experiments, variants, assignments, and behavioral events.
//
// These types carry no behavior beyond small convenience accessors.
// Relationships between entities are identifier references resolved by
// explicit repository lookups, never embedded object graphs, so that
// aggregation code stays free of hidden loading behavior.
package domain
