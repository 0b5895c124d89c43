// Package experiment implements experiment lifecycle management.
//
// The service layer owns creation-time validation (traffic split, required
// fields) and status transitions. It depends on the Repository interface
// defined in this package and never imports the HTTP layer.
//
// The Postgres implementation lives in repository/postgres.
package experiment
