// Package tables registers the curated roster tables with the core registry.
// Import it for side effects wherever tables must be available.
package tables
