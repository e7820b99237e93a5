// Package etl implements the extract/transform/load pipeline: parsing song
// metadata and event-log JSON files into an in-memory record store,
// deduplicating dimension rows, and bulk-loading the result into PostgreSQL
// via COPY in a single transaction.
package etl
