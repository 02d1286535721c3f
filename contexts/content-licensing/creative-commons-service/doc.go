// Package creativecommons contains the ccdepot implementation of Creative
// Commons licensing for repository items.
//
// The module attaches license metadata fields and license bitstreams (RDF or
// plain text, stored in the CC-LICENSE bundle) to items. Persistence, byte
// storage and authorization are reached through ports so adapters can be
// swapped between in-memory, Postgres, SQLite and Redis implementations.
package creativecommons
