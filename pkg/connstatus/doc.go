// Package connstatus models the connection and sync state of a linked
// mailbox account: the authoritative Store mutated by the background sync
// job, the Patch/merge semantics used for incremental updates, and the
// derived read-only views (progress percentage, progress label, setup banner
// visibility) the UI consumes.
//
// Merge semantics are strictly per-field: only fields present in a patch
// override the cached value, so a partial update never erases state it did
// not mention. Because of that, timestamps are cleared by writing the zero
// time rather than by omission.
//
// Three Store implementations are provided: in-memory (tests,
// single-instance), Redis (shared state plus pub/sub patch fan-out across
// instances) and Postgres (durable state, in-process fan-out).
package connstatus
