// Package store provides SQLite-backed storage for ingested spreadsheet
// rows and the translation log.
//
// Documents are JSON objects stored one per row, keyed by the spreadsheet's
// header. A collection is the set of documents ingested under one name;
// its column schema is the key order of its first document.
//
// The store records:
//   - Ingest batches: one per workbook load, with a UUIDv7 ID
//   - Documents: the normalized rows of every batch
//   - Translations: content-addressed log of text → query description
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Document listings order by id, the insertion order
//   - Group results order by the sort stage, then by the group key
//   - Compiled statements come from internal/querysql and are fully
//     parameterized
//
// Logical Identity
//   - Translation IDs are SHA-256 hashes of canonical JSON (internal/ir)
//   - Recording the same translation twice is a no-op
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Every connection registers the regexp and nlq_to_double SQL functions
// through the driver's connect hook.
package store
