// Package source connects a SQLite database to runs.
//
// Import reads rows of an existing table as ground facts of a relation.
// Record appends query answers to an answer log in the same database. The
// knowledge base itself is never written: facts live in the caller's
// tables and every run starts from them.
//
// The database runs in WAL mode with a single connection, so imports and
// answer writes from one process never contend for the write lock.
package source
