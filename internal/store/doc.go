// Package store defines interfaces for data persistence operations along
// with the retry and transaction executors that wrap them. The interfaces
// abstract the underlying data storage mechanism from the application's
// core logic; the executors give every multi-statement mutation bounded
// retry on transient failures and explicit commit/rollback semantics.
package store
