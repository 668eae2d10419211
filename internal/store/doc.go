// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. The postgres package provides the
// production implementations; internal/mocks provides in-memory ones.
package store
