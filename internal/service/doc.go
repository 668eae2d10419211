// Package service contains the application use cases for tasks, categories
// and users. Services orchestrate domain objects and the store interfaces
// defined in internal/store, apply ownership checks and open transactions
// when an operation writes more than one table.
//
// Services never depend on a concrete store implementation. The scheduler
// does not go through this package; it talks to store.TaskStore directly.
package service
