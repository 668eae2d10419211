//go:build integration

// Package testdb provides helpers for database integration tests.
//
// Each test runs in its own transaction that is rolled back when the test
// completes, so tests can run in parallel against a shared database without
// cleaning up after themselves. Tests are skipped when DATABASE_URL is not
// set.
//
// Basic usage:
//
//	func TestSomething(t *testing.T) {
//		db := testdb.GetTestDBWithT(t)
//		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//			tasks := postgres.NewPostgresTaskStore(tx, nil)
//			// ...
//		})
//	}
package testdb
