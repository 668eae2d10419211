// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx stdlib driver. The schema is managed by goose
// migrations embedded in the binary.
package postgres
