// Package main is the entry point of the todo API. The serve command runs
// the HTTP API together with the scheduler that sends task reminders and
// archives stale tasks; the migrate command manages the database schema.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
