// Package domain contains the core business entities of the todo backend:
// users, categories and tasks.
//
// Task carries the lifecycle flags that the background scheduler drives
// (ReminderSent, Archived) together with the eligibility predicates that
// decide when a reminder is due and when a task is stale enough to archive.
// The predicates are pure functions of the task and an explicit "now".
package domain
