// Package notify implements reminder delivery for the scheduler.
//
// GmailNotifier sends a reminder email through the Gmail API using an OAuth2
// refresh token. LogNotifier only writes the reminder to the application log
// and is meant for development and for deployments without mail.
package notify
