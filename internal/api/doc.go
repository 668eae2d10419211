// Package api is the HTTP adapter of the service. Handlers decode and
// validate requests, call the service layer and map its errors to status
// codes and safe messages. Routing lives in cmd/server.
package api
