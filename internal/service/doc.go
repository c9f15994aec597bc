// Package service implements the application use cases on top of the store
// interfaces: task management scoped to an owner, and the user lifecycle
// (registration, authentication, removal) which publishes events for the
// notification jobs.
package service
