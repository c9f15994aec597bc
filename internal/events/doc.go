// Package events decouples the user service from the work it triggers.
// The service publishes user.registered and user.deleted; the job package
// subscribes and turns them into welcome and cancellation emails.
package events
