// Package store declares the persistence contracts the services depend on
// and the errors every implementation reports. The mongodb and postgres
// packages under internal/platform implement them.
package store
