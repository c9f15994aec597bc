// Package mongodb implements the store interfaces on MongoDB. Identifiers
// are stored as UUID strings in _id so documents stay portable between
// the MongoDB and PostgreSQL backends.
package mongodb
