// Package postgres implements the store interfaces on PostgreSQL through
// pgx's database/sql driver. Schema changes are goose migrations embedded
// from the migrations directory.
package postgres
