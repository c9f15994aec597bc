// Package domain holds the User and Task entities, their validation rules
// and the sentinel errors the other layers translate into responses.
package domain
