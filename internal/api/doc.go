// Package api is the HTTP surface: request decoding and validation, the
// auth, user and task handlers, and the translation of service errors into
// responses. The errorKinds table in errors.go decides both the status code
// and the client-facing message; error bodies never carry more than that
// message and the request's trace ID.
package api
