// Package mocks holds test doubles for the store and auth interfaces.
//
// MockUserStore and MockTaskStore are in-memory fakes that keep the real
// stores' rules (email uniqueness, owner scoping, filtering, sorting,
// paging, cascade on user delete), so handler tests see realistic results.
// MockJWTService and MockPasswordVerifier return canned values, with Fn
// fields for per-test overrides. TestifyMockUserStore records expectations
// through testify's On/Return for tests that assert call patterns.
package mocks
