// Package testdb locates the databases integration tests run against and
// isolates the tests that use them.
//
// Integration tests are skipped when their URL variable is unset, except in
// CI where a missing database is a configuration error and fails the test.
package testdb

import "os"

// Environment variables naming the test databases.
const (
	EnvPostgresURL = "TASKS_TEST_POSTGRES_URL"
	EnvMongoDBURL  = "TASKS_TEST_MONGODB_URL"

	// EnvDatabaseURL is accepted for postgres when the prefixed name is unset.
	EnvDatabaseURL = "DATABASE_URL"
)

// ciEnv lists variables set by common CI providers.
var ciEnv = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// IsCI reports whether the process runs under a CI provider.
func IsCI() bool {
	for _, name := range ciEnv {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// firstEnv returns the first non-empty value among names.
func firstEnv(names ...string) (string, string) {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return name, v
		}
	}
	return "", ""
}
