// Package config loads settings from TASKS_-prefixed environment variables
// and an optional config file through viper, fills defaults and validates
// the result before anything is wired.
package config
