// Package env holds small helpers for reading process environment
// variables that live outside the envconfig-managed config struct.
package env

import "os"

// Get reads an environment variable, falling back when unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
