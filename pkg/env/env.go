// Package env reads process environment values with a fallback, for the
// few knobs needed before configuration is loaded.
package env

import "os"

// Get returns the value of key, or def when the variable is unset or empty.
func Get(key, def string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return def
	}
	return val
}
