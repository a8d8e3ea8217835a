package env

import (
	"os"
	"strings"
)

// Get returns the value of key, or fallback when the variable is unset or
// blank. Most configuration flows through envconfig; this covers the few
// lookups that happen before config is loaded.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
