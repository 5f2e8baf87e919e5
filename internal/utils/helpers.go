package utils

// MakeMap returns a single-entry map[string]string. Shorthand for
// building sentry tag maps inline.
func MakeMap(key, value string) map[string]string {
	return map[string]string{key: value}
}
