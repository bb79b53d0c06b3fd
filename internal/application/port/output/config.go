package output

import "time"

// ConfigPort reads flat key/value settings such as environment variables.
type ConfigPort interface {
	Get(key string) string
	GetWithDefault(key string, defaultValue string) string
	GetBool(key string, defaultValue bool) bool
	GetInt(key string, defaultValue int) int
	GetDuration(key string, defaultValue time.Duration) time.Duration
}
