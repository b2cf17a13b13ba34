package kcommon

import (
	"os"
	"strconv"
)

// GetEnvInt returns the env var parsed as int, or defaultValue when unset or
// unparsable.
func GetEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvString returns the env var, or defaultValue when unset.
func GetEnvString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
