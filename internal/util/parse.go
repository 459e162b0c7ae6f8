package util

import "strconv"

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseUintParam parses a route/query parameter as an unsigned id
func ParseUintParam(s string) (uint, error) {
	val, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}

// ParseBool parses common form-checkbox values ("on", "true", "1")
func ParseBool(s string) bool {
	switch s {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
