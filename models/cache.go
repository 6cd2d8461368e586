package models

import "time"

// isCacheValid reports whether something built at builtAt is younger than
// maxAge. A zero maxAge never expires.
func isCacheValid(builtAt time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return true
	}
	return time.Since(builtAt) <= maxAge
}
