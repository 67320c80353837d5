// Package cache provides conversion caching implementations.
package cache

// ConversionCache is the interface for caching converted text.
type ConversionCache interface {
	// Get retrieves a cached conversion. Returns empty string and false if not found or expired.
	Get(key string) (string, bool)

	// Set stores a conversion in the cache.
	Set(key string, value string) error
}
