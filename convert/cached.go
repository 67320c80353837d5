package convert

import (
	"strings"

	"github.com/ZaguanLabs/hanconv"
)

// Cached wraps a Converter with a conversion cache. Cache keys combine
// the text hash with the active variant, so one cache serves runs with
// different conversions.
type Cached struct {
	inner   hanconv.Converter
	cache   hanconv.ConversionCache
	variant hanconv.Variant
}

// NewCached creates a caching wrapper around inner.
func NewCached(inner hanconv.Converter, cache hanconv.ConversionCache) *Cached {
	return &Cached{
		inner:   inner,
		cache:   cache,
		variant: hanconv.VariantNone,
	}
}

// SetConversion delegates to the wrapped converter and records the
// variant for key derivation.
func (c *Cached) SetConversion(variant hanconv.Variant) error {
	if err := c.inner.SetConversion(variant); err != nil {
		return err
	}
	c.variant = variant
	return nil
}

// Convert returns the cached conversion when available. Cache write
// failures are ignored: a dead cache slows conversion down, it must not
// stop it.
func (c *Cached) Convert(text string) string {
	if c.variant == hanconv.VariantNone || strings.TrimSpace(text) == "" {
		return c.inner.Convert(text)
	}

	key := hanconv.CacheKey(hanconv.HashText(text), c.variant)
	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	result := c.inner.Convert(text)
	c.cache.Set(key, result) //nolint:errcheck
	return result
}
