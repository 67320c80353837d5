// Package convert provides character-conversion backends for hanconv.
//
// Dict converts locally using OpenCC-compatible dictionary files;
// OpenAI delegates to a chat-completion model for text the dictionaries
// cannot cover; Cached wraps any backend with a conversion cache.
package convert

import "github.com/ZaguanLabs/hanconv"

// Verify the backends implement hanconv.Converter.
var (
	_ hanconv.Converter = (*Dict)(nil)
	_ hanconv.Converter = (*OpenAI)(nil)
	_ hanconv.Converter = (*Cached)(nil)
	_ hanconv.Converter = (*Mock)(nil)
)
