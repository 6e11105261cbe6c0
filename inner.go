package imagecodecs

import "github.com/Skryldev/image-codecs/core"

// Inner exposes the underlying core.Processor for advanced use (e.g., direct
// registry access in tests).  Prefer the high-level API for normal usage.
func (p *Processor) Inner() *core.Processor { return p.inner }

// Registry returns the codec registry shared by every decode and encode
// step built from this processor.
func (p *Processor) Registry() core.Registry { return p.reg }
