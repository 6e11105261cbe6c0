package core

// PixelBuffer is the tagged result of a codec's pixel decode. Exactly one
// concrete variant is active. Images can be built from EightBit and
// SixteenBit only; any other variant reaching the decode adapter is an
// integration fault.
type PixelBuffer interface {
	Len() int
	BitDepth() BitDepth
	isPixelBuffer()
}

// EightBit holds 8-bit samples.
type EightBit []uint8

// SixteenBit holds 16-bit samples.
type SixteenBit []uint16

// Float32 holds floating-point samples, as surfaced by some backends.
type Float32 []float32

func (b EightBit) Len() int           { return len(b) }
func (b EightBit) BitDepth() BitDepth { return BitDepth8 }
func (EightBit) isPixelBuffer()       {}

func (b SixteenBit) Len() int           { return len(b) }
func (b SixteenBit) BitDepth() BitDepth { return BitDepth16 }
func (SixteenBit) isPixelBuffer()       {}

func (b Float32) Len() int           { return len(b) }
func (b Float32) BitDepth() BitDepth { return BitDepthFloat32 }
func (Float32) isPixelBuffer()       {}
