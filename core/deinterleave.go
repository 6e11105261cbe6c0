package core

import (
	"fmt"

	"golang.org/x/exp/constraints"

	apperrors "github.com/Skryldev/image-codecs/errors"
)

// Deinterleave turns channel-interleaved samples (R,G,B,R,G,B,...) into
// planar order (R...R,G...G,B...B). The output has the same length and the
// exact same sample values. len(samples) must be a multiple of channels.
func Deinterleave[T constraints.Unsigned](samples []T, channels int) ([]T, error) {
	if err := checkChannels(len(samples), channels); err != nil {
		return nil, err
	}
	out := make([]T, len(samples))
	if channels == 1 {
		copy(out, samples)
		return out, nil
	}
	plane := len(samples) / channels
	for px := 0; px < plane; px++ {
		src := samples[px*channels : px*channels+channels]
		for c, v := range src {
			out[c*plane+px] = v
		}
	}
	return out, nil
}

// Interleave is the inverse of Deinterleave.
func Interleave[T constraints.Unsigned](planar []T, channels int) ([]T, error) {
	if err := checkChannels(len(planar), channels); err != nil {
		return nil, err
	}
	out := make([]T, len(planar))
	if channels == 1 {
		copy(out, planar)
		return out, nil
	}
	plane := len(planar) / channels
	for c := 0; c < channels; c++ {
		src := planar[c*plane : (c+1)*plane]
		for px, v := range src {
			out[px*channels+c] = v
		}
	}
	return out, nil
}

// DeinterleaveU8 is Deinterleave for 8-bit samples.
func DeinterleaveU8(samples []uint8, channels int) ([]uint8, error) {
	return Deinterleave(samples, channels)
}

// DeinterleaveU16 is Deinterleave for 16-bit samples.
func DeinterleaveU16(samples []uint16, channels int) ([]uint16, error) {
	return Deinterleave(samples, channels)
}

func checkChannels(n, channels int) error {
	if channels <= 0 {
		return fmt.Errorf("%w: %d channels", apperrors.ErrSampleCount, channels)
	}
	if n%channels != 0 {
		return fmt.Errorf("%w: %d samples is not a multiple of %d channels",
			apperrors.ErrSampleCount, n, channels)
	}
	return nil
}
