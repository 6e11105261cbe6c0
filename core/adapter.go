package core

import (
	"fmt"
	"log/slog"

	apperrors "github.com/Skryldev/image-codecs/errors"
)

type decodeState int

const (
	stateUnopened decodeState = iota
	stateHeadersRead
	stateDecoded
	stateFailed // header parse failed; the error is sticky
)

// Adapter implements Decoder over any Codec. It sequences header and pixel
// decoding, normalises the codec's pixel buffer into an Image and attaches
// the header record.
//
// A second Decode fails with KindAlreadyDecoded; the first image is the
// only one an Adapter ever produces.
type Adapter struct {
	name   string
	format Format
	codec  Codec
	opts   DecoderOptions

	state decodeState
	meta  *Metadata
	err   error
}

// NewAdapter binds codec to the Decoder contract.
func NewAdapter(name string, format Format, codec Codec, opts DecoderOptions) *Adapter {
	return &Adapter{name: name, format: format, codec: codec, opts: opts}
}

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) ReadHeaders() (*Metadata, error) {
	switch a.state {
	case stateHeadersRead, stateDecoded:
		return a.meta.Clone(), nil
	case stateFailed:
		return nil, a.err
	}

	if err := a.codec.DecodeHeaders(); err != nil {
		return nil, a.fail(apperrors.Translate(a.prefix(), apperrors.StageHeaders, err))
	}

	width, height, okDims := a.codec.Dimensions()
	depth, okDepth := a.codec.Depth()
	cs, okCS := a.codec.Colorspace()
	if !okDims || !okDepth || !okCS {
		return nil, a.fail(apperrors.Decodef(apperrors.KindMalformed, a.prefix(),
			"codec reported incomplete header (dimensions=%t depth=%t colorspace=%t)", okDims, okDepth, okCS))
	}
	info, _ := a.codec.Info()

	md := &Metadata{
		Format:        a.format,
		Width:         width,
		Height:        height,
		ColorSpace:    cs,
		Depth:         depth,
		Gamma:         DefaultGamma,
		Orientation:   1,
		HasICCProfile: info.HasICCProfile,
		Interlaced:    info.Interlaced,
	}
	if info.Gamma > 0 {
		md.Gamma = info.Gamma
		md.GammaExplicit = true
	}
	if a.opts.ParseAuxiliaryMetadata && len(info.EXIF) > 0 {
		if err := md.ParseRawEXIF(info.EXIF); err != nil {
			a.warn("metadata.exif.dropped",
				"decoder", a.name,
				"bytes", len(info.EXIF),
				"error", err.Error(),
			)
		}
	}

	a.meta = md
	a.state = stateHeadersRead
	return md.Clone(), nil
}

func (a *Adapter) Decode() (*Image, error) {
	if a.state == stateDecoded {
		return nil, apperrors.Decodef(apperrors.KindAlreadyDecoded, a.prefix(), "%s already produced its image", a.name)
	}
	if _, err := a.ReadHeaders(); err != nil {
		return nil, err
	}
	md := a.meta

	pixels, err := a.codec.DecodePixels()
	if err != nil {
		return nil, apperrors.Translate(a.prefix(), apperrors.StagePixels, err)
	}
	if pixels == nil {
		return nil, apperrors.Decodef(apperrors.KindPixelReconstruction, a.prefix(), "codec returned no samples")
	}

	var img *Image
	switch px := pixels.(type) {
	case EightBit:
		if err := a.checkDepth(px); err != nil {
			return nil, err
		}
		img, err = FromEightBit(px, md.Width, md.Height, md.ColorSpace)
	case SixteenBit:
		if err := a.checkDepth(px); err != nil {
			return nil, err
		}
		img, err = FromSixteenBit(px, md.Width, md.Height, md.ColorSpace)
	default:
		panic(apperrors.Decodef(apperrors.KindUnsupportedSampleWidth, a.prefix(),
			"%s produced %T (%d-bit) samples; no image constructor exists for them",
			a.name, pixels, pixels.BitDepth()))
	}
	if err != nil {
		return nil, apperrors.Decodef(apperrors.KindPixelReconstruction, a.prefix(), "%v", err)
	}

	img.Metadata = md.Clone()
	a.state = stateDecoded
	return img, nil
}

func (a *Adapter) Dimensions() (int, int, bool) {
	if a.meta == nil {
		return 0, 0, false
	}
	return a.meta.Width, a.meta.Height, true
}

func (a *Adapter) OutColorspace() ColorSpace {
	if a.meta == nil {
		panic(fmt.Sprintf("%s: OutColorspace called before headers were read", a.name))
	}
	return a.meta.ColorSpace
}

func (a *Adapter) checkDepth(px PixelBuffer) error {
	if px.BitDepth() != a.meta.Depth {
		return apperrors.Decodef(apperrors.KindPixelReconstruction, a.prefix(),
			"header declared %d-bit samples, codec produced %d-bit", a.meta.Depth, px.BitDepth())
	}
	return nil
}

func (a *Adapter) fail(err error) error {
	a.state = stateFailed
	a.err = err
	return err
}

func (a *Adapter) prefix() string { return string(a.format) }

func (a *Adapter) warn(msg string, fields ...interface{}) {
	if a.opts.Logger != nil {
		a.opts.Logger.Warn(msg, fields...)
		return
	}
	slog.Warn(msg, fields...)
}

var _ Decoder = (*Adapter)(nil)
