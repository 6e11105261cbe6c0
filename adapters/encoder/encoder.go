// Package encoder serialises canonical images to PNG, JPEG, WebP and ZRAW.
package encoder

import (
	"image"

	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// Register installs the stdlib-backed encoders in reg.
func Register(reg core.Registry, defaultQuality int) {
	reg.RegisterEncoder(core.FormatPNG, NewPNG())
	reg.RegisterEncoder(core.FormatJPEG, NewJPEG(defaultQuality))
	reg.RegisterEncoder(core.FormatWebP, NewWebP(defaultQuality))
	reg.RegisterEncoder(core.FormatZRAW, NewZRAW())
}

// stdSource renders the decoded image for an image.Image based encoder.
func stdSource(op string, img *core.ImageData) (image.Image, error) {
	if img == nil || img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, op, apperrors.ErrEmptyInput)
	}
	src, err := img.Image.ToStdImage()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
	}
	return src, nil
}
