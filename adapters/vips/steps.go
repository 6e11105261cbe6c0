package vips

import (
	"context"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/image-codecs/adapters/decoder"
	"github.com/Skryldev/image-codecs/core"
	apperrors "github.com/Skryldev/image-codecs/errors"
)

// ThumbnailStep decodes straight from encoded bytes into a square
// thumbnail with vips_thumbnail(). For JPEG this triggers shrink-on-load so
// the full bitmap is never allocated. It replaces a decode step.
type ThumbnailStep struct {
	Size    int
	Options core.DecoderOptions
}

func (s *ThumbnailStep) Name() string { return "vips.thumbnail" }

func (s *ThumbnailStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	if len(img.Data) == 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrEmptyInput)
	}
	ref, err := govips.NewThumbnailFromBuffer(img.Data, s.Size, s.Size, govips.InterestingCentre)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, s.Name(), err)
	}
	runtime.SetFinalizer(ref, func(r *govips.ImageRef) { r.Close() })

	c, err := fromRef(img.Format, ref, decoder.RawEXIF(img.Format, img.Data))
	if err != nil {
		ref.Close()
		return nil, apperrors.Wrap(apperrors.CategoryDecode, s.Name(), err)
	}
	decoded, err := core.NewAdapter("VIPS Decoder", img.Format, c, s.Options).Decode()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, s.Name(), err)
	}
	out := *img
	out.Image = decoded
	return &out, nil
}

var _ core.Step = (*ThumbnailStep)(nil)
