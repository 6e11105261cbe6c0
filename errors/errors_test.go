package errors_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Skryldev/image-codecs/errors"
)

type nativeErr struct{ code int }

func (e nativeErr) Error() string { return fmt.Sprintf("bad chunk crc (code %d)", e.code) }

func TestTranslate_KindByStage(t *testing.T) {
	tests := []struct {
		name  string
		stage apperrors.Stage
		err   error
		want  apperrors.Kind
	}{
		{"header failure", apperrors.StageHeaders, nativeErr{3}, apperrors.KindMalformed},
		{"pixel failure", apperrors.StagePixels, nativeErr{7}, apperrors.KindPixelReconstruction},
		{"short header", apperrors.StageHeaders, io.ErrUnexpectedEOF, apperrors.KindTruncated},
		{"short pixels", apperrors.StagePixels, fmt.Errorf("idat: %w", io.ErrUnexpectedEOF), apperrors.KindTruncated},
		{"empty input", apperrors.StageHeaders, io.EOF, apperrors.KindTruncated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := apperrors.Translate("png", tc.stage, tc.err)
			kind, ok := apperrors.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.want, kind)
		})
	}
}

func TestTranslate_PreservesMessage(t *testing.T) {
	native := nativeErr{42}
	err := apperrors.Translate("png", apperrors.StageHeaders, native)

	assert.Equal(t, "png: bad chunk crc (code 42)", err.Error())
	var got nativeErr
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 42, got.code)
}

func TestTranslate_NilAndIdempotent(t *testing.T) {
	assert.NoError(t, apperrors.Translate("png", apperrors.StagePixels, nil))

	first := apperrors.Translate("png", apperrors.StageHeaders, io.ErrUnexpectedEOF)
	second := apperrors.Translate("jpeg", apperrors.StagePixels, first)
	assert.Same(t, first, second)
}

func TestDecodeError_IsSentinel(t *testing.T) {
	err := apperrors.Translate("webp", apperrors.StageHeaders, io.ErrUnexpectedEOF)
	wrapped := apperrors.Wrap(apperrors.CategoryDecode, "decode", err)

	assert.ErrorIs(t, wrapped, apperrors.ErrTruncated)
	assert.NotErrorIs(t, wrapped, apperrors.ErrMalformed)
	assert.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)
	assert.True(t, apperrors.IsCategory(wrapped, apperrors.CategoryDecode))
	assert.True(t, apperrors.IsKind(wrapped, apperrors.KindTruncated))
	assert.False(t, apperrors.IsRetryable(wrapped))
}

func TestDecodef(t *testing.T) {
	err := apperrors.Decodef(apperrors.KindAlreadyDecoded, "png", "decode called %d times", 2)
	assert.Equal(t, "png: decode called 2 times", err.Error())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyDecoded)
	assert.Nil(t, err.Unwrap())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "truncated", apperrors.KindTruncated.String())
	assert.Equal(t, "unsupported sample width", apperrors.KindUnsupportedSampleWidth.String())
	assert.Equal(t, "kind(99)", apperrors.Kind(99).String())
}

func TestProcessingError(t *testing.T) {
	base := errors.New("boom")
	err := apperrors.Transient("encode.png", base)

	assert.Equal(t, "[transient] encode.png: boom", err.Error())
	assert.True(t, apperrors.IsRetryable(err))
	assert.ErrorIs(t, err, base)
	assert.Nil(t, apperrors.Wrap(apperrors.CategoryEncode, "noop", nil))
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.Category
		ok   bool
	}{
		{"processing", apperrors.New(apperrors.CategoryEncode, "encode", apperrors.ErrEmptyInput), apperrors.CategoryEncode, true},
		{"outermost wins", apperrors.Wrap(apperrors.CategoryPipeline, "p", apperrors.New(apperrors.CategoryInput, "i", io.EOF)), apperrors.CategoryPipeline, true},
		{"bare decode error", apperrors.Decodef(apperrors.KindMalformed, "png", "bad"), apperrors.CategoryDecode, true},
		{"plain", io.EOF, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := apperrors.CategoryOf(tc.err)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProcessingError_Message(t *testing.T) {
	assert.Equal(t, "[input] EOF", apperrors.New(apperrors.CategoryInput, "", io.EOF).Error())
	assert.Equal(t, "[encode] png.encode: EOF", apperrors.New(apperrors.CategoryEncode, "png.encode", io.EOF).Error())
}
