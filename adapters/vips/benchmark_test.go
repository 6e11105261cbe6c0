package vips_test

import (
	"context"
	"image"
	"testing"

	"github.com/Skryldev/image-codecs/adapters/vips"
	"github.com/Skryldev/image-codecs/core"
	"github.com/Skryldev/image-codecs/pipeline"
)

func run(b *testing.B, raw []byte, f core.Format, steps ...core.Step) {
	b.Helper()
	p := pipeline.New(steps...)
	b.ReportAllocs()
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := p.Run(context.Background(), &core.ImageData{Data: raw, Format: f}); err != nil {
			b.Fatal(err)
		}
	}
}

func decodeStep(reg core.Registry) core.Step {
	return &pipeline.DecodeStep{Registry: reg, Options: core.DefaultDecoderOptions()}
}

// ─── Decode ───────────────────────────────────────────────────────────────────

func BenchmarkDecode_Stdlib_1920x1080(b *testing.B) {
	run(b, makeJPEG(b, 1920, 1080), core.FormatJPEG, decodeStep(stdRegistry()))
}

func BenchmarkDecode_Vips_1920x1080(b *testing.B) {
	run(b, makeJPEG(b, 1920, 1080), core.FormatJPEG, decodeStep(vipsRegistry()))
}

func BenchmarkReadHeaders_Stdlib_PNG(b *testing.B) {
	raw := makePNG(b, image.NewNRGBA64(image.Rect(0, 0, 1920, 1080)))
	run(b, raw, core.FormatPNG, &pipeline.DecodeStep{Registry: stdRegistry(), HeadersOnly: true})
}

// ─── Resize ───────────────────────────────────────────────────────────────────

func BenchmarkResize_Stdlib_1920to960(b *testing.B) {
	reg := stdRegistry()
	run(b, makeJPEG(b, 1920, 1080), core.FormatJPEG,
		decodeStep(reg),
		&pipeline.ResizeStep{Width: 960},
		&pipeline.EncodeStep{Registry: reg, BaseOptions: core.EncodeOptions{Quality: 85}},
	)
}

func BenchmarkResize_Vips_1920to960(b *testing.B) {
	reg := vipsRegistry()
	run(b, makeJPEG(b, 1920, 1080), core.FormatJPEG,
		decodeStep(reg),
		&pipeline.ResizeStep{Width: 960},
		&pipeline.EncodeStep{Registry: reg, BaseOptions: core.EncodeOptions{Quality: 85}},
	)
}

// ─── Thumbnail ────────────────────────────────────────────────────────────────

func BenchmarkThumbnail_Stdlib_4K(b *testing.B) {
	reg := stdRegistry()
	run(b, makeJPEG(b, 3840, 2160), core.FormatJPEG,
		decodeStep(reg),
		&pipeline.ThumbnailStep{Size: 256},
		&pipeline.EncodeStep{Registry: reg, BaseOptions: core.EncodeOptions{Quality: 75}},
	)
}

func BenchmarkThumbnail_Vips_4K(b *testing.B) {
	reg := vipsRegistry()
	run(b, makeJPEG(b, 3840, 2160), core.FormatJPEG,
		&vips.ThumbnailStep{Size: 256, Options: core.DefaultDecoderOptions()},
		&pipeline.EncodeStep{Registry: reg, BaseOptions: core.EncodeOptions{Quality: 75}},
	)
}

// ─── Encode ───────────────────────────────────────────────────────────────────

func benchmarkEncodeWebP(b *testing.B, reg core.Registry) {
	raw := makeJPEG(b, 1920, 1080)
	decoded, _, err := pipeline.New(decodeStep(reg), &pipeline.FormatStep{Format: core.FormatWebP}).
		Run(context.Background(), &core.ImageData{Data: raw, Format: core.FormatJPEG})
	if err != nil {
		b.Fatal(err)
	}
	enc := &pipeline.EncodeStep{Registry: reg, BaseOptions: core.EncodeOptions{Quality: 80}}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := enc.Execute(context.Background(), decoded); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeWebP_Stdlib(b *testing.B) { benchmarkEncodeWebP(b, stdRegistry()) }
func BenchmarkEncodeWebP_Vips(b *testing.B)   { benchmarkEncodeWebP(b, vipsRegistry()) }

// ─── Full pipeline ────────────────────────────────────────────────────────────

func BenchmarkPipeline_Vips_ZRAW(b *testing.B) {
	reg := vipsRegistry()
	run(b, makeJPEG(b, 1920, 1080), core.FormatJPEG,
		decodeStep(reg),
		&pipeline.ResizeStep{Width: 1280},
		&pipeline.StripEXIFStep{},
		&pipeline.FormatStep{Format: core.FormatZRAW},
		&pipeline.EncodeStep{Registry: reg},
	)
}
