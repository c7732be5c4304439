// Package webp encodes a decoded pixel-bean animation into a lossless
// animated WebP file, grounded on the animation encoder surface exposed by
// github.com/deepteams/webp/animation (the teacher has no WebP encode path
// of its own; this and encoder/gif fill the two output paths spec.md §4.5
// and §4.6 require).
package webp

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/deepteams/webp/animation"

	// Registers animation.FrameEncoderFunc/SimpleEncodeFunc with the real
	// VP8L lossless encoder; see deepteams-webp/webp.go's init().
	_ "github.com/deepteams/webp"

	"github.com/pixelbean-go/pixelbean"
)

// lossless is fixed: spec.md §4.5 requires every frame bitstream to be
// lossless, with no quantization or chroma subsampling.
const lossless = true

// Encode renders b as a standards-compliant lossless animated WebP: RIFF
// container, VP8X feature flags, ANIM loop chunk (loop count 0, infinite),
// and one ANMF per frame with dispose=background, blend=no-blend, and
// duration=b.SpeedMS(). Frame bitstreams are VP8L (lossless); the output
// is deterministic given deterministic input, matching spec.md §8
// property 7.
func Encode(b *pixelbean.PixelBean) ([]byte, error) {
	width, height := b.Width(), b.Height()
	var buf bytes.Buffer

	enc := animation.NewEncoder(&buf, width, height, &animation.EncodeOptions{
		LoopCount: 0,
	})

	if animation.FrameEncoderFunc == nil {
		return nil, fmt.Errorf("encoder/webp: no VP8L frame encoder registered")
	}

	for i := 0; i < b.TotalFrames(); i++ {
		frame, err := b.Frame(i)
		if err != nil {
			return nil, err
		}
		img := rgbFrameToImage(frame, width, height)

		bitstream, err := animation.FrameEncoderFunc(img, lossless, 0)
		if err != nil {
			return nil, fmt.Errorf("encoder/webp: encoding frame %d: %w", i, err)
		}

		duration := time.Duration(b.SpeedMS()) * time.Millisecond
		if err := enc.AddRawFrame(bitstream, duration, 0, 0, animation.BlendNone, animation.DisposeBackground); err != nil {
			return nil, fmt.Errorf("encoder/webp: adding frame %d: %w", i, err)
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoder/webp: finalizing: %w", err)
	}
	return buf.Bytes(), nil
}

func rgbFrameToImage(frame []byte, width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			o := (y*width + x) * 3
			img.SetNRGBA(x, y, color.NRGBA{R: frame[o], G: frame[o+1], B: frame[o+2], A: 255})
		}
	}
	return img
}
