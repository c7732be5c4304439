package pixelbean

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"math"
	"time"

	"github.com/deepteams/webp/animation"
	"github.com/gen2brain/jpegn"

	// Registers animation.FrameDecoderFunc with the VP8/VP8L codecs; the
	// animation package only holds the container/demux logic, the actual
	// pixel decode lives here, exactly as deepteams-webp/webp.go wires it.
	_ "github.com/deepteams/webp"
)

// jpegSequenceOptions parameterizes the shared JPEG-sequence walker for
// both format 31 (plain) and the supplemental format 41 (fixed 256x256,
// 9-byte reserved preamble, optional inter-frame gap marker), grounded on
// original_source's Decoder0x1F and Format41Decoder respectively.
type jpegSequenceOptions struct {
	fixedSize   int
	preambleLen int
	gapMarker   bool
}

// jpegGapMarker is original_source Format41Decoder's _GAP_PREFIX
// (b'\x02\x00\x00'): a 3-byte prefix identifying an optional 5-byte gap
// marker between consecutive JPEG frames, skipped rather than decoded.
var jpegGapMarker = [3]byte{0x02, 0x00, 0x00}

// decodeJPEGSequence implements formats 31/41(/42 after Zstd): a run of
// `[u16 delay][JPEG bytes]` frames, concatenated until the plaintext is
// exhausted.
func decodeJPEGSequence(plain []byte, opts jpegSequenceOptions) (*PixelBean, error) {
	pos := 0
	if opts.preambleLen > 0 {
		if len(plain) < opts.preambleLen {
			return nil, newErr(KindTruncatedFrame, "missing format preamble")
		}
		pos = opts.preambleLen
	}

	var frames [][]byte
	var delays []int
	width, height := 0, 0

	for pos < len(plain) {
		if len(plain)-pos <= 1 {
			break
		}
		if opts.gapMarker && pos+len(jpegGapMarker)+2 <= len(plain) &&
			bytes.Equal(plain[pos:pos+len(jpegGapMarker)], jpegGapMarker[:]) {
			pos += 5
			continue
		}
		if len(plain)-pos < 2 {
			return nil, newErr(KindTruncatedFrame, "missing per-frame delay field")
		}
		delay := int(binary.LittleEndian.Uint16(plain[pos : pos+2]))
		pos += 2

		img, consumed, err := decodeOneJPEG(plain[pos:])
		if err != nil {
			return nil, wrapErr(KindEmbeddedDecode, "JPEG frame", err)
		}
		pos += consumed

		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if opts.fixedSize != 0 && (w != opts.fixedSize || h != opts.fixedSize) {
			return nil, newErr(KindDimensionMismatch, fmt.Sprintf("JPEG frame is %dx%d, want fixed %dx%d", w, h, opts.fixedSize, opts.fixedSize))
		}
		if width == 0 {
			width, height = w, h
		} else if w != width || h != height {
			return nil, newErr(KindDimensionMismatch, "JPEG frames do not share dimensions")
		}

		frames = append(frames, rgbBufferFromImage(img))
		delays = append(delays, delay)
	}

	if len(frames) == 0 {
		return nil, newErr(KindInvariantViolation, "zero JPEG frames decoded")
	}

	rowCount, columnCount, err := gridUnitsForSize(width, height)
	if err != nil {
		return nil, err
	}
	return newPixelBean(rowCount, columnCount, meanDelay(delays), frames)
}

// decodeOneJPEG decodes a single JPEG starting at data[0] and reports how
// many bytes of data it consumed, so the caller can advance to the next
// frame in the concatenated sequence.
func decodeOneJPEG(data []byte) (image.Image, int, error) {
	r := bytes.NewReader(data)
	img, err := jpegn.Decode(r)
	if err != nil {
		return nil, 0, err
	}
	return img, len(data) - r.Len(), nil
}

// decodeEmbeddedContainer implements format 43: a complete GIF8 or
// RIFF..WEBP file embedded verbatim, per spec.md §4.4.
func decodeEmbeddedContainer(content []byte) (*PixelBean, error) {
	switch {
	case len(content) >= 4 && string(content[:4]) == "GIF8":
		return decodeEmbeddedGIF(content)
	case len(content) >= 12 && string(content[:4]) == "RIFF" && string(content[8:12]) == "WEBP":
		return decodeEmbeddedWebP(content)
	default:
		return nil, newErr(KindEmbeddedDecode, "format 43 payload is neither GIF8 nor RIFF..WEBP")
	}
}

func decodeEmbeddedGIF(content []byte) (*PixelBean, error) {
	g, err := gif.DecodeAll(bytes.NewReader(content))
	if err != nil {
		return nil, wrapErr(KindEmbeddedDecode, "embedded GIF", err)
	}
	if len(g.Image) == 0 {
		return nil, newErr(KindInvariantViolation, "embedded GIF has zero frames")
	}

	canvas := image.NewRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	var frames [][]byte
	var delays []int
	width, height := 0, 0

	for i, frame := range g.Image {
		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		b := canvas.Bounds()
		w, h := b.Dx(), b.Dy()
		if width == 0 {
			width, height = w, h
		} else if w != width || h != height {
			return nil, newErr(KindDimensionMismatch, "embedded GIF frames do not share dimensions")
		}

		frames = append(frames, rgbBufferFromImage(canvas))
		delays = append(delays, g.Delay[i]*10)

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}

	rowCount, columnCount, err := gridUnitsForSize(width, height)
	if err != nil {
		return nil, err
	}
	return newPixelBean(rowCount, columnCount, meanDelay(delays), frames)
}

func decodeEmbeddedWebP(content []byte) (*PixelBean, error) {
	anim, err := animation.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, wrapErr(KindEmbeddedDecode, "embedded WebP container", err)
	}
	if len(anim.Frames) == 0 {
		return nil, newErr(KindInvariantViolation, "embedded WebP has zero frames")
	}
	if err := anim.DecodeFrames(); err != nil {
		return nil, wrapErr(KindEmbeddedDecode, "embedded WebP frame bitstream", err)
	}

	dec := animation.NewAnimDecoder(anim)
	var frames [][]byte
	var delays []int
	for dec.HasNext() {
		img, dur, err := dec.NextFrame()
		if err != nil {
			return nil, wrapErr(KindEmbeddedDecode, "embedded WebP frame composite", err)
		}
		frames = append(frames, rgbBufferFromImage(img))
		delays = append(delays, int(dur/time.Millisecond))
	}

	rowCount, columnCount, err := gridUnitsForSize(anim.CanvasWidth, anim.CanvasHeight)
	if err != nil {
		return nil, err
	}
	return newPixelBean(rowCount, columnCount, meanDelay(delays), frames)
}

// rgbBufferFromImage flattens img into a row-major R,G,B byte buffer,
// compositing any alpha channel over an opaque white background (PixelBean
// frames carry no alpha). original_source's AnimEmbeddedImageDecoder
// composes both embedded GIF and WebP frames onto a white RGBA base
// (pixel_bean_decoder.py's `Image.new('RGBA', im.size, (255,255,255,255))`)
// before dropping alpha, so uncovered or disposed-to-background regions
// resolve to white here rather than black.
func rgbBufferFromImage(img image.Image) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*3)
	o := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			out[o] = byte((r + (0xffff - a)) >> 8)
			out[o+1] = byte((g + (0xffff - a)) >> 8)
			out[o+2] = byte((bl + (0xffff - a)) >> 8)
			o += 3
		}
	}
	return out
}

// gridUnitsForSize maps a pixel width/height to PixelBean's row/column
// grid units (each a multiple of 16 in {1,2,4,8,16}).
func gridUnitsForSize(w, h int) (rowCount, columnCount int, err error) {
	if w%16 != 0 || h%16 != 0 {
		return 0, 0, newErr(KindDimensionMismatch, fmt.Sprintf("%dx%d is not a multiple of 16", w, h))
	}
	rowCount = h / 16
	columnCount = w / 16
	if !validGridUnit(rowCount) || !validGridUnit(columnCount) {
		return 0, 0, newErr(KindDimensionMismatch, fmt.Sprintf("grid units row=%d col=%d outside {1,2,4,8,16}", rowCount, columnCount))
	}
	return rowCount, columnCount, nil
}

// meanDelay rounds the arithmetic mean of delays to the nearest
// millisecond, matching original_source's AnimEmbeddedImageDecoder
// behavior for heterogeneous per-frame delays (spec.md §4.4).
func meanDelay(delays []int) int {
	sum := 0
	for _, d := range delays {
		sum += d
	}
	return int(math.Round(float64(sum) / float64(len(delays))))
}
