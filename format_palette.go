package pixelbean

import (
	"encoding/binary"

	"github.com/pixelbean-go/pixelbean/internal/bitio"
	"github.com/pixelbean-go/pixelbean/internal/palette"
)

// decodePaletteBitstream implements the shared skeleton of spec.md §4.3 for
// formats 9, 17 and 18: apply the tag's transform pipeline, then walk a
// sequence of 5-byte-headed frames, each carrying an optional palette
// delta followed by a packed index bitstream over a square grid of side
// tileSize pixels.
func decodePaletteBitstream(content []byte, tileSize int, pipeline transformPipeline) (*PixelBean, error) {
	plain, err := pipeline(content)
	if err != nil {
		return nil, err
	}

	var pal palette.Table
	var frames [][]byte
	speedMS := 0
	pos := 0
	firstFrame := true

	for {
		remaining := len(plain) - pos
		if remaining <= 0 {
			break
		}
		if remaining <= 1 {
			// Spec.md §4.3 edge case / §8 property 10: a single trailing
			// byte after the last frame is tolerated silently.
			break
		}
		if remaining < 5 {
			// §8 property 11: 2-4 leftover bytes can't even hold a header.
			return nil, newErr(KindBitstreamOverrun, "trailing bytes too short for a frame header")
		}

		header := plain[pos : pos+5]
		subtype := header[0]
		frameSize := int(binary.LittleEndian.Uint16(header[1:3]))
		delayMS := int(binary.LittleEndian.Uint16(header[3:5]))

		if frameSize < 5 {
			return nil, newErr(KindTruncatedFrame, "frame declares a size too small to hold its own header")
		}

		frameEnd := pos + frameSize
		if frameEnd > len(plain) {
			if frameEnd-len(plain) > 1 {
				return nil, newErr(KindTruncatedFrame, "frame declares a size exceeding remaining plaintext by more than one byte")
			}
			frameEnd = len(plain)
		}

		cursor := pos + 5
		if subtype&0x01 != 0 {
			consumed, colors, err := readPaletteDelta(plain[cursor:frameEnd], firstFrame)
			if err != nil {
				return nil, err
			}
			cursor += consumed
			if firstFrame {
				if err := pal.Reset(colors); err != nil {
					return nil, wrapErr(KindInvariantViolation, "initial palette", err)
				}
			} else {
				if err := pal.AppendDelta(colors); err != nil {
					return nil, wrapErr(KindInvariantViolation, "palette delta", err)
				}
			}
		} else if firstFrame {
			return nil, newErr(KindInvariantViolation, "first frame carries no palette")
		}

		frame, err := decodeIndexedFrame(plain[cursor:frameEnd], &pal, tileSize, tileSize)
		if err != nil {
			return nil, err
		}

		frames = append(frames, frame)
		speedMS = delayMS
		pos += frameSize
		firstFrame = false
	}

	return newPixelBean(tileSize/16, tileSize/16, speedMS, frames)
}

// readPaletteDelta reads a one-byte count followed by count RGB triples.
// On the very first frame, a count byte of 0 means a full 256-entry
// palette (a single byte cannot spell 256 directly); on later frames a
// count of 0 is the legal "empty delta" spec.md §4.3/§8 property 9 calls
// out, so the 0-means-256 special case applies only to the first frame.
func readPaletteDelta(data []byte, firstFrame bool) (consumed int, colors []palette.RGB, err error) {
	if len(data) < 1 {
		return 0, nil, newErr(KindTruncatedFrame, "missing palette count byte")
	}
	count := int(data[0])
	if firstFrame && count == 0 {
		count = palette.MaxSize
	}
	need := 1 + count*3
	if len(data) < need {
		return 0, nil, newErr(KindTruncatedFrame, "palette delta exceeds frame body")
	}
	colors = make([]palette.RGB, count)
	for i := 0; i < count; i++ {
		o := 1 + i*3
		colors[i] = palette.RGB{R: data[o], G: data[o+1], B: data[o+2]}
	}
	return need, colors, nil
}

// decodeIndexedFrame unpacks a width*height grid of palette indices from
// body, LSB-first per spec.md §4.3's bit-unpacking algorithm, and resolves
// each index through pal into an RGB frame buffer.
func decodeIndexedFrame(body []byte, pal *palette.Table, width, height int) ([]byte, error) {
	w := palette.BitsForSize(pal.Len())
	r := bitio.NewReader(body)
	out := make([]byte, width*height*3)

	for px := 0; px < width*height; px++ {
		idx, err := r.ReadBits(w)
		if err != nil {
			return nil, newErr(KindBitstreamOverrun, "index bitstream ran past frame body")
		}
		if int(idx) >= pal.Len() {
			return nil, newErr(KindInvariantViolation, "decoded palette index out of range")
		}
		rgb := pal.At(int(idx))
		o := px * 3
		out[o], out[o+1], out[o+2] = rgb.R, rgb.G, rgb.B
	}
	return out, nil
}
