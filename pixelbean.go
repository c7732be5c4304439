// Package pixelbean decodes pixel-bean animation containers into a
// canonical, format-agnostic sequence of RGB frames, and exposes that
// sequence through PixelBean's accessors. It performs no I/O: Decode is a
// pure function over an already-loaded byte slice, following the
// container/codec split the teacher's package main uses for its own BABE
// container (main.go's Decode/Encode entry points over an in-memory
// buffer).
package pixelbean

import "fmt"

// PixelBean is the decoder's result: an ordered sequence of equally sized
// RGB frame buffers plus the dimensions and delay shared by all of them.
// It is constructed exactly once by Decode, has no mutating methods aside
// from WithMetadata's copy-on-write, and is fully owned by the caller on
// return.
type PixelBean struct {
	rowCount    int
	columnCount int
	speedMS     int
	frames      [][]byte
	metadata    map[string]string
}

// minSpeedMS is the floor every decoded delay is clamped to.
const minSpeedMS = 10

// newPixelBean validates and constructs a PixelBean. rowCount and
// columnCount must each be in {1,2,4,8,16}; frames must be non-empty and
// every buffer must be exactly columnCount*16 * rowCount*16 * 3 bytes.
func newPixelBean(rowCount, columnCount, speedMS int, frames [][]byte) (*PixelBean, error) {
	if !validGridUnit(rowCount) || !validGridUnit(columnCount) {
		return nil, newErr(KindInvariantViolation, fmt.Sprintf("rowCount=%d columnCount=%d outside {1,2,4,8,16}", rowCount, columnCount))
	}
	if len(frames) == 0 {
		return nil, newErr(KindInvariantViolation, "zero frames decoded")
	}
	want := columnCount * 16 * rowCount * 16 * 3
	for i, f := range frames {
		if len(f) != want {
			return nil, newErr(KindInvariantViolation, fmt.Sprintf("frame %d has %d bytes, want %d", i, len(f), want))
		}
	}
	if speedMS < minSpeedMS {
		speedMS = minSpeedMS
	}
	return &PixelBean{
		rowCount:    rowCount,
		columnCount: columnCount,
		speedMS:     speedMS,
		frames:      frames,
	}, nil
}

func validGridUnit(n int) bool {
	switch n {
	case 1, 2, 4, 8, 16:
		return true
	default:
		return false
	}
}

// RowCount returns the frame grid's row count, in {1,2,4,8,16}.
func (b *PixelBean) RowCount() int { return b.rowCount }

// ColumnCount returns the frame grid's column count, in {1,2,4,8,16}.
func (b *PixelBean) ColumnCount() int { return b.columnCount }

// TotalFrames returns the number of decoded frames.
func (b *PixelBean) TotalFrames() int { return len(b.frames) }

// SpeedMS returns the uniform per-frame delay in milliseconds, ≥ 10.
func (b *PixelBean) SpeedMS() int { return b.speedMS }

// Width returns the pixel width shared by every frame.
func (b *PixelBean) Width() int { return b.columnCount * 16 }

// Height returns the pixel height shared by every frame.
func (b *PixelBean) Height() int { return b.rowCount * 16 }

// Frame returns the i'th frame's RGB buffer: row-major, top-left origin,
// channel order R,G,B, length Width()*Height()*3. The returned slice must
// not be mutated by the caller.
func (b *PixelBean) Frame(i int) ([]byte, error) {
	if i < 0 || i >= len(b.frames) {
		return nil, newErr(KindInvariantViolation, fmt.Sprintf("frame index %d out of range [0,%d)", i, len(b.frames)))
	}
	return b.frames[i], nil
}

// Metadata returns the caller-supplied metadata map, or nil if none was
// ever attached via WithMetadata. The decoder never populates or reads
// this field itself; it exists only so external collaborators (gallery
// id, file id) can carry their own provenance alongside the decoded value.
func (b *PixelBean) Metadata() map[string]string { return b.metadata }

// WithMetadata returns a shallow copy of b carrying md as its metadata.
// The frame data is shared, not copied.
func (b *PixelBean) WithMetadata(md map[string]string) *PixelBean {
	clone := *b
	clone.metadata = md
	return &clone
}
