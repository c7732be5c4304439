// Package palette implements the rolling RGB palette table shared by the
// palette-bitstream frame decoders (pixelbean format tags 9, 17, 18, 26).
//
// Per the design note on "Rolling palette across frames": the
// palette is a value owned by the per-stream frame-decoder loop, mutated in
// place between frames, never wrapped in any shared-ownership construct.
package palette

import "fmt"

// MaxSize is the maximum number of entries a palette may hold.
const MaxSize = 256

// RGB is one palette entry.
type RGB struct {
	R, G, B byte
}

// Table is a fixed-capacity rolling palette: a 256-entry array with a
// length cursor, mutated in place by Reset/AppendDelta.
type Table struct {
	entries [MaxSize]RGB
	len     int
}

// Len returns the number of populated entries.
func (t *Table) Len() int { return t.len }

// At returns the entry at idx. The caller must ensure idx < Len(); this
// mirrors the primitives being pure, bounds-trusting functions over
// already-validated indices (bounds are checked by the bitstream decoder,
// see spec.md §8 property 5).
func (t *Table) At(idx int) RGB { return t.entries[idx] }

// Reset discards all entries and loads a brand new full palette.
func (t *Table) Reset(colors []RGB) error {
	if len(colors) > MaxSize {
		return fmt.Errorf("palette: %d entries exceeds max %d", len(colors), MaxSize)
	}
	t.len = copy(t.entries[:], colors)
	return nil
}

// AppendDelta appends new entries to the existing palette (a "delta"
// palette per spec.md §4.3). An empty delta is legal and leaves the
// rolling palette unchanged (spec.md §8 property 9).
func (t *Table) AppendDelta(colors []RGB) error {
	if t.len+len(colors) > MaxSize {
		return fmt.Errorf("palette: appending %d entries to %d exceeds max %d", len(colors), t.len, MaxSize)
	}
	t.len += copy(t.entries[t.len:], colors)
	return nil
}

// BitsForSize maps a palette/subset size to the bit width used to pack its
// indices. Reproduced bit-for-bit from spec.md §9's "Format-26 bit-depth
// table", which in turn mirrors the original reference decoder's
// `_bits_per_pixel_from_count` / `bits_table` global:
//
//	1→1, 2→1, 3-4→2, 5-8→3, 9-16→4, 17-32→5, 33-64→6, 65-128→7, 129-256→8.
//
// Sizes of 1 and 2 both resolve to width 1 (never 0) per spec.md §4.3's
// edge cases.
func BitsForSize(n int) uint {
	switch {
	case n <= 1:
		return 1
	case n <= 2:
		return 1
	case n <= 4:
		return 2
	case n <= 8:
		return 3
	case n <= 16:
		return 4
	case n <= 32:
		return 5
	case n <= 64:
		return 6
	case n <= 128:
		return 7
	default:
		return 8
	}
}
