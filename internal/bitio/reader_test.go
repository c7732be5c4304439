package bitio

import "testing"

// packLSB is the test-local mirror of Reader's bit order: bit 0 of each
// value is written to the lowest unused bit position in the stream.
func packLSB(width uint, values []int) []byte {
	var out []byte
	var cur byte
	var bitpos uint
	for _, v := range values {
		vv := uint32(v)
		for b := uint(0); b < width; b++ {
			bit := (vv >> b) & 1
			cur |= byte(bit) << bitpos
			bitpos++
			if bitpos == 8 {
				out = append(out, cur)
				cur = 0
				bitpos = 0
			}
		}
	}
	if bitpos > 0 {
		out = append(out, cur)
	}
	return out
}

func TestReadBits_RoundTrip(t *testing.T) {
	for _, width := range []uint{1, 2, 3, 4, 5, 6, 7, 8} {
		values := []int{0, 1, 2, 3, 5, 7, (1 << width) - 1, 0, 1}
		for i, v := range values {
			values[i] = v & ((1 << width) - 1)
		}

		data := packLSB(width, values)
		r := NewReader(data)
		for i, want := range values {
			got, err := r.ReadBits(width)
			if err != nil {
				t.Fatalf("width=%d value %d: ReadBits: %v", width, i, err)
			}
			if int(got) != want {
				t.Fatalf("width=%d value %d: got %d want %d", width, i, got, want)
			}
		}
	}
}

func TestReadBits_EOF(t *testing.T) {
	r := NewReader([]byte{0xFF})
	if _, err := r.ReadBits(8); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := r.ReadBits(1); err == nil {
		t.Fatalf("expected EOF past end of buffer")
	}
}

func TestReadByte_Aligned(t *testing.T) {
	r := NewReader([]byte{0x12, 0x34})
	b, err := r.ReadByte()
	if err != nil || b != 0x12 {
		t.Fatalf("ReadByte: got (%x, %v), want (0x12, nil)", b, err)
	}
	b, err = r.ReadByte()
	if err != nil || b != 0x34 {
		t.Fatalf("ReadByte: got (%x, %v), want (0x34, nil)", b, err)
	}
	if !r.AtEnd() {
		t.Fatalf("expected AtEnd after consuming both bytes")
	}
}

func TestReadByte_Misaligned(t *testing.T) {
	data := packLSB(4, []int{0x5, 0xA, 0x3, 0xC})
	r := NewReader(data)
	if _, err := r.ReadBits(4); err != nil {
		t.Fatalf("priming ReadBits: %v", err)
	}
	b, err := r.ReadByte()
	if err != nil {
		t.Fatalf("ReadByte misaligned: %v", err)
	}
	// The misaligned ReadByte should equal the next two nibbles (0xA then 0x3)
	// packed LSB-first: low nibble first, high nibble second.
	want := byte(0xA | (0x3 << 4))
	if b != want {
		t.Fatalf("ReadByte misaligned: got %#x want %#x", b, want)
	}
}

func TestSeek(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	r.Seek(2)
	b, err := r.ReadByte()
	if err != nil || b != 0x03 {
		t.Fatalf("after Seek(2): got (%x, %v), want (0x03, nil)", b, err)
	}
}

func TestRemaining(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	if got := r.Remaining(); got != 3 {
		t.Fatalf("Remaining before read: got %d want 3", got)
	}
	if _, err := r.ReadByte(); err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if got := r.Remaining(); got != 2 {
		t.Fatalf("Remaining after one byte: got %d want 2", got)
	}
}
