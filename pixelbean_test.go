package pixelbean

import "testing"

func solidFrame(rowCount, columnCount int, v byte) []byte {
	n := columnCount * 16 * rowCount * 16 * 3
	f := make([]byte, n)
	for i := range f {
		f[i] = v
	}
	return f
}

func TestNewPixelBean_Valid(t *testing.T) {
	frames := [][]byte{solidFrame(1, 1, 1), solidFrame(1, 1, 2)}
	b, err := newPixelBean(1, 1, 50, frames)
	if err != nil {
		t.Fatalf("newPixelBean: %v", err)
	}
	if b.RowCount() != 1 || b.ColumnCount() != 1 {
		t.Fatalf("grid mismatch: %d x %d", b.RowCount(), b.ColumnCount())
	}
	if b.Width() != 16 || b.Height() != 16 {
		t.Fatalf("pixel size mismatch: %dx%d", b.Width(), b.Height())
	}
	if b.TotalFrames() != 2 {
		t.Fatalf("TotalFrames: got %d want 2", b.TotalFrames())
	}
	if b.SpeedMS() != 50 {
		t.Fatalf("SpeedMS: got %d want 50", b.SpeedMS())
	}
}

func TestNewPixelBean_SpeedClamped(t *testing.T) {
	b, err := newPixelBean(1, 1, 1, [][]byte{solidFrame(1, 1, 0)})
	if err != nil {
		t.Fatalf("newPixelBean: %v", err)
	}
	if b.SpeedMS() != minSpeedMS {
		t.Fatalf("SpeedMS: got %d want clamped %d", b.SpeedMS(), minSpeedMS)
	}
}

func TestNewPixelBean_InvalidGridUnit(t *testing.T) {
	if _, err := newPixelBean(3, 1, 50, [][]byte{solidFrame(1, 1, 0)}); err == nil {
		t.Fatalf("expected error for rowCount=3")
	}
}

func TestNewPixelBean_NoFrames(t *testing.T) {
	if _, err := newPixelBean(1, 1, 50, nil); err == nil {
		t.Fatalf("expected error for zero frames")
	}
}

func TestNewPixelBean_InconsistentFrameLength(t *testing.T) {
	frames := [][]byte{solidFrame(1, 1, 0), solidFrame(2, 2, 0)}
	if _, err := newPixelBean(1, 1, 50, frames); err == nil {
		t.Fatalf("expected error for inconsistent frame length")
	}
}

func TestPixelBean_FrameOutOfRange(t *testing.T) {
	b, err := newPixelBean(1, 1, 50, [][]byte{solidFrame(1, 1, 0)})
	if err != nil {
		t.Fatalf("newPixelBean: %v", err)
	}
	if _, err := b.Frame(-1); err == nil {
		t.Fatalf("expected error for negative index")
	}
	if _, err := b.Frame(1); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
	if _, err := b.Frame(0); err != nil {
		t.Fatalf("Frame(0): %v", err)
	}
}

func TestPixelBean_WithMetadata(t *testing.T) {
	b, err := newPixelBean(1, 1, 50, [][]byte{solidFrame(1, 1, 0)})
	if err != nil {
		t.Fatalf("newPixelBean: %v", err)
	}
	if b.Metadata() != nil {
		t.Fatalf("expected nil metadata before WithMetadata")
	}
	md := map[string]string{"id": "gallery-42"}
	clone := b.WithMetadata(md)
	if clone == b {
		t.Fatalf("WithMetadata must return a distinct value")
	}
	if clone.Metadata()["id"] != "gallery-42" {
		t.Fatalf("metadata not carried over")
	}
	if b.Metadata() != nil {
		t.Fatalf("WithMetadata must not mutate the receiver")
	}
}

func TestValidGridUnit(t *testing.T) {
	valid := map[int]bool{1: true, 2: true, 4: true, 8: true, 16: true}
	for n := -1; n <= 20; n++ {
		if got, want := validGridUnit(n), valid[n]; got != want {
			t.Errorf("validGridUnit(%d): got %v want %v", n, got, want)
		}
	}
}
