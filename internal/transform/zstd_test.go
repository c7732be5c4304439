package transform

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func compressForTest(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zstd write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zstd close: %v", err)
	}
	return buf.Bytes()
}

func TestDecompressZstd_RoundTrip(t *testing.T) {
	want := bytes.Repeat([]byte("pixel-bean-frame-payload"), 50)
	compressed := compressForTest(t, want)

	got, err := DecompressZstd(compressed)
	if err != nil {
		t.Fatalf("DecompressZstd: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round trip mismatch: got %d bytes want %d bytes", len(got), len(want))
	}
}

func TestDecompressZstd_Malformed(t *testing.T) {
	_, err := DecompressZstd([]byte{0x00, 0x01, 0x02, 0x03})
	if err == nil {
		t.Fatalf("expected decode error for malformed zstd frame")
	}
	if !errors.Is(err, ErrZstdDecode) {
		t.Fatalf("expected ErrZstdDecode, got %v", err)
	}
}
