package transform

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// DecompressZstd decompresses a standard RFC 8478 Zstd stream, following
// the teacher's DecodeZstd (utils.go). zstd.NewReader transparently
// concatenates consecutive frames in the input, satisfying spec.md §4.2's
// multi-frame requirement.
func DecompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("transform: zstd.NewReader: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrZstdDecode, err)
	}
	return out, nil
}

// ErrZstdDecode is returned when the Zstd bitstream is malformed
// (pixelbean.KindZstdDecodeFailed).
var ErrZstdDecode = fmt.Errorf("transform: zstd decode failed")
