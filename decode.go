package pixelbean

import (
	"encoding/binary"
	"fmt"

	"github.com/pixelbean-go/pixelbean/internal/transform"
)

// Format tags, per spec.md §4.1 plus the supplemental tag 41 recovered
// from original_source's Format41Decoder (a JPEG-sequence variant the
// distillation dropped; spec.md's Non-goals never name it, so it is
// in-scope here as an eighth closed-switch case).
const (
	formatAnimSingleAES      byte = 9  // AES-CBC -> palette-bitstream, 16x16
	formatPicMultiPlain      byte = 17 // plaintext -> palette-bitstream, 16x16
	formatAnimMultiAESLZO    byte = 18 // AES-CBC -> LZO -> palette-bitstream, 32x32
	formatTile               byte = 26 // AES-CBC -> LZO -> hierarchical block tree, 64x64 or 128x128
	formatJPEGSequence       byte = 31 // [u16 delay][JPEG] sequence
	formatJPEGSequenceLegacy byte = 41 // supplemental: fixed 256x256, 9-byte preamble, optional inter-frame gap marker
	formatJPEGSequenceZstd   byte = 42 // Zstd -> JPEG sequence
	formatEmbeddedImage      byte = 43 // embedded complete GIF or WebP file
)

// Decode parses a pixel-bean container and returns its canonical decoded
// form. It is the single entry point of the decoder core: a pure function
// from bytes to PixelBean (or error), performing no I/O.
func Decode(payload []byte) (*PixelBean, error) {
	if len(payload) < 5 {
		return nil, newErr(KindTruncatedHeader, fmt.Sprintf("payload is %d bytes, need at least 5", len(payload)))
	}

	declared := binary.BigEndian.Uint32(payload[0:4])
	rest := payload[4:]
	if uint64(len(rest)) < uint64(declared) {
		return nil, newErr(KindTruncatedHeader, fmt.Sprintf("declared length %d exceeds %d available bytes", declared, len(rest)))
	}
	if declared == 0 {
		return nil, newErr(KindTruncatedHeader, "declared length 0 leaves no format tag")
	}
	body := rest[:declared]

	tag := body[0]
	content := body[1:]

	switch tag {
	case formatAnimSingleAES:
		return decodePaletteBitstream(content, 16, pipelineAES)
	case formatPicMultiPlain:
		return decodePaletteBitstream(content, 16, pipelinePlain)
	case formatAnimMultiAESLZO:
		return decodePaletteBitstream(content, 32, pipelineAESLZO)
	case formatTile:
		return decodeTile(content)
	case formatJPEGSequence:
		return decodeJPEGSequence(content, jpegSequenceOptions{})
	case formatJPEGSequenceLegacy:
		return decodeJPEGSequence(content, jpegSequenceOptions{fixedSize: 256, preambleLen: 9, gapMarker: true})
	case formatJPEGSequenceZstd:
		plain, err := transform.DecompressZstd(content)
		if err != nil {
			return nil, wrapErr(KindZstdDecodeFailed, "format 42 payload", err)
		}
		return decodeJPEGSequence(plain, jpegSequenceOptions{})
	case formatEmbeddedImage:
		return decodeEmbeddedContainer(content)
	default:
		return nil, &Error{Kind: KindUnsupportedFormat, Tag: tag}
	}
}

// transformPipeline turns a format's raw content into the plaintext frame
// stream the shared palette-bitstream skeleton (§4.3) consumes.
type transformPipeline func([]byte) ([]byte, error)

func pipelinePlain(content []byte) ([]byte, error) { return content, nil }

func pipelineAES(content []byte) ([]byte, error) {
	plain, err := transform.DecryptAESCBC(content)
	if err != nil {
		return nil, wrapErr(KindCryptoAlignment, "AES-CBC", err)
	}
	return plain, nil
}

// maxLzoExpansionRatio bounds how many bytes of decompressed output a
// single byte of LZO1X-1 input is trusted to declare, guarding against a
// crafted 4-byte length prefix forcing a multi-gigabyte eager allocation.
// LZO1X-1's maximum single-match run is nowhere near this generous.
const maxLzoExpansionRatio = 1024

// pipelineAESLZO decrypts content, then treats the first 4 bytes of the
// decrypted stream as a big-endian uint32 giving the LZO1X-1 decompressed
// length, and the remainder as the LZO1X-1 stream itself. Neither spec.md
// nor original_source spells out the exact AES+LZO framing byte-for-byte;
// a length prefix ahead of the compressed stream is the minimal framing
// LZO1X-1 decompression requires (it takes an expected output length, not
// a self-terminating stream), so this is the implementation's concrete
// choice for that otherwise-unspecified detail.
func pipelineAESLZO(content []byte) ([]byte, error) {
	plain, err := transform.DecryptAESCBC(content)
	if err != nil {
		return nil, wrapErr(KindCryptoAlignment, "AES-CBC", err)
	}
	if len(plain) < 4 {
		return nil, newErr(KindTruncatedHeader, "AES+LZO payload missing 4-byte length prefix")
	}
	expected := int(binary.BigEndian.Uint32(plain[:4]))
	// expected is an untrusted length read straight from the ciphertext;
	// bound it against the compressed input so a crafted length can't force
	// an outsized eager allocation before the LZO stream is even walked.
	if expected < 0 || expected > (len(plain)-4)*maxLzoExpansionRatio {
		return nil, newErr(KindLzoLength, "declared LZO output length implausible for input size")
	}
	out, err := transform.DecompressLZO1X(plain[4:], expected)
	if err != nil {
		return nil, wrapErr(KindLzoLength, "LZO1X stream", err)
	}
	return out, nil
}
