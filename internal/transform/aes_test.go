package transform

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"testing"
)

// encryptForTest mirrors the producer side of DecryptAESCBC using the same
// container-constant key/IV, so the test can build valid ciphertext without
// a real pixel-bean encoder.
func encryptForTest(t *testing.T, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(aesKey)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, aesIV).CryptBlocks(ciphertext, plaintext)
	return ciphertext
}

func TestDecryptAESCBC_RoundTrip(t *testing.T) {
	plaintext := make([]byte, aes.BlockSize*3)
	for i := range plaintext {
		plaintext[i] = byte(i * 7)
	}
	ciphertext := encryptForTest(t, plaintext)

	got, err := DecryptAESCBC(ciphertext)
	if err != nil {
		t.Fatalf("DecryptAESCBC: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Fatalf("round trip mismatch:\ngot  %v\nwant %v", got, plaintext)
	}
}

func TestDecryptAESCBC_Empty(t *testing.T) {
	got, err := DecryptAESCBC(nil)
	if err != nil {
		t.Fatalf("DecryptAESCBC(nil): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty plaintext, got %d bytes", len(got))
	}
}

func TestDecryptAESCBC_Misaligned(t *testing.T) {
	_, err := DecryptAESCBC(make([]byte, aes.BlockSize+1))
	if err == nil {
		t.Fatalf("expected alignment error")
	}
	if !errors.Is(err, ErrCryptoAlignment) {
		t.Fatalf("expected ErrCryptoAlignment, got %v", err)
	}
}
