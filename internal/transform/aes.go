package transform

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// aesKey and aesIV are container constants hardcoded in the implementation,
// per spec.md §4.2 and §6. They must reproduce the exact bytes observed in
// the pixel-bean container format.
var (
	aesKey = []byte("78hrey23y28ogs89")
	aesIV  = []byte("1234567890123456")
)

// DecryptAESCBC decrypts ciphertext with the container-constant 128-bit
// AES key/IV. No PKCS padding is stripped; plaintext length equals
// ciphertext length (the subsequent compressor encodes its own length).
func DecryptAESCBC(ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("transform: ciphertext length %d is not a multiple of %d: %w", len(ciphertext), aes.BlockSize, ErrCryptoAlignment)
	}
	if len(ciphertext) == 0 {
		return nil, nil
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fmt.Errorf("transform: aes.NewCipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, aesIV)
	mode.CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}

// ErrCryptoAlignment is returned when AES-CBC input is not a multiple of
// the cipher block size (pixelbean.KindCryptoAlignment).
var ErrCryptoAlignment = fmt.Errorf("transform: AES-CBC input must be a multiple of the block size")
