// Package protect covers encryption at rest and retention enforcement.
// Resume content is sealed before it touches storage and purged when its
// retention window closes.
package protect

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	apperrors "github.com/aravind45/whynointerviews/internal/errors"
)

// Sealer encrypts and decrypts submission content with an AEAD. The nonce
// is generated per seal and stored as the ciphertext prefix, so sealed
// output is always longer than its input and never repeats.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a Sealer from a hex-encoded 256-bit key.
func NewSealer(hexKey string) (*Sealer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, apperrors.NewEncryptionError(apperrors.ErrCodeInvalidConfig,
			"Encryption key is not valid hex", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, apperrors.NewEncryptionError(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("Encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key)), nil)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, apperrors.NewEncryptionError(apperrors.ErrCodeInvalidConfig,
			"Failed to initialize cipher", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext. The submission ID binds the ciphertext to its
// record as additional authenticated data; content copied onto another
// submission row will not open.
func (s *Sealer) Seal(plaintext []byte, submissionID string) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, apperrors.NewEncryptionError(apperrors.ErrCodeSealFailed,
			"Failed to generate nonce", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, []byte(submissionID)), nil
}

// Open decrypts sealed content. Fails on any tampering, truncation, or
// submission ID mismatch.
func (s *Sealer) Open(sealed []byte, submissionID string) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, apperrors.NewEncryptionError(apperrors.ErrCodeOpenFailed,
			"Sealed content is too short to be valid", nil)
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(submissionID))
	if err != nil {
		return nil, apperrors.NewEncryptionError(apperrors.ErrCodeOpenFailed,
			"Failed to decrypt submission content", err)
	}
	return plaintext, nil
}

// GenerateKey returns a fresh hex-encoded key suitable for NewSealer,
// used by the keygen subcommand.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", apperrors.NewEncryptionError(apperrors.ErrCodeSealFailed,
			"Failed to generate key material", err)
	}
	return hex.EncodeToString(key), nil
}
