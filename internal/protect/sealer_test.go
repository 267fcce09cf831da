package protect

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aravind45/whynointerviews/internal/errors"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	sealer, err := NewSealer(key)
	if err != nil {
		t.Fatalf("NewSealer failed: %v", err)
	}
	return sealer
}

func TestSealOpenRoundTrip(t *testing.T) {
	sealer := newTestSealer(t)
	plaintext := []byte("Jane Doe\nSoftware Engineer\nGo, PostgreSQL")

	sealed, err := sealer.Seal(plaintext, "sub-1")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if len(sealed) <= len(plaintext) {
		t.Errorf("sealed length %d not greater than plaintext %d", len(sealed), len(plaintext))
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("sealed output contains the plaintext")
	}

	opened, err := sealer.Open(sealed, "sub-1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Error("round trip did not preserve content")
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	sealer := newTestSealer(t)
	sealed, err := sealer.Seal([]byte("content"), "sub-1")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	tampered := make([]byte, len(sealed))
	copy(tampered, sealed)
	tampered[len(tampered)-1] ^= 0x01

	if _, err := sealer.Open(tampered, "sub-1"); err == nil {
		t.Error("expected tampered ciphertext to fail")
	} else if !errors.IsErrorType(err, errors.ErrorTypeEncryption) {
		t.Errorf("wrong error type: %v", err)
	}
}

func TestOpenRejectsWrongSubmission(t *testing.T) {
	sealer := newTestSealer(t)
	sealed, err := sealer.Seal([]byte("content"), "sub-1")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := sealer.Open(sealed, "sub-2"); err == nil {
		t.Error("ciphertext bound to one submission opened under another")
	}
}

func TestOpenRejectsTruncatedInput(t *testing.T) {
	sealer := newTestSealer(t)
	if _, err := sealer.Open([]byte("short"), "sub-1"); err == nil {
		t.Error("expected truncated input to fail")
	}
}

func TestSealNoncesNeverRepeat(t *testing.T) {
	sealer := newTestSealer(t)
	a, _ := sealer.Seal([]byte("same content"), "sub-1")
	b, _ := sealer.Seal([]byte("same content"), "sub-1")
	if bytes.Equal(a, b) {
		t.Error("two seals of identical content produced identical output")
	}
}

func TestNewSealerRejectsBadKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"not hex", "zzzz"},
		{"too short", "deadbeef"},
		{"too long", strings.Repeat("ab", 48)},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSealer(tt.key); err == nil {
				t.Errorf("NewSealer accepted key %q", tt.key)
			}
		})
	}
}
