package crypto

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	enc, err := NewTokenEncryptor(key)
	if err != nil {
		t.Fatalf("NewTokenEncryptor: %v", err)
	}

	sealed, err := enc.Encrypt("ya29.access-token")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed == "ya29.access-token" {
		t.Errorf("expected sealed value to differ from plaintext")
	}

	opened, err := enc.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if opened != "ya29.access-token" {
		t.Errorf("expected ya29.access-token, got %s", opened)
	}
}

func TestEmptyPassesThrough(t *testing.T) {
	key, _ := GenerateKey()
	enc, _ := NewTokenEncryptor(key)

	if out, _ := enc.Encrypt(""); out != "" {
		t.Errorf("expected empty ciphertext, got %q", out)
	}
	if out, _ := enc.Decrypt(""); out != "" {
		t.Errorf("expected empty plaintext, got %q", out)
	}
}

func TestRejectsShortKey(t *testing.T) {
	short := base64.StdEncoding.EncodeToString([]byte("too-short"))
	if _, err := NewTokenEncryptor(short); err == nil {
		t.Errorf("expected error for 9-byte key")
	}
	if _, err := NewTokenEncryptor(""); err == nil {
		t.Errorf("expected error for empty key")
	}
}

func TestDecryptTooShort(t *testing.T) {
	key, _ := GenerateKey()
	enc, _ := NewTokenEncryptor(key)

	_, err := enc.Decrypt(base64.StdEncoding.EncodeToString([]byte("abc")))
	if !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("expected ErrCiphertextTooShort, got %v", err)
	}
}
