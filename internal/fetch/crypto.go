package fetch

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Encrypted payload layout: magic, 16-byte salt, 12-byte nonce, ciphertext.
// Key is derived with PBKDF2-SHA256.
var cryptMagic = []byte("ALTV1GCM")

const (
	saltLen   = 16
	nonceLen  = 12
	kdfRounds = 100_000
	keyLenAES = 32
)

// IsEncrypted reports whether data carries the encrypted payload header.
func IsEncrypted(data []byte) bool {
	return len(data) > len(cryptMagic)+saltLen+nonceLen && bytes.HasPrefix(data, cryptMagic)
}

// Encrypt wraps plain in the encrypted payload format. Used by upload tooling
// that stages protected sources in S3.
func Encrypt(plain []byte, password string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, kdfRounds, keyLenAES, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	out := make([]byte, 0, len(cryptMagic)+saltLen+nonceLen+len(plain)+gcm.Overhead())
	out = append(out, cryptMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return gcm.Seal(out, nonce, plain, nil), nil
}

// Decrypt unwraps an AES-256-GCM payload with a password-derived key.
// Plain payloads pass through untouched so callers can always supply a password.
func Decrypt(data []byte, password string) ([]byte, error) {
	if !IsEncrypted(data) {
		return data, nil
	}
	rest := data[len(cryptMagic):]
	salt := rest[:saltLen]
	nonce := rest[saltLen : saltLen+nonceLen]
	ciphertext := rest[saltLen+nonceLen:]

	key := pbkdf2.Key([]byte(password), salt, kdfRounds, keyLenAES, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}
	return plain, nil
}
