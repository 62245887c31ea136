package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	encryptedValuePrefix = "sb:v1:"
	nonceSize            = 24
	keyInfo              = "staymate-bff/session-tokens"
)

var (
	ErrInvalidCipherKey = errors.New("invalid token cipher key")
	ErrDecrypt          = errors.New("token decryption failed")
)

// TokenCipher шифрует upstream токены перед записью в таблицу сессий.
type TokenCipher struct {
	key [32]byte
}

// NewTokenCipher выводит ключ secretbox из секрета конфигурации через HKDF.
func NewTokenCipher(secret string) (*TokenCipher, error) {
	trimmed := strings.TrimSpace(secret)
	if len(trimmed) < 32 {
		return nil, ErrInvalidCipherKey
	}
	c := &TokenCipher{}
	kdf := hkdf.New(sha256.New, []byte(trimmed), nil, []byte(keyInfo))
	if _, err := io.ReadFull(kdf, c.key[:]); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return c, nil
}

func (c *TokenCipher) Encrypt(plain string) (string, error) {
	if c == nil {
		return "", ErrInvalidCipherKey
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, &c.key)
	return encryptedValuePrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *TokenCipher) Decrypt(value string) (string, error) {
	if c == nil {
		return "", ErrInvalidCipherKey
	}
	if value == "" {
		return "", nil
	}
	if !strings.HasPrefix(value, encryptedValuePrefix) {
		return "", ErrDecrypt
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, encryptedValuePrefix))
	if err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if len(payload) <= nonceSize {
		return "", ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], payload[:nonceSize])
	plain, ok := secretbox.Open(nil, payload[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
