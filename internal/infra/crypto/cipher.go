// Package crypto cifra campos sueltos (upi_id, name, note) con AES-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// PassphraseLength es el largo exacto aceptado para ENCRYPTION_KEY.
const PassphraseLength = 32

// salt fijo: la misma passphrase tiene que dar la misma key entre reinicios.
var keySalt = []byte("upi-rooms-bot/profile-fields/v1")

var ErrShortCiphertext = errors.New("ciphertext too short")

type Cipher struct {
	aead      cipher.AEAD
	ephemeral bool
}

// New deriva la key con scrypt desde la passphrase. Passphrase vacía => key random
// de proceso: lo cifrado no se puede leer después de reiniciar.
func New(passphrase string) (*Cipher, error) {
	var (
		key       []byte
		ephemeral bool
	)
	switch len(passphrase) {
	case 0:
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("random key: %w", err)
		}
		ephemeral = true
	case PassphraseLength:
		k, err := scrypt.Key([]byte(passphrase), keySalt, 1<<15, 8, 1, 32)
		if err != nil {
			return nil, fmt.Errorf("derive key: %w", err)
		}
		key = k
	default:
		return nil, fmt.Errorf("encryption key must be empty or exactly %d characters (got %d)", PassphraseLength, len(passphrase))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: gcm, ephemeral: ephemeral}, nil
}

// Ephemeral: true si la key se generó al vuelo.
func (c *Cipher) Ephemeral() bool { return c.ephemeral }

// Encrypt devuelve base64(nonce|ct).
func (c *Cipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := c.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (c *Cipher) Decrypt(b64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", err
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return "", ErrShortCiphertext
	}
	pt, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
