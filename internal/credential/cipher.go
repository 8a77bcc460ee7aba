package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"github.com/judge0/llm-companion/internal/domain"
)

// blobPrefix tags the encoding so a blob from another scheme is rejected up front.
const blobPrefix = "aes-gcm:"

var (
	errMissingPrefix = errors.New("blob is not aes-gcm encoded")
	errShortBlob     = errors.New("blob shorter than nonce")
)

// Cipher encrypts strings with AES-256-GCM under a session key.
type Cipher struct {
	session *Session
	random  io.Reader
}

// NewCipher creates a cipher bound to session.
func NewCipher(session *Session) *Cipher {
	return &Cipher{session: session, random: rand.Reader}
}

// Encrypt returns "aes-gcm:" + base64(nonce || ciphertext || tag). Every call uses a
// fresh random nonce, so equal plaintexts produce different blobs.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	gcm, err := c.aead()
	if err != nil {
		return "", domain.ErrEncryption(err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return "", domain.ErrEncryption(err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return blobPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any malformed blob, or one sealed under a different key,
// fails with the same generic error.
func (c *Cipher) Decrypt(blob string) (string, error) {
	encoded, ok := strings.CutPrefix(blob, blobPrefix)
	if !ok {
		return "", domain.ErrDecryption(errMissingPrefix)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", domain.ErrDecryption(err)
	}

	gcm, err := c.aead()
	if err != nil {
		return "", domain.ErrDecryption(err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize+gcm.Overhead() {
		return "", domain.ErrDecryption(errShortBlob)
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", domain.ErrDecryption(err)
	}
	return string(plaintext), nil
}

func (c *Cipher) aead() (cipher.AEAD, error) {
	key, err := c.session.Key()
	if err != nil {
		return nil, err
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
