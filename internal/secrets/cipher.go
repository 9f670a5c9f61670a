// Package secrets provides field-level encryption for tax identifiers plus
// format validation and masking. Values are stored as self-contained
// envelopes so the master key can be rederived per value.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength    = 16
	keyLength     = 32
	kdfIterations = 100_000

	// envelopeParts is the exact segment count of the wire format
	// salt:nonce:tag:ciphertext. Anything else is rejected outright.
	envelopeParts = 4

	envelopeDelimiter = ":"
)

var (
	// ErrMissingKey means no master key was configured. This is a fatal
	// startup condition, not a per-call failure.
	ErrMissingKey = errors.New("encryption master key not configured")

	// ErrInvalidFormat means the envelope does not have the expected
	// salt:nonce:tag:ciphertext shape.
	ErrInvalidFormat = errors.New("invalid envelope format")

	// ErrDecryptionFailed means authentication failed: the value was
	// tampered with or a different master key was used. Callers must treat
	// this as a data integrity violation, never as an empty value.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Cipher encrypts and decrypts single sensitive strings with AES-256-GCM
// under keys derived per value from the master key.
type Cipher struct {
	masterKey []byte
}

// New constructs a Cipher. An empty master key is refused so the absence of
// configuration surfaces at startup instead of on the first write.
func New(masterKey string) (*Cipher, error) {
	if masterKey == "" {
		return nil, ErrMissingKey
	}
	return &Cipher{masterKey: []byte(masterKey)}, nil
}

// Encrypt seals plaintext into a salt:nonce:tag:ciphertext envelope. The salt
// and nonce are freshly random on every call, so encrypting the same value
// twice yields two different envelopes. Empty input means "no value" and
// round-trips as an empty string.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	tagStart := len(sealed) - gcm.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	segments := []string{
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ciphertext),
	}
	return strings.Join(segments, envelopeDelimiter), nil
}

// Decrypt opens an envelope produced by Encrypt. Tag verification failures
// and malformed envelopes fail loudly; silently returning garbage for
// corrupted tax identifiers would be a data integrity violation.
func (c *Cipher) Decrypt(envelope string) (string, error) {
	if envelope == "" {
		return "", nil
	}

	parts := strings.Split(envelope, envelopeDelimiter)
	if len(parts) != envelopeParts {
		return "", fmt.Errorf("%w: expected %d segments, got %d", ErrInvalidFormat, envelopeParts, len(parts))
	}

	decoded := make([][]byte, envelopeParts)
	for i, part := range parts {
		raw, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			return "", fmt.Errorf("%w: segment %d is not base64", ErrInvalidFormat, i)
		}
		decoded[i] = raw
	}
	salt, nonce, tag, ciphertext := decoded[0], decoded[1], decoded[2], decoded[3]

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", fmt.Errorf("%w: bad nonce length %d", ErrInvalidFormat, len(nonce))
	}

	sealed := append(append([]byte{}, ciphertext...), tag...)
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.masterKey, salt, kdfIterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return gcm, nil
}
