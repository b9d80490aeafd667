package sessions

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// IdentifierLength is the fixed character length of issued session identifiers.
const IdentifierLength = 32

var (
	// ErrMissingSessionSecret indicates the key provider returned no usable material.
	ErrMissingSessionSecret = errors.New("sessions: secret material required")
	// ErrMalformedCiphertext indicates data that was not produced by Seal.
	ErrMalformedCiphertext = errors.New("sessions: malformed ciphertext")
)

// Payload is the record bound to a session identifier at login time.
type Payload struct {
	ClientAddress string `json:"clientAddress"`
	UserID        string `json:"userId"`
}

// KeyProvider supplies the secret material backing the session codec.
type KeyProvider interface {
	SessionKey() ([]byte, error)
}

type staticKeyProvider struct {
	secret []byte
}

// NewStaticKeyProvider wraps a configured secret string as a KeyProvider.
func NewStaticKeyProvider(secret string) KeyProvider {
	return &staticKeyProvider{secret: []byte(secret)}
}

func (p *staticKeyProvider) SessionKey() ([]byte, error) {
	if len(p.secret) == 0 {
		return nil, ErrMissingSessionSecret
	}
	return append([]byte(nil), p.secret...), nil
}

// Codec reversibly encrypts session payloads. Seal and Open are exact inverses
// for any ciphertext produced by Seal; any other input fails with
// ErrMalformedCiphertext rather than an unstructured error.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives an AES-256-GCM codec from the provider's secret material.
func NewCodec(provider KeyProvider) (*Codec, error) {
	if provider == nil {
		return nil, ErrMissingSessionSecret
	}
	secret, err := provider.SessionKey()
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, ErrMissingSessionSecret
	}

	key := sha256.Sum256(secret)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// Seal encrypts the payload and returns a fixed-length opaque identifier along
// with the ciphertext to persist against it. The nonce is prepended to the
// ciphertext so Open needs no separate state.
func (c *Codec) Seal(payload Payload) (string, []byte, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", nil, err
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, err
	}

	identifierBytes := make([]byte, IdentifierLength/2)
	if _, err := rand.Read(identifierBytes); err != nil {
		return "", nil, err
	}

	ciphertext := c.aead.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(identifierBytes), ciphertext, nil
}

// Open decrypts ciphertext produced by Seal back into its payload.
func (c *Codec) Open(ciphertext []byte) (Payload, error) {
	nonceSize := c.aead.NonceSize()
	if len(ciphertext) <= nonceSize {
		return Payload{}, fmt.Errorf("%w: too short", ErrMalformedCiphertext)
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}

	var payload Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	return payload, nil
}
