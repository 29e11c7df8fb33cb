package noise

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the size of a CipherState key in bytes.
	KeySize = chacha20poly1305.KeySize

	// maxNonce is reserved for Rekey.
	maxNonce = math.MaxUint64
)

var (
	// ErrNonceExhausted is returned when the nonce space of a CipherState
	// has been used up.
	ErrNonceExhausted = errors.New("noise: nonce exhausted")

	// ErrInvalidKeySize is returned when a CipherState key is not KeySize
	// bytes.
	ErrInvalidKeySize = errors.New("noise: invalid key size")
)

// CipherState is a Noise CipherState backed by ChaCha20-Poly1305.
type CipherState struct {
	k    [KeySize]byte
	n    uint64
	aead cipher.AEAD
}

// InitializeKey sets the key and resets the nonce.  An empty key clears the
// CipherState, after which encryption passes plaintext through.
func (cs *CipherState) InitializeKey(key []byte) error {
	if len(key) == 0 {
		cs.Reset()
		return nil
	}
	if len(key) != KeySize {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidKeySize, KeySize, len(key))
	}

	copy(cs.k[:], key)
	cs.n = 0
	return cs.initAEAD()
}

func (cs *CipherState) initAEAD() error {
	aead, err := chacha20poly1305.New(cs.k[:])
	if err != nil {
		return fmt.Errorf("failed to create AEAD: %w", err)
	}
	cs.aead = aead
	return nil
}

// HasKey returns true iff the CipherState is keyed.
func (cs *CipherState) HasKey() bool {
	return cs.aead != nil
}

// SetNonce sets the nonce.
func (cs *CipherState) SetNonce(nonce uint64) {
	cs.n = nonce
}

// EncryptWithAd encrypts plaintext and authenticates ad, incrementing the
// nonce.  Without a key the plaintext is returned as is.
func (cs *CipherState) EncryptWithAd(ad, plaintext []byte) ([]byte, error) {
	if cs.aead == nil {
		return plaintext, nil
	}
	if cs.n == maxNonce {
		return nil, ErrNonceExhausted
	}

	var nonce [chacha20poly1305.NonceSize]byte
	encodeNonce(&nonce, cs.n)

	ciphertext := cs.aead.Seal(nil, nonce[:], plaintext, ad)
	cs.n++
	return ciphertext, nil
}

// DecryptWithAd authenticates and decrypts ciphertext.  The nonce is only
// incremented on success.
func (cs *CipherState) DecryptWithAd(ad, ciphertext []byte) ([]byte, error) {
	if cs.aead == nil {
		return ciphertext, nil
	}
	if cs.n == maxNonce {
		return nil, ErrNonceExhausted
	}

	var nonce [chacha20poly1305.NonceSize]byte
	encodeNonce(&nonce, cs.n)

	plaintext, err := cs.aead.Open(nil, nonce[:], ciphertext, ad)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	cs.n++
	return plaintext, nil
}

// Rekey replaces the key with the first KeySize bytes of the encryption of
// KeySize zero bytes under the reserved maximum nonce.  The nonce is left
// unchanged.
func (cs *CipherState) Rekey() error {
	if cs.aead == nil {
		return fmt.Errorf("cipher not initialized")
	}

	var nonce [chacha20poly1305.NonceSize]byte
	encodeNonce(&nonce, maxNonce)

	var zeros [KeySize]byte
	newKey := cs.aead.Seal(nil, nonce[:], zeros[:], nil)
	copy(cs.k[:], newKey[:KeySize])
	clear(newKey)

	return cs.initAEAD()
}

// Reset clears the key and nonce.
func (cs *CipherState) Reset() {
	clear(cs.k[:])
	cs.n = 0
	cs.aead = nil
}

func encodeNonce(nonce *[chacha20poly1305.NonceSize]byte, n uint64) {
	binary.LittleEndian.PutUint64(nonce[4:], n)
}
