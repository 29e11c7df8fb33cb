// Package noise implements the Noise Protocol Framework SymmetricState and
// CipherState on top of the kdf package.  Handshake patterns are left to
// the caller.
package noise

import (
	"errors"
	"fmt"

	"github.com/panda-coder/go-noise-kdf/hashfunc"
	"github.com/panda-coder/go-noise-kdf/kdf"
)

// ErrUnknownHash is returned when a hash function name is not registered.
var ErrUnknownHash = errors.New("noise: unknown hash function")

// SymmetricState is a Noise SymmetricState.
//
// It is not safe for concurrent use.
type SymmetricState struct {
	alg     hashfunc.Algorithm
	hashLen int

	kdf    *kdf.HKDF
	hasher hashfunc.Hash
	cs     *CipherState

	ck [hashfunc.MaxHashLen]byte
	h  [hashfunc.MaxHashLen]byte

	// Holds up to three HKDF outputs between a derivation and its use.
	scratch [3 * hashfunc.MaxHashLen]byte
}

// New constructs a SymmetricState for the named hash function.
func New(hashName string) (*SymmetricState, error) {
	alg := hashfunc.FromString(hashName)
	if alg == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHash, hashName)
	}
	return NewSymmetricState(alg), nil
}

// NewSymmetricState constructs a SymmetricState over alg.
func NewSymmetricState(alg hashfunc.Algorithm) *SymmetricState {
	return &SymmetricState{
		alg:     alg,
		hashLen: alg.HashLen(),
		kdf:     kdf.New(alg),
		hasher:  alg.New(),
		cs:      &CipherState{},
	}
}

// InitializeSymmetric initializes the state with the protocol name.
func (ss *SymmetricState) InitializeSymmetric(protocolName []byte) {
	h := ss.h[:ss.hashLen]
	if len(protocolName) <= ss.hashLen {
		clear(h)
		copy(h, protocolName)
	} else {
		ss.hasher.AppendData(protocolName)
		ss.hasher.GetHashAndReset(h)
	}
	copy(ss.ck[:ss.hashLen], h)
	ss.cs.Reset()
}

// MixKey mixes input key material into the chaining key and rekeys the
// CipherState.
func (ss *SymmetricState) MixKey(inputKeyMaterial []byte) error {
	out := ss.scratch[:2*ss.hashLen]
	defer clear(out)

	ss.kdf.ExtractAndExpand2(out, ss.chainingKey(), inputKeyMaterial)
	copy(ss.ck[:], out[:ss.hashLen])

	return ss.cs.InitializeKey(out[ss.hashLen : ss.hashLen+KeySize])
}

// MixHash mixes data into the handshake hash.
func (ss *SymmetricState) MixHash(data []byte) {
	h := ss.h[:ss.hashLen]
	ss.hasher.AppendData(h)
	ss.hasher.AppendData(data)
	ss.hasher.GetHashAndReset(h)
}

// MixKeyAndHash mixes input key material into the chaining key, the
// handshake hash and the CipherState key.  Used for pre-shared keys.
func (ss *SymmetricState) MixKeyAndHash(inputKeyMaterial []byte) error {
	out := ss.scratch[:3*ss.hashLen]
	defer clear(out)

	ss.kdf.ExtractAndExpand3(out, ss.chainingKey(), inputKeyMaterial)
	copy(ss.ck[:], out[:ss.hashLen])
	ss.MixHash(out[ss.hashLen : 2*ss.hashLen])

	return ss.cs.InitializeKey(out[2*ss.hashLen : 2*ss.hashLen+KeySize])
}

// GetHandshakeHash returns a copy of the handshake hash.
func (ss *SymmetricState) GetHandshakeHash() []byte {
	return append([]byte(nil), ss.h[:ss.hashLen]...)
}

// EncryptAndHash encrypts plaintext with the handshake hash as associated
// data and mixes the ciphertext into the hash.
func (ss *SymmetricState) EncryptAndHash(plaintext []byte) ([]byte, error) {
	ciphertext, err := ss.cs.EncryptWithAd(ss.h[:ss.hashLen], plaintext)
	if err != nil {
		return nil, err
	}
	ss.MixHash(ciphertext)
	return ciphertext, nil
}

// DecryptAndHash is the inverse of EncryptAndHash.
func (ss *SymmetricState) DecryptAndHash(ciphertext []byte) ([]byte, error) {
	plaintext, err := ss.cs.DecryptWithAd(ss.h[:ss.hashLen], ciphertext)
	if err != nil {
		return nil, err
	}
	ss.MixHash(ciphertext)
	return plaintext, nil
}

// Split returns the pair of transport CipherStates, initiator to responder
// first.
func (ss *SymmetricState) Split() (*CipherState, *CipherState, error) {
	out := ss.scratch[:2*ss.hashLen]
	defer clear(out)

	ss.kdf.ExtractAndExpand2(out, ss.chainingKey(), nil)

	c1, c2 := &CipherState{}, &CipherState{}
	if err := c1.InitializeKey(out[:KeySize]); err != nil {
		return nil, nil, err
	}
	if err := c2.InitializeKey(out[ss.hashLen : ss.hashLen+KeySize]); err != nil {
		return nil, nil, err
	}
	return c1, c2, nil
}

// CipherState returns the handshake CipherState.
func (ss *SymmetricState) CipherState() *CipherState {
	return ss.cs
}

// Close clears the chaining key and CipherState and releases the hash
// contexts.  The handshake hash is left intact so GetHandshakeHash keeps
// working for channel binding.
func (ss *SymmetricState) Close() {
	clear(ss.ck[:])
	ss.cs.Reset()
	ss.kdf.Close()
	ss.hasher.Close()
}

func (ss *SymmetricState) chainingKey() []byte {
	return ss.ck[:ss.hashLen]
}
