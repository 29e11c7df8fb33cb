// Package kdf implements the HKDF (RFC 5869) used by the Noise symmetric
// ratchet to derive two or three HASHLEN sized outputs from a chaining key
// and input key material.
//
// A HKDF instance holds two reusable hash contexts and scratch space, and is
// not safe for concurrent use.  Callers should hold one instance per
// handshake session, or serialize access externally.
//
// Length mismatches on the chaining key or output are programming errors
// and panic.
package kdf

import "github.com/panda-coder/go-noise-kdf/hashfunc"

// HKDF derives Noise HKDF outputs with a fixed hash algorithm.
type HKDF struct {
	alg      hashfunc.Algorithm
	hashLen  int
	blockLen int

	inner hashfunc.Hash
	outer hashfunc.Hash

	// Scratch space, zeroed before every return.
	ipad    [hashfunc.MaxBlockLen]byte
	opad    [hashfunc.MaxBlockLen]byte
	tempKey [hashfunc.MaxHashLen]byte
	info    [1]byte
}

// New constructs a HKDF over alg.
func New(alg hashfunc.Algorithm) *HKDF {
	if alg.HashLen() > hashfunc.MaxHashLen || alg.BlockLen() > hashfunc.MaxBlockLen || alg.HashLen() > alg.BlockLen() {
		panic("kdf: unsupported hash dimensions for " + alg.String())
	}
	return &HKDF{
		alg:      alg,
		hashLen:  alg.HashLen(),
		blockLen: alg.BlockLen(),
		inner:    alg.New(),
		outer:    alg.New(),
	}
}

// Algorithm returns the underlying hash algorithm.
func (k *HKDF) Algorithm() hashfunc.Algorithm {
	return k.alg
}

// HashLen returns the size of each derived output.
func (k *HKDF) HashLen() int {
	return k.hashLen
}

// BlockLen returns the HMAC block size of the underlying hash.
func (k *HKDF) BlockLen() int {
	return k.blockLen
}

// ExtractAndExpand2 writes HKDF(chainingKey, inputKeyMaterial) with two
// outputs into output.
//
// chainingKey must be HASHLEN bytes and output 2*HASHLEN bytes.
// inputKeyMaterial is 0, 32 or HASHLEN bytes by convention, which is not
// enforced.  Both inputs may alias output.
func (k *HKDF) ExtractAndExpand2(output, chainingKey, inputKeyMaterial []byte) {
	k.extractAndExpand(2, output, chainingKey, inputKeyMaterial)
}

// ExtractAndExpand3 writes HKDF(chainingKey, inputKeyMaterial) with three
// outputs into output, which must be 3*HASHLEN bytes.  The first two
// outputs are identical to those of ExtractAndExpand2.
func (k *HKDF) ExtractAndExpand3(output, chainingKey, inputKeyMaterial []byte) {
	k.extractAndExpand(3, output, chainingKey, inputKeyMaterial)
}

func (k *HKDF) extractAndExpand(outputs int, output, chainingKey, inputKeyMaterial []byte) {
	k.assertOpen()
	if len(chainingKey) != k.hashLen {
		panic("kdf: chaining key must be HASHLEN bytes")
	}
	if len(output) != outputs*k.hashLen {
		panic("kdf: output must be a multiple of HASHLEN matching the output count")
	}

	tempKey := k.tempKey[:k.hashLen]
	defer clear(tempKey)

	// Extract.  chainingKey and inputKeyMaterial are not read again after
	// this, which is what makes aliasing them with output safe.
	k.hmac(tempKey, chainingKey, inputKeyMaterial)

	// Expand, T(i) = HMAC(tempKey, T(i-1) || i).
	var prev []byte
	for i := 0; i < outputs; i++ {
		k.info[0] = byte(i + 1)
		block := output[i*k.hashLen : (i+1)*k.hashLen]
		if prev == nil {
			k.hmac(block, tempKey, k.info[:])
		} else {
			k.hmac(block, tempKey, prev, k.info[:])
		}
		prev = block
	}
}

// Close releases the hash contexts.  The HKDF must not be used afterwards.
func (k *HKDF) Close() {
	if k.inner != nil {
		k.inner.Close()
		k.inner = nil
	}
	if k.outer != nil {
		k.outer.Close()
		k.outer = nil
	}
}

func (k *HKDF) assertOpen() {
	if k.inner == nil || k.outer == nil {
		panic("kdf: use of closed HKDF")
	}
}
