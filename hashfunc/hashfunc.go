// Package hashfunc implements the hash function capability consumed by the
// Noise key derivation, along with the standard Noise hash functions.
package hashfunc

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
)

const (
	// MaxHashLen is the largest HASHLEN of any built-in algorithm.
	MaxHashLen = 64

	// MaxBlockLen is the largest BLOCKLEN of any built-in algorithm.
	MaxBlockLen = 128
)

var (
	// SHA256 is the SHA256 hash function.
	SHA256 Algorithm = &algorithm{"SHA256", sha256.Size, sha256.BlockSize, sha256.New}

	// SHA512 is the SHA512 hash function.
	SHA512 Algorithm = &algorithm{"SHA512", sha512.Size, sha512.BlockSize, sha512.New}

	// BLAKE2s is the BLAKE2s hash function.
	BLAKE2s Algorithm = &algorithm{"BLAKE2s", blake2s.Size, blake2s.BlockSize, newBlake2s}

	// BLAKE2b is the BLAKE2b hash function.
	BLAKE2b Algorithm = &algorithm{"BLAKE2b", blake2b.Size, blake2b.BlockSize, newBlake2b}

	supportedAlgorithms = map[string]Algorithm{
		"SHA256":  SHA256,
		"SHA512":  SHA512,
		"BLAKE2s": BLAKE2s,
		"BLAKE2b": BLAKE2b,
	}
)

// Algorithm is a hash function factory.
type Algorithm interface {
	fmt.Stringer

	// HashLen returns the digest size in bytes (`HASHLEN`).
	HashLen() int

	// BlockLen returns the HMAC block size in bytes (`BLOCKLEN`).
	BlockLen() int

	// New constructs a new, empty hash context.
	New() Hash
}

// Hash is a single reusable hash context.
//
// Implementations are not safe for concurrent use.
type Hash interface {
	HashLen() int
	BlockLen() int

	// AppendData feeds data into the running digest.
	AppendData(data []byte)

	// GetHashAndReset writes the digest into out, which must be exactly
	// HashLen bytes, and resets the context to the empty state.
	GetHashAndReset(out []byte)

	// Close releases the context.  Any further use panics.
	Close()
}

// FromString returns an Algorithm by its Noise name, or nil.
func FromString(s string) Algorithm {
	return supportedAlgorithms[s]
}

// Names returns the names of all registered algorithms.
func Names() []string {
	names := make([]string, 0, len(supportedAlgorithms))
	for name := range supportedAlgorithms {
		names = append(names, name)
	}
	return names
}

// Register registers a new hash algorithm for use with FromString.  It is
// not safe to call concurrently with FromString, and is meant to be called
// from init.
func Register(alg Algorithm) {
	if alg.HashLen() > MaxHashLen || alg.BlockLen() > MaxBlockLen || alg.HashLen() > alg.BlockLen() {
		panic(fmt.Sprintf("hashfunc: unsupported dimensions for %s: HASHLEN %d, BLOCKLEN %d", alg, alg.HashLen(), alg.BlockLen()))
	}
	supportedAlgorithms[alg.String()] = alg
}

// FromHash adapts a standard library style hash constructor into an
// Algorithm.
func FromHash(name string, blockLen int, newFn func() hash.Hash) Algorithm {
	return &algorithm{
		name:     name,
		hashLen:  newFn().Size(),
		blockLen: blockLen,
		newFn:    newFn,
	}
}

type algorithm struct {
	name     string
	hashLen  int
	blockLen int
	newFn    func() hash.Hash
}

func (a *algorithm) String() string {
	return a.name
}

func (a *algorithm) HashLen() int {
	return a.hashLen
}

func (a *algorithm) BlockLen() int {
	return a.blockLen
}

func (a *algorithm) New() Hash {
	return &context{
		alg: a,
		h:   a.newFn(),
	}
}

type context struct {
	alg *algorithm
	h   hash.Hash
}

func (c *context) HashLen() int {
	return c.alg.hashLen
}

func (c *context) BlockLen() int {
	return c.alg.blockLen
}

func (c *context) AppendData(data []byte) {
	if c.h == nil {
		panic("hashfunc: use of closed hash")
	}
	_, _ = c.h.Write(data)
}

func (c *context) GetHashAndReset(out []byte) {
	if c.h == nil {
		panic("hashfunc: use of closed hash")
	}
	if len(out) != c.alg.hashLen {
		panic(fmt.Sprintf("hashfunc: %s output must be %d bytes, got %d", c.alg.name, c.alg.hashLen, len(out)))
	}

	// Sum appends, so with a zero-length view of out the digest lands in
	// place without an intermediate allocation.
	_ = c.h.Sum(out[:0])
	c.h.Reset()
}

// Close resets and drops the underlying state.  The concrete hash
// implementations do not scrub their internal block buffers on Reset, so
// the last partial block may linger until the state is collected.
func (c *context) Close() {
	if c.h == nil {
		return
	}
	c.h.Reset()
	c.h = nil
}

func newBlake2s() hash.Hash {
	// Only fails on an oversized key.
	ret, _ := blake2s.New256(nil)
	return ret
}

func newBlake2b() hash.Hash {
	ret, _ := blake2b.New512(nil)
	return ret
}
