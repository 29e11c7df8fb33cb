// Package dh implements the Diffie-Hellman functions whose shared secrets
// feed the Noise key derivation as input key material.
package dh

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/dustinxie/ecc"
	"golang.org/x/crypto/curve25519"
)

var (
	// ErrInvalidPublicKey is returned when a remote public key is malformed
	// or yields a degenerate shared secret.
	ErrInvalidPublicKey = errors.New("dh: invalid public key")

	// ErrInvalidPrivateKey is returned when private key bytes are malformed.
	ErrInvalidPrivateKey = errors.New("dh: invalid private key")

	// Curve25519 is X25519 (RFC 7748).
	Curve25519 Function = &dh25519{}

	// Secp256k1 is x-only ECDH over secp256k1, with 32 byte public keys.
	Secp256k1 Function = &dhSecp256k1{}

	supportedFunctions = map[string]Function{
		"25519":     Curve25519,
		"secp256k1": Secp256k1,
	}
)

// Function is a Diffie-Hellman function.
type Function interface {
	fmt.Stringer

	// GenerateKeyPair generates a new key pair using rng.
	GenerateKeyPair(rng io.Reader) (*KeyPair, error)

	// KeyPairFromPrivate reconstructs a key pair from its private key.
	KeyPairFromPrivate(private []byte) (*KeyPair, error)

	// DH computes the shared secret between kp and the remote public key.
	DH(kp *KeyPair, remote []byte) ([]byte, error)

	// PublicKeySize returns the size of public keys in bytes.
	PublicKeySize() int

	// SharedSecretSize returns the size of DH outputs in bytes (`DHLEN`).
	SharedSecretSize() int
}

// FromString returns a Function by its Noise name, or nil.
func FromString(s string) Function {
	return supportedFunctions[s]
}

// KeyPair is a DH key pair.
type KeyPair struct {
	private []byte
	public  []byte
}

// Public returns the public key.
func (kp *KeyPair) Public() []byte {
	return kp.public
}

// Private returns the private key.
func (kp *KeyPair) Private() []byte {
	return kp.private
}

// Reset clears the private key.
func (kp *KeyPair) Reset() {
	clear(kp.private)
	kp.private = nil
}

type dh25519 struct{}

func (d *dh25519) String() string {
	return "25519"
}

func (d *dh25519) GenerateKeyPair(rng io.Reader) (*KeyPair, error) {
	private := make([]byte, curve25519.ScalarSize)
	if _, err := io.ReadFull(rng, private); err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return d.KeyPairFromPrivate(private)
}

func (d *dh25519) KeyPairFromPrivate(private []byte) (*KeyPair, error) {
	if len(private) != curve25519.ScalarSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPrivateKey, curve25519.ScalarSize, len(private))
	}

	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("failed to compute public key: %w", err)
	}

	return &KeyPair{
		private: append([]byte(nil), private...),
		public:  public,
	}, nil
}

func (d *dh25519) DH(kp *KeyPair, remote []byte) ([]byte, error) {
	if len(remote) != curve25519.PointSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPublicKey, curve25519.PointSize, len(remote))
	}

	shared, err := curve25519.X25519(kp.private, remote)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return shared, nil
}

func (d *dh25519) PublicKeySize() int {
	return curve25519.PointSize
}

func (d *dh25519) SharedSecretSize() int {
	return curve25519.PointSize
}

const secp256k1Size = 32

type dhSecp256k1 struct{}

func (d *dhSecp256k1) String() string {
	return "secp256k1"
}

func (d *dhSecp256k1) GenerateKeyPair(rng io.Reader) (*KeyPair, error) {
	privKey, err := ecdsa.GenerateKey(ecc.P256k1(), rng)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return d.KeyPairFromPrivate(padScalar(privKey.D))
}

func (d *dhSecp256k1) KeyPairFromPrivate(private []byte) (*KeyPair, error) {
	if len(private) != secp256k1Size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPrivateKey, secp256k1Size, len(private))
	}

	curve := ecc.P256k1()
	scalar := new(big.Int).SetBytes(private)
	if scalar.Sign() == 0 || scalar.Cmp(curve.Params().N) >= 0 {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}

	x, _ := curve.ScalarBaseMult(private)
	return &KeyPair{
		private: append([]byte(nil), private...),
		public:  padScalar(x),
	}, nil
}

func (d *dhSecp256k1) DH(kp *KeyPair, remote []byte) ([]byte, error) {
	if len(remote) != secp256k1Size {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPublicKey, secp256k1Size, len(remote))
	}

	curve := ecc.P256k1()
	x := new(big.Int).SetBytes(remote)
	if x.Cmp(curve.Params().P) >= 0 {
		return nil, fmt.Errorf("%w: x coordinate out of range", ErrInvalidPublicKey)
	}
	y := liftX(x)
	if y == nil {
		return nil, fmt.Errorf("%w: not on curve", ErrInvalidPublicKey)
	}

	// The x coordinate of k*P and k*(-P) are the same, so the parity
	// lost by the x-only encoding does not matter.
	sharedX, sharedY := curve.ScalarMult(x, y, kp.private)
	if sharedX.Sign() == 0 && sharedY.Sign() == 0 {
		return nil, fmt.Errorf("%w: degenerate shared secret", ErrInvalidPublicKey)
	}
	return padScalar(sharedX), nil
}

func (d *dhSecp256k1) PublicKeySize() int {
	return secp256k1Size
}

func (d *dhSecp256k1) SharedSecretSize() int {
	return secp256k1Size
}

// liftX returns the even y coordinate for x, or nil if x is not on the curve.
func liftX(x *big.Int) *big.Int {
	p := ecc.P256k1().Params().P

	ySq := new(big.Int).Exp(x, big.NewInt(3), p)
	ySq.Add(ySq, big.NewInt(7))
	ySq.Mod(ySq, p)

	y := new(big.Int).ModSqrt(ySq, p)
	if y == nil {
		return nil
	}
	if y.Bit(0) == 1 {
		y.Sub(p, y)
	}
	return y
}

func padScalar(v *big.Int) []byte {
	out := make([]byte, secp256k1Size)
	v.FillBytes(out)
	return out
}
