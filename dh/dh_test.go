package dh

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestFromString(t *testing.T) {
	require.Equal(t, Curve25519, FromString("25519"))
	require.Equal(t, Secp256k1, FromString("secp256k1"))
	require.Nil(t, FromString("448"))
}

func TestX25519Vector(t *testing.T) {
	// RFC 7748 section 6.1.
	alice, err := Curve25519.KeyPairFromPrivate(mustDecodeHex(t, "77076d0a7318a57d3c16c17251b26645df4c2f87ebc0992ab177fba51db92c2a"))
	require.NoError(t, err)
	require.Equal(t, "8520f0098930a754748b7ddcb43ef75a0dbf3a0d26381af4eba4a98eaa9b4e6a", hex.EncodeToString(alice.Public()))

	bob, err := Curve25519.KeyPairFromPrivate(mustDecodeHex(t, "5dab087e624a8a4b79e17f8b83800ee66f3bb1292618b6fd1c2f8b27ff88e0eb"))
	require.NoError(t, err)
	require.Equal(t, "de9edb7d7b7dc1b4d35b61c2ece435373f8343c85b78674dadfc7e146f882b4f", hex.EncodeToString(bob.Public()))

	shared, err := Curve25519.DH(alice, bob.Public())
	require.NoError(t, err)
	require.Equal(t, "4a5d9d5ba4ce2de1728e3bf480350f25e07e21c947d19e3376f09b3c1e161742", hex.EncodeToString(shared))
}

func TestSecp256k1Vector(t *testing.T) {
	alice, err := Secp256k1.KeyPairFromPrivate(mustDecodeHex(t, "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"))
	require.NoError(t, err)
	require.Equal(t, "84bf7562262bbd6940085748f3be6afa52ae317155181ece31b66351ccffa4b0", hex.EncodeToString(alice.Public()))

	bob, err := Secp256k1.KeyPairFromPrivate(mustDecodeHex(t, "2122232425262728292a2b2c2d2e2f303132333435363738393a3b3c3d3e3f40"))
	require.NoError(t, err)
	require.Equal(t, "207bba70bc66309baa582a6ac120fd52d68026c51f6326f8ccedcbd2c1b7eb82", hex.EncodeToString(bob.Public()))

	shared, err := Secp256k1.DH(alice, bob.Public())
	require.NoError(t, err)
	require.Equal(t, "f40bb548d147b2c3cdcf635658c3fca87a3c1f85c7ac006e9b9e80d4dc70d84d", hex.EncodeToString(shared))
}

func TestAgreement(t *testing.T) {
	for _, fn := range []Function{Curve25519, Secp256k1} {
		t.Run(fn.String(), func(t *testing.T) {
			a, err := fn.GenerateKeyPair(rand.Reader)
			require.NoError(t, err)
			b, err := fn.GenerateKeyPair(rand.Reader)
			require.NoError(t, err)

			require.Len(t, a.Public(), fn.PublicKeySize())

			ab, err := fn.DH(a, b.Public())
			require.NoError(t, err)
			ba, err := fn.DH(b, a.Public())
			require.NoError(t, err)

			require.Len(t, ab, fn.SharedSecretSize())
			require.Equal(t, ab, ba)
		})
	}
}

func TestInvalidPublicKey(t *testing.T) {
	for _, fn := range []Function{Curve25519, Secp256k1} {
		kp, err := fn.GenerateKeyPair(rand.Reader)
		require.NoError(t, err)

		_, err = fn.DH(kp, make([]byte, 31))
		require.ErrorIs(t, err, ErrInvalidPublicKey, fn.String())
	}

	kp, err := Curve25519.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	_, err = Curve25519.DH(kp, make([]byte, 32))
	require.ErrorIs(t, err, ErrInvalidPublicKey)

	// x = 5 has no square root for x^3 + 7.
	notOnCurve := make([]byte, 32)
	notOnCurve[31] = 5
	kp, err = Secp256k1.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)
	_, err = Secp256k1.DH(kp, notOnCurve)
	require.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestInvalidPrivateKey(t *testing.T) {
	_, err := Curve25519.KeyPairFromPrivate(make([]byte, 16))
	require.ErrorIs(t, err, ErrInvalidPrivateKey)

	_, err = Secp256k1.KeyPairFromPrivate(make([]byte, 32))
	require.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestReset(t *testing.T) {
	kp, err := Curve25519.GenerateKeyPair(rand.Reader)
	require.NoError(t, err)

	private := kp.Private()
	kp.Reset()
	require.Nil(t, kp.Private())
	require.Equal(t, make([]byte, 32), private)
}
