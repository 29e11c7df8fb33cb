package kdf

const (
	ipadByte = 0x36
	opadByte = 0x5c
)

// hmac writes HMAC-HASH(key, data[0] || data[1]) into out.
//
// key and out must be exactly HASHLEN bytes, and at most two data segments
// may be supplied.  The key and data are fully consumed before out is
// written, so out may alias any of them.
func (k *HKDF) hmac(out, key []byte, data ...[]byte) {
	k.assertOpen()
	if len(key) != k.hashLen {
		panic("kdf: HMAC key must be HASHLEN bytes")
	}
	if len(out) != k.hashLen {
		panic("kdf: HMAC output must be HASHLEN bytes")
	}
	if len(data) > 2 {
		panic("kdf: at most two HMAC data segments")
	}

	ipad, opad := k.ipad[:k.blockLen], k.opad[:k.blockLen]
	defer clear(ipad)
	defer clear(opad)

	// HASHLEN <= BLOCKLEN always holds, so the key never needs hashing down.
	// The pads are left zeroed by every call, so the tail past the key is
	// zero before the XOR.
	copy(ipad, key)
	copy(opad, key)
	for i := range ipad {
		ipad[i] ^= ipadByte
		opad[i] ^= opadByte
	}

	k.inner.AppendData(ipad)
	for _, d := range data {
		k.inner.AppendData(d)
	}
	k.inner.GetHashAndReset(out)

	k.outer.AppendData(opad)
	k.outer.AppendData(out)
	k.outer.GetHashAndReset(out)
}
