package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/panda-coder/go-noise-kdf/dh"
	"github.com/panda-coder/go-noise-kdf/internal/log"
	"github.com/panda-coder/go-noise-kdf/noise"
)

const (
	protocolName = "Noise_NN_secp256k1_ChaChaPoly_SHA256"
	prologue     = "go-noise-kdf example"
)

func main() {
	if err := log.Init("info"); err != nil {
		panic(err)
	}
	defer log.Sync()

	fmt.Println("=== Noise NN Symmetric Ratchet Example ===")
	fmt.Println()

	fmt.Println("Step 1: Initialize Symmetric States")
	initiator := newState()
	defer initiator.Close()
	responder := newState()
	defer responder.Close()
	fmt.Printf("Handshake Hash: %s\n\n", hex.EncodeToString(initiator.GetHandshakeHash()))

	fmt.Println("Step 2: Handshake Act 1 (-> e)")
	initiatorEphemeral, err := dh.Secp256k1.GenerateKeyPair(rand.Reader)
	if err != nil {
		log.Fatal("failed to generate initiator ephemeral keypair", zap.Error(err))
	}
	defer initiatorEphemeral.Reset()
	initiator.MixHash(initiatorEphemeral.Public())
	act1 := mustEncrypt(initiator, nil)
	responder.MixHash(initiatorEphemeral.Public())
	mustDecrypt(responder, act1)
	fmt.Printf("Initiator Ephemeral Public Key: %s\n\n", hex.EncodeToString(initiatorEphemeral.Public()))

	fmt.Println("Step 3: Handshake Act 2 (<- e, ee)")
	responderEphemeral, err := dh.Secp256k1.GenerateKeyPair(rand.Reader)
	if err != nil {
		log.Fatal("failed to generate responder ephemeral keypair", zap.Error(err))
	}
	defer responderEphemeral.Reset()

	responder.MixHash(responderEphemeral.Public())
	mixDH(responder, responderEphemeral, initiatorEphemeral.Public())
	act2 := mustEncrypt(responder, []byte("Hello from the responder"))

	initiator.MixHash(responderEphemeral.Public())
	mixDH(initiator, initiatorEphemeral, responderEphemeral.Public())
	payload := mustDecrypt(initiator, act2)
	fmt.Printf("Responder Ephemeral Public Key: %s\n", hex.EncodeToString(responderEphemeral.Public()))
	fmt.Printf("Act 2 Payload: %s\n\n", payload)

	fmt.Println("Step 4: Derive Transport Keys")
	initiatorSend, initiatorRecv, err := initiator.Split()
	if err != nil {
		log.Fatal("initiator split failed", zap.Error(err))
	}
	responderRecv, responderSend, err := responder.Split()
	if err != nil {
		log.Fatal("responder split failed", zap.Error(err))
	}
	fmt.Printf("Handshake Hash: %s\n\n", hex.EncodeToString(initiator.GetHandshakeHash()))

	fmt.Println("Step 5: Test Encrypted Communication")
	roundTrip(initiatorSend, responderRecv, "Hello, Noise!")
	roundTrip(responderSend, initiatorRecv, "Hello back!")

	fmt.Println()
	fmt.Println("=== Handshake Complete ===")
}

func newState() *noise.SymmetricState {
	ss, err := noise.New("SHA256")
	if err != nil {
		log.Fatal("failed to create symmetric state", zap.Error(err))
	}
	ss.InitializeSymmetric([]byte(protocolName))
	ss.MixHash([]byte(prologue))
	return ss
}

func mixDH(ss *noise.SymmetricState, local *dh.KeyPair, remote []byte) {
	shared, err := dh.Secp256k1.DH(local, remote)
	if err != nil {
		log.Fatal("DH failed", zap.Error(err))
	}
	defer clear(shared)

	if err := ss.MixKey(shared); err != nil {
		log.Fatal("MixKey failed", zap.Error(err))
	}
}

func mustEncrypt(ss *noise.SymmetricState, payload []byte) []byte {
	ct, err := ss.EncryptAndHash(payload)
	if err != nil {
		log.Fatal("EncryptAndHash failed", zap.Error(err))
	}
	return ct
}

func mustDecrypt(ss *noise.SymmetricState, ct []byte) []byte {
	pt, err := ss.DecryptAndHash(ct)
	if err != nil {
		log.Fatal("DecryptAndHash failed", zap.Error(err))
	}
	return pt
}

func roundTrip(send, recv *noise.CipherState, msg string) {
	ct, err := send.EncryptWithAd(nil, []byte(msg))
	if err != nil {
		log.Fatal("encrypt failed", zap.Error(err))
	}
	pt, err := recv.DecryptWithAd(nil, ct)
	if err != nil {
		log.Fatal("decrypt failed", zap.Error(err))
	}
	log.Info("transport message", zap.Int("ciphertext_len", len(ct)), zap.String("plaintext", string(pt)))
	fmt.Printf("%q -> %s -> %q\n", msg, hex.EncodeToString(ct), pt)
}
