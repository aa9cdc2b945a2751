package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedIVIsASCIINotHex(t *testing.T) {
	require.Equal(t, []byte{'0', '1', '0', '2', '0', '3', '0', '4', '0', '5', '0', '6', '0', '7', '0', '8'}, fixedIV)
	require.Len(t, fixedIV, 16)
}

func TestNewProducesSPKIDER(t *testing.T) {
	_, pubB64, err := New()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(pubB64)
	require.NoError(t, err)
	require.Equal(t, byte(0x30), raw[0], "SPKI DER starts with a SEQUENCE tag")
	require.GreaterOrEqual(t, len(raw), 88)
	require.LessOrEqual(t, len(raw), 92)
}

func TestAgreeIsCommutative(t *testing.T) {
	kpA, pubA, err := New()
	require.NoError(t, err)
	kpB, pubB, err := New()
	require.NoError(t, err)

	keyFromA, err := Agree(kpA, pubB)
	require.NoError(t, err)
	keyFromB, err := Agree(kpB, pubA)
	require.NoError(t, err)

	require.Equal(t, keyFromA, keyFromB)
}

func TestAgreeAcceptsSEC1UncompressedPeerKey(t *testing.T) {
	kpA, _, err := New()
	require.NoError(t, err)

	peerPriv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	sec1 := peerPriv.PublicKey().Bytes()
	require.Len(t, sec1, 65)
	require.Equal(t, byte(0x04), sec1[0])

	key, err := Agree(kpA, base64.StdEncoding.EncodeToString(sec1))
	require.NoError(t, err)
	require.NotZero(t, key)
}

func TestAgreeRejectsGarbage(t *testing.T) {
	kpA, _, err := New()
	require.NoError(t, err)

	_, err = Agree(kpA, base64.StdEncoding.EncodeToString([]byte("not a key")))
	require.ErrorIs(t, err, ErrInvalidPeerKey)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	var key SessionKey
	for i := range key {
		key[i] = byte(i)
	}

	const plaintext = `{"action":"send_request","device_id":"abc-123"}`
	ciphertext, err := Encrypt(key, plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	decrypted, err := Decrypt(key, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestDecryptRejectsInvalidUTF8(t *testing.T) {
	var key SessionKey
	garbage := EncryptBytes(key, []byte{0xff, 0xfe, 0xfd})
	_, err := Decrypt(key, base64.StdEncoding.EncodeToString(garbage))
	require.Error(t, err)
}

