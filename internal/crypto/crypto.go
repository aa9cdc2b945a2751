// Package crypto implements the ephemeral P-256 ECDH key agreement and
// AES-256-CTR stream cipher that the Android reference peer ("CatShare")
// uses. Both primitives are pinned exactly as the peer's Java code calls
// them:
//
//   - KeyAgreement.getInstance("ECDH") over P-256, then
//     KeyAgreement.generateSecret("TlsPremasterSecret") — which returns
//     the raw ECDH shared secret with no KDF applied.
//   - Cipher.getInstance("AES/CTR/NoPadding") with an IV that is the
//     literal ASCII bytes of the string "0102030405060708", not its
//     hex-decoded form.
//
// Any deviation — an HKDF pass, a hex-decoded IV, a different curve —
// silently breaks interoperability with the peer. Nothing here is
// configurable for that reason.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"
)

// fixedIV is the 16-byte ASCII string "0102030405060708", i.e. bytes
// 0x30 0x31 0x30 0x32 ... 0x30 0x38. The peer passes this literal string
// as the IV bytes rather than decoding it as hex.
var fixedIV = []byte("0102030405060708")

// ErrInvalidPeerKey is returned by Agree when the supplied Base64 blob is
// neither a SPKI DER key nor a SEC1 uncompressed point.
var ErrInvalidPeerKey = errors.New("crypto: peer public key is neither SPKI DER nor SEC1 uncompressed")

// KeyPair is an ephemeral P-256 key pair. The private half is consumed
// exactly once by Agree.
type KeyPair struct {
	priv *ecdh.PrivateKey
}

// New generates a fresh ephemeral P-256 key pair and returns it together
// with the Base64 encoding of its public key in X.509 SubjectPublicKeyInfo
// DER form — byte-compatible with Java's PublicKey.getEncoded().
func New() (KeyPair, string, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, "", fmt.Errorf("crypto: generate key: %w", err)
	}
	spki, err := publicKeySPKI(priv.PublicKey())
	if err != nil {
		return KeyPair{}, "", fmt.Errorf("crypto: encode public key: %w", err)
	}
	return KeyPair{priv: priv}, base64.StdEncoding.EncodeToString(spki), nil
}

// publicKeySPKI re-parses the ECDH public point as an ecdsa.PublicKey so
// x509.MarshalPKIXPublicKey can produce the SPKI DER encoding; ecdh.PublicKey
// itself exposes no ASN.1 marshaller.
func publicKeySPKI(pub *ecdh.PublicKey) ([]byte, error) {
	ecdsaPub, err := ecdhToECDSAPublic(pub)
	if err != nil {
		return nil, err
	}
	return x509.MarshalPKIXPublicKey(ecdsaPub)
}

// SessionKey is the 32-byte raw ECDH shared secret. It is never
// persisted and carries no KDF transform.
type SessionKey [32]byte

// Agree parses peerPublicB64 (SPKI DER or SEC1 uncompressed, both
// Base64) and performs ECDH against kp's ephemeral private scalar. The
// private scalar is consumed: kp must not be reused afterward.
func Agree(kp KeyPair, peerPublicB64 string) (SessionKey, error) {
	if kp.priv == nil {
		return SessionKey{}, errors.New("crypto: key pair already consumed")
	}
	raw, err := base64.StdEncoding.DecodeString(peerPublicB64)
	if err != nil {
		return SessionKey{}, fmt.Errorf("%w: %v", ErrInvalidPeerKey, err)
	}

	peerPub, err := parsePeerPublicKey(raw)
	if err != nil {
		return SessionKey{}, err
	}

	shared, err := kp.priv.ECDH(peerPub)
	if err != nil {
		return SessionKey{}, fmt.Errorf("crypto: ECDH: %w", err)
	}

	var key SessionKey
	copy(key[:], shared)
	return key, nil
}

func parsePeerPublicKey(raw []byte) (*ecdh.PublicKey, error) {
	switch {
	case len(raw) == 65 && raw[0] == 0x04:
		// SEC1 uncompressed point.
		pub, err := ecdh.P256().NewPublicKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPeerKey, err)
		}
		return pub, nil
	case len(raw) >= 88 && len(raw) <= 92 && raw[0] == 0x30:
		// X.509 SubjectPublicKeyInfo DER.
		parsed, err := x509.ParsePKIXPublicKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPeerKey, err)
		}
		ecdsaPub, ok := parsed.(*ecdsa.PublicKey)
		if !ok {
			return nil, ErrInvalidPeerKey
		}
		pub, err := ecdsaPub.ECDH()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPeerKey, err)
		}
		return pub, nil
	default:
		return nil, ErrInvalidPeerKey
	}
}

// ecdhToECDSAPublic reconstructs the (X, Y) affine coordinates from the
// SEC1 uncompressed point ecdh.PublicKey.Bytes() returns, since the
// crypto/ecdh API deliberately exposes no ASN.1 marshaller of its own.
func ecdhToECDSAPublic(pub *ecdh.PublicKey) (*ecdsa.PublicKey, error) {
	curve := elliptic.P256()
	raw := pub.Bytes() // 0x04 || X(32) || Y(32)
	if len(raw) != 65 || raw[0] != 0x04 {
		return nil, errors.New("crypto: malformed ECDH public key")
	}
	x := new(big.Int).SetBytes(raw[1:33])
	y := new(big.Int).SetBytes(raw[33:65])
	if !curve.IsOnCurve(x, y) {
		return nil, errors.New("crypto: ECDH public key is not on P-256")
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// Encrypt AES-256-CTR-encrypts plaintext UTF-8 and returns Base64
// ciphertext of equal byte length, using the fixed IV.
func Encrypt(key SessionKey, plaintext string) (string, error) {
	out, err := xorKeystream(key, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. It fails only on invalid Base64 or invalid
// UTF-8 in the decrypted bytes.
func Decrypt(key SessionKey, b64Ciphertext string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(b64Ciphertext)
	if err != nil {
		return "", fmt.Errorf("crypto: decode base64: %w", err)
	}
	out, err := xorKeystream(key, ciphertext)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(out) {
		return "", errors.New("crypto: decrypted bytes are not valid UTF-8")
	}
	return string(out), nil
}

// EncryptBytes/DecryptBytes expose the raw keystream for tests that pin
// the fixed IV and ciphertext length independent of UTF-8 validity.
func EncryptBytes(key SessionKey, plaintext []byte) []byte {
	out, _ := xorKeystream(key, plaintext)
	return out
}

func DecryptBytes(key SessionKey, ciphertext []byte) []byte {
	out, _ := xorKeystream(key, ciphertext)
	return out
}

func xorKeystream(key SessionKey, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: aes cipher: %w", err)
	}
	stream := cipher.NewCTR(block, fixedIV)
	out := make([]byte, len(in))
	stream.XORKeyStream(out, in)
	return out, nil
}
