package x509util

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"math/big"

	"github.com/remiblancher/kmscert/internal/der"
)

// supportedModulusBits lists the RSA key size buckets the custody service
// is expected to deliver.
var supportedModulusBits = map[int]bool{
	2048: true,
	3072: true,
	4096: true,
}

// KeyMaterialError reports public key material from the custody service
// that is absent, malformed, or of an unsupported size. Fatal to the run.
type KeyMaterialError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *KeyMaterialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("key material: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("key material: %s", e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *KeyMaterialError) Unwrap() error { return e.Err }

// PublicKeyMaterial holds the RSA public key exported by the custody
// service: modulus and exponent as unsigned big integers.
type PublicKeyMaterial struct {
	N *big.Int
	E int
}

// ParsePublicKeyMaterial decodes the custody service's public key export
// format (a SubjectPublicKeyInfo DER blob) into modulus and exponent, and
// validates the key against the supported RSA size buckets.
func ParsePublicKeyMaterial(spkiDER []byte) (*PublicKeyMaterial, error) {
	if len(spkiDER) == 0 {
		return nil, &KeyMaterialError{Reason: "empty public key blob"}
	}

	pub, err := x509.ParsePKIXPublicKey(spkiDER)
	if err != nil {
		return nil, &KeyMaterialError{Reason: "malformed SubjectPublicKeyInfo", Err: err}
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, &KeyMaterialError{Reason: fmt.Sprintf("unsupported key type %T, want RSA", pub)}
	}

	if rsaPub.E <= 0 {
		return nil, &KeyMaterialError{Reason: fmt.Sprintf("exponent %d is not positive", rsaPub.E)}
	}
	if bits := rsaPub.N.BitLen(); !supportedModulusBits[bits] {
		return nil, &KeyMaterialError{Reason: fmt.Sprintf("modulus size %d bits not in supported set {2048, 3072, 4096}", bits)}
	}

	return &PublicKeyMaterial{N: rsaPub.N, E: rsaPub.E}, nil
}

// ModulusBytes returns the modulus length in bytes, which is also the
// expected length of a PKCS#1 v1.5 signature from the custody service.
func (k *PublicKeyMaterial) ModulusBytes() int {
	return (k.N.BitLen() + 7) / 8
}

// RSAPublicKey returns the material as a crypto/rsa public key for local
// signature verification.
func (k *PublicKeyMaterial) RSAPublicKey() *rsa.PublicKey {
	return &rsa.PublicKey{N: k.N, E: k.E}
}

// Encode returns the SubjectPublicKeyInfo DER for the certificate:
// rsaEncryption algorithm identifier with NULL parameters, and a
// BIT STRING wrapping the RSAPublicKey SEQUENCE of modulus and exponent.
func (k *PublicKeyMaterial) Encode() ([]byte, error) {
	if k.N == nil || k.N.Sign() <= 0 {
		return nil, &KeyMaterialError{Reason: "modulus must be a positive integer"}
	}
	if k.E <= 0 {
		return nil, &KeyMaterialError{Reason: fmt.Sprintf("exponent %d is not positive", k.E)}
	}

	modulus, err := der.Integer("spki.modulus", k.N)
	if err != nil {
		return nil, err
	}
	exponent, err := der.Integer("spki.exponent", big.NewInt(int64(k.E)))
	if err != nil {
		return nil, err
	}
	rsaKey, err := der.Sequence("spki.publicKey", modulus, exponent)
	if err != nil {
		return nil, err
	}
	keyBits, err := der.BitString("spki.publicKey", rsaKey)
	if err != nil {
		return nil, err
	}

	algorithm, err := algorithmIdentifier("spki.algorithm", OIDPublicKeyRSA)
	if err != nil {
		return nil, err
	}

	return der.Sequence("spki", algorithm, keyBits)
}
