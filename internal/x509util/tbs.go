package x509util

import (
	"math/big"

	"github.com/remiblancher/kmscert/internal/der"
)

// certVersionV3 is the X.509 version field value for v3 certificates.
var certVersionV3 = big.NewInt(2)

// TBSCertificate is the unsigned certificate body. It is an immutable
// value object: construct it once with frozen serial number and validity,
// then encode. Encoding is a pure function of the fields - encoding the
// same value twice yields byte-identical output, which the two-pass
// signing protocol depends on.
type TBSCertificate struct {
	SerialNumber *big.Int
	Subject      DistinguishedName // used verbatim as issuer (self-signed)
	Validity     Validity
	PublicKey    *PublicKeyMaterial
	Email        string // optional issuerAltName rfc822Name
}

// Encode returns the DER TBSCertificate: version v3, serial number,
// sha256WithRSAEncryption, issuer, validity, subject (== issuer),
// SubjectPublicKeyInfo and the fixed extension set.
func (t *TBSCertificate) Encode() ([]byte, error) {
	if t.PublicKey == nil {
		return nil, &KeyMaterialError{Reason: "missing public key material"}
	}

	versionInner, err := der.Integer("tbs.version", certVersionV3)
	if err != nil {
		return nil, err
	}
	version, err := der.Explicit("tbs.version", 0, versionInner)
	if err != nil {
		return nil, err
	}

	serial, err := der.Integer("tbs.serialNumber", t.SerialNumber)
	if err != nil {
		return nil, err
	}

	sigAlg, err := algorithmIdentifier("tbs.signature", OIDSignatureRSAWithSHA256)
	if err != nil {
		return nil, err
	}

	name, err := t.Subject.Encode()
	if err != nil {
		return nil, err
	}

	validity, err := t.Validity.Encode()
	if err != nil {
		return nil, err
	}

	spki, err := t.PublicKey.Encode()
	if err != nil {
		return nil, err
	}

	exts, err := ExtensionSet(t.Email)
	if err != nil {
		return nil, err
	}
	extsSeq, err := encodeExtensions(exts)
	if err != nil {
		return nil, err
	}
	extensions, err := der.Explicit("tbs.extensions", 3, extsSeq)
	if err != nil {
		return nil, err
	}

	// Issuer and subject are the same bytes: self-signed.
	return der.Sequence("tbs", version, serial, sigAlg, name, validity, name, spki, extensions)
}
