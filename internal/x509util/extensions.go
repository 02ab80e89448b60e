package x509util

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"

	"github.com/remiblancher/kmscert/internal/der"
)

// fixedKeyUsage is the key usage this certificate class always carries:
// digitalSignature + keyEncipherment.
const fixedKeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment

// ExtensionSet builds the fixed extension list for this certificate
// class: basicConstraints (CA=false, critical), keyUsage (critical) and
// extendedKeyUsage {serverAuth, clientAuth}. When email is non-empty an
// issuerAltName extension carrying the rfc822Name is appended; when it is
// empty the list contains exactly three entries.
func ExtensionSet(email string) ([]pkix.Extension, error) {
	basicConstraints, err := basicConstraintsExtension()
	if err != nil {
		return nil, err
	}
	keyUsage, err := keyUsageExtension(fixedKeyUsage)
	if err != nil {
		return nil, err
	}
	extKeyUsage, err := extKeyUsageExtension()
	if err != nil {
		return nil, err
	}

	exts := []pkix.Extension{basicConstraints, keyUsage, extKeyUsage}

	if email != "" {
		issuerAltName, err := issuerAltNameExtension(email)
		if err != nil {
			return nil, err
		}
		exts = append(exts, issuerAltName)
	}

	return exts, nil
}

// basicConstraintsExtension encodes CA=false. With the CA boolean at its
// default the BasicConstraints SEQUENCE is empty per DER.
func basicConstraintsExtension() (pkix.Extension, error) {
	value, err := der.Sequence("extensions.basicConstraints")
	if err != nil {
		return pkix.Extension{}, err
	}
	return pkix.Extension{Id: OIDExtBasicConstraints, Critical: true, Value: value}, nil
}

// keyUsageExtension encodes the key usage flags as a named-bit BIT STRING.
func keyUsageExtension(usage x509.KeyUsage) (pkix.Extension, error) {
	// Named bit i lives at bit (7 - i%8) of octet i/8.
	var bits [2]byte
	for i := 0; i < 9; i++ {
		if usage&(1<<uint(i)) != 0 {
			bits[i/8] |= 0x80 >> uint(i%8)
		}
	}
	bitLength := 0
	for i := 8; i >= 0; i-- {
		if usage&(1<<uint(i)) != 0 {
			bitLength = i + 1
			break
		}
	}

	value, err := der.NamedBitString("extensions.keyUsage", bits[:], bitLength)
	if err != nil {
		return pkix.Extension{}, err
	}
	return pkix.Extension{Id: OIDExtKeyUsage, Critical: true, Value: value}, nil
}

// extKeyUsageExtension encodes the fixed {serverAuth, clientAuth} pair.
// The pair is a policy choice of this certificate class, not derived from
// intended use.
func extKeyUsageExtension() (pkix.Extension, error) {
	serverAuth, err := der.ObjectIdentifier("extensions.extKeyUsage", OIDExtKeyUsageServerAuth)
	if err != nil {
		return pkix.Extension{}, err
	}
	clientAuth, err := der.ObjectIdentifier("extensions.extKeyUsage", OIDExtKeyUsageClientAuth)
	if err != nil {
		return pkix.Extension{}, err
	}
	value, err := der.Sequence("extensions.extKeyUsage", serverAuth, clientAuth)
	if err != nil {
		return pkix.Extension{}, err
	}
	return pkix.Extension{Id: OIDExtExtKeyUsage, Critical: false, Value: value}, nil
}

// issuerAltNameExtension encodes a GeneralNames SEQUENCE holding a single
// rfc822Name, which is an IA5String under implicit context tag 1.
func issuerAltNameExtension(email string) (pkix.Extension, error) {
	ia5, err := der.IA5String("extensions.issuerAltName.email", email)
	if err != nil {
		return pkix.Extension{}, err
	}
	rfc822, err := der.Implicit("extensions.issuerAltName.email", 1, ia5)
	if err != nil {
		return pkix.Extension{}, err
	}
	value, err := der.Sequence("extensions.issuerAltName", rfc822)
	if err != nil {
		return pkix.Extension{}, err
	}
	return pkix.Extension{Id: OIDExtIssuerAltName, Critical: false, Value: value}, nil
}

// encodeExtensions encodes the extension list as the DER SEQUENCE that
// goes inside the [3] EXPLICIT wrapper of the TBSCertificate.
func encodeExtensions(exts []pkix.Extension) ([]byte, error) {
	var encoded [][]byte
	for _, ext := range exts {
		oid, err := der.ObjectIdentifier("extensions.id", ext.Id)
		if err != nil {
			return nil, err
		}
		children := [][]byte{oid}
		// DEFAULT FALSE: the critical boolean is omitted when false.
		if ext.Critical {
			children = append(children, der.Boolean(true))
		}
		value, err := der.OctetString("extensions.value", ext.Value)
		if err != nil {
			return nil, err
		}
		children = append(children, value)

		one, err := der.Sequence("extensions.entry", children...)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, one)
	}
	return der.Sequence("extensions", encoded...)
}

// algorithmIdentifier encodes an AlgorithmIdentifier SEQUENCE of OID plus
// explicit NULL parameters, as RSA algorithm identifiers require.
func algorithmIdentifier(field string, oid asn1.ObjectIdentifier) ([]byte, error) {
	encodedOID, err := der.ObjectIdentifier(field, oid)
	if err != nil {
		return nil, err
	}
	return der.Sequence(field, encodedOID, der.Null())
}
