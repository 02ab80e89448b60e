// Package x509util builds the DER structures of a self-signed X.509v3
// certificate: distinguished names, validity windows, SubjectPublicKeyInfo,
// the fixed extension set, the TBSCertificate body and the final signed
// envelope. All construction goes through the internal/der primitives so
// the byte output is deterministic for fixed inputs.
package x509util

import (
	"encoding/asn1"
)

// Distinguished name attribute OIDs (RFC 5280, X.520).
var (
	OIDAttributeCountry      = asn1.ObjectIdentifier{2, 5, 4, 6}
	OIDAttributeProvince     = asn1.ObjectIdentifier{2, 5, 4, 8}
	OIDAttributeLocality     = asn1.ObjectIdentifier{2, 5, 4, 7}
	OIDAttributeOrganization = asn1.ObjectIdentifier{2, 5, 4, 10}
	OIDAttributeCommonName   = asn1.ObjectIdentifier{2, 5, 4, 3}
)

// Extension OIDs.
var (
	OIDExtBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}
	OIDExtKeyUsage         = asn1.ObjectIdentifier{2, 5, 29, 15}
	OIDExtExtKeyUsage      = asn1.ObjectIdentifier{2, 5, 29, 37}
	OIDExtIssuerAltName    = asn1.ObjectIdentifier{2, 5, 29, 18}
)

// Extended Key Usage OIDs.
var (
	OIDExtKeyUsageServerAuth = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 1}
	OIDExtKeyUsageClientAuth = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 3, 2}
)

// Algorithm OIDs.
var (
	// RSA encryption (SubjectPublicKeyInfo algorithm)
	OIDPublicKeyRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

	// RSA with SHA-256 (signature algorithm)
	OIDSignatureRSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
)
