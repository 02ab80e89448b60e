package x509util

import (
	"encoding/pem"

	"github.com/remiblancher/kmscert/internal/der"
)

// pemCertificateType is the PEM block type for the exported certificate.
const pemCertificateType = "CERTIFICATE"

// AssembleCertificate wraps already-encoded TBSCertificate bytes and the
// signature over their SHA-256 digest into the final SignedCertificate
// DER: SEQUENCE(tbs, sha256WithRSAEncryption, BIT STRING signature).
//
// The tbs bytes are embedded verbatim; the caller guarantees they are the
// exact bytes whose digest was signed.
func AssembleCertificate(tbs, signature []byte) ([]byte, error) {
	if len(tbs) == 0 {
		return nil, &der.EncodingError{Field: "certificate.tbsCertificate", Reason: "empty TBSCertificate bytes"}
	}
	if len(signature) == 0 {
		return nil, &der.EncodingError{Field: "certificate.signatureValue", Reason: "empty signature"}
	}

	sigAlg, err := algorithmIdentifier("certificate.signatureAlgorithm", OIDSignatureRSAWithSHA256)
	if err != nil {
		return nil, err
	}
	sigBits, err := der.BitString("certificate.signatureValue", signature)
	if err != nil {
		return nil, err
	}

	return der.Sequence("certificate", tbs, sigAlg, sigBits)
}

// EncodePEM renders certificate DER in the standard textual export form:
// base64 wrapped at 64 columns between BEGIN/END CERTIFICATE delimiters.
func EncodePEM(certDER []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  pemCertificateType,
		Bytes: certDER,
	})
}
