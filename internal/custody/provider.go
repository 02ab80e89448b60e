// Package custody abstracts the remote key-custody service that holds the
// certificate's private key. The core issuance pipeline only ever sees two
// capabilities: exporting the public half of a key, and signing a SHA-256
// digest with PKCS#1 v1.5. The private key never leaves custody.
//
// Backends: AWS KMS, PKCS#11 (HSM) and an in-process software key for
// development and tests.
package custody

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
)

// DigestLength is the only digest size the signing capability accepts.
const DigestLength = sha256.Size

// Sentinel errors for custody operations.
// Use errors.Is() to check for these errors through the error chain.
var (
	// ErrKeyNotFound indicates the key identifier is unknown to the service.
	ErrKeyNotFound = errors.New("key not found")

	// ErrAccessDenied indicates the caller may not use the key.
	ErrAccessDenied = errors.New("access denied")

	// ErrSignerUnavailable indicates a transport or authentication failure
	// reaching the signing service. The whole run may be retried with a
	// fresh serial number and timestamps.
	ErrSignerUnavailable = errors.New("signer unavailable")

	// ErrSignerRejected indicates a service-side policy denial. Fatal to
	// the run; retrying with the same input will not succeed.
	ErrSignerRejected = errors.New("signing request rejected")

	// ErrInvalidDigestLength indicates the digest is not 32 bytes.
	ErrInvalidDigestLength = errors.New("invalid digest length")
)

// KeyMaterialProvider exports the public half of a custody-held key.
type KeyMaterialProvider interface {
	// PublicKey returns the key's public half in the service's export
	// format, a SubjectPublicKeyInfo DER blob.
	PublicKey(ctx context.Context, keyID string) ([]byte, error)
}

// DigestSigner signs a SHA-256 digest with RSASSA-PKCS1-v1_5 using a
// custody-held key. The signature length equals the RSA modulus length.
// Implementations never retry internally; a failed call fails the run.
type DigestSigner interface {
	SignDigest(ctx context.Context, keyID string, digest []byte) ([]byte, error)
}

// Service combines the two custody capabilities the pipeline consumes.
type Service interface {
	KeyMaterialProvider
	DigestSigner
}

// checkDigest validates the digest size common to all backends.
func checkDigest(digest []byte) error {
	if len(digest) != DigestLength {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidDigestLength, len(digest), DigestLength)
	}
	return nil
}
