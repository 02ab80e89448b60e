//go:build !cgo

package custody

import (
	"context"
	"fmt"
)

// PKCS11Service is unavailable without cgo; the build still succeeds so
// the other backends remain usable.
type PKCS11Service struct{}

var _ Service = (*PKCS11Service)(nil)

var errNoCgo = fmt.Errorf("PKCS#11 support requires a cgo-enabled build")

// NewPKCS11Service always fails when built without cgo.
func NewPKCS11Service(settings PKCS11Settings, pin string) (*PKCS11Service, error) {
	return nil, errNoCgo
}

// Close is a no-op on the cgo-less stub.
func (s *PKCS11Service) Close() error { return nil }

// PublicKey always fails when built without cgo.
func (s *PKCS11Service) PublicKey(ctx context.Context, keyID string) ([]byte, error) {
	return nil, errNoCgo
}

// SignDigest always fails when built without cgo.
func (s *PKCS11Service) SignDigest(ctx context.Context, keyID string, digest []byte) ([]byte, error) {
	return nil, errNoCgo
}
