//go:build cgo

package custody

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"math/big"
	"strings"

	"github.com/miekg/pkcs11"
)

// sha256DigestInfoPrefix is the DER DigestInfo header for SHA-256. The
// raw CKM_RSA_PKCS mechanism signs an externally hashed message, so the
// digest must arrive wrapped in DigestInfo to produce a signature
// equivalent to sha256WithRSAEncryption.
var sha256DigestInfoPrefix = []byte{
	0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01,
	0x65, 0x03, 0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20,
}

// PKCS11Service implements Service against a PKCS#11 token. Keys are
// addressed by CKA_LABEL. The session stays logged in until Close.
type PKCS11Service struct {
	module  *pkcs11.Ctx
	session pkcs11.SessionHandle
}

var _ Service = (*PKCS11Service)(nil)

// NewPKCS11Service loads the PKCS#11 module, finds the token by label,
// opens a session and logs in.
func NewPKCS11Service(settings PKCS11Settings, pin string) (*PKCS11Service, error) {
	module := pkcs11.New(settings.Lib)
	if module == nil {
		return nil, fmt.Errorf("%w: failed to load PKCS#11 module %s", ErrSignerUnavailable, settings.Lib)
	}
	if err := module.Initialize(); err != nil {
		module.Destroy()
		return nil, fmt.Errorf("%w: failed to initialize PKCS#11 module: %v", ErrSignerUnavailable, err)
	}

	slot, err := findSlot(module, settings.Token)
	if err != nil {
		module.Finalize()
		module.Destroy()
		return nil, err
	}

	session, err := module.OpenSession(slot, pkcs11.CKF_SERIAL_SESSION)
	if err != nil {
		module.Finalize()
		module.Destroy()
		return nil, fmt.Errorf("%w: failed to open session: %v", ErrSignerUnavailable, err)
	}
	if err := module.Login(session, pkcs11.CKU_USER, pin); err != nil {
		module.CloseSession(session)
		module.Finalize()
		module.Destroy()
		return nil, fmt.Errorf("%w: login failed: %v", ErrAccessDenied, err)
	}

	return &PKCS11Service{module: module, session: session}, nil
}

// Close logs out and releases the PKCS#11 session and module.
func (s *PKCS11Service) Close() error {
	var lastErr error
	if err := s.module.Logout(s.session); err != nil {
		lastErr = err
	}
	if err := s.module.CloseSession(s.session); err != nil {
		lastErr = err
	}
	if err := s.module.Finalize(); err != nil {
		lastErr = err
	}
	s.module.Destroy()
	return lastErr
}

// PublicKey reads CKA_MODULUS and CKA_PUBLIC_EXPONENT from the public key
// object and re-exports them as a SubjectPublicKeyInfo DER blob, the same
// format the other backends deliver.
func (s *PKCS11Service) PublicKey(_ context.Context, keyID string) ([]byte, error) {
	object, err := s.findObject(pkcs11.CKO_PUBLIC_KEY, keyID)
	if err != nil {
		return nil, err
	}

	attrs, err := s.module.GetAttributeValue(s.session, object, []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_MODULUS, nil),
		pkcs11.NewAttribute(pkcs11.CKA_PUBLIC_EXPONENT, nil),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read public key attributes: %v", ErrSignerUnavailable, err)
	}

	modulus := new(big.Int).SetBytes(attrs[0].Value)
	exponent := new(big.Int).SetBytes(attrs[1].Value)
	if !exponent.IsInt64() || exponent.Int64() <= 0 {
		return nil, fmt.Errorf("%w: exponent out of range", ErrSignerRejected)
	}

	spki, err := x509.MarshalPKIXPublicKey(&rsa.PublicKey{N: modulus, E: int(exponent.Int64())})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return spki, nil
}

// SignDigest signs a SHA-256 digest with CKM_RSA_PKCS over the DigestInfo
// wrapping, yielding an RSASSA-PKCS1-v1_5 signature.
func (s *PKCS11Service) SignDigest(_ context.Context, keyID string, digest []byte) ([]byte, error) {
	if err := checkDigest(digest); err != nil {
		return nil, err
	}

	key, err := s.findObject(pkcs11.CKO_PRIVATE_KEY, keyID)
	if err != nil {
		return nil, err
	}

	mechanism := []*pkcs11.Mechanism{pkcs11.NewMechanism(pkcs11.CKM_RSA_PKCS, nil)}
	if err := s.module.SignInit(s.session, mechanism, key); err != nil {
		return nil, fmt.Errorf("%w: sign init failed: %v", ErrSignerRejected, err)
	}

	message := append(append([]byte{}, sha256DigestInfoPrefix...), digest...)
	signature, err := s.module.Sign(s.session, message)
	if err != nil {
		return nil, fmt.Errorf("%w: sign failed: %v", ErrSignerRejected, err)
	}
	return signature, nil
}

// findObject locates a single object of the given class by CKA_LABEL.
func (s *PKCS11Service) findObject(class uint, label string) (pkcs11.ObjectHandle, error) {
	template := []*pkcs11.Attribute{
		pkcs11.NewAttribute(pkcs11.CKA_CLASS, class),
		pkcs11.NewAttribute(pkcs11.CKA_LABEL, label),
	}
	if err := s.module.FindObjectsInit(s.session, template); err != nil {
		return 0, fmt.Errorf("%w: find init failed: %v", ErrSignerUnavailable, err)
	}
	objects, _, err := s.module.FindObjects(s.session, 2)
	finalErr := s.module.FindObjectsFinal(s.session)
	if err != nil {
		return 0, fmt.Errorf("%w: find failed: %v", ErrSignerUnavailable, err)
	}
	if finalErr != nil {
		return 0, fmt.Errorf("%w: find final failed: %v", ErrSignerUnavailable, finalErr)
	}
	if len(objects) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrKeyNotFound, label)
	}
	if len(objects) > 1 {
		return 0, fmt.Errorf("%w: label %s matches multiple objects", ErrSignerRejected, label)
	}
	return objects[0], nil
}

// findSlot returns the slot whose token label matches.
func findSlot(module *pkcs11.Ctx, tokenLabel string) (uint, error) {
	slots, err := module.GetSlotList(true)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to list slots: %v", ErrSignerUnavailable, err)
	}
	for _, slot := range slots {
		info, err := module.GetTokenInfo(slot)
		if err != nil {
			continue
		}
		// Token labels are space-padded to 32 characters.
		if strings.TrimRight(info.Label, " ") == tokenLabel {
			return slot, nil
		}
	}
	return 0, fmt.Errorf("%w: token %q not found", ErrSignerUnavailable, tokenLabel)
}
