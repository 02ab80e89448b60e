package custody

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// SoftwareService implements Service with an in-process RSA key. It exists
// for development and deterministic tests; production custody lives in the
// AWS KMS or PKCS#11 backends.
type SoftwareService struct {
	keys map[string]*rsa.PrivateKey
}

var _ Service = (*SoftwareService)(nil)

// NewSoftwareService creates an empty software custody service.
func NewSoftwareService() *SoftwareService {
	return &SoftwareService{keys: make(map[string]*rsa.PrivateKey)}
}

// AddKey registers a private key under a key identifier.
func (s *SoftwareService) AddKey(keyID string, key *rsa.PrivateKey) {
	s.keys[keyID] = key
}

// LoadSoftwareService creates a software custody service holding a single
// key loaded from a PEM file (PKCS#1 or PKCS#8), registered under keyID.
func LoadSoftwareService(keyID, path string) (*SoftwareService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", path)
	}

	var key *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#1 key: %w", err)
		}
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PKCS#8 key: %w", err)
		}
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("unsupported key type %T, want RSA", parsed)
		}
		key = rsaKey
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}

	svc := NewSoftwareService()
	svc.AddKey(keyID, key)
	return svc, nil
}

// PublicKey returns the key's public half as a SubjectPublicKeyInfo DER
// blob, matching the export format of the remote backends.
func (s *SoftwareService) PublicKey(_ context.Context, keyID string) ([]byte, error) {
	key, ok := s.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}
	spki, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return spki, nil
}

// SignDigest signs a SHA-256 digest with RSASSA-PKCS1-v1_5.
func (s *SoftwareService) SignDigest(_ context.Context, keyID string, digest []byte) ([]byte, error) {
	key, ok := s.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
	}
	if err := checkDigest(digest); err != nil {
		return nil, err
	}
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignerRejected, err)
	}
	return signature, nil
}
