package x509util

import (
	"bytes"
	"encoding/asn1"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/remiblancher/kmscert/internal/der"
)

func testTBS(t *testing.T) *TBSCertificate {
	t.Helper()
	key := testRSAKey(t)
	validity, err := NewValidity(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	if err != nil {
		t.Fatalf("NewValidity() error = %v", err)
	}
	return &TBSCertificate{
		SerialNumber: big.NewInt(0xabcdef),
		Subject: DistinguishedName{
			Country:      "GB",
			Province:     "Manchester",
			Organization: "ACME Certificates Inc.",
			CommonName:   "Robot Certificate 1",
		},
		Validity:  validity,
		PublicKey: &PublicKeyMaterial{N: key.N, E: key.E},
	}
}

func TestU_TBSCertificate_Deterministic(t *testing.T) {
	tbs := testTBS(t)

	first, err := tbs.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	second, err := tbs.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("encoding the same TBSCertificate twice must yield identical bytes")
	}
}

func TestU_TBSCertificate_Structure(t *testing.T) {
	tbs := testTBS(t)
	encoded, err := tbs.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// Shape check against the RFC 5280 field order.
	var parsed struct {
		Version      int `asn1:"explicit,tag:0"`
		SerialNumber *big.Int
		SigAlg       asn1.RawValue
		Issuer       asn1.RawValue
		Validity     asn1.RawValue
		Subject      asn1.RawValue
		SPKI         asn1.RawValue
		Extensions   asn1.RawValue `asn1:"explicit,tag:3"`
	}
	rest, err := asn1.Unmarshal(encoded, &parsed)
	if err != nil {
		t.Fatalf("failed to parse TBSCertificate: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("trailing bytes after TBSCertificate: %x", rest)
	}

	if parsed.Version != 2 {
		t.Errorf("version = %d, want 2 (v3)", parsed.Version)
	}
	if parsed.SerialNumber.Cmp(tbs.SerialNumber) != 0 {
		t.Errorf("serial = %v, want %v", parsed.SerialNumber, tbs.SerialNumber)
	}
	if !bytes.Equal(parsed.Issuer.FullBytes, parsed.Subject.FullBytes) {
		t.Error("issuer and subject must be byte-identical (self-signed)")
	}
}

func TestU_TBSCertificate_MissingKeyMaterial(t *testing.T) {
	tbs := testTBS(t)
	tbs.PublicKey = nil

	var keyErr *KeyMaterialError
	if _, err := tbs.Encode(); !errors.As(err, &keyErr) {
		t.Fatalf("expected *KeyMaterialError, got %v", err)
	}
}

func TestU_TBSCertificate_BadEmail(t *testing.T) {
	tbs := testTBS(t)
	tbs.Email = "pki@exämple.com"

	var encErr *der.EncodingError
	if _, err := tbs.Encode(); !errors.As(err, &encErr) {
		t.Fatalf("expected *der.EncodingError, got %v", err)
	}
}

func TestU_TBSCertificate_NilSerial(t *testing.T) {
	tbs := testTBS(t)
	tbs.SerialNumber = nil

	var encErr *der.EncodingError
	if _, err := tbs.Encode(); !errors.As(err, &encErr) {
		t.Fatalf("expected *der.EncodingError, got %v", err)
	}
}

func TestU_AssembleCertificate_Rejects(t *testing.T) {
	if _, err := AssembleCertificate(nil, []byte{1}); err == nil {
		t.Error("empty TBS bytes should fail")
	}
	if _, err := AssembleCertificate([]byte{0x30, 0x00}, nil); err == nil {
		t.Error("empty signature should fail")
	}
}

func TestU_EncodePEM_Format(t *testing.T) {
	pemBytes := EncodePEM([]byte{0x30, 0x03, 0x02, 0x01, 0x01})
	if !bytes.HasPrefix(pemBytes, []byte("-----BEGIN CERTIFICATE-----\n")) {
		t.Errorf("unexpected PEM header: %s", pemBytes)
	}
	if !bytes.HasSuffix(pemBytes, []byte("-----END CERTIFICATE-----\n")) {
		t.Errorf("unexpected PEM footer: %s", pemBytes)
	}
}
