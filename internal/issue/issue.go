// Package issue runs the certificate issuance pipeline: build the
// TBSCertificate, hash it, delegate the digest to the custody service's
// signer, and assemble the self-signed certificate. Each run is
// independent and single-shot; a failed run is discarded whole and a
// retry starts over with a fresh serial number and timestamps.
package issue

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/remiblancher/kmscert/internal/audit"
	"github.com/remiblancher/kmscert/internal/custody"
	"github.com/remiblancher/kmscert/internal/x509util"
)

// Request holds the parameters for one issuance run.
type Request struct {
	// KeyID addresses the key inside the custody service.
	KeyID string

	// Subject is used as both subject and issuer (self-signed).
	Subject x509util.DistinguishedName

	// Email, when non-empty, is carried in an issuerAltName extension.
	Email string

	// ValidityYears is the whole-year validity length (must be positive).
	ValidityYears int

	// NotBefore optionally fixes the validity start. Zero means now.
	// Used by tests; production callers leave it unset.
	NotBefore time.Time
}

// Result is the terminal artifact of a successful run.
type Result struct {
	DER          []byte
	PEM          []byte
	SerialNumber *big.Int
	Validity     x509util.Validity
	Subject      x509util.DistinguishedName
}

// Issuer issues self-signed certificates against a custody service.
type Issuer struct {
	// Service provides the key material and digest signing capabilities.
	Service custody.Service

	// Backend names the custody backend for audit events (optional).
	Backend string
}

// NewIssuer creates an Issuer over a custody service.
func NewIssuer(svc custody.Service) *Issuer {
	return &Issuer{Service: svc}
}

// Issue runs the two-pass protocol once. All errors are terminal for the
// run; in particular, signing failures are never retried internally
// because the consumed digest is tied to the frozen TBSCertificate bytes.
func (i *Issuer) Issue(ctx context.Context, req Request) (*Result, error) {
	if i.Service == nil {
		return nil, stageErr("validate", fmt.Errorf("no custody service configured"))
	}
	if req.KeyID == "" {
		return nil, stageErr("validate", fmt.Errorf("key identifier is required"))
	}
	if err := req.Subject.Validate(); err != nil {
		return nil, stageErr("validate", err)
	}

	// Fetch and adapt the public half of the custody-held key.
	spkiDER, err := i.Service.PublicKey(ctx, req.KeyID)
	if err != nil {
		_ = audit.LogKeyAccessed(req.KeyID, i.Backend, false, err.Error())
		return nil, stageErr("key", err)
	}
	keyMaterial, err := x509util.ParsePublicKeyMaterial(spkiDER)
	if err != nil {
		_ = audit.LogKeyAccessed(req.KeyID, i.Backend, false, err.Error())
		return nil, stageErr("key", err)
	}
	if err := audit.LogKeyAccessed(req.KeyID, i.Backend, true, ""); err != nil {
		return nil, stageErr("audit", err)
	}

	// Freeze every time- and randomness-derived field before the first
	// encoding pass. Nothing below recomputes them.
	serial, err := x509util.NewSerialNumber()
	if err != nil {
		return nil, stageErr("build", err)
	}
	notBefore := req.NotBefore
	if notBefore.IsZero() {
		notBefore = time.Now()
	}
	validity, err := x509util.NewValidity(notBefore, req.ValidityYears)
	if err != nil {
		return nil, stageErr("validate", err)
	}

	c := newConstruction(&x509util.TBSCertificate{
		SerialNumber: serial,
		Subject:      req.Subject,
		Validity:     validity,
		PublicKey:    keyMaterial,
		Email:        req.Email,
	})

	if err := c.buildTBS(); err != nil {
		return nil, stageErr("build", err)
	}
	if err := c.computeDigest(); err != nil {
		return nil, stageErr("build", err)
	}

	// The single suspension point: hand the digest to the remote signer.
	if err := c.advance(stateDigestComputed, stateSignaturePending); err != nil {
		return nil, stageErr("sign", err)
	}
	signature, err := i.Service.SignDigest(ctx, req.KeyID, c.digest[:])
	if err != nil {
		_ = audit.LogSignFailed(req.KeyID, err.Error())
		return nil, stageErr("sign", err)
	}
	if err := c.acceptSignature(signature); err != nil {
		_ = audit.LogSignFailed(req.KeyID, err.Error())
		return nil, stageErr("sign", err)
	}

	if err := c.assemble(); err != nil {
		return nil, stageErr("assemble", err)
	}

	serialHex := fmt.Sprintf("0x%X", serial.Bytes())
	if err := audit.LogCertIssued(req.KeyID, serialHex, req.Subject.String(), true); err != nil {
		return nil, stageErr("audit", err)
	}

	return &Result{
		DER:          c.certDER,
		PEM:          x509util.EncodePEM(c.certDER),
		SerialNumber: serial,
		Validity:     validity,
		Subject:      req.Subject,
	}, nil
}
