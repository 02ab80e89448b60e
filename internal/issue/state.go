package issue

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/remiblancher/kmscert/internal/x509util"
)

// state tracks a single certificate construction through the two-pass
// signing protocol. Transitions are strictly ordered; no step may be
// skipped, and only requestSignature involves external I/O.
type state int

const (
	stateUnbuilt state = iota
	stateTBSReady
	stateDigestComputed
	stateSignaturePending
	stateSigned
	stateAssembled
)

var stateNames = map[state]string{
	stateUnbuilt:          "Unbuilt",
	stateTBSReady:         "TBSReady",
	stateDigestComputed:   "DigestComputed",
	stateSignaturePending: "SignaturePending",
	stateSigned:           "Signed",
	stateAssembled:        "Assembled",
}

func (s state) String() string { return stateNames[s] }

// construction carries one issuance run. The TBSCertificate value and all
// time- and randomness-derived fields inside it are frozen at creation;
// nothing is recomputed between the two encoding passes.
type construction struct {
	state     state
	tbs       *x509util.TBSCertificate
	tbsDER    []byte
	digest    [sha256.Size]byte
	signature []byte
	certDER   []byte
}

func newConstruction(tbs *x509util.TBSCertificate) *construction {
	return &construction{state: stateUnbuilt, tbs: tbs}
}

// advance moves to the next state, failing loudly on out-of-order use.
func (c *construction) advance(from, to state) error {
	if c.state != from {
		return fmt.Errorf("%w: transition %s -> %s attempted in state %s",
			ErrAssemblyInvariant, from, to, c.state)
	}
	c.state = to
	return nil
}

// buildTBS runs the first encoding pass. Any EncodingError or
// KeyMaterialError surfaces here, before the signer is ever contacted.
func (c *construction) buildTBS() error {
	if err := c.advance(stateUnbuilt, stateTBSReady); err != nil {
		return err
	}
	tbsDER, err := c.tbs.Encode()
	if err != nil {
		return err
	}
	c.tbsDER = tbsDER
	return nil
}

// computeDigest hashes the frozen TBSCertificate bytes.
func (c *construction) computeDigest() error {
	if err := c.advance(stateTBSReady, stateDigestComputed); err != nil {
		return err
	}
	c.digest = sha256.Sum256(c.tbsDER)
	return nil
}

// acceptSignature records the signature returned by the remote signer.
// The signature length must equal the RSA modulus length.
func (c *construction) acceptSignature(signature []byte) error {
	if err := c.advance(stateSignaturePending, stateSigned); err != nil {
		return err
	}
	if want := c.tbs.PublicKey.ModulusBytes(); len(signature) != want {
		return fmt.Errorf("signature length %d does not match modulus length %d", len(signature), want)
	}
	c.signature = signature
	return nil
}

// assemble runs the second encoding pass and wraps the result. The
// re-encoded TBSCertificate must be byte-identical to the bytes that were
// digested, and the signature must verify over them with the embedded
// public key; otherwise the run aborts without emitting anything.
func (c *construction) assemble() error {
	if err := c.advance(stateSigned, stateAssembled); err != nil {
		return err
	}

	secondPass, err := c.tbs.Encode()
	if err != nil {
		return err
	}
	if !bytes.Equal(secondPass, c.tbsDER) {
		return fmt.Errorf("%w: TBSCertificate re-encoding differs from the signed bytes", ErrAssemblyInvariant)
	}

	if err := rsa.VerifyPKCS1v15(c.tbs.PublicKey.RSAPublicKey(), crypto.SHA256, c.digest[:], c.signature); err != nil {
		return fmt.Errorf("%w: signature does not verify over the signed bytes: %v", ErrAssemblyInvariant, err)
	}

	certDER, err := x509util.AssembleCertificate(secondPass, c.signature)
	if err != nil {
		return err
	}
	c.certDER = certDER
	return nil
}
