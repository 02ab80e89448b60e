package main

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <certificate-file>",
	Short: "Display the contents of an issued certificate",
	Long: `Inspect a PEM or DER encoded certificate and print its fields in a
human-readable form.

Examples:
  kmscert inspect robot.crt`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read certificate file: %w", err)
	}

	der := data
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != "CERTIFICATE" {
			return fmt.Errorf("unexpected PEM block type %q, want CERTIFICATE", block.Type)
		}
		der = block.Bytes
	}

	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	fmt.Printf("Certificate:\n")
	fmt.Printf("  Version:      %d\n", cert.Version)
	fmt.Printf("  Serial:       0x%X\n", cert.SerialNumber.Bytes())
	fmt.Printf("  Subject:      %s\n", cert.Subject.String())
	fmt.Printf("  Issuer:       %s\n", cert.Issuer.String())
	fmt.Printf("  Not Before:   %s\n", cert.NotBefore.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("  Not After:    %s\n", cert.NotAfter.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("  Sig Alg:      %s\n", cert.SignatureAlgorithm)

	if pub, ok := cert.PublicKey.(*rsa.PublicKey); ok {
		fmt.Printf("  Public Key:   RSA %d bits\n", pub.N.BitLen())
	} else {
		fmt.Printf("  Public Key:   %T\n", cert.PublicKey)
	}

	fmt.Printf("  Key Usage:    %s\n", strings.Join(keyUsageNames(cert.KeyUsage), ", "))
	fmt.Printf("  Ext Key Use:  %s\n", strings.Join(extKeyUsageNames(cert.ExtKeyUsage), ", "))
	fmt.Printf("  Basic Constraints: CA=%v\n", cert.IsCA)
	if email := issuerAltNameEmail(cert); email != "" {
		fmt.Printf("  Issuer Email: %s\n", email)
	}

	// Self-signature check over the exact signed bytes.
	if err := cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
		fmt.Printf("  Self-signed:  INVALID (%v)\n", err)
	} else {
		fmt.Printf("  Self-signed:  valid\n")
	}

	return nil
}

// issuerAltNameEmail extracts the rfc822Name from an issuerAltName
// extension, if present. The standard library does not surface this
// extension, so it is decoded here.
func issuerAltNameEmail(cert *x509.Certificate) string {
	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(oidIssuerAltName) {
			continue
		}
		// GeneralNames is a SEQUENCE; unwrap it and take the first
		// [1] rfc822Name inside.
		var raw asn1.RawValue
		if _, err := asn1.Unmarshal(ext.Value, &raw); err != nil {
			return ""
		}
		inner := raw.Bytes
		for len(inner) > 0 {
			var name asn1.RawValue
			rest, err := asn1.Unmarshal(inner, &name)
			if err != nil {
				return ""
			}
			if name.Class == asn1.ClassContextSpecific && name.Tag == 1 {
				return string(name.Bytes)
			}
			inner = rest
		}
	}
	return ""
}

var oidIssuerAltName = asn1.ObjectIdentifier{2, 5, 29, 18}

func keyUsageNames(ku x509.KeyUsage) []string {
	var names []string
	if ku&x509.KeyUsageDigitalSignature != 0 {
		names = append(names, "digitalSignature")
	}
	if ku&x509.KeyUsageContentCommitment != 0 {
		names = append(names, "contentCommitment")
	}
	if ku&x509.KeyUsageKeyEncipherment != 0 {
		names = append(names, "keyEncipherment")
	}
	if ku&x509.KeyUsageDataEncipherment != 0 {
		names = append(names, "dataEncipherment")
	}
	if ku&x509.KeyUsageCertSign != 0 {
		names = append(names, "keyCertSign")
	}
	if ku&x509.KeyUsageCRLSign != 0 {
		names = append(names, "cRLSign")
	}
	if len(names) == 0 {
		names = append(names, "(none)")
	}
	return names
}

func extKeyUsageNames(ekus []x509.ExtKeyUsage) []string {
	var names []string
	for _, eku := range ekus {
		switch eku {
		case x509.ExtKeyUsageServerAuth:
			names = append(names, "serverAuth")
		case x509.ExtKeyUsageClientAuth:
			names = append(names, "clientAuth")
		default:
			names = append(names, fmt.Sprintf("unknown(%d)", eku))
		}
	}
	if len(names) == 0 {
		names = append(names, "(none)")
	}
	return names
}
