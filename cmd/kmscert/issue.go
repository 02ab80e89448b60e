package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/kmscert/internal/custody"
	"github.com/remiblancher/kmscert/internal/issue"
	"github.com/remiblancher/kmscert/internal/x509util"
)

// Issue command flags
var (
	issueConfigPath string
	issueKeyID      string
	issueCommonName string
	issueCountry    string
	issueProvince   string
	issueLocality   string
	issueOrg        string
	issueEmail      string
	issueYears      int
	issueOut        string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a self-signed certificate for a custody-held RSA key",
	Long: `Issue a self-signed X.509v3 certificate whose key pair lives in the
configured custody service.

The certificate is signed with SHA256-RSA. The tool builds the
to-be-signed structure locally, hands its SHA-256 digest to the custody
service, and assembles the returned signature into the final
certificate. The private key never leaves the service.

The subject distinguished name requires a two-letter country code and a
common name; province, locality, organization and email are optional.
The certificate is its own issuer.

Examples:
  # Issue a 10-year certificate against an AWS KMS key
  kmscert issue --config custody.yaml \
    --key-id arn:aws:kms:eu-west-1:123456789012:key/abcd \
    --cn "Robot Certificate 1" --country GB --state Manchester \
    --org "ACME Certificates Inc." --years 10 --out robot.crt

  # Include a contact email in the issuerAltName extension
  kmscert issue --config custody.yaml --key-id my-key \
    --cn "Build Signer" --country FR --email pki@example.com --out signer.crt`,
	RunE: runIssue,
}

func init() {
	issueCmd.Flags().StringVar(&issueConfigPath, "config", "", "Custody service configuration file (required)")
	issueCmd.Flags().StringVar(&issueKeyID, "key-id", "", "Key identifier inside the custody service (required)")
	issueCmd.Flags().StringVar(&issueCommonName, "cn", "", "Subject common name (required)")
	issueCmd.Flags().StringVar(&issueCountry, "country", "", "Subject country, two-letter code (required)")
	issueCmd.Flags().StringVar(&issueProvince, "state", "", "Subject state or province")
	issueCmd.Flags().StringVar(&issueLocality, "locality", "", "Subject locality")
	issueCmd.Flags().StringVar(&issueOrg, "org", "", "Subject organization")
	issueCmd.Flags().StringVar(&issueEmail, "email", "", "Contact email (issuerAltName extension)")
	issueCmd.Flags().IntVar(&issueYears, "years", 1, "Validity length in whole years")
	issueCmd.Flags().StringVar(&issueOut, "out", "", "Output certificate file (default: stdout)")

	_ = issueCmd.MarkFlagRequired("config")
	_ = issueCmd.MarkFlagRequired("key-id")
	_ = issueCmd.MarkFlagRequired("cn")
	_ = issueCmd.MarkFlagRequired("country")
}

func runIssue(cmd *cobra.Command, args []string) error {
	cfg, err := custody.LoadConfig(issueConfigPath)
	if err != nil {
		return err
	}
	svc, err := cfg.Open(issueKeyID)
	if err != nil {
		return err
	}
	defer closeCustodyService(svc)

	issuer := issue.NewIssuer(svc)
	issuer.Backend = string(cfg.Type)

	result, err := issuer.Issue(context.Background(), issue.Request{
		KeyID: issueKeyID,
		Subject: x509util.DistinguishedName{
			Country:      issueCountry,
			Province:     issueProvince,
			Locality:     issueLocality,
			Organization: issueOrg,
			CommonName:   issueCommonName,
		},
		Email:         issueEmail,
		ValidityYears: issueYears,
	})
	if err != nil {
		return fmt.Errorf("failed to issue certificate: %w", err)
	}

	if issueOut == "" {
		fmt.Print(string(result.PEM))
	} else {
		if err := os.WriteFile(issueOut, result.PEM, 0o644); err != nil {
			return fmt.Errorf("failed to write certificate: %w", err)
		}
		fmt.Printf("Certificate written to %s\n", issueOut)
	}

	fmt.Fprintf(os.Stderr, "Serial:    0x%X\n", result.SerialNumber.Bytes())
	fmt.Fprintf(os.Stderr, "Subject:   %s\n", result.Subject.String())
	fmt.Fprintf(os.Stderr, "NotBefore: %s\n", result.Validity.NotBefore.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(os.Stderr, "NotAfter:  %s\n", result.Validity.NotAfter.Format("2006-01-02 15:04:05 UTC"))
	return nil
}

// closeCustodyService closes the service if the backend holds resources
// (the PKCS#11 backend keeps a session open).
func closeCustodyService(svc custody.Service) {
	if c, ok := svc.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
