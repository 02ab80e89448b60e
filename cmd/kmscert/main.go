// Command kmscert issues self-signed X.509 certificates for RSA keys held
// in a remote custody service (AWS KMS, PKCS#11 HSM, or a local software
// keystore). The private key never leaves the custody boundary: the tool
// only ever asks the service for the public key and for a signature over
// a SHA-256 digest.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remiblancher/kmscert/internal/audit"
)

// Build-time variables (injected by GoReleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var auditLogPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kmscert",
	Short: "Self-signed certificate issuance over custody-held RSA keys",
	Long: `kmscert issues self-signed X.509v3 certificates whose RSA private key
lives in a remote custody service. The service exposes exactly two
capabilities: exporting the public key and signing a SHA-256 digest
with RSASSA-PKCS1-v1_5. The private key is never exported.

Supported custody backends:
  awskms    AWS Key Management Service
  pkcs11    PKCS#11 hardware security module
  software  Local PEM-encoded RSA key (development and testing)

Examples:
  # Issue a certificate against a key described in custody.yaml
  kmscert issue --config custody.yaml --key-id my-key \
    --cn "Robot Certificate 1" --country GB --org "ACME Certificates Inc." \
    --years 10 --out robot.crt

  # Inspect the issued certificate
  kmscert inspect robot.crt

  # Serve the issuance REST API
  kmscert serve --config custody.yaml --port 8443`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Check for audit log path from environment if not set via flag
		if auditLogPath == "" {
			auditLogPath = os.Getenv("KMSCERT_AUDIT_LOG")
		}

		// Initialize audit logging
		if auditLogPath != "" {
			if err := audit.InitFile(auditLogPath); err != nil {
				return fmt.Errorf("failed to initialize audit log: %w", err)
			}
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		// Close audit log
		return audit.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&auditLogPath, "audit-log", "",
		"Path to audit log file (or set KMSCERT_AUDIT_LOG env var)")

	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
}
