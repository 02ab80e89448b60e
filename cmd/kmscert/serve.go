package main

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/remiblancher/kmscert/internal/api/server"
	"github.com/remiblancher/kmscert/internal/custody"
	"github.com/remiblancher/kmscert/internal/issue"
)

// Serve command flags
var (
	serveConfigPath string
	serveKeyID      string
	servePort       int
	serveHost       string
	serveTLSCert    string
	serveTLSKey     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the certificate issuance REST API",
	Long: `Start an HTTP server exposing certificate issuance over REST.

Endpoints:
  GET  /health               Health check
  GET  /ready                Readiness check
  POST /api/v1/certificates  Issue a self-signed certificate

Environment variables:
  KMSCERT_PORT      HTTP port
  KMSCERT_TLS_CERT  TLS certificate file
  KMSCERT_TLS_KEY   TLS private key file

Examples:
  # Serve the API over an AWS KMS backed custody service
  kmscert serve --config custody.yaml --port 8443

  # Serve with TLS
  kmscert serve --config custody.yaml --tls-cert server.crt --tls-key server.key`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Custody service configuration file (required)")
	serveCmd.Flags().StringVar(&serveKeyID, "key-id", "", "Default key identifier (software backend registration)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: 8443)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: all interfaces)")
	serveCmd.Flags().StringVar(&serveTLSCert, "tls-cert", "", "TLS certificate file")
	serveCmd.Flags().StringVar(&serveTLSKey, "tls-key", "", "TLS private key file")

	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	applyServeEnvVars()

	cfg, err := custody.LoadConfig(serveConfigPath)
	if err != nil {
		return err
	}
	svc, err := cfg.Open(serveKeyID)
	if err != nil {
		return err
	}
	defer closeCustodyService(svc)

	issuer := issue.NewIssuer(svc)
	issuer.Backend = string(cfg.Type)

	srvCfg := server.DefaultConfig()
	if servePort != 0 {
		srvCfg.Port = servePort
	}
	srvCfg.Host = serveHost
	srvCfg.TLSCert = serveTLSCert
	srvCfg.TLSKey = serveTLSKey

	return server.New(srvCfg, version, issuer).Start()
}

// applyServeEnvVars fills unset flags from environment variables.
func applyServeEnvVars() {
	if servePort == 0 {
		if v := os.Getenv("KMSCERT_PORT"); v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				servePort = p
			}
		}
	}
	if serveTLSCert == "" {
		serveTLSCert = os.Getenv("KMSCERT_TLS_CERT")
	}
	if serveTLSKey == "" {
		serveTLSKey = os.Getenv("KMSCERT_TLS_KEY")
	}
}
