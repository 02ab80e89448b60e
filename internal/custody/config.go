package custody

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServiceType identifies the custody backend.
type ServiceType string

const (
	// ServiceTypeKMS uses AWS KMS.
	ServiceTypeKMS ServiceType = "awskms"

	// ServiceTypePKCS11 uses a PKCS#11 (HSM) token.
	ServiceTypePKCS11 ServiceType = "pkcs11"

	// ServiceTypeSoftware uses an in-process key file (development only).
	ServiceTypeSoftware ServiceType = "software"
)

// Config is the YAML custody service configuration.
type Config struct {
	Type     ServiceType      `yaml:"type"`
	KMS      KMSSettings      `yaml:"awskms"`
	PKCS11   PKCS11Settings   `yaml:"pkcs11"`
	Software SoftwareSettings `yaml:"software"`
}

// KMSSettings holds AWS KMS specific configuration.
type KMSSettings struct {
	// Region is the AWS region hosting the key.
	Region string `yaml:"region"`

	// Profile is an optional shared-credentials profile name.
	Profile string `yaml:"profile"`

	// Endpoint overrides the KMS endpoint (local stacks, testing).
	Endpoint string `yaml:"endpoint"`
}

// PKCS11Settings holds PKCS#11 specific configuration.
type PKCS11Settings struct {
	// Lib is the path to the PKCS#11 library (.so/.dylib/.dll)
	Lib string `yaml:"lib"`

	// Token identifies the token by label
	Token string `yaml:"token"`

	// PinEnv is the name of the environment variable containing the PIN
	PinEnv string `yaml:"pin_env"`
}

// SoftwareSettings holds software key configuration.
type SoftwareSettings struct {
	// KeyPath is the PEM private key file; the key is registered under
	// the key identifier passed on the command line.
	KeyPath string `yaml:"key_path"`
}

// LoadConfig loads custody configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read custody config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse custody config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid custody config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration names a usable backend.
func (c *Config) Validate() error {
	switch c.Type {
	case ServiceTypeKMS:
		if c.KMS.Region == "" && c.KMS.Endpoint == "" {
			return fmt.Errorf("awskms.region is required")
		}
	case ServiceTypePKCS11:
		if c.PKCS11.Lib == "" {
			return fmt.Errorf("pkcs11.lib is required")
		}
		if c.PKCS11.Token == "" {
			return fmt.Errorf("pkcs11.token is required")
		}
		if c.PKCS11.PinEnv == "" {
			return fmt.Errorf("pkcs11.pin_env is required (PIN must be provided via environment variable)")
		}
	case ServiceTypeSoftware:
		if c.Software.KeyPath == "" {
			return fmt.Errorf("software.key_path is required")
		}
	default:
		return fmt.Errorf("unsupported custody type: %q", c.Type)
	}
	return nil
}

// Open creates the custody service the configuration describes. keyID is
// needed up front only by the software backend, which registers its file
// key under that identifier.
func (c *Config) Open(keyID string) (Service, error) {
	switch c.Type {
	case ServiceTypeKMS:
		return NewKMSService(c.KMS)

	case ServiceTypePKCS11:
		pin := os.Getenv(c.PKCS11.PinEnv)
		if pin == "" {
			return nil, fmt.Errorf("environment variable %s is not set or empty", c.PKCS11.PinEnv)
		}
		return NewPKCS11Service(c.PKCS11, pin)

	case ServiceTypeSoftware:
		return LoadSoftwareService(keyID, c.Software.KeyPath)

	default:
		return nil, fmt.Errorf("unsupported custody type: %q", c.Type)
	}
}
