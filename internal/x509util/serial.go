package x509util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// serialBits is the size of generated serial numbers. 320 random bits make
// collisions negligible across any realistic number of issuance runs.
const serialBits = 320

// NewSerialNumber generates a random positive serial number, unique per
// issuance. The caller must freeze the value before the TBSCertificate is
// first encoded and never regenerate it afterwards.
func NewSerialNumber() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), serialBits)
	for {
		serial, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to generate serial number: %w", err)
		}
		// Serial numbers must be positive; retry on zero.
		if serial.Sign() > 0 {
			return serial, nil
		}
	}
}
