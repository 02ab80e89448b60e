package x509util

import (
	"encoding/asn1"
	"fmt"
	"strings"

	"github.com/remiblancher/kmscert/internal/der"
)

// DistinguishedName identifies the certificate subject. The certificate is
// self-signed, so the same value is used verbatim as the issuer.
//
// Attributes are encoded in the fixed RFC 5280 recommended order:
// C, ST, L, O, CN. Country and CommonName are required; the rest are
// skipped when empty. All values must fit the ASN.1 PrintableString
// character set.
type DistinguishedName struct {
	Country      string
	Province     string
	Locality     string
	Organization string
	CommonName   string
}

// Validate checks structural constraints that the DER encoder cannot
// express: Country must be exactly two characters and CommonName must be
// present. Character-set violations surface later as EncodingErrors.
func (dn DistinguishedName) Validate() error {
	if len(dn.Country) != 2 {
		return &der.EncodingError{Field: "subject.Country", Reason: fmt.Sprintf("must be exactly 2 characters, got %d", len(dn.Country))}
	}
	if dn.CommonName == "" {
		return &der.EncodingError{Field: "subject.CommonName", Reason: "must not be empty"}
	}
	return nil
}

// Encode returns the DER RDNSequence for the name. Each RDN is a SET
// containing a single SEQUENCE of attribute OID and PrintableString value.
func (dn DistinguishedName) Encode() ([]byte, error) {
	if err := dn.Validate(); err != nil {
		return nil, err
	}

	attrs := []struct {
		field string
		oid   asn1.ObjectIdentifier
		value string
	}{
		{"subject.Country", OIDAttributeCountry, dn.Country},
		{"subject.Province", OIDAttributeProvince, dn.Province},
		{"subject.Locality", OIDAttributeLocality, dn.Locality},
		{"subject.Organization", OIDAttributeOrganization, dn.Organization},
		{"subject.CommonName", OIDAttributeCommonName, dn.CommonName},
	}

	var rdns [][]byte
	for _, attr := range attrs {
		if attr.value == "" {
			continue
		}
		oid, err := der.ObjectIdentifier(attr.field, attr.oid)
		if err != nil {
			return nil, err
		}
		value, err := der.PrintableString(attr.field, attr.value)
		if err != nil {
			return nil, err
		}
		atv, err := der.Sequence(attr.field, oid, value)
		if err != nil {
			return nil, err
		}
		rdn, err := der.Set(attr.field, atv)
		if err != nil {
			return nil, err
		}
		rdns = append(rdns, rdn)
	}

	return der.Sequence("subject", rdns...)
}

// String renders the name in the usual one-line form for display and
// audit logs, e.g. "C=GB, ST=Manchester, O=ACME, CN=Robot 1".
func (dn DistinguishedName) String() string {
	var parts []string
	add := func(prefix, v string) {
		if v != "" {
			parts = append(parts, prefix+"="+v)
		}
	}
	add("C", dn.Country)
	add("ST", dn.Province)
	add("L", dn.Locality)
	add("O", dn.Organization)
	add("CN", dn.CommonName)
	return strings.Join(parts, ", ")
}
