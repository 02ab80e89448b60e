// Package der provides primitives for building ASN.1 DER byte sequences.
//
// Every function is a pure mapping from a typed value to its complete DER
// encoding (tag, length, content). The package carries no certificate
// semantics; callers compose these primitives into higher-level structures.
// Values that cannot be represented fail with an *EncodingError naming the
// offending field - nothing is truncated or substituted.
package der

import (
	encasn1 "encoding/asn1"
	"math/big"
	"time"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Integer encodes a non-negative big integer as a DER INTEGER.
// A leading 0x00 octet is emitted when the top bit of the minimal
// big-endian representation is set, keeping the value non-negative.
func Integer(field string, n *big.Int) ([]byte, error) {
	if n == nil {
		return nil, errf(field, "nil integer")
	}
	if n.Sign() < 0 {
		return nil, errf(field, "negative integer %s", n.String())
	}
	var b cryptobyte.Builder
	b.AddASN1BigInt(n)
	return bytesOf(field, &b)
}

// BitString encodes a byte-aligned payload as a DER BIT STRING with
// zero unused bits, as used for signatures and wrapped public keys.
func BitString(field string, payload []byte) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1BitString(payload)
	return bytesOf(field, &b)
}

// NamedBitString encodes a BIT STRING of exactly bitLength bits, as used
// for named-bit lists such as keyUsage. Trailing zero octets are trimmed
// and unused bits in the final octet are masked to zero per DER.
func NamedBitString(field string, bits []byte, bitLength int) ([]byte, error) {
	if bitLength <= 0 || bitLength > 8*len(bits) {
		return nil, errf(field, "bit length %d out of range for %d octets", bitLength, len(bits))
	}
	octets := (bitLength + 7) / 8
	unused := 8*octets - bitLength
	content := make([]byte, octets)
	copy(content, bits[:octets])
	content[octets-1] &= 0xff << uint(unused)

	var b cryptobyte.Builder
	b.AddASN1(asn1.BIT_STRING, func(b *cryptobyte.Builder) {
		b.AddUint8(uint8(unused))
		b.AddBytes(content)
	})
	return bytesOf(field, &b)
}

// OctetString encodes a DER OCTET STRING.
func OctetString(field string, payload []byte) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1OctetString(payload)
	return bytesOf(field, &b)
}

// ObjectIdentifier encodes a DER OBJECT IDENTIFIER.
func ObjectIdentifier(field string, oid encasn1.ObjectIdentifier) ([]byte, error) {
	if !validOID(oid) {
		return nil, errf(field, "invalid object identifier %v", []int(oid))
	}
	var b cryptobyte.Builder
	b.AddASN1ObjectIdentifier(oid)
	return bytesOf(field, &b)
}

// PrintableString encodes a DER PrintableString. The value is restricted
// to the X.680 PrintableString character set: letters, digits, space and
// '()+,-./:=? - anything else is an encoding error.
func PrintableString(field, s string) ([]byte, error) {
	for _, r := range s {
		if !printableChar(r) {
			return nil, errf(field, "character %q not allowed in PrintableString", r)
		}
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.PrintableString, func(b *cryptobyte.Builder) {
		b.AddBytes([]byte(s))
	})
	return bytesOf(field, &b)
}

// IA5String encodes a DER IA5String (7-bit ASCII).
func IA5String(field, s string) ([]byte, error) {
	for _, r := range s {
		if r > 127 {
			return nil, errf(field, "non-ASCII character %q not allowed in IA5String", r)
		}
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.IA5String, func(b *cryptobyte.Builder) {
		b.AddBytes([]byte(s))
	})
	return bytesOf(field, &b)
}

// UTCTime encodes a timestamp as a DER UTCTime (YYMMDDHHMMSSZ), truncated
// to seconds. UTCTime represents years 1950-2049 only; anything outside
// that window is an encoding error rather than a silent format switch.
func UTCTime(field string, t time.Time) ([]byte, error) {
	t = t.UTC()
	if year := t.Year(); year < 1950 || year >= 2050 {
		return nil, errf(field, "year %d outside UTCTime range 1950-2049", year)
	}
	formatted := t.Format("060102150405") + "Z"

	var b cryptobyte.Builder
	b.AddASN1(asn1.UTCTime, func(b *cryptobyte.Builder) {
		b.AddBytes([]byte(formatted))
	})
	return bytesOf(field, &b)
}

// Boolean encodes a DER BOOLEAN (TRUE is 0xFF per DER).
func Boolean(v bool) []byte {
	if v {
		return []byte{0x01, 0x01, 0xff}
	}
	return []byte{0x01, 0x01, 0x00}
}

// Null encodes a DER NULL.
func Null() []byte {
	return []byte{0x05, 0x00}
}

// Sequence encodes a DER SEQUENCE of already-encoded children, in the
// caller-given order. Order is semantically significant (e.g. RDNs).
func Sequence(field string, children ...[]byte) ([]byte, error) {
	return constructed(field, asn1.SEQUENCE, children)
}

// Set encodes a DER SET of already-encoded children, in the caller-given
// order. The caller is responsible for any ordering DER requires; the
// single-element SETs used in RDNs are trivially ordered.
func Set(field string, children ...[]byte) ([]byte, error) {
	return constructed(field, asn1.SET, children)
}

// Explicit wraps an already-encoded element in a constructed
// context-specific tag, keeping the inner tag and content intact.
func Explicit(field string, tag int, inner []byte) ([]byte, error) {
	if tag < 0 || tag > 30 {
		return nil, errf(field, "context tag %d out of single-octet range", tag)
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.Tag(tag).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
		b.AddBytes(inner)
	})
	return bytesOf(field, &b)
}

// Implicit re-tags an already-encoded element with a context-specific
// tag, replacing the inner tag but keeping its content and its
// primitive/constructed form.
func Implicit(field string, tag int, inner []byte) ([]byte, error) {
	if tag < 0 || tag > 30 {
		return nil, errf(field, "context tag %d out of single-octet range", tag)
	}
	s := cryptobyte.String(inner)
	var body cryptobyte.String
	var innerTag asn1.Tag
	if !s.ReadAnyASN1(&body, &innerTag) || !s.Empty() {
		return nil, errf(field, "inner value is not a single DER element")
	}
	newTag := asn1.Tag(tag).ContextSpecific()
	if innerTag&0x20 != 0 {
		newTag = newTag.Constructed()
	}
	var b cryptobyte.Builder
	b.AddASN1(newTag, func(b *cryptobyte.Builder) {
		b.AddBytes(body)
	})
	return bytesOf(field, &b)
}

// constructed emits a constructed element containing the concatenated children.
func constructed(field string, tag asn1.Tag, children [][]byte) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(tag, func(b *cryptobyte.Builder) {
		for _, child := range children {
			b.AddBytes(child)
		}
	})
	return bytesOf(field, &b)
}

// bytesOf finalizes a builder, converting its internal error into an
// EncodingError for the field.
func bytesOf(field string, b *cryptobyte.Builder) ([]byte, error) {
	out, err := b.Bytes()
	if err != nil {
		return nil, errf(field, "%v", err)
	}
	return out, nil
}

// validOID reports whether an OID satisfies the X.660 arc constraints.
func validOID(oid encasn1.ObjectIdentifier) bool {
	if len(oid) < 2 {
		return false
	}
	if oid[0] > 2 || (oid[0] < 2 && oid[1] >= 40) {
		return false
	}
	for _, v := range oid {
		if v < 0 {
			return false
		}
	}
	return true
}

// printableChar reports whether a rune is valid in a PrintableString.
func printableChar(r rune) bool {
	if r >= 'a' && r <= 'z' {
		return true
	}
	if r >= 'A' && r <= 'Z' {
		return true
	}
	if r >= '0' && r <= '9' {
		return true
	}
	switch r {
	case ' ', '\'', '(', ')', '+', ',', '-', '.', '/', ':', '=', '?':
		return true
	}
	return false
}
