// Package gs1 decodes the concatenated application-identifier strings
// produced by 2D DataMatrix scans of serialized pharmaceutical units.
//
// Only the four identifiers actually used by the traceability service are
// supported, in fixed order: 01 (GTIN), 21 (serial number), 17 (expiry
// date) and 10 (lot). The fields carry no delimiters, so the boundary
// between the variable-length serial number and the expiry field has to be
// recovered by scanning for a "17" marker that is followed by a
// syntactically valid date.
package gs1

import (
	"errors"
	"fmt"
	"strings"
)

const (
	productPrefix = "01"
	serialPrefix  = "21"
	expiryPrefix  = "17"
	lotPrefix     = "10"

	productFieldLen = 14
	expiryFieldLen  = 6
	minSerialLen    = 4

	groupSeparator = "\x1d"
)

var (
	ErrMissingProductPrefix = errors.New("gs1: missing 01 product prefix")
	ErrTruncatedProductCode = errors.New("gs1: truncated product code field")
	ErrMissingSerialMarker  = errors.New("gs1: missing 21 serial marker")
	ErrExpiryMarkerNotFound = errors.New("gs1: no valid 17 expiry marker found")
	ErrInvalidExpiryDigits  = errors.New("gs1: expiry marker not followed by a valid date")
	ErrMissingLotMarker     = errors.New("gs1: missing 10 lot marker after expiry date")
	ErrEmptyField           = errors.New("gs1: empty field")
)

// UnitIdentifier is the decoded content of a single scanned barcode.
type UnitIdentifier struct {
	ProductCode  string // 13 digits, pack indicator stripped
	SerialNumber string
	ExpiryRaw    string // YYMMDD as scanned
	LotNumber    string
}

// Decode parses one raw scan line into a UnitIdentifier. It is a pure
// function; every failure mode maps to one of the package sentinel errors
// so callers can report the violated rule per scan and keep going.
func Decode(raw string) (UnitIdentifier, error) {
	var id UnitIdentifier

	if !strings.HasPrefix(raw, productPrefix) {
		return id, ErrMissingProductPrefix
	}
	rest := raw[len(productPrefix):]
	if len(rest) < productFieldLen {
		return id, ErrTruncatedProductCode
	}
	// The first character of the 14-digit GTIN span is the pack
	// indicator; the stored product code is the remaining 13.
	id.ProductCode = rest[1:productFieldLen]
	rest = rest[productFieldLen:]

	if !strings.HasPrefix(rest, serialPrefix) {
		return id, ErrMissingSerialMarker
	}
	rest = rest[len(serialPrefix):]

	pos, sawCandidate := findExpiryMarker(rest)
	if pos < 0 {
		if sawCandidate {
			return id, ErrInvalidExpiryDigits
		}
		return id, ErrExpiryMarkerNotFound
	}

	id.SerialNumber = strings.TrimRight(rest[:pos], groupSeparator)
	id.ExpiryRaw = rest[pos+len(expiryPrefix) : pos+len(expiryPrefix)+expiryFieldLen]
	rest = rest[pos+len(expiryPrefix)+expiryFieldLen:]

	if !strings.HasPrefix(rest, lotPrefix) {
		return id, ErrMissingLotMarker
	}
	id.LotNumber = strings.TrimRight(rest[len(lotPrefix):], groupSeparator)

	for _, f := range []struct {
		name  string
		value string
	}{
		{"product code", id.ProductCode},
		{"serial number", id.SerialNumber},
		{"expiry date", id.ExpiryRaw},
		{"lot number", id.LotNumber},
	} {
		if strings.TrimSpace(f.value) == "" {
			return UnitIdentifier{}, fmt.Errorf("%w: %s", ErrEmptyField, f.name)
		}
	}
	return id, nil
}

// findExpiryMarker scans s for the first "17" whose following six
// characters form a plausible YYMMDD date and whose preceding serial span
// is at least minSerialLen characters. A "17" may legitimately occur
// inside the serial number itself, which is why first-occurrence matching
// is not enough. Returns the marker offset, or -1; sawCandidate reports
// whether any "17" with six following characters was seen at all.
func findExpiryMarker(s string) (pos int, sawCandidate bool) {
	for i := minSerialLen; i+len(expiryPrefix)+expiryFieldLen <= len(s); i++ {
		if s[i:i+len(expiryPrefix)] != expiryPrefix {
			continue
		}
		sawCandidate = true
		if serial := strings.TrimRight(s[:i], groupSeparator); len(serial) < minSerialLen {
			continue
		}
		if validExpiry(s[i+len(expiryPrefix) : i+len(expiryPrefix)+expiryFieldLen]) {
			return i, sawCandidate
		}
	}
	return -1, sawCandidate
}

// validExpiry checks the six-character span for digits forming a date with
// month 01-12 and day 01-31. Day 00 is tolerated by the wire format in
// theory but the service never emits it, so it is rejected here.
func validExpiry(s string) bool {
	if len(s) != expiryFieldLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	month := (int(s[2]-'0') * 10) + int(s[3]-'0')
	day := (int(s[4]-'0') * 10) + int(s[5]-'0')
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// NormalizeProductCode strips leading zeros so differently padded GTINs
// compare equal. Upstream systems are inconsistent about zero padding.
func NormalizeProductCode(code string) string {
	return strings.TrimLeft(strings.TrimSpace(code), "0")
}
