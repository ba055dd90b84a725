package gs1

import (
	"errors"
	"testing"
)

func encode(product14, serial, expiry, lot string) string {
	return "01" + product14 + "21" + serial + "17" + expiry + "10" + lot
}

func TestDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		product string
		serial  string
		expiry  string
		lot     string
	}{
		{"plain", "08699999090011", "ABCD1234", "261231", "L0042"},
		{"min serial", "00000000000017", "XY9Z", "270101", "B1"},
		{"long serial", "18680001112223", "QWERTY99881234567890", "251201", "LOT-77A"},
		{"digits only serial", "08697770001234", "000123456", "260630", "9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Decode(encode(tc.product, tc.serial, tc.expiry, tc.lot))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if id.ProductCode != tc.product[1:] {
				t.Fatalf("product code = %q, want %q", id.ProductCode, tc.product[1:])
			}
			if id.SerialNumber != tc.serial {
				t.Fatalf("serial = %q, want %q", id.SerialNumber, tc.serial)
			}
			if id.ExpiryRaw != tc.expiry {
				t.Fatalf("expiry = %q, want %q", id.ExpiryRaw, tc.expiry)
			}
			if id.LotNumber != tc.lot {
				t.Fatalf("lot = %q, want %q", id.LotNumber, tc.lot)
			}
		})
	}
}

func TestDecodeAmbiguousSerialWithFalseExpiryMarker(t *testing.T) {
	// "17" inside the serial is followed by "990042", which fails the
	// month check, so the scan must continue to the real marker.
	id, err := Decode(encode("08699990001112", "AB17990042ZZ", "271130", "L55"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id.SerialNumber != "AB17990042ZZ" {
		t.Fatalf("serial split at false marker: %q", id.SerialNumber)
	}
	if id.ExpiryRaw != "271130" || id.LotNumber != "L55" {
		t.Fatalf("unexpected tail fields: expiry=%q lot=%q", id.ExpiryRaw, id.LotNumber)
	}
}

func TestDecodeKnownProductionScan(t *testing.T) {
	id, err := Decode("010869897809003521H2200000425677172711301024005B73")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id.ProductCode != "8698978090035" {
		t.Fatalf("product code = %q", id.ProductCode)
	}
	if id.SerialNumber != "H2200000425677" {
		t.Fatalf("serial = %q", id.SerialNumber)
	}
	if id.ExpiryRaw != "271130" {
		t.Fatalf("expiry = %q", id.ExpiryRaw)
	}
	if id.LotNumber != "24005B73" {
		t.Fatalf("lot = %q", id.LotNumber)
	}
}

func TestDecodeStripsTrailingGroupSeparator(t *testing.T) {
	id, err := Decode(encode("08690001234509", "SER1\x1d", "260501", "LOTX") + "\x1d")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id.SerialNumber != "SER1" {
		t.Fatalf("serial separator not stripped: %q", id.SerialNumber)
	}
	if id.LotNumber != "LOTX" {
		t.Fatalf("lot separator not stripped: %q", id.LotNumber)
	}
}

func TestDecodeFailureModes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"missing product prefix", "990869000012345621S", ErrMissingProductPrefix},
		{"empty input", "", ErrMissingProductPrefix},
		{"truncated product code", "01086912", ErrTruncatedProductCode},
		{"missing serial marker", "010869000012345699SERIAL", ErrMissingSerialMarker},
		{"no expiry marker at all", "010869000012345621SERIALNUMBER", ErrExpiryMarkerNotFound},
		{"expiry digits invalid", "01086900001234562100AB17ZZ9912", ErrInvalidExpiryDigits},
		{"invalid month", "010869000012345621SERIAL17261332109A", ErrInvalidExpiryDigits},
		{"missing lot marker", "010869000012345621SERIAL1726123199LOT", ErrMissingLotMarker},
		{"empty lot", "010869000012345621SERIAL1726123110", ErrEmptyField},
		{"empty lot after separator", "010869000012345621SERIAL1726123110\x1d", ErrEmptyField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.raw); !errors.Is(err, tc.want) {
				t.Fatalf("Decode(%q) err = %v, want %v", tc.raw, err, tc.want)
			}
		})
	}
}

func TestDecodeSerialShorterThanMinimumIsNotSplit(t *testing.T) {
	// A valid-looking "17"+date immediately after a 3-char serial must be
	// skipped; with no later marker the decode fails rather than
	// producing a too-short serial.
	if _, err := Decode("010869000012345621AB" + "17261231" + "10LOT"); !errors.Is(err, ErrExpiryMarkerNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrExpiryMarkerNotFound)
	}
}

func TestNormalizeProductCode(t *testing.T) {
	cases := map[string]string{
		"0008699999090011": "8699999090011",
		"8699999090011":    "8699999090011",
		" 08699 ":          "8699",
		"0000":             "",
	}
	for in, want := range cases {
		if got := NormalizeProductCode(in); got != want {
			t.Fatalf("NormalizeProductCode(%q) = %q, want %q", in, got, want)
		}
	}
}
