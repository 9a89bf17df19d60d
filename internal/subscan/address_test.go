package subscan

import (
	"bytes"
	"strings"
	"testing"

	subkey "github.com/vedhavyas/go-subkey/v2"
)

func TestDecodeAccountIDRoundTrip(t *testing.T) {
	hexID := "0x" + strings.Repeat("00", 32)

	address, err := decodeAccountID(hexID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prefix, pubkey, err := subkey.SS58Decode(address)
	if err != nil {
		t.Fatalf("decode ss58: %v", err)
	}
	if prefix != ss58Prefix {
		t.Fatalf("expected network prefix %d, got %d", ss58Prefix, prefix)
	}
	if !bytes.Equal(pubkey, make([]byte, 32)) {
		t.Fatalf("round-trip changed the account id: %x", pubkey)
	}
}

func TestDecodeAccountIDMalformed(t *testing.T) {
	cases := []struct {
		name  string
		hexID string
	}{
		{"empty", ""},
		{"prefix only", "0x"},
		{"bad hex", "0xzz00"},
		{"wrong length", "0x00ff"},
	}

	for _, tc := range cases {
		if _, err := decodeAccountID(tc.hexID); err == nil {
			t.Fatalf("%s: expected error for %q", tc.name, tc.hexID)
		}
	}
}
