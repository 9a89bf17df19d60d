package subscan

import (
	"encoding/hex"
	"fmt"

	subkey "github.com/vedhavyas/go-subkey/v2"
)

// ss58Prefix is the generic Substrate network prefix used for rendered
// addresses.
const ss58Prefix uint16 = 42

// decodeAccountID converts a hex-encoded 32-byte account id carrying a
// two-character prefix (such as "0x") into its SS58 text form.
func decodeAccountID(hexID string) (string, error) {
	if len(hexID) < 2 {
		return "", fmt.Errorf("account id %q too short", hexID)
	}

	raw, err := hex.DecodeString(hexID[2:])
	if err != nil {
		return "", fmt.Errorf("decode account id: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("account id is %d bytes, want 32", len(raw))
	}

	return subkey.SS58Encode(raw, ss58Prefix), nil
}
