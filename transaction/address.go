package transaction

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/helixcustody/evm-signer-kms/common"
)

// AddressLength is the byte length of an EVM account address.
const AddressLength = 20

// AccountAddress is a raw 20-byte EVM account address.
type AccountAddress [AddressLength]byte

// Hex returns the address as a 0x-prefixed lowercase hex string.
func (a AccountAddress) Hex() string {
	return hexEncode(a[:])
}

// ChecksumHex returns the address in its EIP-55 mixed-case form.
func (a AccountAddress) ChecksumHex() string {
	// The lowercase rendering of a valid address cannot fail the checksum pass.
	checksummed, _ := ComputeChecksum(a.Hex())
	return checksummed
}

// MarshalJSON renders the address as a lowercase hex string.
func (a AccountAddress) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.Hex() + `"`), nil
}

// ComputeChecksum computes the EIP-55 mixed-case form of the given hex address.
// The input may be any mix of cases, with or without the 0x prefix.
func ComputeChecksum(address string) (string, error) {
	body := strings.ToLower(strings.TrimPrefix(address, hexPrefix))
	digest := common.Keccak256([]byte(body))
	hashHex := hex.EncodeToString(digest[:])

	var b strings.Builder
	b.WriteString(hexPrefix)
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'a' && c <= 'f':
			// Uppercase iff the hash nibble at the same position is >= 8.
			if hashHex[i] >= '8' {
				b.WriteByte(c - 'a' + 'A')
			} else {
				b.WriteByte(c)
			}
		default:
			return "", &common.DecodeError{What: "address", Err: fmt.Errorf("invalid hex character %q", c)}
		}
	}

	return b.String(), nil
}

// ValidateChecksum reports whether the given address string carries a valid EIP-55
// checksum. An all-lowercase address passes without validation, as no checksum was
// applied; a warning is logged since nothing is asserted about such an address.
func ValidateChecksum(address string) bool {
	if address == strings.ToLower(address) {
		log.Warn().Str("address", address).Msg("all-lowercase address, EIP-55 checksum not enforced")
		return true
	}

	checksummed, err := ComputeChecksum(address)
	return err == nil && checksummed == address
}

// parseAddress validates the checksum of the given address string and converts it to
// raw bytes. field names the transaction field the address came from.
func parseAddress(field, s string) (AccountAddress, error) {
	var addr AccountAddress

	if !ValidateChecksum(s) {
		return addr, &common.ChecksumError{Field: field, Address: s}
	}

	b, err := bytesFromHexString(field, s)
	if err != nil {
		return addr, err
	}
	if len(b) != AddressLength {
		return addr, &common.DecodeError{What: field, Err: fmt.Errorf("expected %d address bytes, got %d", AddressLength, len(b))}
	}

	copy(addr[:], b)
	return addr, nil
}

// AddressFromHex converts a checksummed or all-lowercase hex string into an address.
func AddressFromHex(s string) (AccountAddress, error) {
	return parseAddress("address", s)
}
