package transaction

import (
	"encoding/json"
	"fmt"

	"github.com/helixcustody/evm-signer-kms/common"
)

// StorageKeyLength is the byte length of an EVM storage slot key.
const StorageKeyLength = 32

// StorageKey is a raw 32-byte storage slot key.
type StorageKey [StorageKeyLength]byte

// MarshalJSON renders the storage key as a lowercase hex string.
func (k StorageKey) MarshalJSON() ([]byte, error) {
	return []byte(`"` + hexEncode(k[:]) + `"`), nil
}

// UnmarshalJSON decodes a 0x-prefixed hex string into a storage key.
func (k *StorageKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &common.DecodeError{What: "storage key", Err: err}
	}

	b, err := bytesFromHexString("storage key", s)
	if err != nil {
		return err
	}
	if len(b) != StorageKeyLength {
		return &common.DecodeError{What: "storage key", Err: fmt.Errorf("expected %d bytes, got %d", StorageKeyLength, len(b))}
	}

	copy(k[:], b)
	return nil
}

// Access is a single access-list entry: an address together with the storage keys
// the transaction touches on it. The key order is significant for the RLP bytes and
// hence the digest. The field order matches the RLP layout [address, [key, ...]],
// so an entry with no keys encodes as [address, []].
type Access struct {
	// Address of the account accessed by the transaction.
	Address AccountAddress
	// StorageKeys accessed by the transaction, in order.
	StorageKeys []StorageKey
}

// MarshalJSON renders the entry as the two-element array [address, [key, ...]].
func (a Access) MarshalJSON() ([]byte, error) {
	keys := a.StorageKeys
	if keys == nil {
		keys = []StorageKey{}
	}
	return json.Marshal([]interface{}{a.Address, keys})
}

// UnmarshalJSON decodes a two-element [address, [key, ...]] array.
func (a *Access) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return &common.DecodeError{What: "access list entry", Err: err}
	}
	if len(pair) != 2 {
		return &common.DecodeError{What: "access list entry", Err: fmt.Errorf("expected [address, storageKeys] pair, got %d elements", len(pair))}
	}

	var addrStr string
	if err := json.Unmarshal(pair[0], &addrStr); err != nil {
		return &common.DecodeError{What: "access list entry", Err: err}
	}
	addr, err := parseAddress("accessList", addrStr)
	if err != nil {
		return err
	}

	keys := []StorageKey{}
	if err := json.Unmarshal(pair[1], &keys); err != nil {
		return wrapDecodeErr("access list entry", err)
	}

	a.Address = addr
	a.StorageKeys = keys
	return nil
}
