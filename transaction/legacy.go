package transaction

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/helixcustody/evm-signer-kms/common"
)

// LegacyTransaction is the original, untyped transaction format. It carries no
// chain id (EIP-155 encoding is not supported) and is encoded without a type
// prefix. The field order matches the RLP layout.
type LegacyTransaction struct {
	Nonce    *big.Int
	GasPrice *big.Int
	GasLimit *big.Int
	// To is the recipient address; nil denotes contract creation and encodes as an
	// empty byte string.
	To    *AccountAddress `rlp:"nil"`
	Value *big.Int
	Data  []byte
}

type legacySignedFields struct {
	Nonce    *big.Int
	GasPrice *big.Int
	GasLimit *big.Int
	To       *AccountAddress `rlp:"nil"`
	Value    *big.Int
	Data     []byte
	V        uint64
	R        common.SignatureComponent
	S        common.SignatureComponent
}

// Encode returns the RLP encoding of the unsigned transaction.
func (tx *LegacyTransaction) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(tx)
}

func (tx *LegacyTransaction) chainID() (uint64, bool) {
	return 0, false
}

func (tx *LegacyTransaction) signedFields(v uint64, r, s common.SignatureComponent) interface{} {
	return &legacySignedFields{
		Nonce:    tx.Nonce,
		GasPrice: tx.GasPrice,
		GasLimit: tx.GasLimit,
		To:       tx.To,
		Value:    tx.Value,
		Data:     tx.Data,
		V:        v,
		R:        r,
		S:        s,
	}
}

// DecodeLegacy decodes an unsigned legacy transaction encoding.
func DecodeLegacy(encoding []byte) (*LegacyTransaction, error) {
	var tx LegacyTransaction
	if err := rlp.DecodeBytes(encoding, &tx); err != nil {
		return nil, &common.DecodeError{What: "legacy transaction", Err: err}
	}
	return &tx, nil
}

// UnmarshalJSON decodes the camelCase JSON contract of a legacy transaction.
func (tx *LegacyTransaction) UnmarshalJSON(data []byte) error {
	var aux struct {
		Nonce    json.Number `json:"nonce"`
		GasPrice json.Number `json:"gasPrice"`
		GasLimit json.Number `json:"gasLimit"`
		To       *string     `json:"to"`
		Value    json.Number `json:"value"`
		Data     *string     `json:"data"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return wrapDecodeErr("legacy transaction", err)
	}

	var err error
	if tx.Nonce, err = parseQuantity("nonce", aux.Nonce); err != nil {
		return err
	}
	if tx.GasPrice, err = parseQuantity("gasPrice", aux.GasPrice); err != nil {
		return err
	}
	if tx.GasLimit, err = parseQuantity("gasLimit", aux.GasLimit); err != nil {
		return err
	}
	if tx.To, err = parseOptionalAddress("to", aux.To); err != nil {
		return err
	}
	if tx.Value, err = parseQuantity("value", aux.Value); err != nil {
		return err
	}
	if tx.Data, err = parseData(aux.Data); err != nil {
		return err
	}

	return nil
}

// MarshalJSON renders the transaction per the camelCase JSON contract.
func (tx *LegacyTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Nonce    *big.Int `json:"nonce"`
		GasPrice *big.Int `json:"gasPrice"`
		GasLimit *big.Int `json:"gasLimit"`
		To       *string  `json:"to,omitempty"`
		Value    *big.Int `json:"value"`
		Data     string   `json:"data"`
	}{
		Nonce:    tx.Nonce,
		GasPrice: tx.GasPrice,
		GasLimit: tx.GasLimit,
		To:       optionalAddressHex(tx.To),
		Value:    tx.Value,
		Data:     hexEncode(tx.Data),
	})
}

// parseOptionalAddress parses an address field where absence or an empty string
// means contract creation.
func parseOptionalAddress(field string, s *string) (*AccountAddress, error) {
	if s == nil || *s == "" || *s == hexPrefix {
		return nil, nil
	}
	addr, err := parseAddress(field, *s)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func optionalAddressHex(addr *AccountAddress) *string {
	if addr == nil {
		return nil
	}
	s := addr.Hex()
	return &s
}
