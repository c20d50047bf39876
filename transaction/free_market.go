package transaction

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/helixcustody/evm-signer-kms/common"
)

// FreeMarketTransaction is an EIP-1559 (type 2) transaction with a priority fee and
// a fee cap instead of a single gas price. The field order matches the RLP layout.
type FreeMarketTransaction struct {
	ChainID              uint64
	Nonce                *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             *big.Int
	// To is the recipient address; nil denotes contract creation and encodes as an
	// empty byte string.
	To         *AccountAddress `rlp:"nil"`
	Value      *big.Int
	Data       []byte
	AccessList []Access
}

type freeMarketSignedFields struct {
	ChainID              uint64
	Nonce                *big.Int
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	GasLimit             *big.Int
	To                   *AccountAddress `rlp:"nil"`
	Value                *big.Int
	Data                 []byte
	AccessList           []Access
	V                    uint64
	R                    common.SignatureComponent
	S                    common.SignatureComponent
}

// Encode returns the type-prefixed RLP encoding of the unsigned transaction.
func (tx *FreeMarketTransaction) Encode() ([]byte, error) {
	payload, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return nil, err
	}
	return append([]byte{FreeMarketTxType}, payload...), nil
}

func (tx *FreeMarketTransaction) chainID() (uint64, bool) {
	return tx.ChainID, true
}

func (tx *FreeMarketTransaction) signedFields(v uint64, r, s common.SignatureComponent) interface{} {
	return &freeMarketSignedFields{
		ChainID:              tx.ChainID,
		Nonce:                tx.Nonce,
		MaxPriorityFeePerGas: tx.MaxPriorityFeePerGas,
		MaxFeePerGas:         tx.MaxFeePerGas,
		GasLimit:             tx.GasLimit,
		To:                   tx.To,
		Value:                tx.Value,
		Data:                 tx.Data,
		AccessList:           tx.AccessList,
		V:                    v,
		R:                    r,
		S:                    s,
	}
}

// DecodeFreeMarket decodes an unsigned, type-prefixed EIP-1559 transaction encoding.
func DecodeFreeMarket(encoding []byte) (*FreeMarketTransaction, error) {
	if len(encoding) == 0 || encoding[0] != FreeMarketTxType {
		return nil, &common.DecodeError{What: "free market transaction", Err: fmt.Errorf("missing 0x%02x type prefix", FreeMarketTxType)}
	}

	var tx FreeMarketTransaction
	if err := rlp.DecodeBytes(encoding[1:], &tx); err != nil {
		return nil, &common.DecodeError{What: "free market transaction", Err: err}
	}
	return &tx, nil
}

// UnmarshalJSON decodes the camelCase JSON contract of an EIP-1559 transaction.
func (tx *FreeMarketTransaction) UnmarshalJSON(data []byte) error {
	var aux struct {
		ChainID              json.Number `json:"chainId"`
		Nonce                json.Number `json:"nonce"`
		MaxPriorityFeePerGas json.Number `json:"maxPriorityFeePerGas"`
		MaxFeePerGas         json.Number `json:"maxFeePerGas"`
		GasLimit             json.Number `json:"gasLimit"`
		To                   *string     `json:"to"`
		Value                json.Number `json:"value"`
		Data                 *string     `json:"data"`
		AccessList           []Access    `json:"accessList"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return wrapDecodeErr("free market transaction", err)
	}

	var err error
	if tx.ChainID, err = parseChainID(aux.ChainID); err != nil {
		return err
	}
	if tx.Nonce, err = parseQuantity("nonce", aux.Nonce); err != nil {
		return err
	}
	if tx.MaxPriorityFeePerGas, err = parseQuantity("maxPriorityFeePerGas", aux.MaxPriorityFeePerGas); err != nil {
		return err
	}
	if tx.MaxFeePerGas, err = parseQuantity("maxFeePerGas", aux.MaxFeePerGas); err != nil {
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
	tx.AccessList = aux.AccessList
	if tx.AccessList == nil {
		tx.AccessList = []Access{}
	}

	return nil
}

// MarshalJSON renders the transaction per the camelCase JSON contract.
func (tx *FreeMarketTransaction) MarshalJSON() ([]byte, error) {
	accessList := tx.AccessList
	if accessList == nil {
		accessList = []Access{}
	}
	return json.Marshal(&struct {
		ChainID              uint64   `json:"chainId"`
		Nonce                *big.Int `json:"nonce"`
		MaxPriorityFeePerGas *big.Int `json:"maxPriorityFeePerGas"`
		MaxFeePerGas         *big.Int `json:"maxFeePerGas"`
		GasLimit             *big.Int `json:"gasLimit"`
		To                   *string  `json:"to,omitempty"`
		Value                *big.Int `json:"value"`
		Data                 string   `json:"data"`
		AccessList           []Access `json:"accessList"`
	}{
		ChainID:              tx.ChainID,
		Nonce:                tx.Nonce,
		MaxPriorityFeePerGas: tx.MaxPriorityFeePerGas,
		MaxFeePerGas:         tx.MaxFeePerGas,
		GasLimit:             tx.GasLimit,
		To:                   optionalAddressHex(tx.To),
		Value:                tx.Value,
		Data:                 hexEncode(tx.Data),
		AccessList:           accessList,
	})
}
