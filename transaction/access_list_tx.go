package transaction

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/helixcustody/evm-signer-kms/common"
)

// AccessListTransaction is an EIP-2930 (type 1) transaction. Unlike the other
// variants its recipient is mandatory: declaring an access list only makes sense
// for calls into existing accounts. The field order matches the RLP layout.
type AccessListTransaction struct {
	ChainID    uint64
	Nonce      *big.Int
	GasPrice   *big.Int
	GasLimit   *big.Int
	To         AccountAddress
	Value      *big.Int
	Data       []byte
	AccessList []Access
}

type accessListSignedFields struct {
	ChainID    uint64
	Nonce      *big.Int
	GasPrice   *big.Int
	GasLimit   *big.Int
	To         AccountAddress
	Value      *big.Int
	Data       []byte
	AccessList []Access
	V          uint64
	R          common.SignatureComponent
	S          common.SignatureComponent
}

// Encode returns the type-prefixed RLP encoding of the unsigned transaction.
func (tx *AccessListTransaction) Encode() ([]byte, error) {
	payload, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return nil, err
	}
	return append([]byte{AccessListTxType}, payload...), nil
}

func (tx *AccessListTransaction) chainID() (uint64, bool) {
	return tx.ChainID, true
}

func (tx *AccessListTransaction) signedFields(v uint64, r, s common.SignatureComponent) interface{} {
	return &accessListSignedFields{
		ChainID:    tx.ChainID,
		Nonce:      tx.Nonce,
		GasPrice:   tx.GasPrice,
		GasLimit:   tx.GasLimit,
		To:         tx.To,
		Value:      tx.Value,
		Data:       tx.Data,
		AccessList: tx.AccessList,
		V:          v,
		R:          r,
		S:          s,
	}
}

// DecodeAccessList decodes an unsigned, type-prefixed EIP-2930 transaction encoding.
func DecodeAccessList(encoding []byte) (*AccessListTransaction, error) {
	if len(encoding) == 0 || encoding[0] != AccessListTxType {
		return nil, &common.DecodeError{What: "access list transaction", Err: fmt.Errorf("missing 0x%02x type prefix", AccessListTxType)}
	}

	var tx AccessListTransaction
	if err := rlp.DecodeBytes(encoding[1:], &tx); err != nil {
		return nil, &common.DecodeError{What: "access list transaction", Err: err}
	}
	return &tx, nil
}

// UnmarshalJSON decodes the camelCase JSON contract of an EIP-2930 transaction.
func (tx *AccessListTransaction) UnmarshalJSON(data []byte) error {
	var aux struct {
		ChainID    json.Number `json:"chainId"`
		Nonce      json.Number `json:"nonce"`
		GasPrice   json.Number `json:"gasPrice"`
		GasLimit   json.Number `json:"gasLimit"`
		To         *string     `json:"to"`
		Value      json.Number `json:"value"`
		Data       *string     `json:"data"`
		AccessList []Access    `json:"accessList"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return wrapDecodeErr("access list transaction", err)
	}

	var err error
	if tx.ChainID, err = parseChainID(aux.ChainID); err != nil {
		return err
	}
	if tx.Nonce, err = parseQuantity("nonce", aux.Nonce); err != nil {
		return err
	}
	if tx.GasPrice, err = parseQuantity("gasPrice", aux.GasPrice); err != nil {
		return err
	}
	if tx.GasLimit, err = parseQuantity("gasLimit", aux.GasLimit); err != nil {
		return err
	}
	if aux.To == nil || *aux.To == "" {
		return &common.DecodeError{What: "to", Err: fmt.Errorf("missing recipient address")}
	}
	if tx.To, err = parseAddress("to", *aux.To); err != nil {
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
func (tx *AccessListTransaction) MarshalJSON() ([]byte, error) {
	accessList := tx.AccessList
	if accessList == nil {
		accessList = []Access{}
	}
	return json.Marshal(&struct {
		ChainID    uint64   `json:"chainId"`
		Nonce      *big.Int `json:"nonce"`
		GasPrice   *big.Int `json:"gasPrice"`
		GasLimit   *big.Int `json:"gasLimit"`
		To         string   `json:"to"`
		Value      *big.Int `json:"value"`
		Data       string   `json:"data"`
		AccessList []Access `json:"accessList"`
	}{
		ChainID:    tx.ChainID,
		Nonce:      tx.Nonce,
		GasPrice:   tx.GasPrice,
		GasLimit:   tx.GasLimit,
		To:         tx.To.Hex(),
		Value:      tx.Value,
		Data:       hexEncode(tx.Data),
		AccessList: accessList,
	})
}
