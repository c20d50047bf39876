// Package transaction implements the EVM wire format for the three supported
// transaction variants: legacy, access-list (EIP-2930) and free-market (EIP-1559).
//
// Each variant carries its own field set, RLP-encodes per its specification and
// deserializes from the camelCase JSON contract. A signed transaction wraps an
// unsigned variant together with its digest and the (v, r, s) signature triple.
package transaction

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/helixcustody/evm-signer-kms/common"
)

const (
	// LegacyTxType is the type id of legacy transactions. Legacy transactions are
	// encoded without an EIP-2718 type prefix.
	LegacyTxType byte = 0x00

	// AccessListTxType is the EIP-2718 type id of EIP-2930 transactions.
	AccessListTxType byte = 0x01

	// FreeMarketTxType is the EIP-2718 type id of EIP-1559 transactions.
	FreeMarketTxType byte = 0x02

	// maxTxTypeID is the EIP-2718 upper bound on type prefix bytes. An encoding
	// whose first byte is below this value denotes a typed transaction.
	maxTxTypeID byte = 0x7f

	// legacyMinParity is the lowest parity value of legacy transaction signatures.
	legacyMinParity = 27

	hexPrefix = "0x"
)

// Transaction is the closed set of unsigned transaction variants.
type Transaction interface {
	// Encode returns the RLP encoding of the unsigned transaction, prefixed with
	// the EIP-2718 type byte for typed variants. Its keccak256 digest is what gets
	// handed to the remote signer.
	Encode() ([]byte, error)

	// chainID returns the chain id the transaction is bound to. ok is false for
	// legacy transactions, which carry none.
	chainID() (id uint64, ok bool)

	// signedFields returns the RLP-encodable field list of the signed form,
	// i.e. the unsigned fields followed by v, r and s.
	signedFields(v uint64, r, s common.SignatureComponent) interface{}
}

// ChainIDOf returns the chain id tx is bound to. ok is false for legacy
// transactions, which carry none.
func ChainIDOf(tx Transaction) (id uint64, ok bool) {
	return tx.chainID()
}

// wrapDecodeErr turns err into a DecodeError unless it already carries one of the
// typed codec errors, which are surfaced verbatim.
func wrapDecodeErr(what string, err error) error {
	var decodeErr *common.DecodeError
	var checksumErr *common.ChecksumError
	if errors.As(err, &decodeErr) || errors.As(err, &checksumErr) {
		return err
	}
	return &common.DecodeError{What: what, Err: err}
}

// bytesFromHexString decodes an optionally 0x-prefixed hex string. what names the
// decoded value in errors.
func bytesFromHexString(what, s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, hexPrefix))
	if err != nil {
		return nil, &common.DecodeError{What: what, Err: err}
	}
	return b, nil
}

// parseQuantity converts a JSON number into an unsigned arbitrary-precision integer.
func parseQuantity(what string, num json.Number) (*big.Int, error) {
	if num == "" {
		return nil, &common.DecodeError{What: what, Err: fmt.Errorf("missing value")}
	}
	v, ok := new(big.Int).SetString(num.String(), 10)
	if !ok {
		return nil, &common.DecodeError{What: what, Err: fmt.Errorf("invalid number %q", num)}
	}
	if v.Sign() < 0 {
		return nil, &common.DecodeError{What: what, Err: fmt.Errorf("negative value %q", num)}
	}
	return v, nil
}

// parseChainID converts a JSON number into a chain id.
func parseChainID(num json.Number) (uint64, error) {
	v, err := parseQuantity("chainId", num)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, &common.DecodeError{What: "chainId", Err: fmt.Errorf("value %q overflows uint64", num)}
	}
	return v.Uint64(), nil
}

// parseData decodes the hex data field. A nil or empty string is an empty payload.
func parseData(s *string) ([]byte, error) {
	if s == nil || *s == "" || *s == hexPrefix {
		return []byte{}, nil
	}
	return bytesFromHexString("data", *s)
}

// hexEncode renders b as a 0x-prefixed lowercase hex string.
func hexEncode(b []byte) string {
	return hexPrefix + hex.EncodeToString(b)
}
