package common

import (
	"math/big"

	secp256k1 "github.com/ethereum/go-ethereum/crypto"
)

const (
	// PublicKeyLength is the byte length of an uncompressed secp256k1 public key
	// with the 0x04 prefix stripped.
	PublicKeyLength = 64

	// DigestLength is the byte length of a keccak256 digest.
	DigestLength = 32

	// SignatureComponentLength is the byte length of each of the r and s
	// signature components.
	SignatureComponentLength = 32
)

var (
	// CurveOrder is the order of the secp256k1 elliptic curve.
	CurveOrder = secp256k1.S256().Params().N

	// CurveOrderHalf = CurveOrder / 2.
	CurveOrderHalf = new(big.Int).Div(CurveOrder, new(big.Int).SetUint64(2))
)
