// Package common holds the shared primitives of the signing pipeline: fixed-size
// byte types, the secp256k1 curve constants and the error taxonomy.
package common

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// PublicKey is an uncompressed secp256k1 public key with the 0x04 EC prefix stripped,
// i.e. X(32) || Y(32).
type PublicKey [PublicKeyLength]byte

// Keccak256Digest is a keccak256 hash. For transactions this is the hash of the
// RLP encoding (type-prefixed for typed transactions) handed to the KMS for signing.
type Keccak256Digest [DigestLength]byte

// SignatureComponent is one 32-byte big-endian signature component (r or s).
type SignatureComponent [SignatureComponentLength]byte

// Keccak256 computes the keccak256 digest of the concatenation of data.
func Keccak256(data ...[]byte) Keccak256Digest {
	var digest Keccak256Digest
	copy(digest[:], crypto.Keccak256(data...))
	return digest
}
