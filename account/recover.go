package account

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/helixcustody/evm-signer-kms/common"
)

// recoverParity brute-forces the recovery id of a canonical (r, s) pair against the
// account's known public key. For each candidate id the public point is recovered
// from the digest and compared with the cached key; a miss on both ids means the
// signature, digest and key do not belong together and must never be ignored.
func recoverParity(publicKey common.PublicKey, digest common.Keccak256Digest, r, s common.SignatureComponent) (byte, error) {
	compact := make([]byte, common.SignatureComponentLength*2+1)
	copy(compact[:common.SignatureComponentLength], r[:])
	copy(compact[common.SignatureComponentLength:], s[:])

	for v := byte(0); v < 2; v++ {
		compact[common.SignatureComponentLength*2] = v

		recovered, err := crypto.Ecrecover(digest[:], compact)
		if err != nil {
			return 0, &common.VerificationError{
				Reason: fmt.Sprintf("recovery with v=%d: %v", v, err),
			}
		}

		// Ecrecover returns the 65-byte uncompressed point; drop the 0x04 prefix.
		if bytes.Equal(recovered[1:], publicKey[:]) {
			return v, nil
		}
	}

	return 0, &common.VerificationError{
		Reason: "recovered public key does not match the account key for either recovery id",
	}
}
