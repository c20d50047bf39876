package account

import (
	"fmt"
	"math/big"

	"github.com/helixcustody/evm-signer-kms/common"
)

// ReflectS enforces the EIP-2 low-s rule: an s value in the upper half of the
// secp256k1 group order is replaced with CurveOrder - s. An s exceeding the group
// order means the signer is malfunctioning and is reported as a protocol invariant
// violation, not a normal decode failure.
func ReflectS(s common.SignatureComponent) (common.SignatureComponent, error) {
	sInt, err := signatureScalar(s)
	if err != nil {
		return s, err
	}

	if sInt.Cmp(common.CurveOrderHalf) > 0 {
		sInt.Sub(common.CurveOrder, sInt)
	}

	var reflected common.SignatureComponent
	sInt.FillBytes(reflected[:])
	return reflected, nil
}

// IsCompatibleS reports whether s already satisfies the EIP-2 low-s rule, without
// mutating it. Used when the caller prefers rejecting to transforming.
func IsCompatibleS(s common.SignatureComponent) (bool, error) {
	sInt, err := signatureScalar(s)
	if err != nil {
		return false, err
	}
	return sInt.Cmp(common.CurveOrderHalf) <= 0, nil
}

func signatureScalar(s common.SignatureComponent) (*big.Int, error) {
	sInt := new(big.Int).SetBytes(s[:])
	if sInt.Cmp(common.CurveOrder) > 0 {
		return nil, &common.ProtocolInvariantError{
			Reason: fmt.Sprintf("s value %064x exceeds the secp256k1 group order", sInt),
		}
	}
	return sInt, nil
}
