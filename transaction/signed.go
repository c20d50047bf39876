package transaction

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/helixcustody/evm-signer-kms/common"
)

// SignedTransaction wraps an unsigned transaction together with its digest and the
// recovered signature triple. It is only ever constructed as a terminal, fully
// formed artifact and is not mutated afterwards.
type SignedTransaction struct {
	// TxType is the EIP-2718 transaction type id; 0 for legacy transactions.
	TxType byte
	// Tx is the unsigned transaction body.
	Tx Transaction
	// Digest is the keccak256 digest that was signed.
	Digest common.Keccak256Digest
	// V is the signature parity: {0, 1} for typed transactions, {27, 28} for
	// legacy ones.
	V uint64
	// R is the signature component on the x-axis.
	R common.SignatureComponent
	// S is the elliptic curve point component of the signature.
	S common.SignatureComponent
}

// NewSignedTransaction assembles a signed transaction from the unsigned body, its
// encoding and the recovered signature. The type id is re-derived from the first
// byte of the unsigned encoding: values below the EIP-2718 maximum type id denote a
// typed transaction, anything else is legacy. v is expected in {0, 1} and is
// shifted to {27, 28} for legacy transactions.
func NewSignedTransaction(
	tx Transaction,
	encoding []byte,
	digest common.Keccak256Digest,
	r, s common.SignatureComponent,
	v uint64,
) *SignedTransaction {
	txType := LegacyTxType
	if len(encoding) > 0 && encoding[0] < maxTxTypeID {
		txType = encoding[0]
	} else {
		v += legacyMinParity
	}

	return &SignedTransaction{
		TxType: txType,
		Tx:     tx,
		Digest: digest,
		V:      v,
		R:      r,
		S:      s,
	}
}

// Encode returns the RLP encoding of [unsigned fields..., v, r, s], prefixed with
// the type byte for typed transactions.
func (st *SignedTransaction) Encode() ([]byte, error) {
	payload, err := rlp.EncodeToBytes(st.Tx.signedFields(st.V, st.R, st.S))
	if err != nil {
		return nil, err
	}
	if st.TxType == LegacyTxType {
		return payload, nil
	}
	return append([]byte{st.TxType}, payload...), nil
}

// Serialize returns the wire form of the signed transaction: the 0x-prefixed
// lowercase hex of its encoding, ready for eth_sendRawTransaction.
func (st *SignedTransaction) Serialize() (string, error) {
	encoding, err := st.Encode()
	if err != nil {
		return "", err
	}
	return hexEncode(encoding), nil
}

// MarshalJSON renders the signed transaction as its wire-form hex string.
func (st *SignedTransaction) MarshalJSON() ([]byte, error) {
	serialized, err := st.Serialize()
	if err != nil {
		return nil, err
	}
	return json.Marshal(serialized)
}
