package account

import (
	"context"
	"crypto/ecdsa"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixcustody/evm-signer-kms/common"
	"github.com/helixcustody/evm-signer-kms/transaction"
)

// mockKmsKey delegates to function fields so each test can script the KMS
// responses it needs.
type mockKmsKey struct {
	getPublicKey func(ctx context.Context) ([]byte, error)
	signDigest   func(ctx context.Context, digest common.Keccak256Digest) ([]byte, error)
	signCalls    int
}

func (m *mockKmsKey) GetPublicKey(ctx context.Context) ([]byte, error) {
	return m.getPublicKey(ctx)
}

func (m *mockKmsKey) SignDigest(ctx context.Context, digest common.Keccak256Digest) ([]byte, error) {
	m.signCalls++
	return m.signDigest(ctx, digest)
}

// localKmsKey signs with an in-process secp256k1 key, mimicking the DER wire
// formats a real KMS returns.
func localKmsKey(t *testing.T) (*mockKmsKey, *ecdsa.PrivateKey) {
	t.Helper()

	privateKey, err := crypto.HexToECDSA(
		"4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	require.NoError(t, err)

	return &mockKmsKey{
		getPublicKey: func(context.Context) ([]byte, error) {
			return marshalPublicKeyDER(t, privateKey), nil
		},
		signDigest: func(_ context.Context, digest common.Keccak256Digest) ([]byte, error) {
			return signDER(t, privateKey, digest), nil
		},
	}, privateKey
}

func marshalPublicKeyDER(t *testing.T, privateKey *ecdsa.PrivateKey) []byte {
	t.Helper()

	var info subjectPublicKeyInfo
	info.Algorithm.Algorithm = oidECPublicKey
	info.Algorithm.Parameters = oidSecp256k1
	point := crypto.FromECDSAPub(&privateKey.PublicKey)
	info.PublicKey = asn1.BitString{Bytes: point, BitLength: len(point) * 8}

	blob, err := asn1.Marshal(info)
	require.NoError(t, err)
	return blob
}

// signDER produces the DER ECDSA-Sig-Value a KMS would return. crypto.Sign
// already yields a low s.
func signDER(t *testing.T, privateKey *ecdsa.PrivateKey, digest common.Keccak256Digest) []byte {
	t.Helper()

	sig, err := crypto.Sign(digest[:], privateKey)
	require.NoError(t, err)

	return marshalSignatureDER(t,
		new(big.Int).SetBytes(sig[:common.SignatureComponentLength]),
		new(big.Int).SetBytes(sig[common.SignatureComponentLength:2*common.SignatureComponentLength]))
}

func marshalSignatureDER(t *testing.T, r, s *big.Int) []byte {
	t.Helper()

	blob, err := asn1.Marshal(struct {
		R *big.Int
		S *big.Int
	}{r, s})
	require.NoError(t, err)
	return blob
}

func testUnsignedTransaction(to transaction.AccountAddress) *transaction.FreeMarketTransaction {
	return &transaction.FreeMarketTransaction{
		ChainID:              1,
		Nonce:                big.NewInt(0),
		MaxPriorityFeePerGas: big.NewInt(3_000_000_000),
		MaxFeePerGas:         big.NewInt(100_000_000_000),
		GasLimit:             big.NewInt(21_000),
		To:                   &to,
		Value:                big.NewInt(10_000_000_000_000_000),
		Data:                 []byte{},
		AccessList:           []transaction.Access{},
	}
}

func TestNew(t *testing.T) {
	key := &mockKmsKey{
		getPublicKey: func(context.Context) ([]byte, error) {
			return mustHex(t, testKeyDERHex), nil
		},
	}

	acc, err := New(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, mustPublicKey(t, testPublicKeyHex), acc.PublicKey())
	assert.Equal(t, "0x70ad754ff670077411df598fcffd61c48299f12f", acc.Address().Hex())
	assert.Equal(t, uint64(0), acc.ChainID())
}

func TestNewWrongCurve(t *testing.T) {
	key := &mockKmsKey{
		getPublicKey: func(context.Context) ([]byte, error) {
			return mustHex(t, testKeyDERWrongCurveHex), nil
		},
	}

	_, err := New(context.Background(), key)

	var decodeErr *common.DecodeError
	require.True(t, errors.As(err, &decodeErr))
}

func TestNewBackendFailure(t *testing.T) {
	key := &mockKmsKey{
		getPublicKey: func(context.Context) ([]byte, error) {
			return nil, fmt.Errorf("kms unreachable")
		},
	}

	_, err := New(context.Background(), key)

	var serviceErr *common.ExternalServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "get public key", serviceErr.Op)
}

func TestSignTransaction(t *testing.T) {
	key, privateKey := localKmsKey(t)

	acc, err := New(context.Background(), key, WithChainID(1))
	require.NoError(t, err)

	tx := testUnsignedTransaction(acc.Address())
	signed, err := acc.SignTransaction(context.Background(), tx)
	require.NoError(t, err)

	assert.Equal(t, transaction.FreeMarketTxType, signed.TxType)
	assert.LessOrEqual(t, signed.V, uint64(1))
	assert.Equal(t, 1, key.signCalls)

	// The recovered signer must be this account.
	compact := make([]byte, 65)
	copy(compact[:32], signed.R[:])
	copy(compact[32:64], signed.S[:])
	compact[64] = byte(signed.V)
	recovered, err := crypto.Ecrecover(signed.Digest[:], compact)
	require.NoError(t, err)
	assert.Equal(t, crypto.FromECDSAPub(&privateKey.PublicKey), recovered)

	// The s component is canonical.
	low, err := IsCompatibleS(signed.S)
	require.NoError(t, err)
	assert.True(t, low)

	serialized, err := signed.Serialize()
	require.NoError(t, err)
	assert.NotEmpty(t, serialized)
}

func TestSignTransactionChainMismatch(t *testing.T) {
	key, _ := localKmsKey(t)

	acc, err := New(context.Background(), key, WithChainID(5))
	require.NoError(t, err)

	tx := testUnsignedTransaction(acc.Address())
	_, err = acc.SignTransaction(context.Background(), tx)

	var configErr *common.ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.Zero(t, key.signCalls)
}

func TestSignTransactionUnpinnedAccountAcceptsAnyChain(t *testing.T) {
	key, _ := localKmsKey(t)

	acc, err := New(context.Background(), key)
	require.NoError(t, err)

	tx := testUnsignedTransaction(acc.Address())
	tx.ChainID = 42

	_, err = acc.SignTransaction(context.Background(), tx)
	require.NoError(t, err)
}

func TestSignTransactionReflectsHighS(t *testing.T) {
	key, privateKey := localKmsKey(t)
	key.signDigest = func(_ context.Context, digest common.Keccak256Digest) ([]byte, error) {
		sig, err := crypto.Sign(digest[:], privateKey)
		require.NoError(t, err)

		r := new(big.Int).SetBytes(sig[:common.SignatureComponentLength])
		s := new(big.Int).SetBytes(sig[common.SignatureComponentLength : 2*common.SignatureComponentLength])
		// Hand back the non-canonical mirror of the signature.
		return marshalSignatureDER(t, r, new(big.Int).Sub(common.CurveOrder, s)), nil
	}

	acc, err := New(context.Background(), key, WithEIP2Policy(EIP2Reflect))
	require.NoError(t, err)

	tx := testUnsignedTransaction(acc.Address())
	signed, err := acc.SignTransaction(context.Background(), tx)
	require.NoError(t, err)

	low, err := IsCompatibleS(signed.S)
	require.NoError(t, err)
	assert.True(t, low)
	assert.Equal(t, 1, key.signCalls)
}

func TestSignTransactionRejectRetryExhausted(t *testing.T) {
	key, privateKey := localKmsKey(t)
	key.signDigest = func(_ context.Context, digest common.Keccak256Digest) ([]byte, error) {
		sig, err := crypto.Sign(digest[:], privateKey)
		require.NoError(t, err)

		r := new(big.Int).SetBytes(sig[:common.SignatureComponentLength])
		s := new(big.Int).SetBytes(sig[common.SignatureComponentLength : 2*common.SignatureComponentLength])
		return marshalSignatureDER(t, r, new(big.Int).Sub(common.CurveOrder, s)), nil
	}

	acc, err := New(context.Background(), key,
		WithEIP2Policy(EIP2RejectRetry),
		WithMaxSigningAttempts(3))
	require.NoError(t, err)

	tx := testUnsignedTransaction(acc.Address())
	_, err = acc.SignTransaction(context.Background(), tx)

	var serviceErr *common.ExternalServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, 3, key.signCalls)
}

func TestSignTransactionRejectRetrySecondAttempt(t *testing.T) {
	key, privateKey := localKmsKey(t)
	key.signDigest = func(_ context.Context, digest common.Keccak256Digest) ([]byte, error) {
		sig, err := crypto.Sign(digest[:], privateKey)
		require.NoError(t, err)

		r := new(big.Int).SetBytes(sig[:common.SignatureComponentLength])
		s := new(big.Int).SetBytes(sig[common.SignatureComponentLength : 2*common.SignatureComponentLength])
		if key.signCalls == 1 {
			s = new(big.Int).Sub(common.CurveOrder, s)
		}
		return marshalSignatureDER(t, r, s), nil
	}

	acc, err := New(context.Background(), key, WithEIP2Policy(EIP2RejectRetry))
	require.NoError(t, err)

	tx := testUnsignedTransaction(acc.Address())
	signed, err := acc.SignTransaction(context.Background(), tx)
	require.NoError(t, err)

	assert.Equal(t, 2, key.signCalls)

	low, err := IsCompatibleS(signed.S)
	require.NoError(t, err)
	assert.True(t, low)
}

func TestSignTransactionBackendFailure(t *testing.T) {
	key, _ := localKmsKey(t)
	key.signDigest = func(context.Context, common.Keccak256Digest) ([]byte, error) {
		return nil, fmt.Errorf("kms unreachable")
	}

	acc, err := New(context.Background(), key)
	require.NoError(t, err)

	tx := testUnsignedTransaction(acc.Address())
	_, err = acc.SignTransaction(context.Background(), tx)

	var serviceErr *common.ExternalServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "sign", serviceErr.Op)
}

func TestSignTransactionLegacyParity(t *testing.T) {
	key, _ := localKmsKey(t)

	acc, err := New(context.Background(), key)
	require.NoError(t, err)

	to := acc.Address()
	tx := &transaction.LegacyTransaction{
		Nonce:    big.NewInt(0),
		GasPrice: big.NewInt(1),
		GasLimit: big.NewInt(21_000),
		To:       &to,
		Value:    big.NewInt(0),
		Data:     []byte{},
	}

	signed, err := acc.SignTransaction(context.Background(), tx)
	require.NoError(t, err)

	assert.Equal(t, transaction.LegacyTxType, signed.TxType)
	assert.Contains(t, []uint64{27, 28}, signed.V)
}
