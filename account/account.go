// Package account implements the EVM signing pipeline on top of a remote KMS key:
// ASN.1/DER decoding of public keys and signatures, EIP-2 canonicalization,
// recovery-id search against the cached public key and assembly of the final
// signed transaction.
//
// The private key never leaves the KMS; the account only holds the public key,
// fetched and validated once at construction time.
package account

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixcustody/evm-signer-kms/common"
	"github.com/helixcustody/evm-signer-kms/transaction"
)

// KmsKey is the handle to a remote KMS-held secp256k1 key pair. Implementations
// must be safe for concurrent use; the account issues no calls besides these two.
type KmsKey interface {
	// GetPublicKey returns the DER-encoded SubjectPublicKeyInfo of the key.
	GetPublicKey(ctx context.Context) ([]byte, error)

	// SignDigest signs the given 32-byte digest with ECDSA_SHA_256 semantics (the
	// digest is precomputed by the caller) and returns a DER-encoded
	// ECDSA-Sig-Value.
	SignDigest(ctx context.Context, digest common.Keccak256Digest) ([]byte, error)
}

// EIP2Policy selects how signatures with a high s value from the KMS are handled.
// Both (r, s) and (r, N-s) validate the same message, but the EVM only accepts the
// canonical low-s form.
type EIP2Policy int

const (
	// EIP2Reflect replaces a high s with CurveOrder - s. This is the default.
	EIP2Reflect EIP2Policy = iota

	// EIP2RejectRetry discards signatures with a high s and requests a fresh one
	// from the KMS, up to the configured attempt limit.
	EIP2RejectRetry
)

// defaultMaxSigningAttempts caps the EIP2RejectRetry loop. Each KMS signature is
// canonical with probability 1/2, so five attempts fail spuriously ~3% of the time.
const defaultMaxSigningAttempts = 5

// Option configures an EvmAccount during construction.
type Option func(*EvmAccount)

// WithChainID pins the account to a chain. Transactions carrying a different chain
// id are rejected before the KMS is invoked. Zero (the default) disables the check.
func WithChainID(chainID uint64) Option {
	return func(a *EvmAccount) { a.chainID = chainID }
}

// WithEIP2Policy selects the low-s handling policy.
func WithEIP2Policy(policy EIP2Policy) Option {
	return func(a *EvmAccount) { a.policy = policy }
}

// WithMaxSigningAttempts caps the EIP2RejectRetry signing loop. Values below 1 are
// ignored.
func WithMaxSigningAttempts(n int) Option {
	return func(a *EvmAccount) {
		if n >= 1 {
			a.maxAttempts = n
		}
	}
}

// WithLogger attaches a logger to the account. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *EvmAccount) { a.logger = logger }
}

// EvmAccount signs EVM transactions with a remote KMS key. The cached public key is
// immutable after construction, so concurrent SignTransaction calls are safe; no
// ordering is imposed between them.
type EvmAccount struct {
	publicKey   common.PublicKey
	chainID     uint64
	key         KmsKey
	policy      EIP2Policy
	maxAttempts int
	logger      zerolog.Logger
}

// New creates an account tied to the given KMS key. The public key is eagerly
// fetched and decoded; a malformed or wrong-curve key fails construction, so an
// account is never returned in a half-initialized state.
func New(ctx context.Context, key KmsKey, opts ...Option) (*EvmAccount, error) {
	acc := &EvmAccount{
		key:         key,
		policy:      EIP2Reflect,
		maxAttempts: defaultMaxSigningAttempts,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(acc)
	}

	blob, err := key.GetPublicKey(ctx)
	if err != nil {
		return nil, &common.ExternalServiceError{Op: "get public key", Err: err}
	}

	publicKey, err := decodePublicKey(blob)
	if err != nil {
		return nil, err
	}
	acc.publicKey = publicKey

	acc.logger.Debug().
		Str("address", acc.Address().Hex()).
		Msg("decoded kms public key")

	return acc, nil
}

// PublicKey returns the cached 64-byte public key.
func (a *EvmAccount) PublicKey() common.PublicKey {
	return a.publicKey
}

// Address returns the EVM address derived from the cached public key.
func (a *EvmAccount) Address() transaction.AccountAddress {
	digest := common.Keccak256(a.publicKey[:])

	var addr transaction.AccountAddress
	copy(addr[:], digest[common.DigestLength-transaction.AddressLength:])
	return addr
}

// ChainID returns the chain id the account is pinned to; zero if unpinned.
func (a *EvmAccount) ChainID() uint64 {
	return a.chainID
}

// SignTransaction runs the full signing pipeline for tx: encode, digest, remote
// sign, signature decoding, canonicalization, recovery-id search and assembly.
// Any stage failure aborts the call; a partially-signed artifact is never returned.
func (a *EvmAccount) SignTransaction(ctx context.Context, tx transaction.Transaction) (*transaction.SignedTransaction, error) {
	// Fail fast on a chain mismatch rather than spend a KMS round trip on a
	// transaction no node would accept.
	if id, ok := transaction.ChainIDOf(tx); ok && a.chainID != 0 && id != a.chainID {
		return nil, &common.ConfigurationError{
			Reason: fmt.Sprintf("transaction chain id %d does not match account chain id %d", id, a.chainID),
		}
	}

	encoding, err := tx.Encode()
	if err != nil {
		return nil, err
	}
	digest := common.Keccak256(encoding)

	r, s, err := a.signDigest(ctx, digest)
	if err != nil {
		return nil, err
	}

	v, err := recoverParity(a.publicKey, digest, r, s)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Hex("digest", digest[:]).
		Uint8("v", v).
		Msg("signed transaction digest")

	return transaction.NewSignedTransaction(tx, encoding, digest, r, s, uint64(v)), nil
}

// signDigest obtains a canonical (r, s) pair for digest from the KMS, applying the
// account's EIP-2 policy.
func (a *EvmAccount) signDigest(ctx context.Context, digest common.Keccak256Digest) (r, s common.SignatureComponent, err error) {
	attempts := a.maxAttempts
	if a.policy == EIP2Reflect {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		var blob []byte
		blob, err = a.key.SignDigest(ctx, digest)
		if err != nil {
			return r, s, &common.ExternalServiceError{Op: "sign", Err: err}
		}

		r, s, err = parseSignature(blob)
		if err != nil {
			return r, s, err
		}

		if a.policy == EIP2Reflect {
			s, err = ReflectS(s)
			return r, s, err
		}

		var compatible bool
		compatible, err = IsCompatibleS(s)
		if err != nil {
			return r, s, err
		}
		if compatible {
			return r, s, nil
		}

		a.logger.Debug().
			Int("attempt", attempt).
			Msg("non-canonical s from kms, requesting a fresh signature")
	}

	return r, s, &common.ExternalServiceError{
		Op:  "sign",
		Err: fmt.Errorf("no canonical signature after %d attempts", attempts),
	}
}
