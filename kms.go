// Package evmsigner turns unsigned EVM transactions into chain-valid, wire-ready
// signed transactions, with the private key held by a remote KMS.
//
// The package ties the pieces together: a KMS backend (AWS or GCP) implements the
// remote key handle, and an account.EvmAccount runs the signing pipeline on top of
// it. Transactions are modeled in the transaction package.
package evmsigner

import (
	"context"
	"fmt"
	"strings"

	"github.com/helixcustody/evm-signer-kms/account"
	"github.com/helixcustody/evm-signer-kms/awskms"
	"github.com/helixcustody/evm-signer-kms/gcpkms"
)

// KmsKey is the remote key handle produced by the configured KMS backend.
type KmsKey = account.KmsKey

// NewKmsKey creates the remote key handle described by cfg.
func NewKmsKey(ctx context.Context, cfg Config) (KmsKey, error) {
	key, _, err := newKmsKey(ctx, cfg)
	return key, err
}

// NewAccount creates an EVM account backed by the KMS service described by cfg.
// The account is pinned to the chain id of the backend config; additional options
// are applied on top and may override it.
func NewAccount(ctx context.Context, cfg Config, opts ...account.Option) (*account.EvmAccount, error) {
	key, chainID, err := newKmsKey(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts = append([]account.Option{account.WithChainID(chainID)}, opts...)
	return account.New(ctx, key, opts...)
}

func newKmsKey(ctx context.Context, cfg Config) (KmsKey, uint64, error) {
	switch strings.ToLower(cfg.Type) {
	case awsType:
		key, err := awskms.NewClient(ctx, cfg.AwsConfig)
		if err != nil {
			return nil, 0, err
		}
		return key, cfg.AwsConfig.ChainID, nil
	case gcpType:
		key, err := gcpkms.NewClient(ctx, cfg.GcpConfig)
		if err != nil {
			return nil, 0, err
		}
		return key, cfg.GcpConfig.ChainID, nil
	}

	return nil, 0, fmt.Errorf("KMS config type `%v` not supported", strings.ToLower(cfg.Type))
}
