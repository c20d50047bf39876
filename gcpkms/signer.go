package gcpkms

import (
	"context"
	"encoding/pem"
	"fmt"
	"hash/crc32"

	kms "cloud.google.com/go/kms/apiv1"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	kmspb "google.golang.org/genproto/googleapis/cloud/kms/v1"
	"google.golang.org/protobuf/types/known/wrapperspb"

	kmscommon "github.com/helixcustody/evm-signer-kms/common"
)

// Client implements the remote key handle on top of the Google Cloud KMS.
type Client struct {
	kmsClient *kms.KeyManagementClient
	cfg       Config
}

// NewClient creates a new GCP KMS client with the given config.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if _, err := cfg.IsValid(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialLocation != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialLocation))
	}

	client, err := kms.NewKeyManagementClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCP KMS client")
	}

	return &Client{kmsClient: client, cfg: cfg}, nil
}

// ChainID returns the ID of the EVM chain the key is configured for.
func (c *Client) ChainID() uint64 {
	return c.cfg.ChainID
}

// GetPublicKey retrieves the public key of the KMS key and returns it as a
// DER-encoded SubjectPublicKeyInfo. The GCP KMS serves PEM; the PEM envelope is
// stripped here so that callers see the same DER contract as other backends.
func (c *Client) GetPublicKey(ctx context.Context) ([]byte, error) {
	pubKey, err := c.kmsClient.GetPublicKey(ctx, &kmspb.GetPublicKeyRequest{
		Name: c.keyPath(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for %v", c.keyPath())
	}

	block, _ := pem.Decode([]byte(pubKey.Pem))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, errors.Errorf("cannot decode public key PEM %v", pubKey.Pem)
	}

	return block.Bytes, nil
}

// SignDigest asks the remote GCP KMS to sign the given digest and returns the
// DER-encoded ECDSA-Sig-Value. Although the GCP KMS does not support the keccak256
// hash function, it does not care which hash produced the digest it is given.
func (c *Client) SignDigest(ctx context.Context, digest kmscommon.Keccak256Digest) ([]byte, error) {
	digestCRC32C := crc32c(digest[:])

	result, err := c.kmsClient.AsymmetricSign(ctx, &kmspb.AsymmetricSignRequest{
		Name: c.keyPath(),
		Digest: &kmspb.Digest{
			// The KMS receives the precomputed hash, not the actual data.
			Digest: &kmspb.Digest_Sha256{
				Sha256: digest[:],
			},
		},
		DigestCrc32C: wrapperspb.Int64(int64(digestCRC32C)),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign digest")
	}

	// Integrity verification on the round trip.
	if !result.VerifiedDigestCrc32C {
		return nil, errors.New("AsymmetricSign: request corrupted in-transit")
	}
	if int64(crc32c(result.Signature)) != result.SignatureCrc32C.Value {
		return nil, errors.New("AsymmetricSign: response corrupted in-transit")
	}

	return result.Signature, nil
}

func (c *Client) keyPath() string {
	return fmt.Sprintf("projects/%s/locations/%s/keyRings/%s/cryptoKeys/%s/cryptoKeyVersions/%s",
		c.cfg.ProjectID, c.cfg.LocationID, c.cfg.Key.Keyring, c.cfg.Key.Name, c.cfg.Key.Version)
}

func crc32c(data []byte) uint32 {
	return crc32.Checksum(data, crc32.MakeTable(crc32.Castagnoli))
}
