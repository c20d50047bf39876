package awskms

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/pkg/errors"

	kmscommon "github.com/helixcustody/evm-signer-kms/common"
)

const (
	signingAlgorithm   = "ECDSA_SHA_256"
	signingMessageType = "DIGEST"
)

// Client implements the remote key handle on top of the AWS KMS.
type Client struct {
	kmsClient *kms.Client
	cfg       Config
}

// NewClient creates a new AWS KMS client with the given config, using the default
// AWS credential chain from the environment.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if _, err := cfg.IsValid(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	return &Client{kmsClient: kms.NewFromConfig(awsCfg), cfg: cfg}, nil
}

// NewClientWithStaticCredentials is an alternative of NewClient that uses static
// AWS credentials instead of the default credential chain.
func NewClientWithStaticCredentials(ctx context.Context, cfg StaticCredentialsConfig) (*Client, error) {
	if _, err := cfg.IsValid(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	return &Client{kmsClient: kms.NewFromConfig(awsCfg), cfg: cfg.Config}, nil
}

// NewClientFromKMS wraps an already configured AWS KMS client.
func NewClientFromKMS(cfg Config, kmsClient *kms.Client) (*Client, error) {
	if _, err := cfg.IsValid(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Client{kmsClient: kmsClient, cfg: cfg}, nil
}

// ChainID returns the ID of the EVM chain the key is configured for.
func (c *Client) ChainID() uint64 {
	return c.cfg.ChainID
}

// GetPublicKey retrieves the DER-encoded SubjectPublicKeyInfo of the KMS key.
func (c *Client) GetPublicKey(ctx context.Context) ([]byte, error) {
	out, err := c.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(c.cfg.KeyID),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for KeyId=%v", c.cfg.KeyID)
	}

	if len(out.PublicKey) == 0 {
		return nil, errors.New("no public key in response")
	}

	return out.PublicKey, nil
}

// SignDigest asks the remote AWS KMS to sign the given digest and returns the
// DER-encoded ECDSA-Sig-Value. Although the AWS KMS does not support the keccak256
// hash function, it does not care which hash produced the digest it is given.
func (c *Client) SignDigest(ctx context.Context, digest kmscommon.Keccak256Digest) ([]byte, error) {
	result, err := c.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(c.cfg.KeyID),
		Message:          digest[:],
		SigningAlgorithm: signingAlgorithm,
		MessageType:      signingMessageType,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign digest")
	}

	if len(result.Signature) == 0 {
		return nil, errors.New("no signature in response")
	}

	return result.Signature, nil
}
