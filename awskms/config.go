package awskms

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config represents required information to create an AWS KMS client.
type Config struct {
	// KeyID is the ID of the working AWS KMS key. The key must be of spec
	// ECC_SECG_P256K1 with key usage SIGN_VERIFY.
	KeyID string `json:"KeyID"`

	// ChainID is the ID of the target EVM chain.
	//
	// See https://chainlist.org.
	ChainID uint64 `json:"ChainID"`
}

// IsValid checks if a Config is valid.
func (cfg Config) IsValid() (bool, error) {
	if cfg.KeyID == "" {
		return false, fmt.Errorf("empty KeyID")
	}

	return true, nil
}

// StaticCredentialsConfig extends Config with static AWS credentials for
// environments where the default credential chain is not available.
type StaticCredentialsConfig struct {
	Config

	// Region is the AWS region hosting the key, e.g. "us-east-1".
	Region string `json:"Region"`

	// AccessKeyID is the AWS access key ID.
	AccessKeyID string `json:"AccessKeyID"`

	// SecretAccessKey is the AWS secret access key.
	SecretAccessKey string `json:"SecretAccessKey"`

	// SessionToken is the optional AWS session token.
	SessionToken string `json:"SessionToken,omitempty"`
}

// IsValid checks if a StaticCredentialsConfig is valid.
func (cfg StaticCredentialsConfig) IsValid() (bool, error) {
	if _, err := cfg.Config.IsValid(); err != nil {
		return false, err
	}

	if cfg.Region == "" {
		return false, fmt.Errorf("empty Region")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return false, fmt.Errorf("empty credentials")
	}

	return true, nil
}

// LoadConfigFromFile loads the config from the given config file.
func LoadConfigFromFile(filePath string) (*Config, error) {
	f, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = json.Unmarshal(f, &cfg)
	if err != nil {
		return nil, err
	}

	if _, err = cfg.IsValid(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
