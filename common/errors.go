package common

import "fmt"

// DecodeError reports malformed binary or textual input: bad ASN.1/DER structure,
// an unexpected OID, a wrong byte length, or invalid hex.
type DecodeError struct {
	// What names the value that failed to decode, e.g. "public key" or "data".
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot decode %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("cannot decode %s", e.What)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ChecksumError reports an EIP-55 checksum mismatch on a mixed-case address.
type ChecksumError struct {
	// Field identifies the transaction field holding the offending address.
	Field   string
	Address string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("invalid address checksum in %s: %s", e.Field, e.Address)
}

// VerificationError reports that the public key recovered from a signature does not
// match the account's cached public key for either recovery id.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("signature verification failed: %s", e.Reason)
}

// ExternalServiceError reports a failed or malformed response from the remote KMS.
type ExternalServiceError struct {
	// Op is the KMS operation that failed, e.g. "sign" or "get public key".
	Op  string
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("kms %s failed: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ProtocolInvariantError reports a value that must never occur under correct
// operation, such as a signature component exceeding the curve order. It indicates
// a malfunctioning signer or data corruption rather than bad caller input.
type ProtocolInvariantError struct {
	Reason string
}

func (e *ProtocolInvariantError) Error() string {
	return fmt.Sprintf("protocol invariant violated: %s", e.Reason)
}

// ConfigurationError reports a mismatch between the account configuration and the
// transaction being signed, e.g. a chain id disagreement.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}
