// Package awskms uses the Amazon Web Services' Key Management Service as the remote
// key handle for signing EVM-compatible transactions.
//
// Rather than directly accessing a private key, the client asks the remote AWS KMS
// for the public key and for digest signatures; the private key never leaves the KMS.
package awskms
