package account

import (
	"encoding/asn1"
	"fmt"
	"math/big"

	secp256k1 "github.com/ethereum/go-ethereum/crypto"

	"github.com/helixcustody/evm-signer-kms/common"
)

var (
	// oidECPublicKey is the ASN.1 object identifier of EC public keys (1.2.840.10045.2.1).
	oidECPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

	// oidSecp256k1 is the ASN.1 object identifier of the secp256k1 curve (1.3.132.0.10).
	oidSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// subjectPublicKeyInfo mirrors the DER SubjectPublicKeyInfo structure returned by
// the KMS: an algorithm identifier holding two OIDs followed by the key bits.
type subjectPublicKeyInfo struct {
	Algorithm struct {
		Algorithm  asn1.ObjectIdentifier
		Parameters asn1.ObjectIdentifier
	}
	PublicKey asn1.BitString
}

// ecdsaSigValue mirrors the DER ECDSA-Sig-Value structure: SEQUENCE { r INTEGER,
// s INTEGER }. Raw values keep the original integer bytes, including any sign byte.
type ecdsaSigValue struct {
	R asn1.RawValue
	S asn1.RawValue
}

// decodePublicKey extracts the raw 64-byte public key from a DER-encoded
// SubjectPublicKeyInfo, validating the algorithm and curve OIDs and that the point
// lies on secp256k1.
func decodePublicKey(blob []byte) (common.PublicKey, error) {
	var publicKey common.PublicKey

	var info subjectPublicKeyInfo
	rest, err := asn1.Unmarshal(blob, &info)
	if err != nil {
		return publicKey, &common.DecodeError{What: "public key", Err: err}
	}
	if len(rest) != 0 {
		return publicKey, &common.DecodeError{What: "public key", Err: fmt.Errorf("%d trailing bytes", len(rest))}
	}

	if !info.Algorithm.Algorithm.Equal(oidECPublicKey) {
		return publicKey, &common.DecodeError{
			What: "public key",
			Err:  fmt.Errorf("unexpected algorithm OID %v, want %v", info.Algorithm.Algorithm, oidECPublicKey),
		}
	}
	if !info.Algorithm.Parameters.Equal(oidSecp256k1) {
		return publicKey, &common.DecodeError{
			What: "public key",
			Err:  fmt.Errorf("unexpected curve OID %v, want %v", info.Algorithm.Parameters, oidSecp256k1),
		}
	}

	// The key bits hold the 65-byte uncompressed point 0x04 || X(32) || Y(32).
	raw := info.PublicKey.Bytes
	if len(raw) != common.PublicKeyLength+1 || raw[0] != 0x04 {
		return publicKey, &common.DecodeError{
			What: "public key",
			Err:  fmt.Errorf("expected a %d-byte uncompressed point, got %d bytes", common.PublicKeyLength+1, len(raw)),
		}
	}
	copy(publicKey[:], raw[1:])

	x := new(big.Int).SetBytes(publicKey[:common.PublicKeyLength/2])
	y := new(big.Int).SetBytes(publicKey[common.PublicKeyLength/2:])
	if !secp256k1.S256().IsOnCurve(x, y) {
		return publicKey, &common.DecodeError{What: "public key", Err: fmt.Errorf("point is not on secp256k1")}
	}

	return publicKey, nil
}

// parseSignature extracts the (r, s) pair from a DER-encoded ECDSA-Sig-Value and
// normalizes each component to exactly 32 bytes.
func parseSignature(blob []byte) (r, s common.SignatureComponent, err error) {
	var sig ecdsaSigValue
	rest, err := asn1.Unmarshal(blob, &sig)
	if err != nil {
		return r, s, &common.DecodeError{What: "signature", Err: err}
	}
	if len(rest) != 0 {
		return r, s, &common.DecodeError{What: "signature", Err: fmt.Errorf("%d trailing bytes", len(rest))}
	}

	if r, err = fitSignatureComponent("r", sig.R); err != nil {
		return r, s, err
	}
	if s, err = fitSignatureComponent("s", sig.S); err != nil {
		return r, s, err
	}
	return r, s, nil
}

// fitSignatureComponent normalizes a DER INTEGER to a fixed 32-byte component. DER
// may prepend a sign byte (33 bytes) or omit leading zeros (under 32 bytes): a
// one-byte excess is dropped, shorter values are left-padded with zeros, and any
// other length is malformed.
func fitSignatureComponent(what string, raw asn1.RawValue) (common.SignatureComponent, error) {
	var component common.SignatureComponent

	if raw.Class != asn1.ClassUniversal || raw.Tag != asn1.TagInteger {
		return component, &common.DecodeError{
			What: "signature component " + what,
			Err:  fmt.Errorf("unexpected ASN.1 tag %d, want INTEGER", raw.Tag),
		}
	}

	b := raw.Bytes
	switch {
	case len(b) > common.SignatureComponentLength+1:
		return component, &common.DecodeError{
			What: "signature component " + what,
			Err:  fmt.Errorf("integer is %d bytes long, at most %d allowed", len(b), common.SignatureComponentLength+1),
		}
	case len(b) == common.SignatureComponentLength+1:
		// Drop the sign indicator byte.
		b = b[1:]
	}

	copy(component[common.SignatureComponentLength-len(b):], b)
	return component, nil
}
