package transaction

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccessAddress = AccountAddress{
	0xbb, 0x9b, 0xc2, 0x44, 0xd7, 0x98, 0x12, 0x3f, 0xde, 0x78,
	0x3f, 0xcc, 0x1c, 0x72, 0xd3, 0xbb, 0x8c, 0x18, 0x94, 0x13,
}

func TestAccessListTransactionEncode(t *testing.T) {
	wantEncoding := mustHex(t,
		"01f84483066eee0585174876e8008252089470ad754ff670077411df598fcffd61c48299f12f"+
			"872386f26fc1000080d7d694bb9bc244d798123fde783fcc1c72d3bb8c189413c0")

	tx := &AccessListTransaction{
		ChainID:  421614,
		Nonce:    big.NewInt(5),
		GasPrice: big.NewInt(100_000_000_000),
		GasLimit: big.NewInt(21_000),
		To:       testToAddress,
		Value:    big.NewInt(10_000_000_000_000_000),
		Data:     []byte{},
		AccessList: []Access{
			{Address: testAccessAddress, StorageKeys: []StorageKey{}},
		},
	}

	encoding, err := tx.Encode()
	require.NoError(t, err)
	assert.Equal(t, wantEncoding, encoding)
	assert.Equal(t, AccessListTxType, encoding[0])
}

func TestAccessListTransactionDecodeRoundTrip(t *testing.T) {
	tx := &AccessListTransaction{
		ChainID:  421614,
		Nonce:    big.NewInt(5),
		GasPrice: big.NewInt(100_000_000_000),
		GasLimit: big.NewInt(21_000),
		To:       testToAddress,
		Value:    big.NewInt(10_000_000_000_000_000),
		Data:     []byte{},
		AccessList: []Access{
			{Address: testAccessAddress, StorageKeys: []StorageKey{}},
		},
	}

	encoding, err := tx.Encode()
	require.NoError(t, err)

	decoded, err := DecodeAccessList(encoding)
	require.NoError(t, err)
	assert.Equal(t, tx, decoded)
}

func TestAccessListTransactionDecodeMissingPrefix(t *testing.T) {
	_, err := DecodeAccessList(mustHex(t, "c0"))
	assert.Error(t, err)

	_, err = DecodeAccessList(nil)
	assert.Error(t, err)
}

func TestAccessListTransactionUnmarshalJSON(t *testing.T) {
	input := `{
		"chainId": 421614,
		"gasLimit": 21000,
		"gasPrice": 100000000000,
		"nonce": 5,
		"to": "0x70ad754ff670077411df598fcffd61c48299f12f",
		"value": 10000000000000000,
		"data": "",
		"accessList": [
			["0xbb9bc244d798123fde783fcc1c72d3bb8c189413", []]
		]
	}`

	var tx AccessListTransaction
	require.NoError(t, json.Unmarshal([]byte(input), &tx))

	assert.Equal(t, uint64(421614), tx.ChainID)
	assert.Equal(t, testToAddress, tx.To)
	require.Len(t, tx.AccessList, 1)
	assert.Equal(t, testAccessAddress, tx.AccessList[0].Address)
	assert.Empty(t, tx.AccessList[0].StorageKeys)

	id, ok := ChainIDOf(&tx)
	require.True(t, ok)
	assert.Equal(t, uint64(421614), id)
}

func TestAccessListTransactionUnmarshalJSONStorageKeys(t *testing.T) {
	input := `{
		"chainId": 1,
		"gasLimit": 21000,
		"gasPrice": 1,
		"nonce": 0,
		"to": "0x70ad754ff670077411df598fcffd61c48299f12f",
		"value": 0,
		"data": "",
		"accessList": [
			[
				"0xbb9bc244d798123fde783fcc1c72d3bb8c189413",
				["0x0000000000000000000000000000000000000000000000000000000000000001"]
			]
		]
	}`

	var tx AccessListTransaction
	require.NoError(t, json.Unmarshal([]byte(input), &tx))

	require.Len(t, tx.AccessList, 1)
	require.Len(t, tx.AccessList[0].StorageKeys, 1)
	want := StorageKey{31: 0x01}
	assert.Equal(t, want, tx.AccessList[0].StorageKeys[0])
}

func TestAccessListTransactionUnmarshalJSONMissingTo(t *testing.T) {
	input := `{
		"chainId": 1,
		"gasLimit": 21000,
		"gasPrice": 1,
		"nonce": 0,
		"value": 0,
		"data": "",
		"accessList": []
	}`

	var tx AccessListTransaction
	err := json.Unmarshal([]byte(input), &tx)
	assert.Error(t, err)
}

func TestAccessListTransactionJSONRoundTrip(t *testing.T) {
	tx := &AccessListTransaction{
		ChainID:  421614,
		Nonce:    big.NewInt(5),
		GasPrice: big.NewInt(100_000_000_000),
		GasLimit: big.NewInt(21_000),
		To:       testToAddress,
		Value:    big.NewInt(10_000_000_000_000_000),
		Data:     []byte{},
		AccessList: []Access{
			{Address: testAccessAddress, StorageKeys: []StorageKey{{31: 0x01}}},
		},
	}

	encoded, err := json.Marshal(tx)
	require.NoError(t, err)

	var decoded AccessListTransaction
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, tx, &decoded)
}

func TestAccessEntryUnmarshalJSONErrors(t *testing.T) {
	var entry Access

	// not a pair
	assert.Error(t, json.Unmarshal([]byte(`["0xbb9bc244d798123fde783fcc1c72d3bb8c189413"]`), &entry))

	// bad storage key length
	assert.Error(t, json.Unmarshal([]byte(`["0xbb9bc244d798123fde783fcc1c72d3bb8c189413", ["0x01"]]`), &entry))
}
