// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amadeobrands/ain/tx"
)

func TestGuessTxTypeCreate(t *testing.T) {
	p := testParams()
	data, err := EncodeCreateMetadata(&CreateMetadata{OperatorType: 1, OperatorAuthAddress: addr(2)})
	require.NoError(t, err)

	trx := tx.New(1,
		&tx.Output{Value: 0, Data: data},
		&tx.Output{Value: p.MnCollateralAmount, To: addr(1), AddrType: 1},
	)

	txType, metadata := GuessTxType(trx)
	require.Equal(t, TxTypeCreateMasternode, txType)

	node, err := MasternodeFromTx(trx, 100, metadata)
	require.NoError(t, err)
	assert.Equal(t, addr(1), node.OwnerAuthAddress)
	assert.Equal(t, byte(1), node.OwnerType)
	assert.Equal(t, addr(2), node.OperatorAuthAddress)
	assert.Equal(t, int32(100), node.CreationHeight)
	assert.Equal(t, int32(-1), node.ResignHeight)
	assert.Equal(t, int32(-1), node.BanHeight)
}

func TestGuessTxTypeResign(t *testing.T) {
	data, err := EncodeResignMetadata(b32(7))
	require.NoError(t, err)

	trx := tx.New(1, &tx.Output{Data: data})
	txType, metadata := GuessTxType(trx)
	require.Equal(t, TxTypeResignMasternode, txType)

	nodeID, err := DecodeResignMetadata(metadata)
	require.NoError(t, err)
	assert.Equal(t, b32(7), nodeID)
}

func TestGuessTxTypeNone(t *testing.T) {
	for _, trx := range []*tx.Transaction{
		tx.New(1),
		tx.New(1, &tx.Output{Value: 5, To: addr(1)}),
		tx.New(1, &tx.Output{Data: []byte("DfTx")}),         // marker with no tag
		tx.New(1, &tx.Output{Data: []byte("DfTxZjunk")}),    // unknown tag
		tx.New(1, &tx.Output{Data: []byte("XfTxCpayload")}), // wrong marker
	} {
		txType, metadata := GuessTxType(trx)
		assert.Equal(t, TxTypeNone, txType)
		assert.Nil(t, metadata)
	}
}

func TestMasternodeFromTxRejections(t *testing.T) {
	data, err := EncodeCreateMetadata(&CreateMetadata{OperatorType: 1, OperatorAuthAddress: addr(2)})
	require.NoError(t, err)
	_, metadata := GuessTxType(tx.New(1, &tx.Output{Data: data}))

	// no collateral output
	_, err = MasternodeFromTx(tx.New(1, &tx.Output{Data: data}), 100, metadata)
	assert.Error(t, err)

	// collateral without destination
	trx := tx.New(1, &tx.Output{Data: data}, &tx.Output{Value: 10})
	_, err = MasternodeFromTx(trx, 100, metadata)
	assert.Error(t, err)

	_, err = MasternodeFromTx(tx.New(1), 100, []byte("garbage"))
	assert.Error(t, err)
}

func TestCriminalProofTx(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	fact := &DoubleSignFact{
		Header:         signedHeader(t, key, 150, b32(1)),
		ConflictHeader: signedHeader(t, key, 150, b32(2)),
	}

	data, err := EncodeCriminalProofData(fact)
	require.NoError(t, err)
	trx := tx.New(1, &tx.Output{Data: data})

	metadata, ok := ExtractCriminalProofFromTx(trx)
	require.True(t, ok)
	decoded, err := DecodeProofMetadata(metadata)
	require.NoError(t, err)
	assert.True(t, fact.Equal(decoded))

	// a criminal tx is not a masternode tx
	txType, _ := GuessTxType(trx)
	assert.Equal(t, TxTypeNone, txType)
	_, ok = ExtractAnchorRewardFromTx(trx)
	assert.False(t, ok)
}

func TestAnchorRewardTx(t *testing.T) {
	data, err := EncodeAnchorRewardData(b32(0xa1))
	require.NoError(t, err)
	trx := tx.New(1, &tx.Output{Data: data})

	metadata, ok := ExtractAnchorRewardFromTx(trx)
	require.True(t, ok)
	btcTxHash, err := DecodeAnchorRewardMetadata(metadata)
	require.NoError(t, err)
	assert.Equal(t, b32(0xa1), btcTxHash)

	_, ok = ExtractCriminalProofFromTx(trx)
	assert.False(t, ok)
}

func TestTxTypeString(t *testing.T) {
	assert.Equal(t, "CreateMasternode", TxTypeCreateMasternode.String())
	assert.Equal(t, "ResignMasternode", TxTypeResignMasternode.String())
	assert.Equal(t, "None", TxTypeNone.String())
}
