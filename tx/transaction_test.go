// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package tx

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amadeobrands/ain/ain"
)

func TestTransactionID(t *testing.T) {
	trx := New(7,
		&Output{Value: 100, To: ain.Address{1}, AddrType: 1},
		&Output{Value: 200, To: ain.Address{2}, AddrType: 4, Data: []byte("payload")},
	)

	// stable across calls, sensitive to content
	assert.Equal(t, trx.ID(), trx.ID())
	assert.NotEqual(t, trx.ID(), New(8, trx.Outputs()...).ID())
	assert.NotEqual(t, trx.ID(), New(7, &Output{Value: 100, To: ain.Address{1}, AddrType: 1}).ID())
}

func TestTransactionOutputsCopy(t *testing.T) {
	out := &Output{Value: 100, To: ain.Address{1}}
	trx := New(1, out)

	outputs := trx.Outputs()
	require.Len(t, outputs, 1)
	outputs[0] = nil
	assert.NotNil(t, trx.Outputs()[0])
}

func TestTransactionRLPRoundtrip(t *testing.T) {
	trx := New(7, &Output{Value: 100, To: ain.Address{1}, AddrType: 1, Data: []byte{0xde, 0xad}})

	data, err := rlp.EncodeToBytes(trx)
	require.NoError(t, err)
	var decoded Transaction
	require.NoError(t, rlp.DecodeBytes(data, &decoded))

	assert.Equal(t, trx.ID(), decoded.ID())
	require.Len(t, decoded.Outputs(), 1)
	assert.Equal(t, *trx.Outputs()[0], *decoded.Outputs()[0])
}
