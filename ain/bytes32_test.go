// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package ain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytes32(t *testing.T) {
	hexed := "0x297a20c2ccb144171f3b0f97fee8346ca79b5e32ec3101a7f7912dd7cebcc2ef"

	b, err := ParseBytes32(hexed)
	require.NoError(t, err)
	assert.Equal(t, hexed, b.String())

	b, err = ParseBytes32(hexed[2:])
	require.NoError(t, err)
	assert.Equal(t, hexed, b.String())

	_, err = ParseBytes32("0x297a20c2")
	assert.Error(t, err)
	_, err = ParseBytes32("zz" + hexed[2:])
	assert.Error(t, err)

	assert.Panics(t, func() { MustParseBytes32("short") })
}

func TestBytes32JSON(t *testing.T) {
	b := MustParseBytes32("0x297a20c2ccb144171f3b0f97fee8346ca79b5e32ec3101a7f7912dd7cebcc2ef")

	data, err := json.Marshal(&b)
	require.NoError(t, err)
	var decoded Bytes32
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b, decoded)
}

func TestBytesToBytes32(t *testing.T) {
	// short input is extended from the left
	b := BytesToBytes32([]byte{1, 2})
	assert.Equal(t, byte(1), b[30])
	assert.Equal(t, byte(2), b[31])
	assert.False(t, b.IsZero())
	assert.True(t, Bytes32{}.IsZero())
}

func TestParseAddress(t *testing.T) {
	hexed := "0xabcdef0123456789abcdef0123456789abcdef01"

	addr, err := ParseAddress(hexed)
	require.NoError(t, err)
	assert.Equal(t, hexed, addr.String())

	_, err = ParseAddress("0xabcdef")
	assert.Error(t, err)
	assert.Panics(t, func() { MustParseAddress("short") })
}
