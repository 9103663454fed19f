// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package ain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsByNetwork(t *testing.T) {
	assert.Equal(t, MainnetParams(), ParamsByNetwork("mainnet"))
	assert.Equal(t, TestnetParams(), ParamsByNetwork("testnet"))
	assert.Equal(t, RegtestParams(), ParamsByNetwork("regtest"))
	assert.Nil(t, ParamsByNetwork("nonsense"))
}

func TestParamsPresets(t *testing.T) {
	p := MainnetParams()
	assert.Equal(t, int32(10), p.MnActivationDelay)
	assert.Equal(t, int32(60), p.MnResignDelay)
	assert.Equal(t, uint64(20_000*Coin), p.MnCollateralAmount)

	// regtest shrinks delays so lifecycle transitions are reachable
	r := RegtestParams()
	assert.Equal(t, int32(1), r.MnActivationDelay)
	assert.Equal(t, int32(1), r.MnResignDelay)
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mnResignDelay: 7\nanchoringTeamSize: 9\n"), 0o600))

	p, err := LoadParams(path, MainnetParams())
	require.NoError(t, err)
	// overridden fields change, the rest keeps the base preset
	assert.Equal(t, int32(7), p.MnResignDelay)
	assert.Equal(t, 9, p.AnchoringTeamSize)
	assert.Equal(t, int32(10), p.MnActivationDelay)
	assert.Equal(t, uint64(20_000*Coin), p.MnCollateralAmount)

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.yaml"), MainnetParams())
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(":\tnot yaml"), 0o600))
	_, err = LoadParams(path, MainnetParams())
	assert.Error(t, err)
}
