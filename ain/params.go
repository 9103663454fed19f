// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package ain

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Coin is the number of base units per coin.
const Coin = 100_000_000

// Params holds the masternode consensus parameters of a network.
//
// Delays and frames are measured in blocks. The regtest preset shrinks
// them so lifecycle transitions are reachable in tests.
type Params struct {
	// MnActivationDelay blocks after creation before a masternode is enabled.
	MnActivationDelay int32 `yaml:"mnActivationDelay"`
	// MnResignDelay blocks after resign/ban before collateral is spendable.
	MnResignDelay int32 `yaml:"mnResignDelay"`
	// MnHistoryFrame depth of retained per-block undo records.
	MnHistoryFrame int32 `yaml:"mnHistoryFrame"`
	// MnCollateralAmount collateral locked by a masternode, in base units.
	MnCollateralAmount uint64 `yaml:"mnCollateralAmount"`
	// MnCreationFee fee burned by a create-masternode transaction, in base units.
	MnCreationFee uint64 `yaml:"mnCreationFee"`
	// AnchoringTeamSize size of the anchor signer team.
	AnchoringTeamSize int `yaml:"anchoringTeamSize"`
	// DoubleSignProofInterval max height distance between two headers
	// accepted as a double-sign proof.
	DoubleSignProofInterval uint32 `yaml:"doubleSignProofInterval"`
}

// MainnetParams returns the mainnet parameter preset.
func MainnetParams() *Params {
	return &Params{
		MnActivationDelay:       10,
		MnResignDelay:           60,
		MnHistoryFrame:          300,
		MnCollateralAmount:      20_000 * Coin,
		MnCreationFee:           10 * Coin,
		AnchoringTeamSize:       5,
		DoubleSignProofInterval: 100,
	}
}

// TestnetParams returns the testnet parameter preset.
func TestnetParams() *Params {
	p := MainnetParams()
	p.MnCollateralAmount = 10 * Coin
	p.MnCreationFee = 1 * Coin
	return p
}

// RegtestParams returns the regtest parameter preset.
func RegtestParams() *Params {
	return &Params{
		MnActivationDelay:       1,
		MnResignDelay:           1,
		MnHistoryFrame:          300,
		MnCollateralAmount:      10 * Coin,
		MnCreationFee:           1 * Coin,
		AnchoringTeamSize:       3,
		DoubleSignProofInterval: 100,
	}
}

// ParamsByNetwork returns the preset named by network, or nil if unknown.
func ParamsByNetwork(network string) *Params {
	switch network {
	case "mainnet":
		return MainnetParams()
	case "testnet":
		return TestnetParams()
	case "regtest":
		return RegtestParams()
	}
	return nil
}

// LoadParams reads a YAML params file, overriding the given base preset.
func LoadParams(path string, base *Params) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load params")
	}
	cpy := *base
	if err := yaml.Unmarshal(data, &cpy); err != nil {
		return nil, errors.Wrap(err, "parse params")
	}
	return &cpy, nil
}
