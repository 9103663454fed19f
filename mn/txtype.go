// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/amadeobrands/ain/ain"
	"github.com/amadeobrands/ain/tx"
)

// TxType tags a masternode custom transaction.
type TxType byte

const (
	TxTypeNone             TxType = 0
	TxTypeCreateMasternode TxType = 'C'
	TxTypeResignMasternode TxType = 'R'
)

func (t TxType) String() string {
	switch t {
	case TxTypeCreateMasternode:
		return "CreateMasternode"
	case TxTypeResignMasternode:
		return "ResignMasternode"
	}
	return "None"
}

// Custom payload markers. A custom transaction carries the 4-byte marker,
// a 1-byte type tag, then the type-specific serialized metadata in the
// data field of its first output.
var (
	TxMarker       = []byte{'D', 'f', 'T', 'x'}
	criminalMarker = []byte{'D', 'f', 'C', 'r'}
	anchorMarker   = []byte{'D', 'f', 'A', 'r'}
)

// CreateMetadata is the payload of a create-masternode transaction.
type CreateMetadata struct {
	OperatorType        byte
	OperatorAuthAddress ain.Address
}

// EncodeCreateMetadata builds the full data payload of a create tx output.
func EncodeCreateMetadata(meta *CreateMetadata) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(meta)
	if err != nil {
		return nil, err
	}
	data := append(append([]byte{}, TxMarker...), byte(TxTypeCreateMasternode))
	return append(data, payload...), nil
}

// EncodeResignMetadata builds the full data payload of a resign tx output.
func EncodeResignMetadata(nodeID ain.Bytes32) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(nodeID)
	if err != nil {
		return nil, err
	}
	data := append(append([]byte{}, TxMarker...), byte(TxTypeResignMasternode))
	return append(data, payload...), nil
}

// GuessTxType checks if the given tx is probably a custom masternode tx.
// It returns the type tag and raw metadata without validating signatures;
// malformed or unmarked transactions yield TxTypeNone.
func GuessTxType(t *tx.Transaction) (TxType, []byte) {
	outputs := t.Outputs()
	if len(outputs) == 0 {
		return TxTypeNone, nil
	}
	data := outputs[0].Data
	if len(data) < len(TxMarker)+1 || !bytes.HasPrefix(data, TxMarker) {
		return TxTypeNone, nil
	}
	metadata := data[len(TxMarker)+1:]
	switch TxType(data[len(TxMarker)]) {
	case TxTypeCreateMasternode:
		return TxTypeCreateMasternode, metadata
	case TxTypeResignMasternode:
		return TxTypeResignMasternode, metadata
	}
	return TxTypeNone, nil
}

// DecodeCreateMetadata parses create tx metadata.
func DecodeCreateMetadata(metadata []byte) (*CreateMetadata, error) {
	var meta CreateMetadata
	if err := rlp.DecodeBytes(metadata, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// DecodeResignMetadata parses resign tx metadata.
func DecodeResignMetadata(metadata []byte) (ain.Bytes32, error) {
	var nodeID ain.Bytes32
	if err := rlp.DecodeBytes(metadata, &nodeID); err != nil {
		return ain.Bytes32{}, err
	}
	return nodeID, nil
}

// MasternodeFromTx builds a record from a create transaction at the given
// height. The second output is the collateral output; its destination
// becomes the owner auth address.
func MasternodeFromTx(t *tx.Transaction, height int32, metadata []byte) (Masternode, error) {
	meta, err := DecodeCreateMetadata(metadata)
	if err != nil {
		return Masternode{}, err
	}
	outputs := t.Outputs()
	if len(outputs) < 2 {
		return Masternode{}, errors.New("create tx missing collateral output")
	}
	collateral := outputs[1]
	if collateral.To.IsZero() {
		return Masternode{}, errors.New("create tx collateral has no destination")
	}
	return NewMasternode(collateral.To, collateral.AddrType, meta.OperatorAuthAddress, meta.OperatorType, height), nil
}

// ExtractCriminalProofFromTx returns the raw double-sign proof metadata if
// the tx carries the criminal marker.
func ExtractCriminalProofFromTx(t *tx.Transaction) ([]byte, bool) {
	return extractMarked(t, criminalMarker)
}

// ExtractAnchorRewardFromTx returns the raw anchor reward metadata if the
// tx carries the anchor marker.
func ExtractAnchorRewardFromTx(t *tx.Transaction) ([]byte, bool) {
	return extractMarked(t, anchorMarker)
}

// EncodeCriminalProofData builds the data payload of a criminal tx output.
func EncodeCriminalProofData(fact *DoubleSignFact) ([]byte, error) {
	metadata, err := EncodeProofMetadata(fact)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, criminalMarker...), metadata...), nil
}

// EncodeAnchorRewardData builds the data payload of an anchor reward tx output.
func EncodeAnchorRewardData(btcTxHash ain.Bytes32) ([]byte, error) {
	metadata, err := rlp.EncodeToBytes(btcTxHash)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, anchorMarker...), metadata...), nil
}

// DecodeAnchorRewardMetadata parses anchor reward tx metadata.
func DecodeAnchorRewardMetadata(metadata []byte) (ain.Bytes32, error) {
	var btcTxHash ain.Bytes32
	if err := rlp.DecodeBytes(metadata, &btcTxHash); err != nil {
		return ain.Bytes32{}, err
	}
	return btcTxHash, nil
}

func extractMarked(t *tx.Transaction, marker []byte) ([]byte, bool) {
	outputs := t.Outputs()
	if len(outputs) == 0 {
		return nil, false
	}
	data := outputs[0].Data
	if len(data) <= len(marker) || !bytes.HasPrefix(data, marker) {
		return nil, false
	}
	return data[len(marker):], true
}
