// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/amadeobrands/ain/ain"
)

// State is the lifecycle state of a masternode at some height.
type State byte

const (
	StatePreEnabled State = iota
	StateEnabled
	StatePreResigned
	StateResigned
	StatePreBanned
	StateBanned
)

func (s State) String() string {
	switch s {
	case StatePreEnabled:
		return "PRE_ENABLED"
	case StateEnabled:
		return "ENABLED"
	case StatePreResigned:
		return "PRE_RESIGNED"
	case StateResigned:
		return "RESIGNED"
	case StatePreBanned:
		return "PRE_BANNED"
	case StateBanned:
		return "BANNED"
	}
	return "UNKNOWN"
}

// Masternode is a registered block producer identity.
//
// Heights use -1 as the "not set" sentinel for resign and ban. The record
// is a plain comparable value; lookups hand out pointers that callers must
// treat as read-only.
type Masternode struct {
	// Minted blocks counter.
	MintedBlocks uint32

	// Owner auth address == collateral address.
	OwnerAuthAddress ain.Address
	OwnerType        byte

	// Operator auth address. Can be equal to OwnerAuthAddress.
	OperatorAuthAddress ain.Address
	OperatorType        byte

	CreationHeight int32
	ResignHeight   int32
	BanHeight      int32

	// Hashes of the transactions that caused the transition,
	// kept for rollback on block disconnect.
	ResignTx ain.Bytes32
	BanTx    ain.Bytes32
}

// NewMasternode creates a fresh record with unset resign/ban fields.
func NewMasternode(owner ain.Address, ownerType byte, operator ain.Address, operatorType byte, creationHeight int32) Masternode {
	return Masternode{
		OwnerAuthAddress:    owner,
		OwnerType:           ownerType,
		OperatorAuthAddress: operator,
		OperatorType:        operatorType,
		CreationHeight:      creationHeight,
		ResignHeight:        -1,
		BanHeight:           -1,
	}
}

// State computes the lifecycle state at height h.
// It's a pure function of the record's height fields; ban wins over resign.
func (m *Masternode) State(h int32, p *ain.Params) State {
	if m.BanHeight != -1 {
		if m.BanHeight+p.MnResignDelay > h {
			return StatePreBanned
		}
		return StateBanned
	}
	if m.ResignHeight != -1 {
		if m.ResignHeight+p.MnResignDelay > h {
			return StatePreResigned
		}
		return StateResigned
	}
	if m.CreationHeight+p.MnActivationDelay > h {
		return StatePreEnabled
	}
	return StateEnabled
}

// IsActive reports whether the node still has mint duty at height h.
// Nodes in the resign/ban grace window keep operating until it elapses.
func (m *Masternode) IsActive(h int32, p *ain.Params) bool {
	s := m.State(h, p)
	return s == StateEnabled || s == StatePreResigned || s == StatePreBanned
}

// masternodeRLP is the storage form. Resign/ban heights are shifted by one
// so the -1 sentinel round-trips through unsigned RLP integers.
type masternodeRLP struct {
	MintedBlocks        uint32
	OwnerAuthAddress    ain.Address
	OwnerType           byte
	OperatorAuthAddress ain.Address
	OperatorType        byte
	CreationHeight      uint32
	ResignHeight        uint64
	BanHeight           uint64
	ResignTx            ain.Bytes32
	BanTx               ain.Bytes32
}

// EncodeRLP implements rlp.Encoder.
func (m *Masternode) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &masternodeRLP{
		MintedBlocks:        m.MintedBlocks,
		OwnerAuthAddress:    m.OwnerAuthAddress,
		OwnerType:           m.OwnerType,
		OperatorAuthAddress: m.OperatorAuthAddress,
		OperatorType:        m.OperatorType,
		CreationHeight:      uint32(m.CreationHeight),
		ResignHeight:        uint64(m.ResignHeight + 1),
		BanHeight:           uint64(m.BanHeight + 1),
		ResignTx:            m.ResignTx,
		BanTx:               m.BanTx,
	})
}

// DecodeRLP implements rlp.Decoder.
func (m *Masternode) DecodeRLP(s *rlp.Stream) error {
	var obj masternodeRLP
	if err := s.Decode(&obj); err != nil {
		return err
	}
	*m = Masternode{
		MintedBlocks:        obj.MintedBlocks,
		OwnerAuthAddress:    obj.OwnerAuthAddress,
		OwnerType:           obj.OwnerType,
		OperatorAuthAddress: obj.OperatorAuthAddress,
		OperatorType:        obj.OperatorType,
		CreationHeight:      int32(obj.CreationHeight),
		ResignHeight:        int32(obj.ResignHeight) - 1,
		BanHeight:           int32(obj.BanHeight) - 1,
		ResignTx:            obj.ResignTx,
		BanTx:               obj.BanTx,
	}
	return nil
}
