// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package block

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/amadeobrands/ain/ain"
)

// Header contains all information about a block, except block body.
// It's immutable.
type Header struct {
	body headerBody

	cache struct {
		signingHash atomic.Value
		minter      atomic.Value
		hash        atomic.Value
	}
}

// headerBody body of header
type headerBody struct {
	ParentID      ain.Bytes32
	Height        uint32
	Timestamp     uint64
	StakeModifier ain.Bytes32
	MerkleRoot    ain.Bytes32

	Signature []byte
}

// NewHeader creates an unsigned header.
func NewHeader(parentID ain.Bytes32, height uint32, timestamp uint64, stakeModifier, merkleRoot ain.Bytes32) *Header {
	return &Header{
		body: headerBody{
			ParentID:      parentID,
			Height:        height,
			Timestamp:     timestamp,
			StakeModifier: stakeModifier,
			MerkleRoot:    merkleRoot,
		},
	}
}

// ParentID returns id of parent block.
func (h *Header) ParentID() ain.Bytes32 {
	return h.body.ParentID
}

// Height returns sequential number of this block.
func (h *Header) Height() uint32 {
	return h.body.Height
}

// Timestamp returns timestamp of this block.
func (h *Header) Timestamp() uint64 {
	return h.body.Timestamp
}

// StakeModifier returns the stake modifier carried by this block.
func (h *Header) StakeModifier() ain.Bytes32 {
	return h.body.StakeModifier
}

// MerkleRoot returns merkle root of txs contained in this block.
func (h *Header) MerkleRoot() ain.Bytes32 {
	return h.body.MerkleRoot
}

// Hash computes hash of the whole header.
func (h *Header) Hash() (hash ain.Bytes32) {
	if cached := h.cache.hash.Load(); cached != nil {
		return cached.(ain.Bytes32)
	}
	defer func() { h.cache.hash.Store(hash) }()

	hw := ain.NewBlake2b()
	rlp.Encode(hw, &h.body)
	hw.Sum(hash[:0])
	return
}

// SigningHash computes hash of all header fields excluding signature.
func (h *Header) SigningHash() (hash ain.Bytes32) {
	if cached := h.cache.signingHash.Load(); cached != nil {
		return cached.(ain.Bytes32)
	}
	defer func() { h.cache.signingHash.Store(hash) }()

	hw := ain.NewBlake2b()
	rlp.Encode(hw, []any{
		h.body.ParentID,
		h.body.Height,
		h.body.Timestamp,
		h.body.StakeModifier,
		h.body.MerkleRoot,
	})
	hw.Sum(hash[:0])
	return
}

// Signature returns signature.
func (h *Header) Signature() []byte {
	return append([]byte(nil), h.body.Signature...)
}

// WithSignature create a new Header object with signature set.
func (h *Header) WithSignature(sig []byte) *Header {
	cpy := Header{body: h.body}
	cpy.body.Signature = append([]byte(nil), sig...)
	return &cpy
}

// Minter extract the operator auth address of the block minter from signature.
func (h *Header) Minter() (minter ain.Address, err error) {
	if h.body.Height == 0 {
		// special case for genesis block
		return ain.Address{}, nil
	}

	if cached := h.cache.minter.Load(); cached != nil {
		return cached.(ain.Address), nil
	}
	defer func() {
		if err == nil {
			h.cache.minter.Store(minter)
		}
	}()

	pub, err := crypto.SigToPub(h.SigningHash().Bytes(), h.body.Signature)
	if err != nil {
		return ain.Address{}, err
	}

	minter = ain.PubkeyToAddress(pub)
	return
}

// EncodeRLP implements rlp.Encoder.
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &h.body)
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var body headerBody

	if err := s.Decode(&body); err != nil {
		return err
	}
	*h = Header{body: body}
	return nil
}

func (h *Header) String() string {
	var minterStr string
	if minter, err := h.Minter(); err != nil {
		minterStr = "N/A"
	} else {
		minterStr = minter.String()
	}

	return fmt.Sprintf(`Header(%v):
	Height:			%v
	ParentID:		%v
	Timestamp:		%v
	Minter:			%v
	StakeModifier:	%v
	MerkleRoot:		%v
	Signature:		0x%x`, h.Hash(), h.body.Height, h.body.ParentID, h.body.Timestamp, minterStr,
		h.body.StakeModifier, h.body.MerkleRoot, h.body.Signature)
}
