// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/amadeobrands/ain/ain"
	"github.com/amadeobrands/ain/block"
)

// DoubleSignFact is evidence of equivocation: two conflicting headers
// signed by the same minter.
type DoubleSignFact struct {
	Header         *block.Header
	ConflictHeader *block.Header
}

// Equal compares two facts by header hashes.
func (f *DoubleSignFact) Equal(other *DoubleSignFact) bool {
	return f.Header.Hash() == other.Header.Hash() &&
		f.ConflictHeader.Hash() == other.ConflictHeader.Hash()
}

// EncodeRLP implements rlp.Encoder.
func (f *DoubleSignFact) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []any{f.Header, f.ConflictHeader})
}

// DecodeRLP implements rlp.Decoder.
func (f *DoubleSignFact) DecodeRLP(s *rlp.Stream) error {
	var obj struct {
		Header         *block.Header
		ConflictHeader *block.Header
	}
	if err := s.Decode(&obj); err != nil {
		return err
	}
	*f = DoubleSignFact{Header: obj.Header, ConflictHeader: obj.ConflictHeader}
	return nil
}

// EncodeProofMetadata serializes a double-sign fact for embedding into a
// criminal transaction payload.
func EncodeProofMetadata(fact *DoubleSignFact) ([]byte, error) {
	return rlp.EncodeToBytes(fact)
}

// DecodeProofMetadata parses a criminal transaction payload.
func DecodeProofMetadata(metadata []byte) (*DoubleSignFact, error) {
	var fact DoubleSignFact
	if err := rlp.DecodeBytes(metadata, &fact); err != nil {
		return nil, err
	}
	return &fact, nil
}

// IsDoubleSignRestricted reports whether two block heights are close enough
// for a pair of conflicting headers to count as a double-sign proof. The
// bound rejects replay-based accusations built from far-apart headers.
func IsDoubleSignRestricted(height1, height2 uint32, p *ain.Params) bool {
	var dist uint32
	if height1 > height2 {
		dist = height1 - height2
	} else {
		dist = height2 - height1
	}
	return dist <= p.DoubleSignProofInterval
}

// IsDoubleSigned checks whether two headers equivocate: different hashes,
// same recoverable minter, heights within the proof interval. On success
// the minter's operator auth address is returned.
func IsDoubleSigned(one, two *block.Header, p *ain.Params) (ain.Address, bool) {
	if one.Hash() == two.Hash() {
		return ain.Address{}, false
	}
	minterOne, err := one.Minter()
	if err != nil {
		return ain.Address{}, false
	}
	minterTwo, err := two.Minter()
	if err != nil {
		return ain.Address{}, false
	}
	if minterOne != minterTwo || minterOne.IsZero() {
		return ain.Address{}, false
	}
	if !IsDoubleSignRestricted(one.Height(), two.Height(), p) {
		return ain.Address{}, false
	}
	return minterOne, true
}
