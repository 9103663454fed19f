// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package tx

import (
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/amadeobrands/ain/ain"
)

// Output is a transaction output. Data carries an embedded payload for
// custom transactions, To/AddrType the destination auth address when the
// output moves value.
type Output struct {
	Value    uint64
	To       ain.Address
	AddrType byte
	Data     []byte
}

// Transaction is the slice of a full transaction the masternode ledger
// consumes: id plus outputs. It's immutable.
type Transaction struct {
	body txBody

	cache struct {
		id atomic.Value
	}
}

type txBody struct {
	Nonce   uint64
	Outputs []*Output
}

// New creates a transaction from outputs.
func New(nonce uint64, outputs ...*Output) *Transaction {
	cpy := make([]*Output, len(outputs))
	copy(cpy, outputs)
	return &Transaction{body: txBody{Nonce: nonce, Outputs: cpy}}
}

// ID computes id of the transaction.
func (t *Transaction) ID() (id ain.Bytes32) {
	if cached := t.cache.id.Load(); cached != nil {
		return cached.(ain.Bytes32)
	}
	defer func() { t.cache.id.Store(id) }()

	hw := ain.NewBlake2b()
	rlp.Encode(hw, &t.body)
	hw.Sum(id[:0])
	return
}

// Outputs returns outputs of the transaction.
func (t *Transaction) Outputs() []*Output {
	return append([]*Output(nil), t.body.Outputs...)
}

// EncodeRLP implements rlp.Encoder.
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder.
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body txBody

	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{body: body}
	return nil
}
