// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/amadeobrands/ain/ain"
)

var logger = log.New("pkg", "mn")

// AuthIndex selects one of the two auth secondary indexes.
type AuthIndex int

const (
	ByOwner AuthIndex = iota
	ByOperator
)

// UndoEntry is enough to reverse the effect of one masternode transaction:
// reversal is derived from the tx type and the current record state.
type UndoEntry struct {
	NodeID ain.Bytes32
	TxType TxType
}

// BlockUndo maps transaction index within a block to its undo entry.
type BlockUndo map[int32]UndoEntry

// View is a masternode ledger layer.
//
// A view with nil parent is a base: its maps are authoritative and never
// hold tombstones. A view with a parent is a copy-on-write overlay: reads
// fall through to the parent on miss, writes land only in the overlay, and
// a nil map value marks a key deleted in this layer (distinct from absent,
// which defers to the parent). Overlays stack to arbitrary depth.
//
// Views perform no locking; the block-validation pipeline serializes
// access. A parent must not be mutated while a live overlay references it.
type View struct {
	parent *View
	params *ain.Params

	lastHeight      int32
	nodes           map[ain.Bytes32]*Masternode
	byOwner         map[ain.Address]*ain.Bytes32
	byOperator      map[ain.Address]*ain.Bytes32
	criminals       map[ain.Bytes32]*DoubleSignFact
	rewards         map[ain.Bytes32]*ain.Bytes32
	team            Team
	foundationsDebt int64
	undo            map[int32]BlockUndo
}

// NewView creates a base view.
func NewView(params *ain.Params) *View {
	v := &View{params: params}
	v.reset()
	return v
}

// NewCache creates a copy-on-write overlay on top of this view.
// Only the summary scalars are copied; the bulk maps start empty.
func (v *View) NewCache() *View {
	c := &View{
		parent:          v,
		params:          v.params,
		lastHeight:      v.lastHeight,
		team:            v.CurrentTeam(),
		foundationsDebt: v.foundationsDebt,
	}
	c.reset()
	return c
}

func (v *View) reset() {
	v.nodes = make(map[ain.Bytes32]*Masternode)
	v.byOwner = make(map[ain.Address]*ain.Bytes32)
	v.byOperator = make(map[ain.Address]*ain.Bytes32)
	v.criminals = make(map[ain.Bytes32]*DoubleSignFact)
	v.rewards = make(map[ain.Bytes32]*ain.Bytes32)
	v.undo = make(map[int32]BlockUndo)
}

// Params returns the chain params the view was built with.
func (v *View) Params() *ain.Params {
	return v.params
}

// LastHeight returns the height of the last applied block.
func (v *View) LastHeight() int32 {
	return v.lastHeight
}

// SetLastHeight records the height of the last applied block.
func (v *View) SetLastHeight(h int32) {
	v.lastHeight = h
}

// IsEmpty reports whether this layer holds no deltas.
func (v *View) IsEmpty() bool {
	return len(v.nodes) == 0 && len(v.byOwner) == 0 && len(v.byOperator) == 0 && len(v.undo) == 0
}

// Masternode looks up a record by node id. It returns nil when the node
// does not exist (or is deleted in this layer). The returned record is
// shared and must not be mutated.
func (v *View) Masternode(id ain.Bytes32) *Masternode {
	if node, ok := v.nodes[id]; ok {
		return node
	}
	if v.parent != nil {
		return v.parent.Masternode(id)
	}
	return nil
}

// LookupAuth resolves an owner or operator auth address to a node id.
func (v *View) LookupAuth(where AuthIndex, auth ain.Address) (ain.Bytes32, bool) {
	if id, ok := v.authIndex(where)[auth]; ok {
		if id == nil {
			return ain.Bytes32{}, false
		}
		return *id, true
	}
	if v.parent != nil {
		return v.parent.LookupAuth(where, auth)
	}
	return ain.Bytes32{}, false
}

// Masternodes materializes the full registry, overlay entries taking
// precedence and tombstones filtered out.
func (v *View) Masternodes() map[ain.Bytes32]Masternode {
	var result map[ain.Bytes32]Masternode
	if v.parent != nil {
		result = v.parent.Masternodes()
	} else {
		result = make(map[ain.Bytes32]Masternode, len(v.nodes))
	}
	for id, node := range v.nodes {
		if node == nil {
			delete(result, id)
		} else {
			result[id] = *node
		}
	}
	return result
}

// RewardForAnchor resolves the reward tx hash paid for an anchor tx.
func (v *View) RewardForAnchor(btcTxHash ain.Bytes32) (ain.Bytes32, bool) {
	if reward, ok := v.rewards[btcTxHash]; ok {
		if reward == nil {
			return ain.Bytes32{}, false
		}
		return *reward, true
	}
	if v.parent != nil {
		return v.parent.RewardForAnchor(btcTxHash)
	}
	return ain.Bytes32{}, false
}

// AnchorRewards materializes the anchor reward map.
func (v *View) AnchorRewards() map[ain.Bytes32]ain.Bytes32 {
	var result map[ain.Bytes32]ain.Bytes32
	if v.parent != nil {
		result = v.parent.AnchorRewards()
	} else {
		result = make(map[ain.Bytes32]ain.Bytes32, len(v.rewards))
	}
	for btcTx, reward := range v.rewards {
		if reward == nil {
			delete(result, btcTx)
		} else {
			result[btcTx] = *reward
		}
	}
	return result
}

// UnpunishedCriminals materializes recorded but not yet punished
// double-sign proofs.
func (v *View) UnpunishedCriminals() map[ain.Bytes32]DoubleSignFact {
	var result map[ain.Bytes32]DoubleSignFact
	if v.parent != nil {
		result = v.parent.UnpunishedCriminals()
	} else {
		result = make(map[ain.Bytes32]DoubleSignFact, len(v.criminals))
	}
	for id, fact := range v.criminals {
		if fact == nil {
			delete(result, id)
		} else {
			result[id] = *fact
		}
	}
	return result
}

// FoundationsDebt returns the running foundation debt balance.
func (v *View) FoundationsDebt() int64 {
	return v.foundationsDebt
}

// SetFoundationsDebt sets the running foundation debt balance.
func (v *View) SetFoundationsDebt(debt int64) {
	v.foundationsDebt = debt
}

// Flush merges this overlay's deltas into its parent and clears the
// overlay. The overlay must be reconstructed before further use. Flushing
// a base view is a programming error.
func (v *View) Flush() {
	if v.parent == nil {
		panic("mn: flush called on base view")
	}
	v.parent.ApplyCache(v)
	v.Clear()
	metricViewFlush().Add(1)
}

// ApplyCache merges an overlay's deltas into this view. When this view is
// a base, tombstones become real deletions; when it is itself an overlay,
// tombstones are retained so they keep shadowing lower layers.
func (v *View) ApplyCache(cache *View) {
	base := v.parent == nil

	for id, node := range cache.nodes {
		if node == nil && base {
			delete(v.nodes, id)
		} else {
			v.nodes[id] = node
		}
	}
	for auth, id := range cache.byOwner {
		if id == nil && base {
			delete(v.byOwner, auth)
		} else {
			v.byOwner[auth] = id
		}
	}
	for auth, id := range cache.byOperator {
		if id == nil && base {
			delete(v.byOperator, auth)
		} else {
			v.byOperator[auth] = id
		}
	}
	for id, fact := range cache.criminals {
		if fact == nil && base {
			delete(v.criminals, id)
		} else {
			v.criminals[id] = fact
		}
	}
	for btcTx, reward := range cache.rewards {
		if reward == nil && base {
			delete(v.rewards, btcTx)
		} else {
			v.rewards[btcTx] = reward
		}
	}
	for height, blockUndo := range cache.undo {
		if blockUndo == nil && base {
			delete(v.undo, height)
		} else {
			v.undo[height] = blockUndo
		}
	}

	v.lastHeight = cache.lastHeight
	v.team = cache.CurrentTeam()
	v.foundationsDebt = cache.foundationsDebt
}

// Clear drops all deltas held by this layer.
func (v *View) Clear() {
	v.reset()
}

// authIndex returns this layer's own index map for the given side.
func (v *View) authIndex(where AuthIndex) map[ain.Address]*ain.Bytes32 {
	if where == ByOwner {
		return v.byOwner
	}
	return v.byOperator
}

// blockUndo returns the undo record of the block at the given height,
// falling through to the parent. A nil result means no record.
func (v *View) blockUndo(height int32) BlockUndo {
	if blockUndo, ok := v.undo[height]; ok {
		return blockUndo
	}
	if v.parent != nil {
		return v.parent.blockUndo(height)
	}
	return nil
}
