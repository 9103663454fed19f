// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import (
	"errors"
	"sort"

	"github.com/amadeobrands/ain/ain"
)

// Validation rejections. They reject the offending transaction at the
// application boundary and leave the (unflushed) overlay discardable;
// structural invariant violations panic instead.
var (
	ErrMasternodeExists   = errors.New("masternode already exists")
	ErrAuthAddressInUse   = errors.New("auth address already in use")
	ErrMasternodeNotFound = errors.New("masternode does not exist")
	ErrMasternodeResigned = errors.New("masternode already resigned")
	ErrMasternodeBanned   = errors.New("masternode is banned")
	ErrNotDoubleSign      = errors.New("headers do not prove a double sign")
	ErrBanTxMismatch      = errors.New("ban tx does not match")
)

// OnMasternodeCreate registers a new masternode and indexes both auth
// addresses. txn is the transaction's index within its block; the undo
// entry is recorded under the node's creation height.
func (v *View) OnMasternodeCreate(nodeID ain.Bytes32, node Masternode, txn int32) error {
	if v.Masternode(nodeID) != nil {
		return ErrMasternodeExists
	}
	for _, auth := range []ain.Address{node.OwnerAuthAddress, node.OperatorAuthAddress} {
		if _, ok := v.LookupAuth(ByOwner, auth); ok {
			return ErrAuthAddressInUse
		}
		if _, ok := v.LookupAuth(ByOperator, auth); ok {
			return ErrAuthAddressInUse
		}
	}

	cpy := node
	id := nodeID
	v.nodes[nodeID] = &cpy
	v.byOwner[node.OwnerAuthAddress] = &id
	v.byOperator[node.OperatorAuthAddress] = &id
	v.appendUndo(node.CreationHeight, txn, nodeID, TxTypeCreateMasternode)
	return nil
}

// OnMasternodeResign marks a masternode resigned at the given height.
// Fails if the node is absent, already resigned or banned.
func (v *View) OnMasternodeResign(nodeID, txid ain.Bytes32, height, txn int32) error {
	node := v.Masternode(nodeID)
	if node == nil {
		return ErrMasternodeNotFound
	}
	if node.BanHeight != -1 {
		return ErrMasternodeBanned
	}
	if node.ResignHeight != -1 {
		return ErrMasternodeResigned
	}

	cpy := *node
	cpy.ResignHeight = height
	cpy.ResignTx = txid
	v.nodes[nodeID] = &cpy
	v.appendUndo(height, txn, nodeID, TxTypeResignMasternode)
	return nil
}

// IncrementMintedBy bumps the minted counter of the node operated by minter.
// The minter must resolve to a registered node.
func (v *View) IncrementMintedBy(minter ain.Address) {
	node, id := v.mustNodeByOperator(minter)
	cpy := *node
	cpy.MintedBlocks++
	v.nodes[id] = &cpy
}

// DecrementMintedBy reverses IncrementMintedBy on block disconnect.
func (v *View) DecrementMintedBy(minter ain.Address) {
	node, id := v.mustNodeByOperator(minter)
	cpy := *node
	cpy.MintedBlocks--
	v.nodes[id] = &cpy
}

func (v *View) mustNodeByOperator(minter ain.Address) (*Masternode, ain.Bytes32) {
	id, ok := v.LookupAuth(ByOperator, minter)
	if !ok {
		panic("mn: minter is not a registered operator")
	}
	node := v.Masternode(id)
	if node == nil {
		panic("mn: operator index references missing masternode")
	}
	return node, id
}

// CanSpend reports whether the node's collateral is spendable at height:
// the node is gone, or fully resigned/banned with the grace window elapsed.
func (v *View) CanSpend(nodeID ain.Bytes32, height int32) bool {
	node := v.Masternode(nodeID)
	if node == nil {
		return true
	}
	state := node.State(height, v.params)
	return state == StateResigned || state == StateBanned
}

// IsAnchorInvolved reports whether the node is on anchor duty at height,
// which keeps its collateral locked.
func (v *View) IsAnchorInvolved(nodeID ain.Bytes32, height int32) bool {
	node := v.Masternode(nodeID)
	if node == nil {
		return false
	}
	return node.IsActive(height, v.params) && v.CurrentTeam().Has(node.OperatorAuthAddress)
}

// OnUndoBlock builds an overlay reversing the block at the given height,
// walking its undo entries in reverse transaction order. The caller
// flushes the returned overlay, so rollback reuses the forward write path.
// An undo entry referencing a missing node means corrupted chain state.
func (v *View) OnUndoBlock(height int32) *View {
	cache := v.NewCache()
	blockUndo := v.blockUndo(height)

	txns := make([]int32, 0, len(blockUndo))
	for txn := range blockUndo {
		txns = append(txns, txn)
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i] > txns[j] })

	for _, txn := range txns {
		entry := blockUndo[txn]
		node := cache.Masternode(entry.NodeID)
		if node == nil {
			panic("mn: undo entry references missing masternode")
		}
		switch entry.TxType {
		case TxTypeCreateMasternode:
			cache.nodes[entry.NodeID] = nil
			cache.byOwner[node.OwnerAuthAddress] = nil
			cache.byOperator[node.OperatorAuthAddress] = nil
		case TxTypeResignMasternode:
			cpy := *node
			cpy.ResignHeight = -1
			cpy.ResignTx = ain.Bytes32{}
			cache.nodes[entry.NodeID] = &cpy
		default:
			panic("mn: undo entry with unknown tx type")
		}
	}

	// the block's own undo record goes away with it
	cache.undo[height] = nil
	cache.lastHeight = height - 1
	metricBlockUndo().Add(1)
	return cache
}

// PruneOlder discards undo records strictly older than height. Meant for
// the base view; on an overlay it only shadows the overlay's own records.
func (v *View) PruneOlder(height int32) {
	for h := range v.undo {
		if h < height {
			if v.parent == nil {
				delete(v.undo, h)
			} else {
				v.undo[h] = nil
			}
		}
	}
}

func (v *View) appendUndo(height, txn int32, nodeID ain.Bytes32, txType TxType) {
	existing := v.blockUndo(height)
	blockUndo := make(BlockUndo, len(existing)+1)
	for k, entry := range existing {
		blockUndo[k] = entry
	}
	blockUndo[txn] = UndoEntry{NodeID: nodeID, TxType: txType}
	v.undo[height] = blockUndo
}

// AddCriminalProof records a double-sign proof for the node. Recording the
// same criminal again just refreshes the fact.
func (v *View) AddCriminalProof(nodeID ain.Bytes32, fact DoubleSignFact) {
	cpy := fact
	v.criminals[nodeID] = &cpy
	metricCriminalProofs().Add(1)
	logger.Debug("criminal proof recorded", "node", nodeID, "height", fact.Header.Height())
}

// RemoveCriminalProofs drops the recorded proof for the node.
func (v *View) RemoveCriminalProofs(nodeID ain.Bytes32) {
	if v.parent == nil {
		delete(v.criminals, nodeID)
	} else {
		v.criminals[nodeID] = nil
	}
}

// BanCriminal consumes a ban transaction's proof metadata: it verifies the
// equivocation, bans the responsible node at the given height and removes
// the now-punished proof.
func (v *View) BanCriminal(txid ain.Bytes32, metadata []byte, height int32) error {
	fact, err := DecodeProofMetadata(metadata)
	if err != nil {
		return err
	}
	minter, ok := IsDoubleSigned(fact.Header, fact.ConflictHeader, v.params)
	if !ok {
		return ErrNotDoubleSign
	}
	id, ok := v.LookupAuth(ByOperator, minter)
	if !ok {
		return ErrMasternodeNotFound
	}
	node := v.Masternode(id)
	if node == nil {
		return ErrMasternodeNotFound
	}
	if node.BanHeight != -1 {
		return ErrMasternodeBanned
	}

	cpy := *node
	cpy.BanHeight = height
	cpy.BanTx = txid
	v.nodes[id] = &cpy
	v.RemoveCriminalProofs(id)
	logger.Info("masternode banned", "node", id, "height", height, "tx", txid)
	return nil
}

// UnbanCriminal reverses a ban on block disconnect. The proof record that
// the ban removed is not restored.
func (v *View) UnbanCriminal(txid ain.Bytes32, metadata []byte) error {
	fact, err := DecodeProofMetadata(metadata)
	if err != nil {
		return err
	}
	minter, ok := IsDoubleSigned(fact.Header, fact.ConflictHeader, v.params)
	if !ok {
		return ErrNotDoubleSign
	}
	id, ok := v.LookupAuth(ByOperator, minter)
	if !ok {
		return ErrMasternodeNotFound
	}
	node := v.Masternode(id)
	if node == nil {
		return ErrMasternodeNotFound
	}
	if node.BanTx != txid {
		return ErrBanTxMismatch
	}

	cpy := *node
	cpy.BanHeight = -1
	cpy.BanTx = ain.Bytes32{}
	v.nodes[id] = &cpy
	logger.Info("masternode unbanned", "node", id, "tx", txid)
	return nil
}

// AddRewardForAnchor records the reward tx paid for an anchor tx.
func (v *View) AddRewardForAnchor(btcTxHash, rewardTxHash ain.Bytes32) {
	cpy := rewardTxHash
	v.rewards[btcTxHash] = &cpy
}

// RemoveRewardForAnchor drops the reward record on block disconnect.
func (v *View) RemoveRewardForAnchor(btcTxHash ain.Bytes32) {
	if v.parent == nil {
		delete(v.rewards, btcTxHash)
	} else {
		v.rewards[btcTxHash] = nil
	}
}
