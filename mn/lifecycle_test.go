// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amadeobrands/ain/ain"
)

func TestCreateMasternode(t *testing.T) {
	v := NewView(testParams()).NewCache()
	node := NewMasternode(addr(1), 1, addr(2), 1, 100)
	require.NoError(t, v.OnMasternodeCreate(b32(1), node, 0))

	got := v.Masternode(b32(1))
	require.NotNil(t, got)
	assert.Equal(t, StatePreEnabled, got.State(105, v.Params()))
	assert.Equal(t, StateEnabled, got.State(110, v.Params()))

	// duplicates and reused auth addresses are rejected
	assert.ErrorIs(t, v.OnMasternodeCreate(b32(1), NewMasternode(addr(7), 1, addr(8), 1, 101), 0), ErrMasternodeExists)
	assert.ErrorIs(t, v.OnMasternodeCreate(b32(2), NewMasternode(addr(1), 1, addr(8), 1, 101), 0), ErrAuthAddressInUse)
	assert.ErrorIs(t, v.OnMasternodeCreate(b32(2), NewMasternode(addr(7), 1, addr(2), 1, 101), 0), ErrAuthAddressInUse)
	// owner of one node may not become operator of another
	assert.ErrorIs(t, v.OnMasternodeCreate(b32(2), NewMasternode(addr(7), 1, addr(1), 1, 101), 0), ErrAuthAddressInUse)
}

func TestResignMasternode(t *testing.T) {
	v := NewView(testParams()).NewCache()
	require.NoError(t, v.OnMasternodeCreate(b32(1), NewMasternode(addr(1), 1, addr(2), 1, 100), 0))

	assert.ErrorIs(t, v.OnMasternodeResign(b32(9), b32(0xee), 200, 0), ErrMasternodeNotFound)
	require.NoError(t, v.OnMasternodeResign(b32(1), b32(0xee), 200, 0))
	assert.ErrorIs(t, v.OnMasternodeResign(b32(1), b32(0xef), 201, 0), ErrMasternodeResigned)

	node := v.Masternode(b32(1))
	assert.Equal(t, int32(200), node.ResignHeight)
	assert.Equal(t, b32(0xee), node.ResignTx)
	assert.Equal(t, StatePreResigned, node.State(250, v.Params()))
	assert.Equal(t, StateResigned, node.State(300, v.Params()))
}

func TestCanSpend(t *testing.T) {
	v := NewView(testParams()).NewCache()
	require.NoError(t, v.OnMasternodeCreate(b32(1), NewMasternode(addr(1), 1, addr(2), 1, 100), 0))
	require.NoError(t, v.OnMasternodeResign(b32(1), b32(0xee), 200, 0))

	// resign delay is 100: collateral unlocks at height 300
	assert.False(t, v.CanSpend(b32(1), 299))
	assert.True(t, v.CanSpend(b32(1), 300))
	// unknown collateral is spendable
	assert.True(t, v.CanSpend(b32(9), 0))
}

func TestMintedCounter(t *testing.T) {
	v := NewView(testParams()).NewCache()
	require.NoError(t, v.OnMasternodeCreate(b32(1), NewMasternode(addr(1), 1, addr(2), 1, 100), 0))

	v.IncrementMintedBy(addr(2))
	v.IncrementMintedBy(addr(2))
	assert.Equal(t, uint32(2), v.Masternode(b32(1)).MintedBlocks)

	v.DecrementMintedBy(addr(2))
	assert.Equal(t, uint32(1), v.Masternode(b32(1)).MintedBlocks)

	assert.Panics(t, func() { v.IncrementMintedBy(addr(9)) })
}

func TestUndoCreate(t *testing.T) {
	base := NewView(testParams())
	cache := base.NewCache()
	require.NoError(t, cache.OnMasternodeCreate(b32(1), NewMasternode(addr(1), 1, addr(2), 1, 100), 0))
	cache.SetLastHeight(100)
	cache.Flush()

	undo := base.OnUndoBlock(100)
	undo.Flush()

	assert.Nil(t, base.Masternode(b32(1)))
	_, ok := base.LookupAuth(ByOwner, addr(1))
	assert.False(t, ok)
	_, ok = base.LookupAuth(ByOperator, addr(2))
	assert.False(t, ok)
	assert.Nil(t, base.blockUndo(100))
	assert.Equal(t, int32(99), base.LastHeight())
}

func TestUndoResign(t *testing.T) {
	base := NewView(testParams())
	cache := base.NewCache()
	require.NoError(t, cache.OnMasternodeCreate(b32(1), NewMasternode(addr(1), 1, addr(2), 1, 100), 0))
	cache.SetLastHeight(100)
	cache.Flush()

	cache = base.NewCache()
	require.NoError(t, cache.OnMasternodeResign(b32(1), b32(0xee), 200, 0))
	cache.SetLastHeight(200)
	cache.Flush()

	base.OnUndoBlock(200).Flush()

	node := base.Masternode(b32(1))
	require.NotNil(t, node)
	assert.Equal(t, int32(-1), node.ResignHeight)
	assert.Equal(t, ain.Bytes32{}, node.ResignTx)
	assert.Equal(t, int32(199), base.LastHeight())
}

func TestUndoBlockReverseOrder(t *testing.T) {
	base := NewView(testParams())
	cache := base.NewCache()
	// same block creates a node and resigns an older one
	require.NoError(t, cache.OnMasternodeCreate(b32(1), NewMasternode(addr(1), 1, addr(2), 1, 100), 0))
	cache.SetLastHeight(100)
	cache.Flush()

	cache = base.NewCache()
	require.NoError(t, cache.OnMasternodeCreate(b32(2), NewMasternode(addr(3), 1, addr(4), 1, 200), 0))
	require.NoError(t, cache.OnMasternodeResign(b32(1), b32(0xee), 200, 1))
	cache.SetLastHeight(200)
	cache.Flush()

	base.OnUndoBlock(200).Flush()
	assert.Nil(t, base.Masternode(b32(2)))
	node := base.Masternode(b32(1))
	require.NotNil(t, node)
	assert.Equal(t, int32(-1), node.ResignHeight)
}

func TestPruneOlder(t *testing.T) {
	base := NewView(testParams())
	for h := int32(1); h <= 3; h++ {
		cache := base.NewCache()
		owner, operator := addr(byte(h*2)), addr(byte(h*2+1))
		require.NoError(t, cache.OnMasternodeCreate(b32(byte(h)), NewMasternode(owner, 1, operator, 1, h), 0))
		cache.SetLastHeight(h)
		cache.Flush()
	}

	base.PruneOlder(3)
	assert.Nil(t, base.blockUndo(1))
	assert.Nil(t, base.blockUndo(2))
	assert.NotNil(t, base.blockUndo(3))
}

func TestAnchorRewards(t *testing.T) {
	base := NewView(testParams())
	cache := base.NewCache()

	cache.AddRewardForAnchor(b32(0xa1), b32(0xb1))
	reward, ok := cache.RewardForAnchor(b32(0xa1))
	assert.True(t, ok)
	assert.Equal(t, b32(0xb1), reward)
	cache.Flush()

	// tombstone in the overlay shadows the flushed record
	cache = base.NewCache()
	cache.RemoveRewardForAnchor(b32(0xa1))
	_, ok = cache.RewardForAnchor(b32(0xa1))
	assert.False(t, ok)
	reward, ok = base.RewardForAnchor(b32(0xa1))
	assert.True(t, ok)
	assert.Equal(t, b32(0xb1), reward)

	cache.Flush()
	_, ok = base.RewardForAnchor(b32(0xa1))
	assert.False(t, ok)
	assert.Empty(t, base.AnchorRewards())
}

func TestIsAnchorInvolved(t *testing.T) {
	v := NewView(testParams()).NewCache()
	require.NoError(t, v.OnMasternodeCreate(b32(1), NewMasternode(addr(1), 1, addr(2), 1, 0), 0))
	v.SetLastHeight(50)

	assert.False(t, v.IsAnchorInvolved(b32(1), 50))
	v.SetTeam(Team{addr(2)})
	assert.True(t, v.IsAnchorInvolved(b32(1), 50))
	// not yet activated nodes are off duty
	assert.False(t, v.IsAnchorInvolved(b32(1), 5))
	assert.False(t, v.IsAnchorInvolved(b32(9), 50))
}
