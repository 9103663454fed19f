// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import (
	"encoding/binary"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/amadeobrands/ain/ain"
	"github.com/amadeobrands/ain/block"
	"github.com/amadeobrands/ain/kv"
)

// Key spaces of the masternode column family. Auth indexes are not
// persisted; they are rebuilt from the node records on load.
const (
	bucketMasternodes  kv.Bucket = "M"
	bucketCriminals    kv.Bucket = "C"
	bucketRewards      kv.Bucket = "A"
	bucketUndo         kv.Bucket = "U"
	bucketScalars      kv.Bucket = "S"
	bucketMintedHeader kv.Bucket = "h"
	bucketCriminalRaw  kv.Bucket = "c"
)

var (
	keyLastHeight      = []byte("lastHeight")
	keyTeam            = []byte("team")
	keyFoundationsDebt = []byte("foundationsDebt")
)

const mintedHeaderCacheSize = 512

// Store binds a base view to durable key-value storage. All on-chain state
// goes through Commit (the cache-then-flush write path); off-chain data
// (minted headers, raw criminal records) is written through immediately and
// reversed by explicit erase calls instead of the undo log.
type Store struct {
	store  kv.Store
	params *ain.Params

	mintedHeaders *lru.Cache // (nodeID, mintedBlocks) -> map[hash]*block.Header
}

// NewStore creates a store over the given kv store.
func NewStore(store kv.Store, params *ain.Params) *Store {
	cache, _ := lru.New(mintedHeaderCacheSize)
	return &Store{
		store:         store,
		params:        params,
		mintedHeaders: cache,
	}
}

// undoItem is the storage form of one undo entry.
type undoItem struct {
	Txn    uint32
	NodeID ain.Bytes32
	TxType byte
}

// Load reads the whole ledger into a fresh base view.
func (s *Store) Load() (*View, error) {
	v := NewView(s.params)

	if err := s.iterate(bucketMasternodes, func(key, val []byte) error {
		var node Masternode
		if err := rlp.DecodeBytes(val, &node); err != nil {
			return err
		}
		id := ain.BytesToBytes32(key)
		v.nodes[id] = &node
		idCpy := id
		v.byOwner[node.OwnerAuthAddress] = &idCpy
		v.byOperator[node.OperatorAuthAddress] = &idCpy
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "load masternodes")
	}

	if err := s.iterate(bucketCriminals, func(key, val []byte) error {
		var fact DoubleSignFact
		if err := rlp.DecodeBytes(val, &fact); err != nil {
			return err
		}
		v.criminals[ain.BytesToBytes32(key)] = &fact
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "load criminal proofs")
	}

	if err := s.iterate(bucketRewards, func(key, val []byte) error {
		reward := ain.BytesToBytes32(val)
		v.rewards[ain.BytesToBytes32(key)] = &reward
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "load anchor rewards")
	}

	if err := s.iterate(bucketUndo, func(key, val []byte) error {
		var items []undoItem
		if err := rlp.DecodeBytes(val, &items); err != nil {
			return err
		}
		blockUndo := make(BlockUndo, len(items))
		for _, item := range items {
			blockUndo[int32(item.Txn)] = UndoEntry{NodeID: item.NodeID, TxType: TxType(item.TxType)}
		}
		v.undo[int32(binary.BigEndian.Uint32(key))] = blockUndo
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "load undo records")
	}

	scalars := bucketScalars.NewGetter(s.store)
	if val, err := scalars.Get(keyLastHeight); err == nil {
		v.lastHeight = int32(binary.BigEndian.Uint32(val))
	} else if !scalars.IsNotFound(err) {
		return nil, errors.Wrap(err, "load last height")
	}
	if val, err := scalars.Get(keyTeam); err == nil {
		var team []ain.Address
		if err := rlp.DecodeBytes(val, &team); err != nil {
			return nil, errors.Wrap(err, "load team")
		}
		v.team = sortedTeam(team)
	} else if !scalars.IsNotFound(err) {
		return nil, errors.Wrap(err, "load team")
	}
	if val, err := scalars.Get(keyFoundationsDebt); err == nil {
		v.foundationsDebt = int64(binary.BigEndian.Uint64(val))
	} else if !scalars.IsNotFound(err) {
		return nil, errors.Wrap(err, "load foundations debt")
	}

	metricRegistrySize().Set(int64(len(v.nodes)))
	logger.Info("masternode registry loaded", "nodes", len(v.nodes), "height", v.lastHeight)
	return v, nil
}

// Commit writes an overlay's deltas through to storage in one batch, then
// flushes the overlay into the base. The overlay must sit directly on the
// base view.
func (s *Store) Commit(cache *View) error {
	if cache.parent == nil || cache.parent.parent != nil {
		panic("mn: commit requires an overlay directly on the base view")
	}

	batch := s.store.NewBatch()

	nodes := bucketMasternodes.NewPutter(batch)
	for id, node := range cache.nodes {
		if node == nil {
			if err := nodes.Delete(id.Bytes()); err != nil {
				return err
			}
			continue
		}
		val, err := rlp.EncodeToBytes(node)
		if err != nil {
			return err
		}
		if err := nodes.Put(id.Bytes(), val); err != nil {
			return err
		}
	}

	criminals := bucketCriminals.NewPutter(batch)
	for id, fact := range cache.criminals {
		if fact == nil {
			if err := criminals.Delete(id.Bytes()); err != nil {
				return err
			}
			continue
		}
		val, err := rlp.EncodeToBytes(fact)
		if err != nil {
			return err
		}
		if err := criminals.Put(id.Bytes(), val); err != nil {
			return err
		}
	}

	rewards := bucketRewards.NewPutter(batch)
	for btcTx, reward := range cache.rewards {
		if reward == nil {
			if err := rewards.Delete(btcTx.Bytes()); err != nil {
				return err
			}
			continue
		}
		if err := rewards.Put(btcTx.Bytes(), reward.Bytes()); err != nil {
			return err
		}
	}

	undo := bucketUndo.NewPutter(batch)
	for height, blockUndo := range cache.undo {
		if blockUndo == nil {
			if err := undo.Delete(heightKey(height)); err != nil {
				return err
			}
			continue
		}
		items := make([]undoItem, 0, len(blockUndo))
		for txn, entry := range blockUndo {
			items = append(items, undoItem{Txn: uint32(txn), NodeID: entry.NodeID, TxType: byte(entry.TxType)})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Txn < items[j].Txn })
		val, err := rlp.EncodeToBytes(items)
		if err != nil {
			return err
		}
		if err := undo.Put(heightKey(height), val); err != nil {
			return err
		}
	}

	scalars := bucketScalars.NewPutter(batch)
	if err := scalars.Put(keyLastHeight, heightKey(cache.lastHeight)); err != nil {
		return err
	}
	team, err := rlp.EncodeToBytes([]ain.Address(cache.CurrentTeam()))
	if err != nil {
		return err
	}
	if err := scalars.Put(keyTeam, team); err != nil {
		return err
	}
	var debt [8]byte
	binary.BigEndian.PutUint64(debt[:], uint64(cache.foundationsDebt))
	if err := scalars.Put(keyFoundationsDebt, debt[:]); err != nil {
		return err
	}

	if err := batch.Write(); err != nil {
		metricStoreCommit().AddWithLabel(1, map[string]string{"result": "error"})
		return errors.Wrap(err, "commit masternode batch")
	}

	cache.Flush()
	metricStoreCommit().AddWithLabel(1, map[string]string{"result": "ok"})
	metricRegistrySize().Set(int64(len(cache.parent.nodes)))
	return nil
}

// PruneOlder erases undo records strictly older than height, in storage
// and in the given base view.
func (s *Store) PruneOlder(v *View, height int32) error {
	iter := bucketUndo.NewStore(s.store).NewIterator(kv.Range{Limit: heightKey(height)})
	defer iter.Release()

	batch := s.store.NewBatch()
	undo := bucketUndo.NewPutter(batch)
	for iter.Next() {
		if err := undo.Delete(append([]byte(nil), iter.Key()...)); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return errors.Wrap(err, "prune undo records")
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "prune undo records")
	}
	v.PruneOlder(height)
	return nil
}

// WriteMintedHeader stores a minted block header off-chain, keyed by the
// node, its minted counter and the header hash. Not subject to undo.
func (s *Store) WriteMintedHeader(nodeID ain.Bytes32, mintedBlocks uint32, hash ain.Bytes32, header *block.Header) error {
	val, err := rlp.EncodeToBytes(header)
	if err != nil {
		return err
	}
	if err := bucketMintedHeader.NewPutter(s.store).Put(mintedHeaderKey(nodeID, mintedBlocks, hash), val); err != nil {
		return errors.Wrap(err, "write minted header")
	}
	s.mintedHeaders.Remove(mintedHeaderGroup(nodeID, mintedBlocks))
	return nil
}

// FetchMintedHeaders returns all headers recorded for the node at the
// given minted counter, keyed by header hash.
func (s *Store) FetchMintedHeaders(nodeID ain.Bytes32, mintedBlocks uint32) (map[ain.Bytes32]*block.Header, error) {
	group := mintedHeaderGroup(nodeID, mintedBlocks)
	if cached, ok := s.mintedHeaders.Get(group); ok {
		return cached.(map[ain.Bytes32]*block.Header), nil
	}

	prefix := []byte(group)
	headers := make(map[ain.Bytes32]*block.Header)
	iter := bucketMintedHeader.NewStore(s.store).NewIterator(prefixRange(prefix))
	defer iter.Release()
	for iter.Next() {
		var header block.Header
		if err := rlp.DecodeBytes(iter.Value(), &header); err != nil {
			return nil, err
		}
		headers[ain.BytesToBytes32(iter.Key()[len(prefix):])] = &header
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "fetch minted headers")
	}
	s.mintedHeaders.Add(group, headers)
	return headers, nil
}

// EraseMintedHeader removes a minted header record on block disconnect.
func (s *Store) EraseMintedHeader(nodeID ain.Bytes32, mintedBlocks uint32, hash ain.Bytes32) error {
	if err := bucketMintedHeader.NewPutter(s.store).Delete(mintedHeaderKey(nodeID, mintedBlocks, hash)); err != nil {
		return errors.Wrap(err, "erase minted header")
	}
	s.mintedHeaders.Remove(mintedHeaderGroup(nodeID, mintedBlocks))
	return nil
}

// WriteCriminal stores a raw double-sign record off-chain, immediately.
func (s *Store) WriteCriminal(nodeID ain.Bytes32, fact *DoubleSignFact) error {
	val, err := rlp.EncodeToBytes(fact)
	if err != nil {
		return err
	}
	return errors.Wrap(bucketCriminalRaw.NewPutter(s.store).Put(nodeID.Bytes(), val), "write criminal record")
}

// EraseCriminal removes a raw double-sign record.
func (s *Store) EraseCriminal(nodeID ain.Bytes32) error {
	return errors.Wrap(bucketCriminalRaw.NewPutter(s.store).Delete(nodeID.Bytes()), "erase criminal record")
}

func (s *Store) iterate(bucket kv.Bucket, fn func(key, val []byte) error) error {
	iter := bucket.NewStore(s.store).NewIterator(kv.Range{})
	defer iter.Release()
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func heightKey(height int32) []byte {
	var key [4]byte
	binary.BigEndian.PutUint32(key[:], uint32(height))
	return key[:]
}

func mintedHeaderGroup(nodeID ain.Bytes32, mintedBlocks uint32) string {
	var key [36]byte
	copy(key[:], nodeID[:])
	binary.BigEndian.PutUint32(key[32:], mintedBlocks)
	return string(key[:])
}

func mintedHeaderKey(nodeID ain.Bytes32, mintedBlocks uint32, hash ain.Bytes32) []byte {
	return append([]byte(mintedHeaderGroup(nodeID, mintedBlocks)), hash[:]...)
}

func prefixRange(prefix []byte) kv.Range {
	limit := append([]byte(nil), prefix...)
	for i := len(limit) - 1; i >= 0; i-- {
		limit[i]++
		if limit[i] != 0 {
			return kv.Range{Start: prefix, Limit: limit[:i+1]}
		}
	}
	return kv.Range{Start: prefix}
}
