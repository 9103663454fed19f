// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import "github.com/amadeobrands/ain/metrics"

var (
	metricViewFlush      = metrics.LazyLoadCounter("view_flush_count")
	metricBlockUndo      = metrics.LazyLoadCounter("block_undo_count")
	metricCriminalProofs = metrics.LazyLoadCounter("criminal_proof_count")
	metricRegistrySize   = metrics.LazyLoadGauge("registry_size_gauge")
	metricStoreCommit    = metrics.LazyLoadCounterVec("store_commit_count", []string{"result"})
)
