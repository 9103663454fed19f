// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import "github.com/pkg/errors"

// History answers "what did the ledger look like at height H" by stacking
// per-height undo overlays on a root view, without mutating live state.
//
// A History is a short-lived, single-owner working set: it borrows the
// root view and is only valid while the root stays unmodified.
type History struct {
	top   *View
	diffs map[int32]*View
}

// NewHistory creates a history over the given root view.
func NewHistory(top *View) *History {
	return &History{
		top:   top,
		diffs: make(map[int32]*View),
	}
}

// Flush is forbidden: history is read-only by design.
func (h *History) Flush() {
	panic("mn: flush called on history view")
}

// State returns a view of the ledger as of targetHeight, replaying undo
// records downwards from the tip and memoizing each intermediate height.
// The returned view must be treated as read-only.
func (h *History) State(targetHeight int32) (*View, error) {
	last := h.top.LastHeight()
	if targetHeight > last {
		return nil, errors.Errorf("target height %d above tip %d", targetHeight, last)
	}
	if targetHeight < last-h.top.Params().MnHistoryFrame {
		return nil, errors.Errorf("target height %d beyond retained history", targetHeight)
	}

	state := h.top
	for height := last; height > targetHeight; height-- {
		if cached, ok := h.diffs[height-1]; ok {
			state = cached
			continue
		}
		next := state.OnUndoBlock(height)
		h.diffs[height-1] = next
		state = next
	}
	return state, nil
}
