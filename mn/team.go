// Copyright (c) 2020 The AIN developers

// Distributed under the MIT software license, see the accompanying
// file LICENSE or <https://www.opensource.org/licenses/mit-license.php>

package mn

import (
	"bytes"
	"sort"

	"github.com/amadeobrands/ain/ain"
)

// Team is the active anchor signer set: operator auth addresses, kept
// sorted ascending.
type Team []ain.Address

// Has reports whether the team contains the given operator address.
func (t Team) Has(operator ain.Address) bool {
	i := sort.Search(len(t), func(i int) bool {
		return bytes.Compare(t[i][:], operator[:]) >= 0
	})
	return i < len(t) && t[i] == operator
}

func sortedTeam(members []ain.Address) Team {
	team := append(Team(nil), members...)
	sort.Slice(team, func(i, j int) bool {
		return bytes.Compare(team[i][:], team[j][:]) < 0
	})
	return team
}

// SetTeam replaces the current team.
func (v *View) SetTeam(newTeam Team) {
	v.team = sortedTeam(newTeam)
}

// CurrentTeam returns a copy of the current team.
func (v *View) CurrentTeam() Team {
	return append(Team(nil), v.team...)
}

// CalcNextTeam deterministically selects the next team from all enabled
// masternodes: each candidate is weighed by blake2b(stakeModifier ||
// operator) and the lowest weights win, ties broken by ascending operator
// address. nodes may be passed to reuse an already materialized registry;
// nil means materialize from this view.
func (v *View) CalcNextTeam(stakeModifier ain.Bytes32, nodes map[ain.Bytes32]Masternode) Team {
	if stakeModifier.IsZero() {
		return v.CurrentTeam()
	}
	if nodes == nil {
		nodes = v.Masternodes()
	}

	type candidate struct {
		weight   ain.Bytes32
		operator ain.Address
	}
	candidates := make([]candidate, 0, len(nodes))
	for _, node := range nodes {
		if node.State(v.lastHeight, v.params) != StateEnabled {
			continue
		}
		candidates = append(candidates, candidate{
			weight:   ain.Blake2b(stakeModifier[:], node.OperatorAuthAddress[:]),
			operator: node.OperatorAuthAddress,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if c := bytes.Compare(candidates[i].weight[:], candidates[j].weight[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(candidates[i].operator[:], candidates[j].operator[:]) < 0
	})

	size := v.params.AnchoringTeamSize
	if size > len(candidates) {
		size = len(candidates)
	}
	members := make([]ain.Address, 0, size)
	for _, c := range candidates[:size] {
		members = append(members, c.operator)
	}
	return sortedTeam(members)
}
