// Copyright 2017, Kerby Shedden and the Muscato contributors.

package trie

import (
	"fmt"

	"github.com/kshedden/seqcluster/model"
)

// symByte is the inverse of symbolIndex, used when the DP recurrence
// below needs the literal trie-path character at a branch.
var symByte = [numSymbols]byte{'A', 'C', 'G', 'T', ' '}

// SearchState holds the per-worker DP-row-reuse scratch space described
// in spec.md section 4.2 ("start and trail are DP-reuse hints") and
// section 9 ("expose them as opaque per-worker search continuation
// state that the trie module owns"). One SearchState is allocated per
// worker at startup and reused for every query that worker processes,
// so Search never allocates (spec.md section 5: "the hit tower is a
// per-worker stack allocated at worker start").
//
// A SearchState is specific to one trie's length H and must not be
// shared across workers.
type SearchState struct {
	h int

	// scratch[d] is the DP row reached at trie depth d while
	// descending the current query; reused every call.
	scratch [][]int

	// cacheRow[d] / cachePath[d] are the DP row and trie node index at
	// depth d along the *previous* query's own path (i.e. following
	// the query's own bytes, not an off-path branch), valid for
	// d <= valid.
	cacheRow  [][]int
	cachePath []int32
	valid     int
}

// NewSearchState allocates search continuation state for tries of
// length h.
func NewSearchState(h int) *SearchState {
	s := &SearchState{
		h:         h,
		scratch:   make([][]int, h+1),
		cacheRow:  make([][]int, h+1),
		cachePath: make([]int32, h+1),
	}
	for d := 0; d <= h; d++ {
		s.scratch[d] = make([]int, h+1)
		s.cacheRow[d] = make([]int, h+1)
	}
	return s
}

// computeRow fills child with the DP row for one additional trie
// character c, given parent (the row at the previous depth) and the
// full query byte slice. This is the standard Levenshtein DP
// recurrence applied one trie edge at a time: child[j] is the edit
// distance between the trie path ending in c and query[0:j].
func computeRow(parent, child []int, seq []byte, c byte) {
	child[0] = parent[0] + 1
	for j := 1; j < len(child); j++ {
		del := parent[j] + 1
		ins := child[j-1] + 1
		sub := parent[j-1]
		if seq[j-1] != c {
			sub++
		}
		m := del
		if ins < m {
			m = ins
		}
		if sub < m {
			m = sub
		}
		child[j] = m
	}
}

func minRow(row []int) int {
	m := row[0]
	for _, v := range row[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Search performs the bounded-edit-distance neighborhood search
// described in spec.md section 4.2. hitTower[d] receives every
// already-committed record at edit distance exactly d, for d in
// 0..tau; callers normally only act on d in 1..tau, since d=0 would be
// an exact duplicate and the dark-terminal rule (spec.md section 3)
// prevents a record from ever matching itself this way.
//
// start and trail are the DP-reuse hints from spec.md section 4.2: the
// caller guarantees seq[0:start] equals the previous call's query
// prefix (so the row/node at depth start can be reused instead of
// recomputed from the root) and seq[0:trail] equals the next call's
// query prefix (so this call need not preserve cached state past depth
// trail). trail is only an upper bound on how far the cache gets
// extended: this trie's own content may diverge from seq before depth
// trail, in which case the cache is only ever valid up to wherever it
// actually diverged, and the next call's start hint is honored only up
// to that point.
//
// incomplete reports whether any hitTower[d] overflowed its capacity;
// per spec.md sections 4.2 and 7, this is a non-fatal condition: the
// overflowing hits beyond capacity are dropped, and the caller is
// expected to log a warning and continue.
func (t *Trie) Search(s *SearchState, seq []byte, tau int, hitTower [][]*model.Record, start, trail int) (incomplete bool, err error) {
	if len(seq) != t.h {
		return false, fmt.Errorf("trie: Search: sequence length %d != %d", len(seq), t.h)
	}
	if len(hitTower) < tau+1 {
		return false, fmt.Errorf("trie: Search: hitTower must have at least tau+1=%d slots", tau+1)
	}

	for d := range hitTower {
		hitTower[d] = hitTower[d][:0]
	}

	depth0 := 0
	if start > 0 && start <= s.valid && start <= t.h {
		depth0 = start
	}

	var row0 []int
	var node0 int32
	if depth0 > 0 {
		row0 = s.cacheRow[depth0]
		node0 = s.cachePath[depth0]
	} else {
		row0 = s.scratch[0]
		for j := 0; j <= t.h; j++ {
			row0[j] = j
		}
		node0 = t.root
	}

	copy(s.scratch[depth0], row0)
	copy(s.cacheRow[depth0], row0)
	s.cachePath[depth0] = node0

	reached := depth0
	t.descend(s, seq, tau, hitTower, depth0, node0, trail, &incomplete, &reached)

	newValid := reached
	if newValid > t.h {
		newValid = t.h
	}
	s.valid = newValid

	return incomplete, nil
}

// descend walks the trie depth-first, maintaining the DP row per
// spec.md section 4.2 and recording hits at depth t.h. reached tracks
// how deep the on-path cache (cacheRow/cachePath) was actually
// extended by this call: it only advances past a depth when the
// on-path child at that depth both exists and survives the tau prune,
// since cacheRow/cachePath are only written in that case (see the
// sym == onPathSym branch below). Search must cap s.valid at reached,
// not at the caller's trail hint, or a later call could resume from a
// cache entry that was never actually written for this trie -- stale
// zero-valued scratch, silently dropping real hits.
func (t *Trie) descend(s *SearchState, seq []byte, tau int, hitTower [][]*model.Record, depth int, nodeIdx int32, trail int, incomplete *bool, reached *int) {
	if depth == t.h {
		nd := &t.arena[nodeIdx]
		if nd.term != nil {
			d := s.scratch[depth][t.h]
			if d <= tau {
				if len(hitTower[d]) == cap(hitTower[d]) {
					*incomplete = true
				} else {
					hitTower[d] = append(hitTower[d], nd.term)
				}
			}
		}
		return
	}

	onPathSym := -1
	if depth < len(seq) {
		if sym, ok := symbolIndex(seq[depth]); ok {
			onPathSym = sym
		}
	}

	parentRow := s.scratch[depth]
	nd := &t.arena[nodeIdx]
	for sym := 0; sym < numSymbols; sym++ {
		child := nd.children[sym]
		if child == -1 {
			continue
		}
		childRow := s.scratch[depth+1]
		computeRow(parentRow, childRow, seq, symByte[sym])
		if minRow(childRow) > tau {
			continue
		}
		if sym == onPathSym && depth+1 <= trail {
			copy(s.cacheRow[depth+1], childRow)
			s.cachePath[depth+1] = child
			if depth+1 > *reached {
				*reached = depth + 1
			}
		}
		t.descend(s, seq, tau, hitTower, depth+1, child, trail, incomplete, reached)
	}
}
