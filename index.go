// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"bytes"

	"github.com/golang/glog"
)

// blockEntry is one (strong, location) pair stored under a weak-sum bucket.
type blockEntry struct {
	strong   []byte
	location BlockChecksum
}

// BlockIndex is a two-key probabilistic index from (weak, strong) to block
// location: a map keyed by the 32-bit weak sum, each entry holding a small
// ordered collection keyed by strong digest. It generalizes the teacher's
// map[uint32][]BlockChecksum lookup table (gsync_client.go's LookUpTable,
// rsync_client.go's inline map build) into a three-stage lookup discipline:
// weak-prefix probe, full weak match, strong confirmation.
//
// A BlockIndex is mutable and single-owner; it is built once from a
// Generator's output and handed to a Matcher, then discarded.
type BlockIndex struct {
	// buckets is keyed by the low 16 bits of the weak sum, so the
	// weak-prefix probe (stage 1) is an O(1) map lookup whose miss
	// definitively establishes absence without ever touching a full 32-bit
	// comparison or a strong digest.
	buckets map[uint16][]blockEntry
	count   int
}

// NewBlockIndex builds an empty index.
func NewBlockIndex() *BlockIndex {
	return &BlockIndex{buckets: make(map[uint16][]blockEntry)}
}

// BuildIndex inserts every given BlockChecksum into a fresh BlockIndex. This
// is the usual way a Matcher's index is constructed: Generator(B) produces
// the checksums, BuildIndex turns them into a lookup structure.
func BuildIndex(checksums []BlockChecksum) *BlockIndex {
	idx := NewBlockIndex()
	for _, bc := range checksums {
		idx.Insert(bc.Pair, bc)
	}
	return idx
}

// Insert adds a block location under its (weak, strong) pair. Insertion
// order is irrelevant; when multiple basis blocks share a pair, Lookup's
// contract only guarantees the bytes are byte-identical, not which
// location wins.
func (idx *BlockIndex) Insert(pair ChecksumPair, location BlockChecksum) {
	for _, e := range idx.candidates(pair.Weak) {
		if !bytes.Equal(e.strong, pair.Strong) {
			glog.Warningf("gsync: weak sum %d collides across distinct strong digests (block at offset %d vs %d)",
				pair.Weak, location.Offset, e.location.Offset)
			break
		}
	}
	prefix := uint16(pair.Weak)
	idx.buckets[prefix] = append(idx.buckets[prefix], blockEntry{strong: pair.Strong, location: location})
	idx.count++
}

// ContainsWeak is the weak-prefix probe (stage 1): it tests only whether
// the low 16 bits of weak have any associated entry. A false return is
// definitive absence; a true return means stage 2 (full weak comparison)
// is worth attempting.
func (idx *BlockIndex) ContainsWeak(weak uint32) bool {
	_, ok := idx.buckets[uint16(weak)]
	return ok
}

// candidates returns every entry whose full 32-bit weak sum matches
// (stage 2), without yet touching a strong digest.
func (idx *BlockIndex) candidates(weak uint32) []blockEntry {
	bucket := idx.buckets[uint16(weak)]
	if len(bucket) == 0 {
		return nil
	}
	var out []blockEntry
	for _, e := range bucket {
		if e.location.Pair.Weak == weak {
			out = append(out, e)
		}
	}
	return out
}

// Lookup performs the full three-stage discipline: weak-prefix probe, full
// weak match, then strong confirmation against pair.Strong. It returns the
// matched block location and true, or the zero value and false.
//
// The expensive strong digest is never computed by Lookup itself: the
// caller (Matcher) only calls Lookup once it already has the strong digest
// of its current window in hand, computed lazily only when the weak probe
// indicates a likely hit.
func (idx *BlockIndex) Lookup(pair ChecksumPair) (BlockChecksum, bool) {
	for _, e := range idx.candidates(pair.Weak) {
		if bytes.Equal(e.strong, pair.Strong) {
			return e.location, true
		}
	}
	return BlockChecksum{}, false
}

// Clear empties the index.
func (idx *BlockIndex) Clear() {
	idx.buckets = make(map[uint16][]blockEntry)
	idx.count = 0
}

// Len returns the number of entries inserted.
func (idx *BlockIndex) Len() int {
	return idx.count
}

// CollisionStats reports how many distinct full 32-bit weak sums are stored
// under the index, and how many of those weak sums hold more than one
// distinct strong digest (a true hash collision requiring strong-digest
// disambiguation).
func (idx *BlockIndex) CollisionStats() (weakSums int, collidingWeakSums int) {
	seen := make(map[uint32]map[string]struct{})
	for _, bucket := range idx.buckets {
		for _, e := range bucket {
			strongs, ok := seen[e.location.Pair.Weak]
			if !ok {
				strongs = make(map[string]struct{})
				seen[e.location.Pair.Weak] = strongs
			}
			strongs[string(e.strong)] = struct{}{}
		}
	}
	for _, strongs := range seen {
		weakSums++
		if len(strongs) > 1 {
			collidingWeakSums++
		}
	}
	return weakSums, collidingWeakSums
}
