// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"testing"

	"github.com/hooklift/assert"
)

func TestBlockIndexThreeStageLookup(t *testing.T) {
	idx := NewBlockIndex()

	blockA := BlockChecksum{Pair: ChecksumPair{Weak: 0x0001_ABCD, Strong: []byte{1, 2, 3}}, Offset: 0, Length: 700, Seq: 0}
	blockB := BlockChecksum{Pair: ChecksumPair{Weak: 0x0002_ABCD, Strong: []byte{4, 5, 6}}, Offset: 700, Length: 700, Seq: 1}
	idx.Insert(blockA.Pair, blockA)
	idx.Insert(blockB.Pair, blockB)

	// Stage 1: weak-prefix probe. Both blocks share the low 16 bits
	// 0xABCD, so the prefix must be found even though the full weak sums
	// differ.
	assert.Cond(t, idx.ContainsWeak(0x0001_ABCD), "expected weak prefix 0xABCD to be present")
	assert.Cond(t, !idx.ContainsWeak(0x9999_0000), "unrelated weak sum must be absent")

	// Stage 2+3: full weak match then strong confirmation.
	loc, ok := idx.Lookup(blockA.Pair)
	assert.Cond(t, ok, "expected lookup to find blockA")
	assert.Equals(t, blockA.Offset, loc.Offset)

	// A strong mismatch under a matching weak sum must miss.
	_, ok = idx.Lookup(ChecksumPair{Weak: blockA.Pair.Weak, Strong: []byte{9, 9, 9}})
	assert.Cond(t, !ok, "strong digest mismatch must not match")

	assert.Equals(t, 2, idx.Len())
}

func TestBlockIndexClear(t *testing.T) {
	idx := NewBlockIndex()
	idx.Insert(ChecksumPair{Weak: 1, Strong: []byte{1}}, BlockChecksum{})
	idx.Clear()
	assert.Equals(t, 0, idx.Len())
	assert.Cond(t, !idx.ContainsWeak(1), "cleared index must not contain stale entries")
}

func TestBlockIndexCollisionStats(t *testing.T) {
	idx := NewBlockIndex()
	idx.Insert(ChecksumPair{Weak: 100, Strong: []byte{1}}, BlockChecksum{Pair: ChecksumPair{Weak: 100, Strong: []byte{1}}})
	idx.Insert(ChecksumPair{Weak: 100, Strong: []byte{2}}, BlockChecksum{Pair: ChecksumPair{Weak: 100, Strong: []byte{2}}})
	idx.Insert(ChecksumPair{Weak: 200, Strong: []byte{3}}, BlockChecksum{Pair: ChecksumPair{Weak: 200, Strong: []byte{3}}})

	weakSums, colliding := idx.CollisionStats()
	assert.Equals(t, 2, weakSums)
	assert.Equals(t, 1, colliding)
}

func TestBuildIndexFromGenerator(t *testing.T) {
	cfg, err := NewConfig(WithBlockLength(8))
	assert.Ok(t, err)

	basis := []byte("aaaaaaaabbbbbbbbcccccccc")
	checksums, err := GenerateBytes(cfg, basis, 0)
	assert.Ok(t, err)
	assert.Equals(t, 3, len(checksums))

	idx := BuildIndex(checksums)
	assert.Equals(t, 3, idx.Len())

	loc, ok := idx.Lookup(checksums[1].Pair)
	assert.Cond(t, ok, "expected to find the middle block")
	assert.Equals(t, uint64(8), loc.Offset)
}
