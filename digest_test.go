// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"bytes"
	"testing"

	"github.com/hooklift/assert"
)

// TestStrongDigestsAreDeterministicAndDistinct exercises every registered
// algorithm, confirming each is deterministic and that changing a single
// byte changes the digest (the minimum bar for a usable strong digest).
func TestStrongDigestsAreDeterministicAndDistinct(t *testing.T) {
	factories := map[string]DigestFactory{
		"md5":     NewMD5Digest,
		"md4":     NewMD4Digest,
		"sha256":  NewSHA256Digest,
		"murmur3": NewMurmur3Digest,
		"xxh3":    NewXXH3Digest,
	}

	block := []byte("the quick brown fox jumps over the lazy dog")
	altered := append(append([]byte{}, block...))
	altered[0] ^= 0xff

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			d1 := factory()
			d1.Write(block)
			sum1 := d1.Sum(nil)

			d2 := factory()
			d2.Write(block)
			sum2 := d2.Sum(nil)
			assert.Cond(t, bytes.Equal(sum1, sum2), name+": digest must be deterministic")

			d3 := factory()
			d3.Write(altered)
			sum3 := d3.Sum(nil)
			assert.Cond(t, !bytes.Equal(sum1, sum3), name+": digest must change with input")
		})
	}
}

// TestSeededDigestPrefixVsSuffix verifies that a configured checksum_seed is
// mixed in as a prefix or suffix of the digested bytes, and the two
// placements produce different digests for the same data.
func TestSeededDigestPrefixVsSuffix(t *testing.T) {
	seed := []byte("shared-seed")
	block := []byte("payload")

	prefix := newSeededDigest(NewMD5Digest(), seed, true)
	prefix.Write(block)
	prefixSum := prefix.Sum(nil)

	suffix := newSeededDigest(NewMD5Digest(), seed, false)
	suffix.Write(block)
	suffixSum := suffix.Sum(nil)

	assert.Cond(t, !bytes.Equal(prefixSum, suffixSum), "prefix and suffix seeding must differ")

	// Cross-check against directly digesting the concatenation.
	direct := NewMD5Digest()
	direct.Write(seed)
	direct.Write(block)
	assert.Equals(t, direct.Sum(nil), prefixSum)

	direct2 := NewMD5Digest()
	direct2.Write(block)
	direct2.Write(seed)
	assert.Equals(t, direct2.Sum(nil), suffixSum)
}

// TestSeededDigestResetRebuffers confirms Reset clears the buffered bytes
// so a reused digest doesn't leak data across blocks.
func TestSeededDigestResetRebuffers(t *testing.T) {
	d := newSeededDigest(NewMD5Digest(), []byte("seed"), true)
	d.Write([]byte("first"))
	firstSum := d.Sum(nil)

	d.Reset()
	d.Write([]byte("first"))
	secondSum := d.Sum(nil)

	assert.Equals(t, firstSum, secondSum)
}
