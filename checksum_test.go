// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"math/rand"
	"testing"

	"github.com/hooklift/assert"
)

// TestRollingChecksumSoundness verifies that rolling a checksum byte-by-byte
// agrees with recomputing it from scratch over the same window, for every
// window position in a random byte sequence. Grounded on the teacher's
// TestRollingHash (gsync_test.go), generalized from a single fixed example
// into a property check across many windows.
func TestRollingChecksumSoundness(t *testing.T) {
	src := rand.New(rand.NewSource(42))
	data := make([]byte, 5000)
	src.Read(data)

	const blockLength = 700
	rc := NewRollingChecksum(RollingOffsetZero)
	rc.Check(data[0:blockLength])

	for k := 1; k+blockLength <= len(data); k++ {
		rc.Roll(data[k+blockLength-1])

		fresh := NewRollingChecksum(RollingOffsetZero)
		fresh.Check(data[k : k+blockLength])

		assert.Equals(t, fresh.Value(), rc.Value())
	}
}

// TestRollingChecksumHistoricalOffset repeats the soundness check with the
// alternative OFFSET=31 bias, confirming the identity holds regardless of
// which bias both sides agreed on.
func TestRollingChecksumHistoricalOffset(t *testing.T) {
	src := rand.New(rand.NewSource(7))
	data := make([]byte, 2000)
	src.Read(data)

	const blockLength = 256
	rc := NewRollingChecksum(RollingOffsetHistorical)
	rc.Check(data[0:blockLength])

	for k := 1; k+blockLength <= len(data); k++ {
		rc.Roll(data[k+blockLength-1])

		fresh := NewRollingChecksum(RollingOffsetHistorical)
		fresh.Check(data[k : k+blockLength])

		assert.Equals(t, fresh.Value(), rc.Value())
	}
}

// TestRollingChecksumTrim verifies that check(S[0..n]) followed by trim()
// equals check(S[1..n]).
func TestRollingChecksumTrim(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	rc := NewRollingChecksum(RollingOffsetZero)
	rc.Check(data)
	rc.Trim()

	fresh := NewRollingChecksum(RollingOffsetZero)
	fresh.Check(data[1:])

	assert.Equals(t, fresh.Value(), rc.Value())
	assert.Equals(t, len(data)-1, rc.Len())
}

// TestRollingChecksumKnownValue pins the weak checksum of a fixed string to
// a concrete value so a future change to the formula is caught even if the
// property tests above still pass by coincidence.
func TestRollingChecksumKnownValue(t *testing.T) {
	rc := NewRollingChecksum(RollingOffsetZero)
	rc.Check([]byte("abcd"))

	var a, b uint32
	block := []byte("abcd")
	n := uint32(len(block))
	for i, x := range block {
		a += uint32(x)
		b += (n - uint32(i)) * uint32(x)
	}
	want := (a % rollingModulus) | ((b % rollingModulus) << 16)

	assert.Equals(t, want, rc.Value())
}
