// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

// rollingModulus is the modulus each 16-bit lane of the rolling checksum is
// reduced under. Grounded on the teacher's rollingHash (const mod = 1 <<
// 16) and on librsync's Rollsum, which uses the same two 16-bit lanes.
const rollingModulus = 1 << 16

// RollingChecksum is a 32-bit Adler-style checksum built from two 16-bit
// lanes a and b, with O(1) Roll and Trim updates. Grounded on the teacher's
// rollingHash/rollingHash2 pair in rsync.go and gsync.go, generalized here
// into a stateful type that remembers its window so Roll and Trim don't
// need the caller to track offsets.
//
// A RollingChecksum is mutable and single-owner: pipelines that need their
// own must construct separate instances.
type RollingChecksum struct {
	offset uint32
	a, b   uint32
	window []byte
}

// NewRollingChecksum builds a RollingChecksum with the given per-byte bias.
// Use RollingOffsetZero for the default, or RollingOffsetHistorical for the
// alternative some implementations use; both sides of a sync must agree.
func NewRollingChecksum(offset uint32) *RollingChecksum {
	return &RollingChecksum{offset: offset}
}

// Check resets the checksum and computes it from scratch over buf, storing
// a copy of buf so subsequent Roll/Trim calls have a window to slide.
func (r *RollingChecksum) Check(buf []byte) {
	r.a, r.b = 0, 0
	n := uint32(len(buf))
	for i, x := range buf {
		xo := uint32(x) + r.offset
		r.a = (r.a + xo) & (rollingModulus - 1)
		weight := n - uint32(i)
		r.b = (r.b + weight*xo) & (rollingModulus - 1)
	}
	if cap(r.window) >= len(buf) {
		r.window = r.window[:len(buf)]
	} else {
		r.window = make([]byte, len(buf))
	}
	copy(r.window, buf)
}

// Roll slides the window by one: the oldest byte is dropped and in is
// appended, with the combined value updated in O(1) rather than
// recomputed from scratch. Roll panics if the window is empty; callers
// must Check at least once first.
func (r *RollingChecksum) Roll(in byte) {
	l := uint32(len(r.window))
	out := r.window[0]
	outV := uint32(out) + r.offset
	inV := uint32(in) + r.offset

	r.a = (r.a - outV + inV) & (rollingModulus - 1)
	r.b = (r.b - l*outV + r.a) & (rollingModulus - 1)

	copy(r.window, r.window[1:])
	r.window[len(r.window)-1] = in
}

// Trim drops the oldest byte without appending a replacement, shrinking the
// window by one. Trim panics if the window is empty.
func (r *RollingChecksum) Trim() {
	l := uint32(len(r.window))
	out := r.window[0]
	outV := uint32(out) + r.offset

	r.a = (r.a - outV) & (rollingModulus - 1)
	r.b = (r.b - l*outV) & (rollingModulus - 1)

	r.window = r.window[1:]
}

// Value returns the combined 32-bit checksum: a | (b << 16).
func (r *RollingChecksum) Value() uint32 {
	return r.a | (r.b << 16)
}

// Len reports the current window length.
func (r *RollingChecksum) Len() int {
	return len(r.window)
}
