// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import "bytes"

// ChecksumPair is a weak/strong checksum pair for a block. Equality is
// componentwise; hashing a ChecksumPair (e.g. as a map key candidate) should
// use the weak half only. ChecksumPair does not carry an offset;
// BlockChecksum adds that.
type ChecksumPair struct {
	Weak   uint32
	Strong []byte
}

// Equal reports whether two ChecksumPairs are componentwise equal. Strong
// comparisons are over whatever length each pair's Strong happens to carry
// (normally both are truncated to the same strong_sum_length).
func (p ChecksumPair) Equal(other ChecksumPair) bool {
	return p.Weak == other.Weak && bytes.Equal(p.Strong, other.Strong)
}

// BlockChecksum is a ChecksumPair plus its location and size within the
// basis.
type BlockChecksum struct {
	Pair ChecksumPair
	// Offset is the byte offset in the basis where this block begins.
	Offset uint64
	// Length is the number of bytes this block covers; <= block_length,
	// and strictly less only for the final block of a basis.
	Length uint32
	// Seq is this block's zero-based sequence number.
	Seq uint64
}

// Delta is a tagged variant: exactly one of Literal or Copy is set. A
// Delta's zero value is invalid; construct with NewLiteral or NewCopy.
type Delta struct {
	literal *LiteralOp
	copy    *CopyOp
}

// LiteralOp injects Data at WriteOffset in the target.
type LiteralOp struct {
	Data        []byte
	WriteOffset uint64
}

// CopyOp copies Length bytes from the basis at OldOffset to the target at
// NewOffset.
type CopyOp struct {
	OldOffset uint64
	NewOffset uint64
	Length    uint32
}

// NewLiteral builds a Literal delta.
func NewLiteral(data []byte, writeOffset uint64) Delta {
	return Delta{literal: &LiteralOp{Data: data, WriteOffset: writeOffset}}
}

// NewCopy builds a Copy delta.
func NewCopy(oldOffset, newOffset uint64, length uint32) Delta {
	return Delta{copy: &CopyOp{OldOffset: oldOffset, NewOffset: newOffset, Length: length}}
}

// IsLiteral reports whether this delta is a Literal.
func (d Delta) IsLiteral() bool { return d.literal != nil }

// IsCopy reports whether this delta is a Copy.
func (d Delta) IsCopy() bool { return d.copy != nil }

// Literal returns the Literal payload and true, or the zero value and false
// if this delta is a Copy.
func (d Delta) Literal() (LiteralOp, bool) {
	if d.literal == nil {
		return LiteralOp{}, false
	}
	return *d.literal, true
}

// Copy returns the Copy payload and true, or the zero value and false if
// this delta is a Literal.
func (d Delta) Copy() (CopyOp, bool) {
	if d.copy == nil {
		return CopyOp{}, false
	}
	return *d.copy, true
}

// WriteOffset returns this delta's destination position in the target,
// uniformly across both constructors.
func (d Delta) WriteOffset() uint64 {
	if d.literal != nil {
		return d.literal.WriteOffset
	}
	return d.copy.NewOffset
}

// BlockLength returns the number of target bytes this delta covers,
// uniformly across both constructors.
func (d Delta) BlockLength() uint64 {
	if d.literal != nil {
		return uint64(len(d.literal.Data))
	}
	return uint64(d.copy.Length)
}
