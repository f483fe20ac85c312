// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Callers use errors.Is against these, and
// github.com/pkg/errors.Wrap/Wrapf is used at call sites to attach context
// without losing the underlying kind.
var (
	// ErrInvalidConfiguration is returned when a Config fails validation:
	// block_length <= 0, strong_sum_length exceeds the digest size, or
	// chunk_size < block_length.
	ErrInvalidConfiguration = errors.New("gsync: invalid configuration")

	// ErrBasisMissing is returned when a Copy delta is encountered but no
	// basis was provided to the rebuilder.
	ErrBasisMissing = errors.New("gsync: basis required to apply copy operation")

	// ErrBasisTooShort is returned when a Copy's old_offset+length exceeds
	// the basis length.
	ErrBasisTooShort = errors.New("gsync: basis too short for copy operation")

	// ErrSameFile is returned when an out-of-place rebuild is asked to read
	// and write the same path.
	ErrSameFile = errors.New("gsync: basis and destination are the same file")

	// ErrIOFailure wraps an underlying I/O error encountered while reading
	// the basis, reading the target, or writing the reconstructed output.
	ErrIOFailure = errors.New("gsync: I/O failure")
)

// ListenerFailure collects one or more errors raised by listener callbacks
// during a single emission cycle, so no failure is lost when a caller has
// wired up more than one consumer. It is never used for control flow; it is
// always an error value handed back to the pipeline caller.
type ListenerFailure struct {
	Causes []error
}

// NewListenerFailure builds a ListenerFailure from one or more causes. It
// returns nil if no causes are given, so callers can write:
//
//	if err := NewListenerFailure(errs...); err != nil { return err }
func NewListenerFailure(causes ...error) error {
	var nonNil []error
	for _, c := range causes {
		if c != nil {
			nonNil = append(nonNil, c)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return &ListenerFailure{Causes: nonNil}
}

func (e *ListenerFailure) Error() string {
	if len(e.Causes) == 1 {
		return fmt.Sprintf("gsync: listener failure: %v", e.Causes[0])
	}
	return fmt.Sprintf("gsync: %d listener failures, first: %v", len(e.Causes), e.Causes[0])
}

// Unwrap exposes every cause so errors.Is/errors.As traverse the whole
// chain, not just the first failure.
func (e *ListenerFailure) Unwrap() []error {
	return e.Causes
}
