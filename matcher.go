// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// DeltaListener receives one Delta at a time, in strictly non-decreasing
// WriteOffset order. A returned error aborts the Matcher.
type DeltaListener func(Delta) error

// Matcher is the central matching algorithm: it streams a target byte
// sequence through a rolling window, consults a BlockIndex built from the
// basis's BlockChecksums, and emits a sequence of Literal and Copy deltas
// that tile the target exactly once, with no gap or overlap.
//
// It generalizes the teacher's Sync function (gsync_client.go,
// rsync_client.go), which performs the same weak/strong lookup but reads
// fixed Config.BlockLength chunks rather than maintaining a sliding window.
// The teacher's approach only finds block-aligned matches; Matcher finds
// matches at arbitrary byte offsets, which is the whole point of the rsync
// algorithm (a single inserted byte shifting everything after it must
// still resync against the basis).
//
// A Matcher is mutable, single-owner, and stateful; it spawns no internal
// goroutines and invokes its listener synchronously inside Write/Finish.
type Matcher struct {
	cfg      *Config
	index    *BlockIndex
	listener DeltaListener

	buf   []byte
	occ   int
	count uint64
	rc    *RollingChecksum

	finished bool
}

// NewMatcher builds a Matcher over cfg, consulting index for block matches
// and invoking listener once per emitted delta.
func NewMatcher(cfg *Config, index *BlockIndex, listener DeltaListener) *Matcher {
	return &Matcher{
		cfg:      cfg,
		index:    index,
		listener: listener,
		buf:      make([]byte, 0, cfg.ChunkSize()),
		rc:       NewRollingChecksum(cfg.RollingOffset()),
	}
}

// Write feeds target bytes through the matcher, one byte at a time
// conceptually, emitting deltas as matches and buffer-full conditions are
// discovered. It returns the number of bytes consumed before any listener
// error, and that error.
func (m *Matcher) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := m.step(b); err != nil {
			return i + 1, err
		}
	}
	return len(p), nil
}

func (m *Matcher) step(b byte) error {
	blockLength := m.cfg.BlockLength()

	m.buf = append(m.buf, b)
	m.occ++
	m.count++

	if m.occ < blockLength {
		return nil
	}

	if m.occ == blockLength {
		m.rc.Check(m.buf[:m.occ])
	} else {
		m.rc.Roll(b)
	}

	window := m.buf[m.occ-blockLength : m.occ]
	loc, matched := m.probe(window, m.rc.Value())

	if matched {
		if m.occ > blockLength {
			lit := NewLiteral(cloneBytes(m.buf[:m.occ-blockLength]), m.count-uint64(m.occ))
			if err := m.emit(lit); err != nil {
				return err
			}
		}
		cp := NewCopy(loc.Offset, m.count-uint64(blockLength), uint32(blockLength))
		if err := m.emit(cp); err != nil {
			return err
		}
		m.occ = 0
		m.buf = m.buf[:0]
		return nil
	}

	if m.occ == m.cfg.ChunkSize() {
		keep := blockLength - 1
		litLen := m.occ - keep
		lit := NewLiteral(cloneBytes(m.buf[:litLen]), m.count-uint64(m.occ))
		if err := m.emit(lit); err != nil {
			return err
		}
		copy(m.buf[:keep], m.buf[litLen:m.occ])
		m.buf = m.buf[:keep]
		m.occ = keep
	}

	return nil
}

// probe consults the index, computing the expensive strong digest only
// once the weak-prefix probe indicates a plausible hit.
func (m *Matcher) probe(window []byte, weak uint32) (BlockChecksum, bool) {
	if !m.index.ContainsWeak(weak) {
		return BlockChecksum{}, false
	}
	digest := m.cfg.NewStrongDigest()
	digest.Write(window)
	strong := digest.Sum(nil)
	if max := m.cfg.StrongSumLength(); len(strong) > max {
		strong = strong[:max]
	}
	return m.index.Lookup(ChecksumPair{Weak: weak, Strong: strong})
}

// Finish performs the finalization pass: if any residue remains buffered,
// it attempts one last match against the final min(occ, block_length)
// bytes, emitting a closing literal and/or copy. Finish must be called
// exactly once, after the last Write.
func (m *Matcher) Finish() error {
	if m.finished {
		return nil
	}
	m.finished = true

	if m.occ == 0 {
		return nil
	}

	blockLength := m.cfg.BlockLength()
	n := m.occ
	if n > blockLength {
		n = blockLength
	}
	windowStart := m.occ - n
	window := m.buf[windowStart:m.occ]

	rc := NewRollingChecksum(m.cfg.RollingOffset())
	rc.Check(window)
	loc, matched := m.probe(window, rc.Value())

	if matched {
		if windowStart > 0 {
			lit := NewLiteral(cloneBytes(m.buf[:windowStart]), m.count-uint64(m.occ))
			if err := m.emit(lit); err != nil {
				return err
			}
		}
		cp := NewCopy(loc.Offset, m.count-uint64(n), uint32(n))
		if err := m.emit(cp); err != nil {
			return err
		}
	} else {
		lit := NewLiteral(cloneBytes(m.buf[:m.occ]), m.count-uint64(m.occ))
		if err := m.emit(lit); err != nil {
			return err
		}
	}

	m.occ = 0
	m.buf = m.buf[:0]
	return nil
}

func (m *Matcher) emit(d Delta) error {
	if m.listener == nil {
		return nil
	}
	if err := m.listener(d); err != nil {
		glog.Warningf("gsync: listener rejected delta at write offset %d: %v", d.WriteOffset(), err)
		return &ListenerFailure{Causes: []error{errors.Wrapf(err, "matcher listener failed at write offset %d", d.WriteOffset())}}
	}
	return nil
}

func cloneBytes(p []byte) []byte {
	out := make([]byte, len(p))
	copy(out, p)
	return out
}

// MatchBytes computes every Delta for an in-memory target in one call.
func MatchBytes(cfg *Config, index *BlockIndex, target []byte) ([]Delta, error) {
	var result []Delta
	m := NewMatcher(cfg, index, func(d Delta) error {
		result = append(result, d)
		return nil
	})
	if _, err := m.Write(target); err != nil {
		return nil, err
	}
	if err := m.Finish(); err != nil {
		return nil, err
	}
	return result, nil
}

// Match computes every Delta for a target read from r, reading in
// readChunkSize-sized chunks.
func Match(cfg *Config, index *BlockIndex, r io.Reader) ([]Delta, error) {
	var result []Delta
	m := NewMatcher(cfg, index, func(d Delta) error {
		result = append(result, d)
		return nil
	})

	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if _, werr := m.Write(chunk[:n]); werr != nil {
				return nil, werr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(ErrIOFailure, err.Error())
		}
	}
	if err := m.Finish(); err != nil {
		return nil, err
	}
	return result, nil
}
