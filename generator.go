// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// readChunkSize is how much the convenience Generate function reads from an
// io.Reader per call; it has no bearing on block boundaries, only on I/O
// granularity.
const readChunkSize = 32 * 1024

// BlockChecksumListener receives one BlockChecksum per basis block, in
// ascending Seq order. A returned error aborts the Generator.
type BlockChecksumListener func(BlockChecksum) error

// Generator partitions a basis byte stream into consecutive blocks of
// Config.BlockLength (the last block may be shorter, minimum length 1) and
// produces a BlockChecksum for each. It is a streaming, single-owner,
// stateful object: feed it bytes via Write, call Finish once the basis is
// exhausted. Grounded on the teacher's Signatures function in
// gsync_server.go, generalized from a goroutine-and-channel design into a
// synchronous push API: no internal goroutines, listeners invoked
// synchronously inside Write/Finish.
type Generator struct {
	cfg        *Config
	listener   BlockChecksumListener
	buf        []byte
	seq        uint64
	baseOffset uint64
}

// NewGenerator builds a Generator over cfg, placing the first block at
// baseOffset (normally 0) with Seq 0, invoking listener once per completed
// block.
func NewGenerator(cfg *Config, baseOffset uint64, listener BlockChecksumListener) *Generator {
	return &Generator{
		cfg:        cfg,
		listener:   listener,
		buf:        make([]byte, 0, cfg.BlockLength()),
		baseOffset: baseOffset,
	}
}

// Write buffers p, emitting one BlockChecksum via the listener each time the
// buffer reaches Config.BlockLength bytes. It always consumes all of p
// (returning len(p), nil) unless a listener returns an error, mirroring
// io.Writer semantics.
func (g *Generator) Write(p []byte) (int, error) {
	written := 0
	blockLength := g.cfg.BlockLength()
	for len(p) > 0 {
		need := blockLength - len(g.buf)
		if need > len(p) {
			need = len(p)
		}
		g.buf = append(g.buf, p[:need]...)
		p = p[need:]
		written += need

		if len(g.buf) == blockLength {
			if err := g.emit(g.buf); err != nil {
				return written, err
			}
			g.buf = g.buf[:0]
		}
	}
	return written, nil
}

// Finish flushes any residual bytes (fewer than Config.BlockLength) as a
// final, possibly-short block. It must be called exactly once, after the
// last Write.
func (g *Generator) Finish() error {
	if len(g.buf) == 0 {
		return nil
	}
	if len(g.buf) < g.cfg.BlockLength() {
		glog.V(1).Infof("gsync: final basis block at seq %d is short (%d of %d bytes)", g.seq, len(g.buf), g.cfg.BlockLength())
	}
	if err := g.emit(g.buf); err != nil {
		return err
	}
	g.buf = g.buf[:0]
	return nil
}

func (g *Generator) emit(block []byte) error {
	rc := NewRollingChecksum(g.cfg.RollingOffset())
	rc.Check(block)

	digest := g.cfg.NewStrongDigest()
	digest.Write(block)
	strong := digest.Sum(nil)
	if max := g.cfg.StrongSumLength(); len(strong) > max {
		strong = strong[:max]
	}

	bc := BlockChecksum{
		Pair:   ChecksumPair{Weak: rc.Value(), Strong: strong},
		Offset: g.baseOffset + g.seq*uint64(g.cfg.BlockLength()),
		Length: uint32(len(block)),
		Seq:    g.seq,
	}
	g.seq++

	if g.listener == nil {
		return nil
	}
	if err := g.listener(bc); err != nil {
		glog.Warningf("gsync: listener rejected block checksum at seq %d offset %d: %v", bc.Seq, bc.Offset, err)
		return &ListenerFailure{Causes: []error{errors.Wrapf(err, "generator listener failed at seq %d", bc.Seq)}}
	}
	return nil
}

// GenerateBytes computes every BlockChecksum for an in-memory basis in one
// call. Feeding the same basis byte-by-byte, in arbitrary chunks, or all at
// once always produces the same BlockChecksum sequence.
func GenerateBytes(cfg *Config, basis []byte, baseOffset uint64) ([]BlockChecksum, error) {
	var result []BlockChecksum
	g := NewGenerator(cfg, baseOffset, func(bc BlockChecksum) error {
		result = append(result, bc)
		return nil
	})
	if _, err := g.Write(basis); err != nil {
		return nil, err
	}
	if err := g.Finish(); err != nil {
		return nil, err
	}
	return result, nil
}

// Generate computes every BlockChecksum for a basis read from r, reading in
// readChunkSize-sized chunks regardless of block size.
func Generate(cfg *Config, r io.Reader, baseOffset uint64) ([]BlockChecksum, error) {
	var result []BlockChecksum
	g := NewGenerator(cfg, baseOffset, func(bc BlockChecksum) error {
		result = append(result, bc)
		return nil
	})

	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if _, werr := g.Write(chunk[:n]); werr != nil {
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
	if err := g.Finish(); err != nil {
		return nil, err
	}
	return result, nil
}
