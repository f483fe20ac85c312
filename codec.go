// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
)

// BlockChecksumEncoder serializes BlockChecksum records to persistent or
// on-wire form. Implementations are external collaborators keyed by Name;
// the core only requires that Encode/Decode round-trip every field exactly.
type BlockChecksumEncoder interface {
	Name() string
	Encode(BlockChecksum) error
}

// BlockChecksumDecoder is the corresponding decoder. Decode returns io.EOF
// once the source is exhausted.
type BlockChecksumDecoder interface {
	Name() string
	Decode() (BlockChecksum, error)
}

// DeltaEncoder serializes Delta records. RequiresOrder declares whether
// this particular encoding requires deltas to arrive in WriteOffset order.
type DeltaEncoder interface {
	Name() string
	RequiresOrder() bool
	Encode(Delta) error
}

// DeltaDecoder is the corresponding decoder. Decode returns io.EOF once the
// source is exhausted.
type DeltaDecoder interface {
	Name() string
	Decode() (Delta, error)
}

// gobEncodingName identifies the default codec implementation. This is an
// external-collaborator seam, so encoding/gob serves here as a faithful,
// dependency-free reference implementation of it.
const gobEncodingName = "gob"

// wireBlockChecksum is BlockChecksum's exported, gob-friendly shape.
type wireBlockChecksum struct {
	Weak   uint32
	Strong []byte
	Offset uint64
	Length uint32
	Seq    uint64
}

type gobBlockChecksumEncoder struct {
	enc *gob.Encoder
}

// NewGobBlockChecksumEncoder builds the default BlockChecksumEncoder.
func NewGobBlockChecksumEncoder(w io.Writer) BlockChecksumEncoder {
	return &gobBlockChecksumEncoder{enc: gob.NewEncoder(w)}
}

func (e *gobBlockChecksumEncoder) Name() string { return gobEncodingName }

func (e *gobBlockChecksumEncoder) Encode(bc BlockChecksum) error {
	w := wireBlockChecksum{
		Weak:   bc.Pair.Weak,
		Strong: bc.Pair.Strong,
		Offset: bc.Offset,
		Length: bc.Length,
		Seq:    bc.Seq,
	}
	if err := e.enc.Encode(&w); err != nil {
		return errors.Wrap(ErrIOFailure, err.Error())
	}
	return nil
}

type gobBlockChecksumDecoder struct {
	dec *gob.Decoder
}

// NewGobBlockChecksumDecoder builds the default BlockChecksumDecoder.
func NewGobBlockChecksumDecoder(r io.Reader) BlockChecksumDecoder {
	return &gobBlockChecksumDecoder{dec: gob.NewDecoder(r)}
}

func (d *gobBlockChecksumDecoder) Name() string { return gobEncodingName }

func (d *gobBlockChecksumDecoder) Decode() (BlockChecksum, error) {
	var w wireBlockChecksum
	if err := d.dec.Decode(&w); err != nil {
		if err == io.EOF {
			return BlockChecksum{}, io.EOF
		}
		return BlockChecksum{}, errors.Wrap(ErrIOFailure, err.Error())
	}
	return BlockChecksum{
		Pair:   ChecksumPair{Weak: w.Weak, Strong: w.Strong},
		Offset: w.Offset,
		Length: w.Length,
		Seq:    w.Seq,
	}, nil
}

// wireDelta is Delta's exported, gob-friendly shape.
type wireDelta struct {
	IsCopy      bool
	Data        []byte
	WriteOffset uint64
	OldOffset   uint64
	NewOffset   uint64
	Length      uint32
}

type gobDeltaEncoder struct {
	enc *gob.Encoder
}

// NewGobDeltaEncoder builds the default DeltaEncoder. The gob encoding does
// not require WriteOffset order; each record is independently framed.
func NewGobDeltaEncoder(w io.Writer) DeltaEncoder {
	return &gobDeltaEncoder{enc: gob.NewEncoder(w)}
}

func (e *gobDeltaEncoder) Name() string       { return gobEncodingName }
func (e *gobDeltaEncoder) RequiresOrder() bool { return false }

func (e *gobDeltaEncoder) Encode(d Delta) error {
	var w wireDelta
	if lit, ok := d.Literal(); ok {
		w = wireDelta{Data: lit.Data, WriteOffset: lit.WriteOffset}
	} else {
		cp, _ := d.Copy()
		w = wireDelta{IsCopy: true, OldOffset: cp.OldOffset, NewOffset: cp.NewOffset, Length: cp.Length}
	}
	if err := e.enc.Encode(&w); err != nil {
		return errors.Wrap(ErrIOFailure, err.Error())
	}
	return nil
}

type gobDeltaDecoder struct {
	dec *gob.Decoder
}

// NewGobDeltaDecoder builds the default DeltaDecoder.
func NewGobDeltaDecoder(r io.Reader) DeltaDecoder {
	return &gobDeltaDecoder{dec: gob.NewDecoder(r)}
}

func (d *gobDeltaDecoder) Name() string { return gobEncodingName }

func (d *gobDeltaDecoder) Decode() (Delta, error) {
	var w wireDelta
	if err := d.dec.Decode(&w); err != nil {
		if err == io.EOF {
			return Delta{}, io.EOF
		}
		return Delta{}, errors.Wrap(ErrIOFailure, err.Error())
	}
	if w.IsCopy {
		return NewCopy(w.OldOffset, w.NewOffset, w.Length), nil
	}
	return NewLiteral(w.Data, w.WriteOffset), nil
}
