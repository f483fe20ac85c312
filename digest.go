// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"crypto/md5"

	"github.com/huichen/murmur"
	sha256simd "github.com/minio/sha256-simd"
	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/md4"
)

// StrongDigest is the capability interface a cryptographic (or
// non-cryptographic) block digest must satisfy. It mirrors hash.Hash
// closely enough that stdlib and third-party hash.Hash implementations plug
// in directly.
type StrongDigest interface {
	Reset()
	Write(p []byte) (int, error)
	Sum(b []byte) []byte
	Size() int
}

// DigestFactory constructs a fresh, reset StrongDigest instance. Factories
// are how a caller selects a concrete algorithm without the core doing any
// runtime class-loading or registration lookup.
type DigestFactory func() StrongDigest

// NewMD5Digest builds the MD5 strong digest, the teacher's default
// (gsync_server.go, gsync_client.go).
func NewMD5Digest() StrongDigest {
	return md5.New()
}

// NewMD4Digest builds the MD4 strong digest, an alternative to MD5.
func NewMD4Digest() StrongDigest {
	return md4.New()
}

// NewSHA256Digest builds a SIMD-accelerated SHA-256 strong digest, promoting
// the teacher's indirect github.com/minio/sha256-simd dependency to direct
// use.
func NewSHA256Digest() StrongDigest {
	return sha256simd.New()
}

// murmur3Digest adapts github.com/huichen/murmur, which exposes a one-shot
// Murmur3(data []byte) uint32 function rather than a hash.Hash, into the
// StrongDigest capability interface. Grounded on the teacher's sibling
// package rsync_client.go, which calls murmur.Murmur3 directly against
// whole blocks.
type murmur3Digest struct {
	buf []byte
}

// NewMurmur3Digest builds a non-cryptographic Murmur3 strong digest, as used
// by the teacher's rsync_client.go.
func NewMurmur3Digest() StrongDigest {
	return &murmur3Digest{}
}

func (m *murmur3Digest) Reset() { m.buf = m.buf[:0] }

func (m *murmur3Digest) Write(p []byte) (int, error) {
	m.buf = append(m.buf, p...)
	return len(p), nil
}

func (m *murmur3Digest) Size() int { return 4 }

func (m *murmur3Digest) Sum(b []byte) []byte {
	sum := murmur.Murmur3(m.buf)
	return append(b, byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))
}

// xxh3Digest adapts github.com/zeebo/xxh3's one-shot Hash function into the
// StrongDigest capability interface: an interchangeable, non-cryptographic
// 64-bit variant (xxHash-style) that both sides of a sync must configure
// explicitly.
type xxh3Digest struct {
	buf []byte
}

// NewXXH3Digest builds a non-cryptographic 64-bit XXH3 strong digest.
func NewXXH3Digest() StrongDigest {
	return &xxh3Digest{}
}

func (x *xxh3Digest) Reset() { x.buf = x.buf[:0] }

func (x *xxh3Digest) Write(p []byte) (int, error) {
	x.buf = append(x.buf, p...)
	return len(p), nil
}

func (x *xxh3Digest) Size() int { return 8 }

func (x *xxh3Digest) Sum(b []byte) []byte {
	sum := xxh3.Hash(x.buf)
	return append(b,
		byte(sum>>56), byte(sum>>48), byte(sum>>40), byte(sum>>32),
		byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))
}

// seededDigest wraps a StrongDigest so that every Sum mixes in the
// configured checksum_seed, either as a prefix or a suffix of the digested
// bytes. It buffers written bytes so the seed can be placed before them
// without requiring the wrapped algorithm to support prepending after the
// fact.
type seededDigest struct {
	inner        StrongDigest
	seed         []byte
	seedIsPrefix bool
	buf          []byte
}

func newSeededDigest(inner StrongDigest, seed []byte, seedIsPrefix bool) StrongDigest {
	if len(seed) == 0 {
		return inner
	}
	return &seededDigest{inner: inner, seed: seed, seedIsPrefix: seedIsPrefix}
}

func (s *seededDigest) Reset() {
	s.inner.Reset()
	s.buf = s.buf[:0]
}

func (s *seededDigest) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *seededDigest) Size() int { return s.inner.Size() }

func (s *seededDigest) Sum(b []byte) []byte {
	s.inner.Reset()
	if s.seedIsPrefix {
		s.inner.Write(s.seed)
		s.inner.Write(s.buf)
	} else {
		s.inner.Write(s.buf)
		s.inner.Write(s.seed)
	}
	return s.inner.Sum(b)
}
