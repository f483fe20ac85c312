// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"github.com/pkg/errors"
)

const (
	// DefaultBlockLength is the nominal block size in bytes.
	DefaultBlockLength = 700

	// DefaultChunkSize is the matcher window/buffer size.
	DefaultChunkSize = 32768

	// DefaultStrongSumLength is how many leading bytes of the strong
	// digest are retained when a caller doesn't specify otherwise. MD5
	// produces 16 bytes; keeping all of them is the conservative default.
	DefaultStrongSumLength = 16

	// RollingOffsetZero is the default rolling-checksum per-byte bias.
	RollingOffsetZero uint32 = 0

	// RollingOffsetHistorical is the alternative per-byte bias some rsync
	// implementations use (e.g. librsync's Rollsum).
	RollingOffsetHistorical uint32 = 31
)

// Config holds the immutable tunables shared read-only by Generator,
// Matcher, and Rebuilder. It is built once via NewConfig and never mutated
// afterwards: an immutable record built via a builder, validated in one
// place.
type Config struct {
	blockLength     int
	strongSumLength int
	chunkSize       int
	checksumSeed    []byte
	seedIsPrefix    bool
	rollingOffset   uint32
	digestFactory   DigestFactory
}

// BlockLength returns the nominal block size in bytes.
func (c *Config) BlockLength() int { return c.blockLength }

// StrongSumLength returns how many leading bytes of the strong digest are
// retained.
func (c *Config) StrongSumLength() int { return c.strongSumLength }

// ChunkSize returns the matcher window/buffer size.
func (c *Config) ChunkSize() int { return c.chunkSize }

// RollingOffset returns the per-byte bias mixed into the rolling checksum.
func (c *Config) RollingOffset() uint32 { return c.rollingOffset }

// NewStrongDigest constructs a fresh strong digest instance for this
// configuration, wrapping it with seed mixing if a checksum_seed was
// configured.
func (c *Config) NewStrongDigest() StrongDigest {
	return newSeededDigest(c.digestFactory(), c.checksumSeed, c.seedIsPrefix)
}

// Option configures a Config under construction. Options are applied in
// order, then the result is validated once by NewConfig.
type Option func(*Config)

// WithBlockLength overrides the nominal block size.
func WithBlockLength(n int) Option {
	return func(c *Config) { c.blockLength = n }
}

// WithStrongSumLength overrides how many leading bytes of the strong digest
// are retained.
func WithStrongSumLength(n int) Option {
	return func(c *Config) { c.strongSumLength = n }
}

// WithChunkSize overrides the matcher window/buffer size.
func WithChunkSize(n int) Option {
	return func(c *Config) { c.chunkSize = n }
}

// WithChecksumSeed mixes seed into every strong digest, before the block
// bytes if prefix is true, after them otherwise.
func WithChecksumSeed(seed []byte, prefix bool) Option {
	return func(c *Config) {
		c.checksumSeed = seed
		c.seedIsPrefix = prefix
	}
}

// WithRollingOffset overrides the rolling checksum's per-byte bias.
func WithRollingOffset(offset uint32) Option {
	return func(c *Config) { c.rollingOffset = offset }
}

// WithStrongDigest selects the strong-digest algorithm via its factory,
// e.g. WithStrongDigest(NewMD5Digest).
func WithStrongDigest(factory DigestFactory) Option {
	return func(c *Config) { c.digestFactory = factory }
}

// NewConfig builds an immutable Config from defaults plus the given
// options, then validates it once. This is the only way to obtain a usable
// Config; there is no mutable-field form.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		blockLength:     DefaultBlockLength,
		strongSumLength: DefaultStrongSumLength,
		chunkSize:       DefaultChunkSize,
		rollingOffset:   RollingOffsetZero,
		digestFactory:   NewMD5Digest,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks Config invariants standalone, so a caller that built a
// Config by hand (or deserialized one) can check it before use.
func (c *Config) Validate() error {
	if c.blockLength <= 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "block_length must be positive, got %d", c.blockLength)
	}
	if c.strongSumLength <= 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "strong_sum_length must be positive, got %d", c.strongSumLength)
	}
	if c.digestFactory == nil {
		return errors.Wrap(ErrInvalidConfiguration, "strong digest factory required")
	}
	if probe := c.digestFactory(); c.strongSumLength > probe.Size() {
		return errors.Wrapf(ErrInvalidConfiguration,
			"strong_sum_length %d exceeds digest size %d", c.strongSumLength, probe.Size())
	}
	if c.chunkSize < c.blockLength {
		return errors.Wrapf(ErrInvalidConfiguration,
			"chunk_size (%d) must be >= block_length (%d)", c.chunkSize, c.blockLength)
	}
	return nil
}
