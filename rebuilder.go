// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// RandomAccessFile is the capability a file handle must offer for random-
// access out-of-place reconstruction and for in-place reconstruction.
// *os.File satisfies it directly.
type RandomAccessFile interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
}

// RebuildSequential applies deltas against basis and streams the
// reconstructed bytes to dst in order. Deltas need not arrive sorted; they
// are sorted by WriteOffset first. basis may be nil only if deltas
// contains no Copy (a fresh target built entirely from literals); any
// Copy with a nil basis fails with ErrBasisMissing.
func RebuildSequential(dst io.Writer, basis io.ReaderAt, deltas []Delta) error {
	sorted := sortedByWriteOffset(deltas)

	for _, d := range sorted {
		if lit, ok := d.Literal(); ok {
			if _, err := dst.Write(lit.Data); err != nil {
				return errors.Wrap(err, "gsync: sequential rebuild write failed")
			}
			continue
		}

		cp, _ := d.Copy()
		buf, err := readBasisBlock(basis, cp)
		if err != nil {
			return err
		}
		if _, err := dst.Write(buf); err != nil {
			return errors.Wrap(err, "gsync: sequential rebuild write failed")
		}
	}
	return nil
}

// RebuildRandomAccess applies deltas against basis, but seeks dst to each
// delta's WriteOffset before writing. Unlike RebuildSequential, delta
// order does not matter since every write is independently positioned.
func RebuildRandomAccess(dst io.WriterAt, basis io.ReaderAt, deltas []Delta) error {
	for _, d := range deltas {
		if lit, ok := d.Literal(); ok {
			if _, err := dst.WriteAt(lit.Data, int64(lit.WriteOffset)); err != nil {
				return errors.Wrap(err, "gsync: random-access rebuild write failed")
			}
			continue
		}

		cp, _ := d.Copy()
		buf, err := readBasisBlock(basis, cp)
		if err != nil {
			return err
		}
		if _, err := dst.WriteAt(buf, int64(cp.NewOffset)); err != nil {
			return errors.Wrap(err, "gsync: random-access rebuild write failed")
		}
	}
	return nil
}

// RebuildFileRandomAccess opens basisPath and dstPath and performs a
// random-access out-of-place rebuild, rejecting the request up front with
// ErrSameFile if the two paths name the same file.
func RebuildFileRandomAccess(dstPath, basisPath string, deltas []Delta) error {
	if basisPath != "" && samePath(dstPath, basisPath) {
		return errors.Wrap(ErrSameFile, "gsync: random-access rebuild")
	}

	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(ErrIOFailure, err.Error())
	}
	defer dst.Close()

	var basis *os.File
	if basisPath != "" {
		basis, err = os.Open(basisPath)
		if err != nil {
			return errors.Wrap(ErrIOFailure, err.Error())
		}
		defer basis.Close()
	}

	var basisReader io.ReaderAt
	if basis != nil {
		basisReader = basis
	}
	return RebuildRandomAccess(dst, basisReader, deltas)
}

// RebuildInPlace applies deltas to file, where file's current contents ARE
// the basis and the destination. Copies may read
// regions that other copies in the same delta overwrite; cycles of mutual
// dependency are broken by materializing the cycle's participants as
// synthetic literals, read from the basis before any in-place write
// happens.
func RebuildInPlace(file RandomAccessFile, deltas []Delta) error {
	var literals []LiteralOp
	var copies []CopyOp
	for _, d := range deltas {
		if lit, ok := d.Literal(); ok {
			literals = append(literals, lit)
			continue
		}
		cp, _ := d.Copy()
		copies = append(copies, cp)
	}

	var maxEnd uint64
	for _, d := range deltas {
		if end := d.WriteOffset() + d.BlockLength(); end > maxEnd {
			maxEnd = end
		}
	}

	// Identity copies (old_offset == new_offset) never conflict with
	// anything and need no read/write at all.
	var live []CopyOp
	for _, cp := range copies {
		if cp.OldOffset == cp.NewOffset {
			continue
		}
		live = append(live, cp)
	}

	dependsOn := buildConflictGraph(live)
	order, cycle := topoSortWithCycleBreak(len(live), dependsOn)

	// Materialize cycle participants as synthetic literals, reading their
	// source bytes from the file before any in-place write occurs.
	for i, isCycle := range cycle {
		if !isCycle {
			continue
		}
		cp := live[i]
		buf, err := readBasisBlock(file, cp)
		if err != nil {
			return err
		}
		literals = append(literals, LiteralOp{Data: buf, WriteOffset: cp.NewOffset})
	}

	// Apply the remaining acyclic copies in dependency order: a copy that
	// reads data runs before a copy that overwrites that data.
	for _, idx := range order {
		cp := live[idx]
		buf, err := readBasisBlock(file, cp)
		if err != nil {
			return err
		}
		if _, err := file.WriteAt(buf, int64(cp.NewOffset)); err != nil {
			return errors.Wrap(err, "gsync: in-place rebuild write failed")
		}
	}

	// Apply all literals, original and synthetic, last.
	for _, lit := range literals {
		if _, err := file.WriteAt(lit.Data, int64(lit.WriteOffset)); err != nil {
			return errors.Wrap(err, "gsync: in-place rebuild write failed")
		}
	}

	if err := file.Truncate(int64(maxEnd)); err != nil {
		return errors.Wrap(err, "gsync: in-place rebuild truncate failed")
	}
	return nil
}

func readBasisBlock(basis io.ReaderAt, cp CopyOp) ([]byte, error) {
	if basis == nil {
		return nil, errors.Wrap(ErrBasisMissing, "gsync: copy operation requires a basis")
	}
	buf := make([]byte, cp.Length)
	n, err := basis.ReadAt(buf, int64(cp.OldOffset))
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(ErrIOFailure, err.Error())
	}
	if uint32(n) < cp.Length {
		return nil, errors.Wrapf(ErrBasisTooShort,
			"copy at old_offset %d needs %d bytes, basis supplied %d", cp.OldOffset, cp.Length, n)
	}
	return buf, nil
}

func sortedByWriteOffset(deltas []Delta) []Delta {
	sorted := make([]Delta, len(deltas))
	copy(sorted, deltas)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].WriteOffset() < sorted[j].WriteOffset()
	})
	return sorted
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	fa, err1 := os.Stat(a)
	fb, err2 := os.Stat(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return os.SameFile(fa, fb)
}
