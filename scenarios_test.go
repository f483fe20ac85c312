// This Source Code Form is subject to the terms of the Mozilla Public
// License, version 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gsync

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/hooklift/assert"
	"github.com/pkg/profile"
)

var alpha = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789\n"

// srand generates a deterministic pseudo-random byte slice, matching the
// teacher's own srand helper (gsync_test.go).
func srand(seed int64, size int) []byte {
	src := rand.New(rand.NewSource(seed))
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = alpha[src.Intn(len(alpha))]
	}
	return buf
}

// TestSyncScenarios is the table-driven, larger-scale counterpart to
// matcher_test.go/rebuilder_test.go: it exercises full generate-match-rebuild
// round trips end to end at a size where the profiler is worth running,
// matching the teacher's own TestSync (gsync_test.go: table of
// desc/source/cache, profile.Start().Stop() wrapping the whole run).
func TestSyncScenarios(t *testing.T) {
	defer profile.Start().Stop()

	tests := []struct {
		desc   string
		basis  []byte
		target []byte
	}{
		{
			"scenario A: identical target, full sync reduces to copies",
			srand(10, 512*1024),
			nil, // filled in below to equal basis
		},
		{
			"scenario B: appended tail",
			srand(20, 256*1024),
			nil,
		},
		{
			"scenario C: prepended header forces realignment",
			srand(30, 256*1024),
			nil,
		},
		{
			"full sync, no basis, 512kb target",
			nil,
			srand(40, 512*1024),
		},
		{
			"partial sync, 256kb basis, 640kb target",
			srand(50, 256*1024),
			nil,
		},
	}

	tests[0].target = append([]byte{}, tests[0].basis...)
	tests[1].target = append(append([]byte{}, tests[1].basis...), srand(21, 64*1024)...)
	tests[2].target = append(append([]byte{}, srand(31, 64*1024)...), tests[2].basis...)
	tests[4].target = append(append([]byte{}, tests[4].basis...), srand(51, 384*1024)...)

	cfg, err := NewConfig(WithBlockLength(4096))
	assert.Ok(t, err)

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			var idx *BlockIndex
			if tc.basis != nil {
				checksums, err := GenerateBytes(cfg, tc.basis, 0)
				assert.Ok(t, err)
				idx = BuildIndex(checksums)
			} else {
				idx = NewBlockIndex()
			}

			deltas, err := MatchBytes(cfg, idx, tc.target)
			assert.Ok(t, err)
			deltasTileTarget(t, deltas, len(tc.target))

			var out bytes.Buffer
			assert.Ok(t, RebuildSequential(&out, bytes.NewReader(tc.basis), deltas))
			assert.Cond(t, bytes.Equal(out.Bytes(), tc.target), "rebuilt bytes must equal the target")
		})
	}
}
