// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/petar-djukic/hashedit/internal/hashline"
	"github.com/petar-djukic/hashedit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ref builds a "LINE:HASH" anchor string for a line's current content.
func ref(line int, content string) string {
	return fmt.Sprintf("%d:%s", line, hashline.Hash(content))
}

func setOp(anchor, text string) types.RawOp {
	return types.RawOp{SetLine: anchor, Text: text}
}

func TestApply_SetLine(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("aaa\nbbb\nccc", []types.RawOp{setOp(ref(2, "bbb"), "xxx")})
	require.NoError(t, err)
	assert.Equal(t, "aaa\nxxx\nccc", res.Text)
	assert.True(t, res.Changed)
	assert.Equal(t, 2, res.FirstChangedLine)
	assert.Empty(t, res.NoOps)
}

func TestApply_SetLine_OtherFingerprintsUnchanged(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("aaa\nbbb\nccc", []types.RawOp{setOp(ref(2, "bbb"), "xxx")})
	require.NoError(t, err)

	lines := strings.Split(res.Text, "\n")
	assert.Equal(t, hashline.Hash("aaa"), hashline.Hash(lines[0]))
	assert.Equal(t, hashline.Hash("ccc"), hashline.Hash(lines[2]))
}

func TestApply_RoundTripIsNoOpBatch(t *testing.T) {
	text := "aaa\nbbb\nccc"
	lines := strings.Split(text, "\n")

	var ops []types.RawOp
	for i, line := range lines {
		ops = append(ops, setOp(ref(i+1, line), line))
	}

	e := New(Config{})
	_, err := e.Apply(text, ops)
	var noop *types.NoOpError
	require.ErrorAs(t, err, &noop)
	assert.Len(t, noop.NoOps, 3)
}

func TestApply_ExternalMutationDetected(t *testing.T) {
	// The caller read "aaa\nbbb\nccc"; line 2 was rewritten externally.
	staleAnchor := ref(2, "bbb")

	e := New(Config{})
	_, err := e.Apply("aaa\nBBB\nccc", []types.RawOp{setOp(staleAnchor, "x")})

	var hm *types.HashMismatchError
	require.ErrorAs(t, err, &hm)
	require.Len(t, hm.Mismatches, 1)
	assert.Equal(t, 2, hm.Mismatches[0].Line)
	assert.Equal(t, hashline.Hash("BBB"), hm.Mismatches[0].Actual)
	assert.Equal(t, "BBB", hm.Mismatches[0].Content)
}

func TestApply_Relocation(t *testing.T) {
	// A new first line was inserted externally; the anchor for "aaa" still
	// says line 1 but its fingerprint now lives uniquely at line 2.
	e := New(Config{})
	res, err := e.Apply("zzz\naaa\nbbb\nccc", []types.RawOp{setOp(ref(1, "aaa"), "AAA")})
	require.NoError(t, err)
	assert.Equal(t, "zzz\nAAA\nbbb\nccc", res.Text)
}

func TestApply_RelocationAmbiguousFingerprintMismatches(t *testing.T) {
	// The anchor's fingerprint occurs twice, so relocation is not eligible.
	e := New(Config{})
	_, err := e.Apply("aaa\nzzz\naaa", []types.RawOp{setOp("2:"+hashline.Hash("aaa"), "x")})
	var hm *types.HashMismatchError
	assert.ErrorAs(t, err, &hm)
}

func TestApply_RangeRelocationMustPreserveShape(t *testing.T) {
	// Anchors were read when bbb/ccc were adjacent; a line now sits
	// between them. Relocating both would stretch the span, so the batch
	// is rejected instead.
	start := "1:" + hashline.Hash("bbb")
	end := "2:" + hashline.Hash("ccc")

	e := New(Config{})
	_, err := e.Apply("aaa\nbbb\nxxx\nccc", []types.RawOp{{ReplaceLines: []string{start, end}, Text: "y"}})

	var hm *types.HashMismatchError
	require.ErrorAs(t, err, &hm)
	assert.Len(t, hm.Mismatches, 2)
}

func TestApply_BottomUpDeterminism(t *testing.T) {
	text := "aaa\nbbb\nccc\nddd"
	batch := []types.RawOp{
		setOp(ref(1, "aaa"), "AAA"),
		setOp(ref(3, "ccc"), "CCC"),
	}

	e := New(Config{})
	together, err := e.Apply(text, batch)
	require.NoError(t, err)

	// Sequential application from the highest line number down.
	step1, err := e.Apply(text, batch[1:])
	require.NoError(t, err)
	step2, err := e.Apply(step1.Text, []types.RawOp{setOp(ref(1, "aaa"), "AAA")})
	require.NoError(t, err)

	assert.Equal(t, step2.Text, together.Text)
	assert.Equal(t, "AAA\nbbb\nCCC\nddd", together.Text)
}

func TestApply_RangeReplace(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("aaa\nbbb\nccc\nddd\neee", []types.RawOp{
		{ReplaceLines: []string{ref(2, "bbb"), ref(4, "ddd")}, Text: "REPLACED"},
	})
	require.NoError(t, err)
	assert.Equal(t, "aaa\nREPLACED\neee", res.Text)
}

func TestApply_RangeDelete(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("aaa\nbbb\nccc", []types.RawOp{
		{ReplaceLines: []string{ref(2, "bbb"), ref(2, "bbb")}, Text: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "aaa\nccc", res.Text)
}

func TestApply_InsertAfter(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("aaa\nbbb", []types.RawOp{
		{InsertAfter: ref(1, "aaa"), Text: "X\nY"},
	})
	require.NoError(t, err)
	assert.Equal(t, "aaa\nX\nY\nbbb", res.Text)
}

func TestApply_InsertDropsEchoedAnchorLine(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("aaa\nbbb", []types.RawOp{
		{InsertAfter: ref(1, "aaa"), Text: "aaa\nX"},
	})
	require.NoError(t, err)
	assert.Equal(t, "aaa\nX\nbbb", res.Text)
}

func TestApply_InsertAllEchoIsRecordedNoOp(t *testing.T) {
	// The whole insert text echoes the anchor line. Nothing is left to
	// insert, so the operation records a no-op instead of failing the
	// batch.
	e := New(Config{})
	res, err := e.Apply("aaa\nbbb", []types.RawOp{
		{InsertAfter: ref(1, "aaa"), Text: "aaa"},
		setOp(ref(2, "bbb"), "ccc"),
	})
	require.NoError(t, err)
	assert.Equal(t, "aaa\nccc", res.Text)
	require.Len(t, res.NoOps, 1)
	assert.Equal(t, 0, res.NoOps[0].OpIndex)
	assert.Equal(t, 1, res.NoOps[0].Line)

	// Submitted alone, the batch changes nothing at all.
	_, err = e.Apply("aaa\nbbb", []types.RawOp{{InsertAfter: ref(1, "aaa"), Text: "aaa"}})
	var nop *types.NoOpError
	require.ErrorAs(t, err, &nop)
}

func TestApply_InsertEmptyTextRejected(t *testing.T) {
	e := New(Config{})
	_, err := e.Apply("aaa", []types.RawOp{{InsertAfter: ref(1, "aaa")}})
	var perr *types.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, perr.Index)
}

func TestApply_SubstringReplaceAll(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("cat\ndog\ncat\nbird\ncat", []types.RawOp{
		{Replace: &types.ReplaceSpec{Old: "cat", New: "CAT", All: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "CAT\ndog\nCAT\nbird\nCAT", res.Text)
}

func TestApply_SubstringAmbiguous(t *testing.T) {
	e := New(Config{})
	_, err := e.Apply("cat\ndog\ncat", []types.RawOp{
		{Replace: &types.ReplaceSpec{Old: "cat", New: "CAT"}},
	})
	var amb *types.AmbiguousMatchError
	assert.ErrorAs(t, err, &amb)
}

func TestApply_OutOfRange(t *testing.T) {
	e := New(Config{})
	_, err := e.Apply("aaa\nbbb", []types.RawOp{setOp("10:ab", "x")})
	var oor *types.OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 10, oor.Line)
	assert.Equal(t, 2, oor.FileLines)
}

func TestApply_RangeOrderError(t *testing.T) {
	e := New(Config{})
	_, err := e.Apply("aaa\nbbb\nccc", []types.RawOp{
		{ReplaceLines: []string{ref(3, "ccc"), ref(1, "aaa")}, Text: "x"},
	})
	var roe *types.RangeOrderError
	assert.ErrorAs(t, err, &roe)
}

func TestApply_DuplicateOpsDropped(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("aaa\nbbb", []types.RawOp{
		{InsertAfter: ref(1, "aaa"), Text: "X"},
		{InsertAfter: ref(1, "aaa"), Text: "X"},
	})
	require.NoError(t, err)
	assert.Equal(t, "aaa\nX\nbbb", res.Text, "duplicate insert applied once")
}

func TestApply_OpShapeErrors(t *testing.T) {
	e := New(Config{})

	_, err := e.Apply("aaa", []types.RawOp{{}})
	var perr *types.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "no known variant")

	_, err = e.Apply("aaa", []types.RawOp{{SetLine: "1:ab", InsertAfter: "1:ab", Text: "x"}})
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "more than one variant")

	_, err = e.Apply("aaa", []types.RawOp{{ReplaceLines: []string{"1:ab"}, Text: "x"}})
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "exactly [start, end]")

	_, err = e.Apply("aaa", []types.RawOp{setOp("not-an-anchor", "x")})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 0, perr.Index)
}

func TestApply_MismatchAbortsWholeBatch(t *testing.T) {
	// One good anchor, one stale: nothing may be applied.
	e := New(Config{})
	_, err := e.Apply("aaa\nBBB\nccc", []types.RawOp{
		setOp(ref(1, "aaa"), "new first"),
		setOp(ref(2, "bbb"), "new second"),
	})
	var hm *types.HashMismatchError
	assert.ErrorAs(t, err, &hm)
}

func TestApply_MismatchReportContract(t *testing.T) {
	e := New(Config{})
	stale := "3:" + hashline.Hash("zzz")
	_, err := e.Apply("aaa\nbbb\nccc\nddd\neee", []types.RawOp{setOp(stale, "x")})

	var hm *types.HashMismatchError
	require.ErrorAs(t, err, &hm)
	report := hm.Error()

	assert.True(t, strings.HasPrefix(report, "1 line has changed"))
	assert.Contains(t, report, ">>> "+hashline.Tag(3, "ccc"))
	assert.Contains(t, report, "    "+hashline.Tag(1, "aaa"))
	assert.Contains(t, report, "    "+hashline.Tag(5, "eee"))
	assert.Contains(t, report, "Quick fix — replace stale refs:")
	assert.Contains(t, report, fmt.Sprintf("\t3:%s → 3:%s", hashline.Hash("zzz"), hashline.Hash("ccc")))
	assert.NotContains(t, report, "...", "no gaps when context windows cover the file")
}

func TestApply_MismatchReportCountsDistinctLines(t *testing.T) {
	// Two stale anchors naming the same line are one changed line, even
	// though both mismatches appear in the quick-fix section.
	e := New(Config{})
	_, err := e.Apply("aaa\nbbb\nccc", []types.RawOp{
		setOp("2:"+hashline.Hash("zzz"), "x"),
		setOp("2:"+hashline.Hash("xxx"), "y"),
	})

	var hm *types.HashMismatchError
	require.ErrorAs(t, err, &hm)
	require.Len(t, hm.Mismatches, 2)

	report := hm.Error()
	assert.True(t, strings.HasPrefix(report, "1 line has changed"))
	assert.Contains(t, report, fmt.Sprintf("\t2:%s → 2:%s", hashline.Hash("zzz"), hashline.Hash("bbb")))
	assert.Contains(t, report, fmt.Sprintf("\t2:%s → 2:%s", hashline.Hash("xxx"), hashline.Hash("bbb")))
}

func TestApply_MismatchReportGapMarker(t *testing.T) {
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = fmt.Sprintf("line number %d", i+1)
	}
	text := strings.Join(lines, "\n")

	e := New(Config{})
	bad := func(n int) string { return fmt.Sprintf("%d:%s", n, hashline.Hash("absent")) }
	_, err := e.Apply(text, []types.RawOp{setOp(bad(2), "x"), setOp(bad(10), "y")})

	var hm *types.HashMismatchError
	require.ErrorAs(t, err, &hm)
	report := hm.Error()
	assert.True(t, strings.HasPrefix(report, "2 lines have changed"))
	assert.Contains(t, report, "...")
}

func TestApply_PartialNoOpIsNotFailure(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("aaa\nbbb\nccc", []types.RawOp{
		setOp(ref(2, "bbb"), "bbb"), // no-op
		setOp(ref(3, "ccc"), "CCC"),
	})
	require.NoError(t, err)
	assert.Equal(t, "aaa\nbbb\nCCC", res.Text)
	require.Len(t, res.NoOps, 1)
	assert.Equal(t, 0, res.NoOps[0].OpIndex)
	assert.Equal(t, 2, res.NoOps[0].Line)
}

func TestApply_ReformatWarning(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("aaa\nbbb\nccc", []types.RawOp{
		setOp(ref(2, "bbb"), "l1\nl2\nl3\nl4\nl5\nl6"),
	})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "unintended reformatting")
}

func TestApply_MergeExpansion(t *testing.T) {
	// Line 1 was truncated mid-expression; the replacement subsumes both
	// fragments, so the pair collapses into one line.
	text := "x = 1 +\n    2\nrest"
	e := New(Config{})
	res, err := e.Apply(text, []types.RawOp{setOp(ref(1, "x = 1 +"), "x = 1 + 2")})
	require.NoError(t, err)
	assert.Equal(t, "x = 1 + 2\nrest", res.Text)
}

func TestApply_MergeExpansionSkipsAnchoredNeighbor(t *testing.T) {
	// The continuation line is anchored by another operation, so merge
	// expansion must leave it alone.
	text := "x = 1 +\n    2\nrest"
	e := New(Config{})
	res, err := e.Apply(text, []types.RawOp{
		setOp(ref(1, "x = 1 +"), "x = 1 + 2"),
		setOp(ref(2, "    2"), "    3"),
	})
	require.NoError(t, err)
	assert.Equal(t, "x = 1 + 2\n    3\nrest", res.Text)
}

func TestApply_PreservesLineEndingsAndBOM(t *testing.T) {
	e := New(Config{})
	res, err := e.Apply("\uFEFFaaa\r\nbbb\r\nccc", []types.RawOp{setOp(ref(2, "bbb"), "xxx")})
	require.NoError(t, err)
	assert.Equal(t, "\uFEFFaaa\r\nxxx\r\nccc", res.Text)
}

func TestApply_CRLFAnchorsMatch(t *testing.T) {
	// Fingerprints are computed on normalized lines, so anchors computed
	// from an LF rendition of a CRLF file still validate.
	e := New(Config{})
	res, err := e.Apply("aaa\r\nbbb\r\nccc", []types.RawOp{setOp(ref(3, "ccc"), "zzz")})
	require.NoError(t, err)
	assert.Equal(t, "aaa\r\nbbb\r\nzzz", res.Text)
}

func TestSortBottomUp(t *testing.T) {
	ops := []*op{
		{idx: 0, kind: opSet, startLine: 1, endLine: 1},
		{idx: 1, kind: opInsert, startLine: 3, endLine: 3},
		{idx: 2, kind: opSet, startLine: 3, endLine: 3},
		{idx: 3, kind: opRange, startLine: 4, endLine: 6},
		{idx: 4, kind: opSubstring},
	}

	anchored, substring := sortBottomUp(ops)
	require.Len(t, substring, 1)
	require.Len(t, anchored, 4)

	order := []int{anchored[0].idx, anchored[1].idx, anchored[2].idx, anchored[3].idx}
	// Range ending at 6 first, then line 3 (replacement before insert),
	// then line 1.
	assert.Equal(t, []int{3, 2, 1, 0}, order)
}

func TestFingerprintIndex(t *testing.T) {
	unique, ambiguous := fingerprintIndex([]string{"aaa", "bbb", "aaa"})
	h := hashline.Hash("aaa")
	assert.True(t, ambiguous[h])
	_, ok := unique[h]
	assert.False(t, ok)
	assert.Equal(t, 2, unique[hashline.Hash("bbb")])
}

func TestFromEditOps(t *testing.T) {
	raw := FromEditOps([]types.EditOp{
		types.SetLine{Ref: types.Anchor{Line: 2, Hash: "ab"}, Text: "x"},
		types.ReplaceRange{Start: types.Anchor{Line: 1, Hash: "aa"}, End: types.Anchor{Line: 3, Hash: "bb"}, Text: "y"},
		types.InsertAfter{Ref: types.Anchor{Line: 4, Hash: "cc"}, Text: "z"},
		types.SubstringReplace{Old: "o", New: "n", All: true},
	})

	assert.Equal(t, "2:ab", raw[0].SetLine)
	assert.Equal(t, []string{"1:aa", "3:bb"}, raw[1].ReplaceLines)
	assert.Equal(t, "4:cc", raw[2].InsertAfter)
	require.NotNil(t, raw[3].Replace)
	assert.True(t, raw[3].Replace.All)
}
