// Package version implements the Maven-style version scheme: total-order
// comparison, range parsing and containment, and constraint disjunction, as
// described in the version model section of the resolution engine this
// package backs.
package version

import (
	"strconv"
	"strings"
)

// Version is a parsed, totally-ordered version value. The zero value is not
// meaningful; construct one with Parse.
type Version struct {
	raw      string
	segments []segment
}

type segment struct {
	isNumber bool
	num      int64
	qual     string // lowercased qualifier token, only set when !isNumber
}

// qualifier ranks, per the closed ordering in the version model:
// alpha < beta < milestone < rc == cr < snapshot < "" (release) == ga == final < anything-else (lexical)
// with sp ranked above release.
const (
	rankAlpha = iota
	rankBeta
	rankMilestone
	rankRC
	rankSnapshot
	rankRelease
	rankSP
	rankOther
)

var qualifierRanks = map[string]int{
	"alpha":     rankAlpha,
	"beta":      rankBeta,
	"milestone": rankMilestone,
	"rc":        rankRC,
	"cr":        rankRC,
	"snapshot":  rankSnapshot,
	"":          rankRelease,
	"ga":        rankRelease,
	"final":     rankRelease,
	"sp":        rankSP,
}

func qualifierRank(q string) int {
	if r, ok := qualifierRanks[q]; ok {
		return r
	}
	return rankOther
}

// Parse tokenizes and normalizes a version string. It fails only on empty
// input; the tokenizer is otherwise total.
func Parse(s string) (*Version, error) {
	if s == "" {
		return nil, badSpec(s, "empty version string")
	}
	return &Version{raw: s, segments: tokenize(s)}, nil
}

// tokenize splits on '.', '-', '_' and on digit<->alpha transitions. Runs of
// digits become numeric segments; runs of letters (or anything else) become
// lowercased qualifier segments.
func tokenize(s string) []segment {
	var segs []segment
	var buf strings.Builder
	var bufIsDigit bool
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		if bufIsDigit {
			n, err := strconv.ParseInt(buf.String(), 10, 64)
			if err != nil {
				// overflow or malformed numeric run: fall back to comparing
				// it as a qualifier string, which ranks as rankOther and so
				// sorts above every numeric segment.
				segs = append(segs, segment{isNumber: false, qual: buf.String()})
			} else {
				segs = append(segs, segment{isNumber: true, num: n})
			}
		} else {
			segs = append(segs, segment{isNumber: false, qual: strings.ToLower(buf.String())})
		}
		buf.Reset()
	}

	for _, r := range s {
		switch r {
		case '.', '-', '_':
			flush()
			continue
		}
		isDigit := r >= '0' && r <= '9'
		if buf.Len() > 0 && isDigit != bufIsDigit {
			flush()
		}
		bufIsDigit = isDigit
		buf.WriteRune(r)
	}
	flush()

	return trimTrailingZeroEquivalent(segs)
}

// trimTrailingZeroEquivalent drops trailing segments that compare as
// "no-op" (numeric zero, or a release-equivalent qualifier), so that "1.0",
// "1-ga" and "1" all normalize to the same segment list.
func trimTrailingZeroEquivalent(segs []segment) []segment {
	end := len(segs)
	for end > 0 {
		last := segs[end-1]
		if last.isNumber && last.num == 0 {
			end--
			continue
		}
		if !last.isNumber && qualifierRank(last.qual) == rankRelease {
			end--
			continue
		}
		break
	}
	return segs[:end]
}

// String returns the literal string this Version was parsed from.
func (v *Version) String() string {
	return v.raw
}

// CompareTo implements the total order: negative if v < other, zero if
// equal, positive if v > other.
func (v *Version) CompareTo(other *Version) int {
	n := len(v.segments)
	if len(other.segments) > n {
		n = len(other.segments)
	}
	for i := 0; i < n; i++ {
		a, aOK := segAt(v.segments, i)
		b, bOK := segAt(other.segments, i)
		switch {
		case aOK && !bOK:
			if c := compareSegment(a, nullFor(a)); c != 0 {
				return c
			}
		case !aOK && bOK:
			if c := -compareSegment(b, nullFor(b)); c != 0 {
				return c
			}
		default:
			if c := compareSegment(a, b); c != 0 {
				return c
			}
		}
	}
	return 0
}

// Equal reports whether v and other compare as equal under the total order.
func (v *Version) Equal(other *Version) bool {
	return v.CompareTo(other) == 0
}

func segAt(segs []segment, i int) (segment, bool) {
	if i < len(segs) {
		return segs[i], true
	}
	return segment{}, false
}

// nullFor returns the synthetic counterpart used when one version runs out
// of segments: a numeric zero if the other side's segment is numeric, or the
// release qualifier if the other side's segment is a qualifier. This is what
// makes "1.0" == "1" and "1-ga" == "1", while "1-alpha" < "1".
func nullFor(s segment) segment {
	if s.isNumber {
		return segment{isNumber: true, num: 0}
	}
	return segment{isNumber: false, qual: ""}
}

func compareSegment(a, b segment) int {
	if a.isNumber && b.isNumber {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	}
	if a.isNumber != b.isNumber {
		// A numeric segment is always newer than a qualifier segment,
		// except a qualifier ranked above release (sp, or an unknown
		// qualifier) outranks it.
		var num, qual segment
		var numIsA bool
		if a.isNumber {
			num, qual, numIsA = a, b, true
		} else {
			num, qual, numIsA = b, a, false
		}
		_ = num
		rank := qualifierRank(qual.qual)
		var result int
		if rank > rankRelease {
			result = -1 // qualifier (sp/other) outranks the numeric segment
		} else {
			result = 1 // numeric segment outranks alpha..release-equivalent qualifiers
		}
		if numIsA {
			return result
		}
		return -result
	}
	// both qualifiers
	ra, rb := qualifierRank(a.qual), qualifierRank(b.qual)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if ra == rankOther {
		return strings.Compare(a.qual, b.qual)
	}
	return 0
}
