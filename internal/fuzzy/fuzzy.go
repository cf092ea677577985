// Package fuzzy scores case-insensitive subsequence matches of a query
// against a candidate string (a relative path or a line of text).
package fuzzy

import (
	"unicode"
)

// Scoring weights
const (
	SegmentStartBonus = 2 // first char of the candidate or right after a separator
	ContiguousBonus   = 1 // directly follows the previous matched char
	GapPenalty        = 1 // per skipped char between two matched chars
	MaxGapPenalty     = 3 // cap per gap so one early stray match is not punished without bound
)

// maxAlignLen bounds the dynamic-programming alignment; longer candidates
// are aligned greedily.
const maxAlignLen = 2048

// Match is a successful match
type Match struct {
	Score   int
	Indices []int // rune offsets into the candidate, ascending
}

// Start is the rune offset of the first matched char
func (m Match) Start() int {
	if len(m.Indices) == 0 {
		return 0
	}
	return m.Indices[0]
}

// End is the rune offset of the last matched char
func (m Match) End() int {
	if len(m.Indices) == 0 {
		return 0
	}
	return m.Indices[len(m.Indices)-1]
}

// ExactBonus is added when all query chars match contiguously. It is larger than
// the best possible advantage a scattered alignment can have, so a candidate that
// contains the query as a substring always outranks one that does not.
func ExactBonus(queryLen int) int {
	return queryLen + 1
}

// Matcher matches one query against many candidates. The query is folded once.
type Matcher struct {
	query []rune
}

// New prepares a matcher for query
func New(query string) *Matcher {
	return &Matcher{query: fold(query)}
}

// Empty reports whether the query has no characters
func (m *Matcher) Empty() bool {
	return len(m.query) == 0
}

// Match scores candidate. An empty query never matches.
func (m *Matcher) Match(candidate string) (Match, bool) {
	if len(m.query) == 0 {
		return Match{}, false
	}
	c := []rune(candidate)
	if len(c) < len(m.query) {
		return Match{}, false
	}
	lower := make([]rune, len(c))
	for i, r := range c {
		lower[i] = unicode.ToLower(r)
	}
	if !isSubsequence(m.query, lower) {
		return Match{}, false
	}

	var best Match
	if len(lower) <= maxAlignLen {
		best = align(m.query, lower, c)
	} else {
		best = greedy(m.query, lower, c)
	}

	if exact, ok := bestSubstring(m.query, lower, c); ok && exact.Score >= best.Score {
		best = exact
	}
	return best, true
}

// Score is a convenience for one-off matches
func Score(query, candidate string) (Match, bool) {
	return New(query).Match(candidate)
}

func fold(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return out
}

func isSubsequence(q, c []rune) bool {
	i := 0
	for _, r := range c {
		if r == q[i] {
			i++
			if i == len(q) {
				return true
			}
		}
	}
	return false
}

// IsSeparator reports whether r starts a new segment after it
func IsSeparator(r rune) bool {
	switch r {
	case '/', '\\', '_', '-', '.', ' ', '\t', ':':
		return true
	}
	return false
}

func charScore(orig []rune, j int, contiguous bool) int {
	if j == 0 || IsSeparator(orig[j-1]) {
		return SegmentStartBonus
	}
	if contiguous {
		return ContiguousBonus
	}
	return 0
}

func gapCost(gap int) int {
	p := gap * GapPenalty
	if p > MaxGapPenalty {
		return MaxGapPenalty
	}
	return p
}

// scoreOf computes the score of a fixed alignment
func scoreOf(orig []rune, idx []int) int {
	score := 0
	for k, j := range idx {
		contiguous := k > 0 && idx[k-1] == j-1
		score += charScore(orig, j, contiguous)
		if k > 0 {
			score -= gapCost(j - idx[k-1] - 1)
		}
	}
	if len(idx) > 0 && idx[len(idx)-1]-idx[0] == len(idx)-1 {
		score += ExactBonus(len(idx))
	}
	return score
}

const unset = -1 << 30

// align finds the highest-scoring alignment. dp[i][j] is the best score with
// query[i] matched at candidate[j]. Gaps of MaxGapPenalty or more cost the same,
// so those predecessors are folded into a running maximum.
func align(q, lower, orig []rune) Match {
	m, n := len(q), len(lower)
	dp := make([][]int, m)
	from := make([][]int, m)
	for i := range dp {
		dp[i] = make([]int, n)
		from[i] = make([]int, n)
		for j := range dp[i] {
			dp[i][j] = unset
			from[i][j] = -1
		}
	}

	for j := 0; j < n; j++ {
		if lower[j] == q[0] {
			dp[0][j] = charScore(orig, j, false)
		}
	}

	farGap := MaxGapPenalty/GapPenalty + 1 // gaps this long or longer are capped
	for i := 1; i < m; i++ {
		prev := dp[i-1]
		farBest, farIdx := unset, -1
		for j := i; j < n; j++ {
			// predecessor k = j-1-farGap becomes "far" at this j
			if k := j - 1 - farGap; k >= 0 && prev[k] > farBest {
				farBest, farIdx = prev[k], k
			}
			if lower[j] != q[i] {
				continue
			}

			best, bestK := unset, -1
			if prev[j-1] != unset {
				best = prev[j-1] + charScore(orig, j, true)
				bestK = j - 1
			}
			for k := j - 2; k >= 0 && k > j-1-farGap; k-- {
				if prev[k] == unset {
					continue
				}
				s := prev[k] + charScore(orig, j, false) - gapCost(j-k-1)
				if s > best {
					best, bestK = s, k
				}
			}
			if farBest != unset {
				s := farBest + charScore(orig, j, false) - MaxGapPenalty
				if s > best {
					best, bestK = s, farIdx
				}
			}
			dp[i][j] = best
			from[i][j] = bestK
		}
	}

	endJ, endScore := -1, unset
	for j := m - 1; j < n; j++ {
		if dp[m-1][j] > endScore {
			endScore, endJ = dp[m-1][j], j
		}
	}

	idx := make([]int, m)
	for i, j := m-1, endJ; i >= 0; i-- {
		idx[i] = j
		j = from[i][j]
	}
	return Match{Score: scoreOf(orig, idx), Indices: idx}
}

// greedy aligns each query char with its earliest occurrence
func greedy(q, lower, orig []rune) Match {
	idx := make([]int, 0, len(q))
	i := 0
	for j, r := range lower {
		if i < len(q) && r == q[i] {
			idx = append(idx, j)
			i++
		}
	}
	return Match{Score: scoreOf(orig, idx), Indices: idx}
}

// bestSubstring scores every contiguous occurrence of q
func bestSubstring(q, lower, orig []rune) (Match, bool) {
	m := len(q)
	found := false
	var best Match
	for s := 0; s+m <= len(lower); s++ {
		if lower[s] != q[0] {
			continue
		}
		ok := true
		for k := 1; k < m; k++ {
			if lower[s+k] != q[k] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		idx := make([]int, m)
		for k := range idx {
			idx[k] = s + k
		}
		score := scoreOf(orig, idx)
		if !found || score > best.Score {
			best = Match{Score: score, Indices: idx}
			found = true
		}
	}
	return best, found
}
