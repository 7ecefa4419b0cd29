// Package textsim scores string similarity with the Ratcliff/Obershelp
// matching-block ratio and selects close matches above a cutoff.
package textsim

import "sort"

// match is a maximal common block: a[i:i+size] == b[j:j+size].
type match struct {
	i, j, size int
}

// Matcher compares a against b. It is built once per b and can be reused
// for many a values.
type Matcher struct {
	a, b     []rune
	b2j      map[rune][]int
	popular  map[rune]bool
	fullBCnt map[rune]int
}

// NewMatcher returns a Matcher for the pair (a, b).
func NewMatcher(a, b string) *Matcher {
	m := &Matcher{}
	m.SetB(b)
	m.SetA(a)
	return m
}

// SetA replaces the first sequence.
func (m *Matcher) SetA(a string) {
	m.a = []rune(a)
}

// SetB replaces the second sequence and rebuilds its index. Elements that
// occur in more than 1% of a long (>= 200) b are treated as popular and
// left out of the index.
func (m *Matcher) SetB(b string) {
	m.b = []rune(b)
	m.fullBCnt = nil
	m.b2j = make(map[rune][]int)
	for j, r := range m.b {
		m.b2j[r] = append(m.b2j[r], j)
	}

	m.popular = make(map[rune]bool)
	n := len(m.b)
	if n >= 200 {
		ntest := n/100 + 1
		for r, idxs := range m.b2j {
			if len(idxs) > ntest {
				m.popular[r] = true
			}
		}
		for r := range m.popular {
			delete(m.b2j, r)
		}
	}
}

func (m *Matcher) findLongestMatch(alo, ahi, blo, bhi int) match {
	besti, bestj, bestsize := alo, blo, 0
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}

	// Popular elements were left out of the index; grow the block over them.
	for besti > alo && bestj > blo && m.a[besti-1] == m.b[bestj-1] {
		besti, bestj, bestsize = besti-1, bestj-1, bestsize+1
	}
	for besti+bestsize < ahi && bestj+bestsize < bhi && m.a[besti+bestsize] == m.b[bestj+bestsize] {
		bestsize++
	}
	return match{besti, bestj, bestsize}
}

func (m *Matcher) matchingBlocks() []match {
	la, lb := len(m.a), len(m.b)
	queue := [][4]int{{0, la, 0, lb}}
	var blocks []match
	for len(queue) > 0 {
		q := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		alo, ahi, blo, bhi := q[0], q[1], q[2], q[3]
		x := m.findLongestMatch(alo, ahi, blo, bhi)
		if x.size == 0 {
			continue
		}
		blocks = append(blocks, x)
		if alo < x.i && blo < x.j {
			queue = append(queue, [4]int{alo, x.i, blo, x.j})
		}
		if x.i+x.size < ahi && x.j+x.size < bhi {
			queue = append(queue, [4]int{x.i + x.size, ahi, x.j + x.size, bhi})
		}
	}
	sort.Slice(blocks, func(p, q int) bool {
		if blocks[p].i != blocks[q].i {
			return blocks[p].i < blocks[q].i
		}
		return blocks[p].j < blocks[q].j
	})

	// Collapse adjacent blocks.
	var out []match
	var cur match
	for _, x := range blocks {
		if cur.i+cur.size == x.i && cur.j+cur.size == x.j {
			cur.size += x.size
			continue
		}
		if cur.size > 0 {
			out = append(out, cur)
		}
		cur = x
	}
	if cur.size > 0 {
		out = append(out, cur)
	}
	return out
}

// Ratio returns 2*M/T where M is the number of matched runes and T the total
// rune count of both sequences. Two empty strings score 1.
func (m *Matcher) Ratio() float64 {
	matches := 0
	for _, x := range m.matchingBlocks() {
		matches += x.size
	}
	return ratio(matches, len(m.a)+len(m.b))
}

// QuickRatio is an upper bound on Ratio computed from rune multisets.
func (m *Matcher) QuickRatio() float64 {
	if m.fullBCnt == nil {
		m.fullBCnt = make(map[rune]int)
		for _, r := range m.b {
			m.fullBCnt[r]++
		}
	}
	avail := make(map[rune]int)
	matches := 0
	for _, r := range m.a {
		n, ok := avail[r]
		if !ok {
			n = m.fullBCnt[r]
		}
		avail[r] = n - 1
		if n > 0 {
			matches++
		}
	}
	return ratio(matches, len(m.a)+len(m.b))
}

// RealQuickRatio is an upper bound on Ratio computed from lengths alone.
func (m *Matcher) RealQuickRatio() float64 {
	la, lb := len(m.a), len(m.b)
	return ratio(min(la, lb), la+lb)
}

func ratio(matches, length int) float64 {
	if length == 0 {
		return 1.0
	}
	return 2.0 * float64(matches) / float64(length)
}

// Ratio is a convenience for NewMatcher(a, b).Ratio().
func Ratio(a, b string) float64 {
	return NewMatcher(a, b).Ratio()
}
