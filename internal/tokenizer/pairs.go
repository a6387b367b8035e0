package tokenizer

type symbolPair struct {
	left  symbolID
	right symbolID
}

// PairStats holds the weighted frequency of every adjacent symbol pair in a
// WordVocabulary. Pairs are remembered in the order they were first met while
// walking shapes in enumeration order, left to right.
type PairStats struct {
	table  *symbolTable
	order  []symbolPair
	counts map[symbolPair]int
}

// CountPairs computes pair frequencies from scratch. Each adjacent pair in a
// shape contributes that shape's count.
func CountPairs(v *WordVocabulary) *PairStats {
	s := &PairStats{
		table:  v.table,
		counts: make(map[symbolPair]int),
	}
	for _, shape := range v.shapes {
		for i := 0; i+1 < len(shape.symbols); i++ {
			p := symbolPair{left: shape.symbols[i], right: shape.symbols[i+1]}
			if _, ok := s.counts[p]; !ok {
				s.order = append(s.order, p)
			}
			s.counts[p] += shape.count
		}
	}
	return s
}

// Len returns the number of distinct pairs.
func (s *PairStats) Len() int {
	return len(s.order)
}

// Count returns the frequency of (a, b), or 0 when the pair does not occur.
func (s *PairStats) Count(a, b string) int {
	l, ok := s.table.lookup(a)
	if !ok {
		return 0
	}
	r, ok := s.table.lookup(b)
	if !ok {
		return 0
	}
	return s.counts[symbolPair{left: l, right: r}]
}

// Best returns the most frequent pair. Among equally frequent pairs the one
// met first wins.
func (s *PairStats) Best() (Pair, int, bool) {
	p, n, ok := s.best()
	if !ok {
		return Pair{}, 0, false
	}
	return s.pair(p), n, true
}

func (s *PairStats) best() (symbolPair, int, bool) {
	var (
		best  symbolPair
		count int
		found bool
	)
	for _, p := range s.order {
		if n := s.counts[p]; n > count {
			best, count, found = p, n, true
		}
	}
	return best, count, found
}

// Each calls fn for every pair in first-met order until fn returns false.
func (s *PairStats) Each(fn func(p Pair, count int) bool) {
	for _, p := range s.order {
		if !fn(s.pair(p), s.counts[p]) {
			return
		}
	}
}

func (s *PairStats) pair(p symbolPair) Pair {
	return Pair{A: s.table.name(p.left), B: s.table.name(p.right)}
}
