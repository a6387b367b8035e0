package tokenizer

// Pair is an ordered pair of adjacent symbols. As a merge rule it produces
// A+B.
type Pair struct {
	A string
	B string
}

// Merged returns the symbol the rule produces.
func (p Pair) Merged() string {
	return p.A + p.B
}

// MergeList holds learned rules in rank order: index 0 was learned first and
// wins over every later rule at encode time.
type MergeList []Pair

// Ranks maps every rule to its rank. A pair listed twice keeps its first rank.
func (l MergeList) Ranks() map[Pair]int {
	ranks := make(map[Pair]int, len(l))
	for i, p := range l {
		if _, ok := ranks[p]; !ok {
			ranks[p] = i
		}
	}
	return ranks
}

// mergePair replaces every non-overlapping occurrence of pair, scanning left
// to right.
func mergePair(word []string, pair Pair) []string {
	out := make([]string, 0, len(word))
	for i := 0; i < len(word); i++ {
		if i < len(word)-1 && word[i] == pair.A && word[i+1] == pair.B {
			out = append(out, word[i]+word[i+1])
			i++
			continue
		}
		out = append(out, word[i])
	}
	return out
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s)+1)
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
