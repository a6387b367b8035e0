package tokenizer

import (
	"strconv"
	"strings"

	"github.com/samcharles93/subword/internal/normalize"
)

type wordShape struct {
	symbols []symbolID
	count   int
}

// WordVocabulary is the multiset of word shapes seen in a corpus. Shapes are
// kept in first-seen order, which fixes the enumeration used to break ties
// between equally frequent pairs.
type WordVocabulary struct {
	table  *symbolTable
	eow    symbolID
	shapes []*wordShape
	index  map[string]int
	total  int
}

func newWordVocabulary() *WordVocabulary {
	table := newSymbolTable()
	return &WordVocabulary{
		table: table,
		eow:   table.intern(EndOfWord),
		index: make(map[string]int),
	}
}

// BuildWordVocabulary normalizes each line, splits it into words and counts
// every word as its characters followed by EndOfWord.
func BuildWordVocabulary(lines []string) *WordVocabulary {
	v := newWordVocabulary()
	for _, line := range lines {
		for _, w := range normalize.Words(line) {
			v.addWord(w)
		}
	}
	return v
}

func (v *WordVocabulary) addWord(w string) {
	symbols := make([]symbolID, 0, len(w)+1)
	for _, r := range w {
		symbols = append(symbols, v.table.intern(string(r)))
	}
	symbols = append(symbols, v.eow)
	v.addShape(symbols, 1)
}

func (v *WordVocabulary) addShape(symbols []symbolID, count int) {
	v.total += count
	key := shapeKey(symbols)
	if i, ok := v.index[key]; ok {
		v.shapes[i].count += count
		return
	}
	v.index[key] = len(v.shapes)
	v.shapes = append(v.shapes, &wordShape{symbols: symbols, count: count})
}

// Len returns the number of distinct shapes.
func (v *WordVocabulary) Len() int {
	return len(v.shapes)
}

// TotalWords returns the number of word occurrences counted.
func (v *WordVocabulary) TotalWords() int {
	return v.total
}

// Count returns the multiplicity of the given shape, or 0.
func (v *WordVocabulary) Count(shape []string) int {
	ids := make([]symbolID, len(shape))
	for i, s := range shape {
		id, ok := v.table.lookup(s)
		if !ok {
			return 0
		}
		ids[i] = id
	}
	if i, ok := v.index[shapeKey(ids)]; ok {
		return v.shapes[i].count
	}
	return 0
}

// Shapes returns a snapshot of every shape in enumeration order.
func (v *WordVocabulary) Shapes() [][]string {
	out := make([][]string, len(v.shapes))
	for i, s := range v.shapes {
		out[i] = v.names(s.symbols)
	}
	return out
}

// Symbols returns the distinct symbols used by the current shapes.
func (v *WordVocabulary) Symbols() []string {
	used := make(map[symbolID]struct{}, len(v.table.names))
	var out []string
	for _, s := range v.shapes {
		for _, id := range s.symbols {
			if _, ok := used[id]; ok {
				continue
			}
			used[id] = struct{}{}
			out = append(out, v.table.name(id))
		}
	}
	return out
}

func (v *WordVocabulary) names(symbols []symbolID) []string {
	out := make([]string, len(symbols))
	for i, id := range symbols {
		out[i] = v.table.name(id)
	}
	return out
}

// apply folds every occurrence of p into a single symbol and re-keys the
// vocabulary. Shapes that become identical are collapsed into the earlier
// one with their counts summed. It returns the number of shapes rewritten.
func (v *WordVocabulary) apply(p symbolPair) int {
	merged := v.table.intern(v.table.name(p.left) + v.table.name(p.right))
	rewritten := 0
	shapes := make([]*wordShape, 0, len(v.shapes))
	index := make(map[string]int, len(v.index))
	for _, s := range v.shapes {
		if next, ok := mergeSymbols(s.symbols, p, merged); ok {
			s.symbols = next
			rewritten++
		}
		key := shapeKey(s.symbols)
		if i, ok := index[key]; ok {
			shapes[i].count += s.count
			continue
		}
		index[key] = len(shapes)
		shapes = append(shapes, s)
	}
	v.shapes = shapes
	v.index = index
	return rewritten
}

// mergeSymbols is mergePair over interned ids. It reports false, and returns
// the input untouched, when the pair does not occur.
func mergeSymbols(symbols []symbolID, p symbolPair, merged symbolID) ([]symbolID, bool) {
	var out []symbolID
	for i := 0; i < len(symbols); i++ {
		if i < len(symbols)-1 && symbols[i] == p.left && symbols[i+1] == p.right {
			if out == nil {
				out = make([]symbolID, 0, len(symbols)-1)
				out = append(out, symbols[:i]...)
			}
			out = append(out, merged)
			i++
			continue
		}
		if out != nil {
			out = append(out, symbols[i])
		}
	}
	if out == nil {
		return symbols, false
	}
	return out, true
}

func (v *WordVocabulary) String() string {
	var b strings.Builder
	for i, s := range v.shapes {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(v.names(s.symbols), " "))
		b.WriteString(" : ")
		b.WriteString(strconv.Itoa(s.count))
	}
	return b.String()
}
