package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/samcharles93/subword/internal/normalize"
)

// ErrInvalidModel is returned by NewModel when the merge list or vocabulary
// cannot back a tokenizer.
var ErrInvalidModel = errors.New("tokenizer: invalid model")

// Model encodes text with a learned merge list and vocabulary. It is
// immutable and safe for concurrent use.
type Model struct {
	merges   MergeList
	vocab    *Vocabulary
	specials SpecialTokens
	ranks    map[Pair]int
	decoder  []string

	padID, unkID, bosID, eosID, maskID int

	isSpecial map[int]struct{}
	cache     *lru.Cache
}

// NewModel builds a Model from a merge list and a vocabulary that contains
// every default special token.
func NewModel(merges MergeList, vocab *Vocabulary) (*Model, error) {
	return NewModelWithConfig(merges, vocab, Config{})
}

// NewModelWithConfig is NewModel with custom special tokens or cache size.
func NewModelWithConfig(merges MergeList, vocab *Vocabulary, cfg Config) (*Model, error) {
	o := cfg.withDefaults()
	if vocab == nil {
		return nil, fmt.Errorf("%w: nil vocabulary", ErrInvalidModel)
	}
	if err := o.Specials.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	for i, p := range merges {
		if p.A == "" || p.B == "" {
			return nil, fmt.Errorf("%w: merge %d has an empty side", ErrInvalidModel, i)
		}
	}

	m := &Model{
		merges:    append(MergeList(nil), merges...),
		vocab:     vocab,
		specials:  o.Specials,
		ranks:     merges.Ranks(),
		isSpecial: make(map[int]struct{}, 5),
	}
	ids := make([]int, 0, 5)
	for _, tok := range o.Specials.List() {
		id, ok := vocab.ID(tok)
		if !ok {
			return nil, fmt.Errorf("%w: vocabulary lacks special token %q", ErrInvalidModel, tok)
		}
		ids = append(ids, id)
		m.isSpecial[id] = struct{}{}
	}
	m.padID, m.unkID, m.bosID, m.eosID, m.maskID = ids[0], ids[1], ids[2], ids[3], ids[4]

	m.decoder = make([]string, len(vocab.tokens))
	copy(m.decoder, vocab.tokens)

	if o.CacheSize > 0 {
		cache, err := lru.New(o.CacheSize)
		if err != nil {
			return nil, err
		}
		m.cache = cache
	}
	return m, nil
}

// Encode normalizes text and converts it to token ids. Symbols missing from
// the vocabulary map to the unknown id. With addSpecial the result is wrapped
// in the begin and end of sequence ids.
func (m *Model) Encode(text string, addSpecial bool) []int {
	words := normalize.Words(text)
	ids := make([]int, 0, 2*len(words)+2)
	if addSpecial {
		ids = append(ids, m.bosID)
	}
	for _, w := range words {
		for _, sym := range m.segment(w) {
			if sym == EndOfWord {
				continue
			}
			id, ok := m.vocab.ID(sym)
			if !ok {
				id = m.unkID
			}
			ids = append(ids, id)
		}
	}
	if addSpecial {
		ids = append(ids, m.eosID)
	}
	return ids
}

// Segment returns the symbols each word of text is split into, end-of-word
// markers included.
func (m *Model) Segment(text string) [][]string {
	words := normalize.Words(text)
	out := make([][]string, len(words))
	for i, w := range words {
		out[i] = append([]string(nil), m.segment(w)...)
	}
	return out
}

// Decode maps ids back to text. Unknown ids decode as the unknown token and
// every end-of-word marker becomes a space.
func (m *Model) Decode(ids []int) string {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(m.token(id))
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), EndOfWord, " "))
}

// DecodeSkipSpecial is Decode with the reserved ids dropped first.
func (m *Model) DecodeSkipSpecial(ids []int) string {
	kept := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := m.isSpecial[id]; !ok {
			kept = append(kept, id)
		}
	}
	return m.Decode(kept)
}

func (m *Model) token(id int) string {
	if id >= 0 && id < len(m.decoder) && m.decoder[id] != "" {
		return m.decoder[id]
	}
	return m.specials.Unk
}

// segment applies merges to one word, lowest rank first, until no adjacent
// pair has a rank. Results are shared through the cache and must not be
// modified.
func (m *Model) segment(word string) []string {
	if m.cache != nil {
		if v, ok := m.cache.Get(word); ok {
			return v.([]string)
		}
	}
	symbols := append(splitRunes(word), EndOfWord)
	for len(symbols) > 1 {
		bestRank := -1
		var best Pair
		for i := 0; i+1 < len(symbols); i++ {
			p := Pair{A: symbols[i], B: symbols[i+1]}
			if r, ok := m.ranks[p]; ok && (bestRank < 0 || r < bestRank) {
				bestRank, best = r, p
			}
		}
		if bestRank < 0 {
			break
		}
		symbols = mergePair(symbols, best)
	}
	if m.cache != nil {
		m.cache.Add(word, symbols)
	}
	return symbols
}

// Merges returns a copy of the merge list.
func (m *Model) Merges() MergeList {
	return append(MergeList(nil), m.merges...)
}

// Rank returns the priority of a merge rule.
func (m *Model) Rank(a, b string) (int, bool) {
	r, ok := m.ranks[Pair{A: a, B: b}]
	return r, ok
}

// Vocabulary returns the model's vocabulary.
func (m *Model) Vocabulary() *Vocabulary { return m.vocab }

// Specials returns the reserved token set.
func (m *Model) Specials() SpecialTokens { return m.specials }

// VocabSize returns the number of tokens.
func (m *Model) VocabSize() int { return m.vocab.Len() }

// TokenID returns the id of tok.
func (m *Model) TokenID(tok string) (int, bool) { return m.vocab.ID(tok) }

// Token returns the token for id.
func (m *Model) Token(id int) (string, bool) { return m.vocab.Token(id) }

// PadID, UnkID, BOSID, EOSID and MaskID return the ids of the reserved tokens.
func (m *Model) PadID() int  { return m.padID }
func (m *Model) UnkID() int  { return m.unkID }
func (m *Model) BOSID() int  { return m.bosID }
func (m *Model) EOSID() int  { return m.eosID }
func (m *Model) MaskID() int { return m.maskID }
