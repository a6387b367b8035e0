package tokenizer

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidVocabulary reports a token/id mapping that is not a bijection
// over non-negative ids.
var ErrInvalidVocabulary = errors.New("tokenizer: invalid vocabulary")

// Vocabulary is a bijection between symbols and non-negative ids. It is not
// modified after construction.
type Vocabulary struct {
	ids    map[string]int
	tokens []string // index is id; "" marks an unused id
}

// BuildVocabulary lays out the special block at ids 0..4 followed by the
// remaining symbols in lexicographic order.
func BuildVocabulary(specials SpecialTokens, symbols []string) *Vocabulary {
	rest := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if s == "" || specials.Contains(s) {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		rest = append(rest, s)
	}
	sort.Strings(rest)

	tokens := make([]string, 0, 5+len(rest))
	tokens = append(tokens, specials.List()...)
	tokens = append(tokens, rest...)
	ids := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		ids[tok] = i
	}
	return &Vocabulary{ids: ids, tokens: tokens}
}

// NewVocabulary validates an externally supplied mapping, e.g. one read from
// disk. Ids need not be contiguous.
func NewVocabulary(entries map[string]int) (*Vocabulary, error) {
	maxID := -1
	for tok, id := range entries {
		if tok == "" {
			return nil, fmt.Errorf("%w: empty token", ErrInvalidVocabulary)
		}
		if id < 0 {
			return nil, fmt.Errorf("%w: negative id %d for %q", ErrInvalidVocabulary, id, tok)
		}
		if id > maxID {
			maxID = id
		}
	}
	tokens := make([]string, maxID+1)
	ids := make(map[string]int, len(entries))
	for tok, id := range entries {
		if prev := tokens[id]; prev != "" {
			a, b := prev, tok
			if b < a {
				a, b = b, a
			}
			return nil, fmt.Errorf("%w: id %d shared by %q and %q", ErrInvalidVocabulary, id, a, b)
		}
		tokens[id] = tok
		ids[tok] = id
	}
	return &Vocabulary{ids: ids, tokens: tokens}, nil
}

// Len returns the number of tokens.
func (v *Vocabulary) Len() int {
	return len(v.ids)
}

// ID returns the id of tok.
func (v *Vocabulary) ID(tok string) (int, bool) {
	id, ok := v.ids[tok]
	return id, ok
}

// Token returns the token with the given id.
func (v *Vocabulary) Token(id int) (string, bool) {
	if id < 0 || id >= len(v.tokens) || v.tokens[id] == "" {
		return "", false
	}
	return v.tokens[id], true
}

// Tokens returns all tokens in id order.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, 0, len(v.ids))
	for _, tok := range v.tokens {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Each calls fn for every entry in id order until fn returns false.
func (v *Vocabulary) Each(fn func(tok string, id int) bool) {
	for id, tok := range v.tokens {
		if tok == "" {
			continue
		}
		if !fn(tok, id) {
			return
		}
	}
}

// Map returns a copy of the token to id mapping.
func (v *Vocabulary) Map() map[string]int {
	out := make(map[string]int, len(v.ids))
	for tok, id := range v.ids {
		out[tok] = id
	}
	return out
}
