package tokenizer

import (
	"errors"
	"fmt"
)

// EndOfWord is appended to every word before training and encoding. Decode
// turns it back into a space.
const EndOfWord = "</w>"

// SpecialTokens names the reserved vocabulary entries. They always occupy
// ids 0..4 of a trained vocabulary, in the order returned by List.
type SpecialTokens struct {
	Pad  string
	Unk  string
	BOS  string
	EOS  string
	Mask string
}

// DefaultSpecialTokens returns the standard reserved set.
func DefaultSpecialTokens() SpecialTokens {
	return SpecialTokens{
		Pad:  "<pad>",
		Unk:  "<unk>",
		BOS:  "<s>",
		EOS:  "</s>",
		Mask: "<mask>",
	}
}

// List returns the tokens in id order.
func (s SpecialTokens) List() []string {
	return []string{s.Pad, s.Unk, s.BOS, s.EOS, s.Mask}
}

// Contains reports whether tok is one of the reserved tokens.
func (s SpecialTokens) Contains(tok string) bool {
	switch tok {
	case s.Pad, s.Unk, s.BOS, s.EOS, s.Mask:
		return true
	}
	return false
}

// Validate checks that every token is set and that no two coincide.
func (s SpecialTokens) Validate() error {
	seen := make(map[string]struct{}, 5)
	for _, tok := range s.List() {
		if tok == "" {
			return errors.New("tokenizer: empty special token")
		}
		if tok == EndOfWord {
			return fmt.Errorf("tokenizer: special token %q collides with the end-of-word marker", tok)
		}
		if _, ok := seen[tok]; ok {
			return fmt.Errorf("tokenizer: duplicate special token %q", tok)
		}
		seen[tok] = struct{}{}
	}
	return nil
}
