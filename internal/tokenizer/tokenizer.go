// Package tokenizer trains and runs a byte-pair-encoding subword tokenizer
// over characters. Words are split on whitespace after normalization and
// carry an end-of-word marker, so merges never span two words.
package tokenizer

// Tokenizer is the surface the CLI and HTTP server depend on.
type Tokenizer interface {
	Encode(text string, addSpecial bool) []int
	Decode(ids []int) string
	DecodeSkipSpecial(ids []int) string
	Segment(text string) [][]string
}

var _ Tokenizer = (*Model)(nil)
