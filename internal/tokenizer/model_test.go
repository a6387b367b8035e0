package tokenizer

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func trainModel(t *testing.T, lines []string, merges int) *Model {
	t.Helper()
	return trainModelWith(t, lines, merges, Config{})
}

func trainModelWith(t *testing.T, lines []string, merges int, cfg Config) *Model {
	t.Helper()
	ml, vocab, err := Train(context.Background(), lines, merges)
	require.NoError(t, err)
	m, err := NewModelWithConfig(ml, vocab, cfg)
	require.NoError(t, err)
	return m
}

func ids(t *testing.T, m *Model, toks ...string) []int {
	t.Helper()
	out := make([]int, len(toks))
	for i, tok := range toks {
		id, ok := m.TokenID(tok)
		require.True(t, ok, "token %q missing", tok)
		out[i] = id
	}
	return out
}

func TestEncodeNoMerges(t *testing.T) {
	t.Parallel()

	m := trainModel(t, []string{"ab"}, 0)
	require.Equal(t, ids(t, m, "a", "b"), m.Encode("ab", false))
	require.Equal(t, []int{6, 7}, m.Encode("ab", false))
	require.Equal(t, []int{m.BOSID(), 6, 7, m.EOSID()}, m.Encode("ab", true))
}

func TestEncodeHelloWorld(t *testing.T) {
	t.Parallel()

	m := trainModel(t, helloCorpus, 5)
	got := m.Encode("Hello world!", false)
	require.Equal(t, ids(t, m, "Hello</w>", "w", "o", "r", "l", "d", "!"), got)
	require.Equal(t, "Hello world!", m.Decode(got))

	withSpecial := m.Encode("  Hello\tworld! ", true)
	require.Equal(t, 2, withSpecial[0])
	require.Equal(t, 3, withSpecial[len(withSpecial)-1])
	require.Equal(t, got, withSpecial[1:len(withSpecial)-1])
	require.Equal(t, "Hello world!", m.DecodeSkipSpecial(withSpecial))
}

func TestEncodeLowestRankWins(t *testing.T) {
	t.Parallel()

	merges := MergeList{{A: "b", B: "c"}, {A: "a", B: "b"}}
	vocab := BuildVocabulary(DefaultSpecialTokens(), []string{"a", "b", "c", "ab", "bc", EndOfWord})
	m, err := NewModel(merges, vocab)
	require.NoError(t, err)

	require.Equal(t, [][]string{{"a", "bc", EndOfWord}}, m.Segment("abc"))
	require.Equal(t, ids(t, m, "a", "bc"), m.Encode("abc", false))
	require.Equal(t, [][]string{{"ab", EndOfWord}, {"a", "bc", EndOfWord}}, m.Segment("ab abc"))
}

func TestEncodeUnknownSymbols(t *testing.T) {
	t.Parallel()

	m := trainModel(t, helloCorpus, 5)
	unk := m.UnkID()
	require.Equal(t, []int{unk, unk}, m.Encode("xz", false))
	require.Equal(t, "<unk><unk>", m.Decode(m.Encode("xz", false)))
	require.Empty(t, m.Encode("   ", false))
	require.Equal(t, []int{m.BOSID(), m.EOSID()}, m.Encode("", true))
}

func TestDecode(t *testing.T) {
	t.Parallel()

	m := trainModel(t, helloCorpus, 5)
	unk, _ := m.TokenID("<unk>")
	require.Equal(t, "<unk>", m.Decode([]int{unk}))
	require.Equal(t, "", m.Decode(nil))
	require.Equal(t, "<s>Hello </s>", m.Decode(ids(t, m, "<s>", "Hello</w>", "</s>")))
	require.Equal(t, "Hello <unk>", m.Decode([]int{ids(t, m, "Hello</w>")[0], -1}))
	require.Equal(t, "", m.DecodeSkipSpecial([]int{0, 1, 2, 3, 4}))
}

func TestDecodeNeverPanics(t *testing.T) {
	t.Parallel()

	m := trainModel(t, helloCorpus, 5)
	rng := rand.New(rand.NewPCG(5, 6))
	for range 200 {
		in := make([]int, rng.IntN(10))
		for i := range in {
			in[i] = rng.IntN(64) - 32
		}
		require.NotPanics(t, func() { _ = m.Decode(in) })
	}
}

// roundTrips reports whether text is expected to survive encode/decode: no
// symbol falls back to unknown and every word keeps its end-of-word marker
// attached to a real symbol, so word boundaries are recoverable.
func roundTrips(m *Model, text string) bool {
	words := m.Segment(text)
	for i, syms := range words {
		for _, s := range syms {
			if _, ok := m.TokenID(s); !ok && s != EndOfWord {
				return false
			}
		}
		if i < len(words)-1 && syms[len(syms)-1] == EndOfWord {
			return false
		}
	}
	return true
}

func TestRoundTripOnTrainedWords(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(9, 10))
	lines := randomCorpus(rng, 40, "abcd")
	// A budget large enough to merge every word into one symbol.
	m := trainModel(t, lines, 10000)

	checked := 0
	for _, line := range lines {
		if !roundTrips(m, line) {
			continue
		}
		checked++
		got := m.Encode(line, false)
		require.NotContains(t, got, m.UnkID())
		require.Equal(t, line, m.Decode(got))
		require.Equal(t, line, m.DecodeSkipSpecial(m.Encode(line, true)))
	}
	require.NotZero(t, checked)
}

func TestRoundTripSingleWords(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(12, 13))
	lines := randomCorpus(rng, 40, "abcd")
	m := trainModel(t, lines, 15)

	checked := 0
	for _, line := range lines {
		for _, w := range strings.Fields(line) {
			if !roundTrips(m, w) {
				continue
			}
			checked++
			require.Equal(t, w, m.Decode(m.Encode(w, false)))
		}
	}
	require.NotZero(t, checked)
}

func TestEncodeDeterministicAndCacheTransparent(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(21, 22))
	lines := randomCorpus(rng, 30, "abc")
	merges, vocab, err := Train(context.Background(), lines, 25)
	require.NoError(t, err)

	cached, err := NewModelWithConfig(merges, vocab, Config{CacheSize: 8})
	require.NoError(t, err)
	uncached, err := NewModelWithConfig(merges, vocab, Config{CacheSize: -1})
	require.NoError(t, err)

	for range 3 {
		for _, line := range lines {
			require.Equal(t, uncached.Encode(line, true), cached.Encode(line, true))
		}
	}
}

func TestModelConcurrentUse(t *testing.T) {
	t.Parallel()

	m := trainModelWith(t, helloCorpus, 8, Config{CacheSize: 2})
	want := m.Encode("Hello there world!", true)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if got := m.Encode("Hello there world!", true); len(got) != len(want) {
					t.Errorf("concurrent encode: got %v want %v", got, want)
					return
				}
				_ = m.Decode(want)
			}
		}()
	}
	wg.Wait()
}

func TestNewModelValidation(t *testing.T) {
	t.Parallel()

	vocab := BuildVocabulary(DefaultSpecialTokens(), []string{"a"})

	_, err := NewModel(nil, nil)
	require.ErrorIs(t, err, ErrInvalidModel)

	_, err = NewModel(MergeList{{A: "a", B: ""}}, vocab)
	require.ErrorIs(t, err, ErrInvalidModel)

	partial, err := NewVocabulary(map[string]int{"<pad>": 0, "a": 1})
	require.NoError(t, err)
	_, err = NewModel(nil, partial)
	require.ErrorIs(t, err, ErrInvalidModel)

	m, err := NewModel(MergeList{{A: "a", B: "a"}, {A: "a", B: "a"}}, vocab)
	require.NoError(t, err)
	r, ok := m.Rank("a", "a")
	require.True(t, ok)
	require.Zero(t, r)
	require.Equal(t, 6, m.VocabSize())
	require.Equal(t, []int{0, 1, 2, 3, 4}, []int{m.PadID(), m.UnkID(), m.BOSID(), m.EOSID(), m.MaskID()})
}

func TestCustomSpecialTokens(t *testing.T) {
	t.Parallel()

	specials := SpecialTokens{Pad: "[PAD]", Unk: "[UNK]", BOS: "[CLS]", EOS: "[SEP]", Mask: "[MASK]"}
	vocab := BuildVocabulary(specials, []string{"a", EndOfWord})

	_, err := NewModel(nil, vocab)
	require.ErrorIs(t, err, ErrInvalidModel, "default specials are absent from this vocabulary")

	m, err := NewModelWithConfig(MergeList{{A: "a", B: EndOfWord}}, vocab, Config{Specials: specials})
	require.NoError(t, err)
	require.Equal(t, 1, m.UnkID())
	require.Equal(t, "[UNK]", m.Decode([]int{99}))
	require.Equal(t, []int{m.BOSID(), m.UnkID(), m.EOSID()}, m.Encode("b", true))
}
