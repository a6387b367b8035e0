package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/tokenizer"
)

type inspectMerge struct {
	Rank   int    `json:"rank"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	Result string `json:"result"`
}

type inspectOutput struct {
	Merges    int            `json:"merges"`
	VocabSize int            `json:"vocab_size"`
	EndOfWord string         `json:"end_of_word"`
	Specials  map[string]int `json:"specials"`
	Head      []inspectMerge `json:"head"`
	Longest   []string       `json:"longest_tokens"`
}

func inspectCmd() *cli.Command {
	var (
		modelPrefix string
		head        int64
		asJSON      bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Summarize a trained model",
		Flags: []cli.Flag{
			modelFlag(&modelPrefix),
			&cli.Int64Flag{
				Name:        "head",
				Usage:       "number of leading merges to show",
				Value:       10,
				Destination: &head,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			model, err := loadModel(ctx, cmd, modelPrefix, 0)
			if err != nil {
				return err
			}

			merges := model.Merges()
			n := min(max(int(head), 0), len(merges))
			out := inspectOutput{
				Merges:    len(merges),
				VocabSize: model.VocabSize(),
				EndOfWord: tokenizer.EndOfWord,
				Specials:  make(map[string]int),
				Head:      make([]inspectMerge, 0, n),
				Longest:   longestTokens(model.Vocabulary(), model.Specials(), 5),
			}
			for i, p := range merges[:n] {
				out.Head = append(out.Head, inspectMerge{Rank: i, Left: p.A, Right: p.B, Result: p.Merged()})
			}
			for _, tok := range model.Specials().List() {
				id, _ := model.TokenID(tok)
				out.Specials[tok] = id
			}

			w := outWriter(cmd)
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Fprintf(w, "merges:     %d\n", out.Merges)
			fmt.Fprintf(w, "vocabulary: %d tokens\n", out.VocabSize)
			fmt.Fprint(w, "specials:  ")
			for _, tok := range model.Specials().List() {
				fmt.Fprintf(w, " %s=%d", tok, out.Specials[tok])
			}
			fmt.Fprintln(w)
			if len(out.Longest) > 0 {
				fmt.Fprintf(w, "longest:    %q\n", out.Longest)
			}
			if n > 0 {
				fmt.Fprintf(w, "first %d merges:\n", n)
				for _, m := range out.Head {
					fmt.Fprintf(w, "  %4d  %s %s -> %s\n", m.Rank, m.Left, m.Right, m.Result)
				}
			}
			return nil
		},
	}
}

// longestTokens returns up to n non-special tokens with the most runes,
// earliest id first among equals.
func longestTokens(vocab *tokenizer.Vocabulary, specials tokenizer.SpecialTokens, n int) []string {
	var out []string
	var lens []int
	vocab.Each(func(tok string, _ int) bool {
		if specials.Contains(tok) {
			return true
		}
		l := len([]rune(tok))
		i := len(out)
		for i > 0 && lens[i-1] < l {
			i--
		}
		if i >= n {
			return true
		}
		out = append(out, "")
		lens = append(lens, 0)
		copy(out[i+1:], out[i:])
		copy(lens[i+1:], lens[i:])
		out[i], lens[i] = tok, l
		if len(out) > n {
			out, lens = out[:n], lens[:n]
		}
		return true
	})
	return out
}
