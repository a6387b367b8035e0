package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/modelstore"
	"github.com/samcharles93/subword/internal/tokenizer"
)

type encodeOutput struct {
	Text   string     `json:"text"`
	IDs    []int      `json:"ids"`
	Tokens [][]string `json:"tokens,omitempty"`
}

func encodeCmd() *cli.Command {
	var (
		modelPrefix string
		noSpecial   bool
		showTokens  bool
		asJSON      bool
		cacheSize   int64
	)

	return &cli.Command{
		Name:      "encode",
		Usage:     "Convert text to token ids",
		ArgsUsage: "[text...] (reads lines from stdin when no text is given)",
		Flags: []cli.Flag{
			modelFlag(&modelPrefix),
			cacheSizeFlag(&cacheSize),
			&cli.BoolFlag{
				Name:        "no-special",
				Usage:       "do not wrap the ids in begin/end of sequence tokens",
				Destination: &noSpecial,
			},
			&cli.BoolFlag{
				Name:        "tokens",
				Usage:       "also print how each word was segmented",
				Destination: &showTokens,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print one JSON object per input",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, cfg, &cacheSize)
			model, err := loadModel(ctx, cmd, modelPrefix, cacheSize)
			if err != nil {
				return err
			}

			w := outWriter(cmd)
			enc := json.NewEncoder(w)
			enc.SetEscapeHTML(false)
			emit := func(text string) error {
				out := encodeOutput{Text: text, IDs: model.Encode(text, !noSpecial)}
				if showTokens {
					out.Tokens = model.Segment(text)
				}
				if asJSON {
					return enc.Encode(out)
				}
				fmt.Fprintln(w, formatIDs(out.IDs))
				for _, word := range out.Tokens {
					fmt.Fprintf(w, "  %s\n", strings.Join(word, " "))
				}
				return nil
			}

			if cmd.Args().Present() {
				return emit(strings.Join(cmd.Args().Slice(), " "))
			}
			return eachInputLine(cmd, "text> ", emit)
		},
	}
}

func loadModel(ctx context.Context, cmd *cli.Command, prefix string, cacheSize int64) (*tokenizer.Model, error) {
	prefix, err := requireModel(cmd, prefix)
	if err != nil {
		return nil, err
	}
	size := int(cacheSize)
	if size <= 0 {
		size = -1
	}
	model, err := modelstore.LoadModel(prefix, tokenizer.Config{CacheSize: size})
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", prefix, err)
	}
	logger.FromContext(ctx).Debug("model loaded", "prefix", prefix, "merges", len(model.Merges()), "vocab", model.VocabSize())
	return model, nil
}

// eachInputLine calls fn for every line of the command's input. A prompt is
// shown when the input is an interactive terminal.
func eachInputLine(cmd *cli.Command, prompt string, fn func(string) error) error {
	r := inReader(cmd)
	interactive := false
	if f, ok := r.(*os.File); ok && isTerminal(int(f.Fd())) {
		interactive = true
	}
	br := bufio.NewReader(r)
	for {
		if interactive {
			fmt.Fprint(errWriter(cmd), prompt)
		}
		line, err := br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func formatIDs(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprint(&b, id)
	}
	return b.String()
}
