package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/subword/internal/corpus"
	"github.com/samcharles93/subword/internal/logger"
	"github.com/samcharles93/subword/internal/modelstore"
	"github.com/samcharles93/subword/internal/tokenizer"
)

func trainCmd() *cli.Command {
	var (
		merges        int64
		out           string
		minFrequency  int64
		progressEvery int64
		maxLines      int64
		fields        []string
	)

	return &cli.Command{
		Name:      "train",
		Usage:     "Learn merges and a vocabulary from corpus files",
		ArgsUsage: "<corpus file>... (- reads stdin; .jsonl/.ndjson are read as records)",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "merges",
				Aliases:     []string{"n", "num-merges"},
				Usage:       "number of merge rules to learn",
				Value:       10000,
				Destination: &merges,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path prefix",
				Value:       "bpe",
				Destination: &out,
			},
			&cli.Int64Flag{
				Name:        "min-frequency",
				Usage:       "stop once the most frequent pair occurs fewer times than this",
				Value:       1,
				Destination: &minFrequency,
			},
			&cli.Int64Flag{
				Name:        "progress-every",
				Usage:       "log progress every n merges (0 disables)",
				Value:       500,
				Destination: &progressEvery,
			},
			&cli.Int64Flag{
				Name:        "max-lines",
				Usage:       "stop reading the corpus after this many lines (0 = all)",
				Destination: &maxLines,
			},
			&cli.StringSliceFlag{
				Name:        "field",
				Usage:       "JSONL field to read (repeatable; default: keys containing text, utter or dialog)",
				Destination: &fields,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyTrainConfig(cmd, cfg, &merges, &minFrequency, &progressEvery)

			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("train: at least one corpus file is required")
			}
			lines, err := corpus.Load(ctx, paths, corpus.Options{
				Fields:   fields,
				MaxLines: int(maxLines),
				Stdin:    inReader(cmd),
				Log:      log,
			})
			if err != nil {
				return err
			}

			trainer := tokenizer.NewTrainer(tokenizer.Config{
				Log:           log.With("component", "trainer"),
				MinFrequency:  int(minFrequency),
				ProgressEvery: int(progressEvery),
			})
			res, err := trainer.Run(ctx, lines, int(merges))
			if err != nil {
				return err
			}
			if err := modelstore.Save(out, res.Merges, res.Vocab); err != nil {
				return err
			}

			mergesPath, vocabPath := modelstore.Paths(out)
			w := outWriter(cmd)
			fmt.Fprintf(w, "lines:      %d\n", len(lines))
			fmt.Fprintf(w, "words:      %d (%d distinct shapes after training)\n", res.Words, res.Shapes)
			fmt.Fprintf(w, "merges:     %d of %d", len(res.Merges), merges)
			if res.Exhausted {
				fmt.Fprint(w, " (pairs exhausted)")
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "vocabulary: %d tokens\n", res.Vocab.Len())
			fmt.Fprintf(w, "elapsed:    %s\n", res.Elapsed.Round(1e6))
			fmt.Fprintf(w, "wrote %s and %s\n", mergesPath, vocabPath)
			return nil
		},
	}
}
