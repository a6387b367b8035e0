package tokenizer

import (
	"context"
	"fmt"
	"time"
)

// TrainResult is the outcome of a training run.
type TrainResult struct {
	Merges MergeList
	Vocab  *Vocabulary

	// Shapes is the number of distinct word shapes left after the last merge.
	Shapes int
	// Words is the number of word occurrences in the corpus.
	Words int
	// Exhausted is set when training stopped before the budget because no
	// pair (or no pair above the minimum frequency) was left.
	Exhausted bool
	Elapsed   time.Duration
}

// Train learns up to numMerges merge rules from lines and builds the
// matching vocabulary.
func Train(ctx context.Context, lines []string, numMerges int) (MergeList, *Vocabulary, error) {
	res, err := NewTrainer(Config{}).Run(ctx, lines, numMerges)
	if err != nil {
		return nil, nil, err
	}
	return res.Merges, res.Vocab, nil
}

// Trainer runs the greedy merge loop. A Trainer holds no state between runs.
type Trainer struct {
	cfg Config
}

// NewTrainer returns a Trainer configured by cfg.
func NewTrainer(cfg Config) *Trainer {
	return &Trainer{cfg: cfg.withDefaults()}
}

// Run trains on lines. Each iteration counts pairs over the current shapes,
// takes the most frequent one (ties go to the pair met first) and folds it
// into every shape. The only error is cancellation of ctx.
func (t *Trainer) Run(ctx context.Context, lines []string, numMerges int) (*TrainResult, error) {
	if err := t.cfg.Specials.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	log := t.cfg.Log

	words := BuildWordVocabulary(lines)
	log.Info("corpus loaded", "lines", len(lines), "words", words.TotalWords(), "shapes", words.Len())

	res := &TrainResult{Words: words.TotalWords()}
	merges := make(MergeList, 0, max(numMerges, 0))
	for len(merges) < numMerges {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("tokenizer: training stopped after %d merges: %w", len(merges), err)
		}
		stats := CountPairs(words)
		best, freq, ok := stats.best()
		if !ok || freq < t.cfg.MinFrequency {
			res.Exhausted = true
			log.Info("no more pairs to merge", "merges", len(merges), "best_freq", freq)
			break
		}

		pair := stats.pair(best)
		merges = append(merges, pair)
		rewritten := words.apply(best)
		log.Debug("merge", "rank", len(merges)-1, "left", pair.A, "right", pair.B, "freq", freq, "rewritten", rewritten)

		if n := t.cfg.ProgressEvery; n > 0 && len(merges)%n == 0 {
			log.Info("training progress",
				"merges", len(merges),
				"budget", numMerges,
				"top_freq", freq,
				"shapes", words.Len(),
				"elapsed", time.Since(start),
			)
		}
	}

	res.Merges = merges
	res.Vocab = BuildVocabulary(t.cfg.Specials, words.Symbols())
	res.Shapes = words.Len()
	res.Elapsed = time.Since(start)
	log.Info("training finished",
		"merges", len(merges),
		"vocab", res.Vocab.Len(),
		"exhausted", res.Exhausted,
		"elapsed", res.Elapsed,
	)
	return res, nil
}
