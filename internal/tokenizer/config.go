package tokenizer

import "github.com/samcharles93/subword/internal/logger"

// DefaultCacheSize is the number of segmented words a Model remembers.
const DefaultCacheSize = 4096

// Config tunes training and model construction. The zero value gives the
// defaults.
type Config struct {
	// Specials is the reserved token set. Zero means DefaultSpecialTokens.
	Specials SpecialTokens
	// Log receives training progress. Nil discards it.
	Log logger.Logger
	// ProgressEvery logs a progress line every n merges. Zero disables it.
	ProgressEvery int
	// MinFrequency stops training once the best pair occurs fewer than this
	// many times. Values below 1 mean 1.
	MinFrequency int
	// CacheSize bounds the word segmentation cache. Zero means
	// DefaultCacheSize and a negative value disables the cache.
	CacheSize int
}

func (c Config) withDefaults() Config {
	if c.Specials == (SpecialTokens{}) {
		c.Specials = DefaultSpecialTokens()
	}
	if c.Log == nil {
		c.Log = logger.Discard()
	}
	c.ProgressEvery = max(c.ProgressEvery, 0)
	c.MinFrequency = max(c.MinFrequency, 1)
	if c.CacheSize == 0 {
		c.CacheSize = DefaultCacheSize
	}
	return c
}
