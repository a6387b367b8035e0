// Package corpus assembles training lines from local text and JSONL files.
package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/subword/internal/logger"
)

// ErrMalformedRecord is returned for a JSONL line that is not a JSON object.
var ErrMalformedRecord = errors.New("corpus: malformed record")

// Stdin is the path that selects Options.Stdin.
const Stdin = "-"

// fallbackKeys selects record fields when no explicit field list is given.
var fallbackKeys = []string{"text", "utter", "dialog"}

// Options controls Load.
type Options struct {
	// Fields lists the JSONL keys to read. Empty means every key that
	// contains "text", "utter" or "dialog".
	Fields []string
	// MaxLines stops reading once this many lines were collected. Zero means
	// no limit.
	MaxLines int
	// Stdin is read for the path "-". Defaults to os.Stdin.
	Stdin io.Reader
	Log   logger.Logger
}

// Load reads every path in order. Files ending in .jsonl or .ndjson are read
// as JSONL records, anything else as plain lines.
func Load(ctx context.Context, paths []string, opts Options) ([]string, error) {
	log := opts.Log
	if log == nil {
		log = logger.Discard()
	}
	var lines []string
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := loadOne(path, opts)
		if err != nil {
			return nil, err
		}
		log.Info("corpus file loaded", "path", path, "lines", len(got))
		lines = append(lines, got...)
		if opts.MaxLines > 0 && len(lines) >= opts.MaxLines {
			lines = lines[:opts.MaxLines]
			log.Info("corpus line limit reached", "max_lines", opts.MaxLines)
			break
		}
	}
	return lines, nil
}

func loadOne(path string, opts Options) ([]string, error) {
	var r io.Reader
	if path == Stdin {
		r = opts.Stdin
		if r == nil {
			r = os.Stdin
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var (
		lines []string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		lines, err = ReadJSONL(r, opts.Fields)
	default:
		lines, err = ReadLines(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// ReadLines returns every line of r that is not blank. Line endings are
// stripped; other whitespace is left for the normalizer.
func ReadLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	var lines []string
	for {
		line, err := br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadJSONL collects text from one JSON object per line. String values are
// taken as is; arrays and nested objects contribute every string they
// contain, at any depth, object keys in sorted order.
func ReadJSONL(r io.Reader, fields []string) ([]string, error) {
	br := bufio.NewReader(r)
	var lines []string
	for n := 1; ; n++ {
		raw, err := br.ReadBytes('\n')
		if len(strings.TrimSpace(string(raw))) > 0 {
			var rec map[string]any
			if jerr := json.Unmarshal(raw, &rec); jerr != nil || rec == nil {
				return nil, fmt.Errorf("%w: line %d", ErrMalformedRecord, n)
			}
			for _, key := range selectKeys(rec, fields) {
				lines = appendStrings(lines, rec[key])
			}
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func selectKeys(rec map[string]any, fields []string) []string {
	if len(fields) > 0 {
		return fields
	}
	var keys []string
	for k := range rec {
		lk := strings.ToLower(k)
		for _, want := range fallbackKeys {
			if strings.Contains(lk, want) {
				keys = append(keys, k)
				break
			}
		}
	}
	slices.Sort(keys)
	return keys
}

func appendStrings(out []string, v any) []string {
	switch v := v.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	case []any:
		for _, item := range v {
			out = appendStrings(out, item)
		}
	case map[string]any:
		// a selected field owns its whole subtree, e.g. utterances[].candidates
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			out = appendStrings(out, v[k])
		}
	}
	return out
}
