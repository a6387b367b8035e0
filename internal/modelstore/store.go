// Package modelstore persists a trained tokenizer as two flat files:
// <prefix>_merges.txt and <prefix>_vocab.json.
package modelstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/goccy/go-json"

	"github.com/samcharles93/subword/internal/tokenizer"
)

var (
	ErrMalformedMerges = errors.New("modelstore: malformed merges file")
	ErrMalformedVocab  = errors.New("modelstore: malformed vocabulary file")
)

// Paths returns the merges and vocabulary file names for prefix.
func Paths(prefix string) (merges, vocab string) {
	return prefix + "_merges.txt", prefix + "_vocab.json"
}

// WriteMerges writes one "left right" record per line in rank order.
func WriteMerges(w io.Writer, merges tokenizer.MergeList) error {
	bw := bufio.NewWriter(w)
	for i, p := range merges {
		if strings.ContainsFunc(p.A+p.B, unicode.IsSpace) || p.A == "" || p.B == "" {
			return fmt.Errorf("%w: merge %d (%q, %q) cannot be written as two fields", ErrMalformedMerges, i, p.A, p.B)
		}
		bw.WriteString(p.A)
		bw.WriteByte(' ')
		bw.WriteString(p.B)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadMerges parses a merges file. Blank lines are skipped; any other line
// must hold exactly two whitespace separated symbols.
func ReadMerges(r io.Reader) (tokenizer.MergeList, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var merges tokenizer.MergeList
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: want 2 fields, got %d", ErrMalformedMerges, line, len(fields))
		}
		merges = append(merges, tokenizer.Pair{A: fields[0], B: fields[1]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read merges: %w", err)
	}
	return merges, nil
}

// WriteVocabulary writes the vocabulary as an indented JSON object with one
// entry per line in id order, so diffs between runs stay readable.
func WriteVocabulary(w io.Writer, vocab *tokenizer.Vocabulary) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	bw := bufio.NewWriter(w)
	bw.WriteString("{")
	first := true
	var err error
	vocab.Each(func(tok string, id int) bool {
		buf.Reset()
		if err = enc.Encode(tok); err != nil {
			return false
		}
		if !first {
			bw.WriteByte(',')
		}
		first = false
		bw.WriteString("\n  ")
		bw.Write(bytes.TrimRight(buf.Bytes(), "\n"))
		fmt.Fprintf(bw, ": %d", id)
		return true
	})
	if err != nil {
		return fmt.Errorf("encode vocabulary: %w", err)
	}
	if !first {
		bw.WriteByte('\n')
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

// ReadVocabulary parses a JSON object of token to id.
func ReadVocabulary(r io.Reader) (*tokenizer.Vocabulary, error) {
	var entries map[string]int
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVocab, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedVocab)
	}
	vocab, err := tokenizer.NewVocabulary(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedVocab, err)
	}
	return vocab, nil
}

// Save writes both files for prefix. Each file is written to a temporary
// name first and renamed into place.
func Save(prefix string, merges tokenizer.MergeList, vocab *tokenizer.Vocabulary) error {
	mergesPath, vocabPath := Paths(prefix)
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := writeFile(mergesPath, func(w io.Writer) error { return WriteMerges(w, merges) }); err != nil {
		return err
	}
	return writeFile(vocabPath, func(w io.Writer) error { return WriteVocabulary(w, vocab) })
}

// Load reads both files for prefix.
func Load(prefix string) (tokenizer.MergeList, *tokenizer.Vocabulary, error) {
	mergesPath, vocabPath := Paths(prefix)

	mf, err := os.Open(mergesPath)
	if err != nil {
		return nil, nil, err
	}
	defer mf.Close()
	merges, err := ReadMerges(mf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", mergesPath, err)
	}

	vf, err := os.Open(vocabPath)
	if err != nil {
		return nil, nil, err
	}
	defer vf.Close()
	vocab, err := ReadVocabulary(vf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", vocabPath, err)
	}
	return merges, vocab, nil
}

// LoadModel loads prefix and builds a tokenizer from it.
func LoadModel(prefix string, cfg tokenizer.Config) (*tokenizer.Model, error) {
	merges, vocab, err := Load(prefix)
	if err != nil {
		return nil, err
	}
	return tokenizer.NewModelWithConfig(merges, vocab, cfg)
}

func writeFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := write(tmp); err != nil {
		return cleanup(fmt.Errorf("write %s: %w", path, err))
	}
	if err := tmp.Chmod(0o644); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}
