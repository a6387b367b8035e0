package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// runApp runs the CLI in-process. Commands share package level flag
// variables, so these tests must not run in parallel.
func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configFile, debug = "", false

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	app.Reader = strings.NewReader(stdin)
	err := app.Run(context.Background(), append([]string{"subword"}, args...))
	return out.String(), err
}

func trainHello(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(corpusPath, []byte("Hello world!\nHello there world!\n"), 0o644))

	prefix := filepath.Join(dir, "hello")
	out, err := runApp(t, "", "train", "-n", "5", "-o", prefix, corpusPath)
	require.NoError(t, err)
	require.Contains(t, out, "merges:     5 of 5")
	require.Contains(t, out, "vocabulary: 16 tokens")
	return prefix
}

func TestTrainEncodeDecode(t *testing.T) {
	prefix := trainHello(t)

	merges, err := os.ReadFile(prefix + "_merges.txt")
	require.NoError(t, err)
	require.Equal(t, "H e\nHe l\nHel l\nHell o\nHello </w>\n", string(merges))

	out, err := runApp(t, "", "encode", "--model", prefix, "--no-special", "Hello", "world!")
	require.NoError(t, err)
	require.Equal(t, "7 15 12 13 11 8 5\n", out)

	out, err = runApp(t, "", "encode", "--model", prefix, "Hello world!")
	require.NoError(t, err)
	require.Equal(t, "2 7 15 12 13 11 8 5 3\n", out)

	out, err = runApp(t, "", "decode", "--model", prefix, "7", "15", "12", "13", "11", "8", "5")
	require.NoError(t, err)
	require.Equal(t, "Hello world!\n", out)

	out, err = runApp(t, "", "decode", "--model", prefix, "--skip-special", "2,7,3")
	require.NoError(t, err)
	require.Equal(t, "Hello\n", out)
}

func TestEncodeReadsStdin(t *testing.T) {
	prefix := trainHello(t)

	out, err := runApp(t, "Hello\n\nworld!\n", "encode", "--model", prefix, "--no-special", "--json", "--tokens")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var first encodeOutput
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "Hello", first.Text)
	require.Equal(t, []int{7}, first.IDs)
	require.Equal(t, [][]string{{"Hello</w>"}}, first.Tokens)
}

func TestDecodeReadsStdin(t *testing.T) {
	prefix := trainHello(t)

	out, err := runApp(t, "[7, 15, 12]\n7\n", "decode", "--model", prefix)
	require.NoError(t, err)
	require.Equal(t, "Hello wo\nHello\n", out)
}

func TestInspectJSON(t *testing.T) {
	prefix := trainHello(t)

	out, err := runApp(t, "", "inspect", "--model", prefix, "--head", "2", "--json")
	require.NoError(t, err)

	var got inspectOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, 5, got.Merges)
	require.Equal(t, 16, got.VocabSize)
	require.Equal(t, 1, got.Specials["<unk>"])
	require.Len(t, got.Head, 2)
	require.Equal(t, inspectMerge{Rank: 1, Left: "He", Right: "l", Result: "Hel"}, got.Head[1])
	require.Equal(t, []string{"Hello</w>", "</w>", "!", "d", "e"}, got.Longest)
}

func TestModelRequired(t *testing.T) {
	_, err := runApp(t, "", "encode", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--model is required")
}

func TestTrainRequiresCorpus(t *testing.T) {
	_, err := runApp(t, "", "train", "-o", filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
}

func TestConfigSuppliesModel(t *testing.T) {
	prefix := trainHello(t)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("model: "+prefix+"\nlog_level: warn\n"), 0o644))

	out, err := runApp(t, "", "--config", configPath, "encode", "--no-special", "Hello")
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" [1, 2,3  4]\t")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4}, ids)

	ids, err = parseIDs("")
	require.NoError(t, err)
	require.Empty(t, ids)

	_, err = parseIDs("1 two")
	require.Error(t, err)
}
