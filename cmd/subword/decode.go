package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
)

func decodeCmd() *cli.Command {
	var (
		modelPrefix string
		skipSpecial bool
	)

	return &cli.Command{
		Name:      "decode",
		Usage:     "Convert token ids back to text",
		ArgsUsage: "[id...] (reads whitespace or comma separated ids from stdin when none are given)",
		Flags: []cli.Flag{
			modelFlag(&modelPrefix),
			&cli.BoolFlag{
				Name:        "skip-special",
				Usage:       "omit special tokens from the output",
				Destination: &skipSpecial,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			model, err := loadModel(ctx, cmd, modelPrefix, 0)
			if err != nil {
				return err
			}

			w := outWriter(cmd)
			emit := func(line string) error {
				ids, err := parseIDs(line)
				if err != nil {
					return err
				}
				if skipSpecial {
					fmt.Fprintln(w, model.DecodeSkipSpecial(ids))
				} else {
					fmt.Fprintln(w, model.Decode(ids))
				}
				return nil
			}

			if cmd.Args().Present() {
				return emit(strings.Join(cmd.Args().Slice(), " "))
			}
			return eachInputLine(cmd, "ids> ", emit)
		},
	}
}

// parseIDs accepts ids separated by whitespace and/or commas, optionally
// wrapped in brackets as printed by encode --json.
func parseIDs(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
