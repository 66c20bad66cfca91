package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orbitsmeet/livetl"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		from    string
		to      string
		partial bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "batch [FILE]",
		Short: "Translate every non-empty line of a file or stdin",
		Long: `Translate each non-empty line concurrently and print the results in input order.

By default the whole batch fails on the first error. With --partial every line
is reported separately and failed lines are printed to stderr.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, ok := livetl.NormalizeLanguageCode(from)
			if !ok {
				return fmt.Errorf("invalid source language %q", from)
			}
			target, ok := livetl.NormalizeLanguageCode(to)
			if !ok {
				return fmt.Errorf("invalid target language %q", to)
			}

			lines, err := readLines(a.stdin, args)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return nil
			}

			svc, err := a.openService()
			if err != nil {
				return err
			}

			if partial {
				items := svc.BatchTranslatePartial(cmd.Context(), lines, source, target)
				return printPartial(a, lines, items, asJSON)
			}

			results, err := svc.BatchTranslate(cmd.Context(), lines, source, target)
			if err != nil {
				return err
			}

			if asJSON {
				out := make([]translationJSON, len(results))
				for i, r := range results {
					out[i] = translationJSON{
						Translation: r.Translation,
						Source:      source,
						Target:      target,
						Direction:   livetl.GetDirection(target),
						FromCache:   r.FromCache,
						Confidence:  r.Confidence,
					}
				}
				return writeJSON(a.stdout, out)
			}

			for _, r := range results {
				fmt.Fprintln(a.stdout, r.Translation)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&from, "from", "f", livetl.DefaultLanguage, "source language code")
	cmd.Flags().StringVarP(&to, "to", "t", "", "target language code (required)")
	cmd.Flags().BoolVar(&partial, "partial", false, "report failures per line instead of failing the batch")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func printPartial(a *app, lines []string, items []livetl.BatchItem, asJSON bool) error {
	failed := 0

	if asJSON {
		type itemJSON struct {
			Text        string  `json:"text"`
			Translation string  `json:"translation,omitempty"`
			FromCache   bool    `json:"from_cache,omitempty"`
			Confidence  float64 `json:"confidence,omitempty"`
			Error       string  `json:"error,omitempty"`
		}

		out := make([]itemJSON, len(items))
		for i, it := range items {
			out[i].Text = lines[i]
			if it.Err != nil {
				out[i].Error = it.Err.Error()
				failed++
				continue
			}
			out[i].Translation = it.Result.Translation
			out[i].FromCache = it.Result.FromCache
			out[i].Confidence = it.Result.Confidence
		}
		if err := writeJSON(a.stdout, out); err != nil {
			return err
		}
	} else {
		for i, it := range items {
			if it.Err != nil {
				failed++
				fmt.Fprintf(a.stderr, "line %d: %v\n", i+1, it.Err)
				fmt.Fprintln(a.stdout)
				continue
			}
			fmt.Fprintln(a.stdout, it.Result.Translation)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed", failed, len(items))
	}
	return nil
}

// readLines returns the non-empty lines of the named file, or of r.
func readLines(r io.Reader, args []string) ([]string, error) {
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0]) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}
