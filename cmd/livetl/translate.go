package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orbitsmeet/livetl"
	"github.com/orbitsmeet/livetl/richtext"
)

type translateOptions struct {
	from    string
	to      string
	context []string
	html    bool
	json    bool
}

func newTranslateCmd(a *app) *cobra.Command {
	var opts translateOptions

	cmd := &cobra.Command{
		Use:   "translate [TEXT...]",
		Short: "Translate a caption or chat message",
		Long: `Translate text given as arguments, or read from stdin when none are given.

Without --from the source language is detected first. With --html the input
is treated as a chat message fragment: markup, code blocks and elements
marked data-no-translate are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd.Context(), a, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.from, "from", "f", "", "source language code (detected when empty)")
	cmd.Flags().StringVarP(&opts.to, "to", "t", "", "target language code (required)")
	cmd.Flags().StringArrayVar(&opts.context, "context", nil, "previous utterance for context (repeatable, oldest first)")
	cmd.Flags().BoolVar(&opts.html, "html", false, "treat input as an HTML chat message")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output result as JSON")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runTranslate(ctx context.Context, a *app, opts translateOptions, args []string) error {
	target, ok := livetl.NormalizeLanguageCode(opts.to)
	if !ok {
		return fmt.Errorf("invalid target language %q", opts.to)
	}

	text, err := readInput(a.stdin, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to translate")
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}

	if opts.html {
		res, err := richtext.New(svc).Translate(ctx, text, opts.from, target)
		if err != nil {
			return err
		}
		if opts.json {
			return writeJSON(a.stdout, res)
		}
		fmt.Fprintln(a.stdout, res.Content)
		return nil
	}

	source := opts.from
	if source == "" {
		source = svc.DetectLanguage(ctx, text)
	}

	res, err := svc.Translate(ctx, livetl.Request{
		Text:       text,
		SourceLang: source,
		TargetLang: target,
		Context:    opts.context,
	})
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(a.stdout, translationJSON{
			Translation: res.Translation,
			Source:      source,
			Target:      target,
			Direction:   livetl.GetDirection(target),
			FromCache:   res.FromCache,
			Confidence:  res.Confidence,
		})
	}

	fmt.Fprintln(a.stdout, res.Translation)
	return nil
}

type translationJSON struct {
	Translation string  `json:"translation"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Direction   string  `json:"direction"`
	FromCache   bool    `json:"from_cache"`
	Confidence  float64 `json:"confidence"`
}

// readInput joins args, or reads all of r when there are none.
func readInput(r io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
