package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orbitsmeet/livetl"
)

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [TEXT...]",
		Short: "Detect the language of some text",
		Long: `Print the ISO 639-1 code and English name of the text's language.
Detection never fails: the configured default language is printed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(a.stdin, args)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("nothing to detect")
			}

			svc, err := a.openService()
			if err != nil {
				return err
			}

			code := svc.DetectLanguage(cmd.Context(), text)
			fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", code, livetl.LanguageName(code), livetl.GetDirection(code))
			return nil
		},
	}
}
