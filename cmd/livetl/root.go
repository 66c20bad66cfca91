package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "livetl",
		Short: "Live AI translation for meeting captions and chat",
		Long: `livetl translates meeting captions and chat messages with a generative
model, memoizing results in a persistent LRU cache.

Configuration comes from LIVETL_* environment variables (a .env file in the
working directory is loaded first); flags override them.

Examples:
  # Translate a caption
  livetl translate --to es "Good morning everyone"

  # Translate a chat message with markup
  livetl translate --to ja --html "<p>See <code>main.go</code> for details</p>"

  # Translate many lines at once
  livetl batch --to fr captions.txt

  # Inspect the cache
  livetl cache stats`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.provider, "provider", "", "AI provider: gemini, openai or mock (env LIVETL_PROVIDER)")
	flags.StringVar(&a.flags.model, "model", "", "model identifier (env LIVETL_MODEL)")
	flags.StringVar(&a.flags.store, "store", "", "cache storage: badger, sqlite, redis, memory or none (env LIVETL_STORE)")
	flags.IntVar(&a.flags.concurrency, "concurrency", 0, "maximum in-flight provider calls (env LIVETL_CONCURRENCY)")
	flags.BoolVar(&a.flags.dryRun, "dry-run", false, "use the built-in mock provider instead of a real model")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newTranslateCmd(a),
		newBatchCmd(a),
		newDetectCmd(a),
		newCacheCmd(a),
		newVersionCmd(a),
	)

	return root
}
