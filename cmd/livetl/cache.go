package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbitsmeet/livetl"
	"github.com/orbitsmeet/livetl/cache"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the persistent translation cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache size, capacity and TTL",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.openCache()
				if err != nil {
					return err
				}
				cfg := a.settings()
				stats := c.Stats()
				fmt.Fprintf(a.stdout, "Store:    %s\n", cfg.Store)
				fmt.Fprintf(a.stdout, "Entries:  %d / %d\n", stats.Size, stats.MaxSize)
				fmt.Fprintf(a.stdout, "TTL:      %s\n", stats.TTL)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached translation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.openCache()
				if err != nil {
					return err
				}
				n := c.Len()
				c.Clear()
				fmt.Fprintf(a.stdout, "Removed %d entries\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "cleanup",
			Short: "Remove expired translations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.openCache()
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Removed %d expired entries\n", c.Cleanup())
				return nil
			},
		},
		&cobra.Command{
			Use:   "export [FILE]",
			Short: "Write the cache as JSON to FILE or stdout",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.openCache()
				if err != nil {
					return err
				}
				meta := map[string]string{
					"generator": livetl.Name + "/" + livetl.FullVersion(),
				}
				if len(args) == 0 || args[0] == "-" {
					return c.Export(a.stdout, meta)
				}
				if err := c.ExportToFile(args[0], meta); err != nil {
					return err
				}
				fmt.Fprintf(a.stderr, "Exported %d entries to %s\n", c.Len(), args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "import FILE",
			Short: "Load translations from a JSON export",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.openCache()
				if err != nil {
					return err
				}

				var r *cache.ImportResult
				if args[0] == "-" {
					r, err = c.Import(a.stdin)
				} else {
					r, err = c.ImportFromFile(args[0])
				}
				if err != nil {
					return err
				}

				fmt.Fprintf(a.stdout, "Imported %d entries (%d expired)\n", r.Imported, r.Expired)
				return nil
			},
		},
	)

	return cmd
}
