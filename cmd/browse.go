package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/source"
)

func init() {
	rootCmd.AddCommand(browseCmd)

	addOutputFlags(browseCmd)
	addWindowFlags(browseCmd)
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().Uint32P("skip", "s", 0, "Number of items to skip")
	cmd.Flags().Uint32P("count", "n", 0, "Maximum number of items, 0 for the default")
}

func windowOptions(cmd *cobra.Command) source.Options {
	return source.Options{
		Skip:  lo.Must(cmd.Flags().GetUint32("skip")),
		Count: lo.Must(cmd.Flags().GetUint32("count")),
	}.Normalize()
}

var browseCmd = &cobra.Command{
	Use:   "browse <source> [container id]",
	Short: "List the root or a container of a source",
	Example: `  trawl browse jamendo
  trawl browse jamendo artist/5 --count 10
  trawl browse podcasts --json`,
	Args:              cobra.RangeArgs(0, 2),
	ValidArgsFunction: completionSources,
	Run: func(cmd *cobra.Command, args []string) {
		if printSchema(cmd) {
			return
		}
		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		src, err := openSource(args[0])
		handleErr(err)
		defer closeSource(src)

		browser, ok := src.(source.Browser)
		if !ok {
			handleErr(fmt.Errorf("%s: %w", src.ID(), source.ErrUnsupported))
		}

		var container *media.Media
		if len(args) == 2 {
			container = media.NewContainer(src.ID(), args[1], "")
		}

		ctx, cancel := interruptible()
		defer cancel()

		p := newPrinter(cmd)
		opts := windowOptions(cmd)
		count, err := stream(ctx, src, func(cb source.Callback) fetch.OperationID {
			return browser.Browse(container, opts, cb)
		}, p.Item)
		handleErr(err)

		if count == 0 {
			p.Empty("items")
		}
	},
}
