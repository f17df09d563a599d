package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/trawl-media/trawl/icon"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/open"
	"github.com/trawl-media/trawl/source"
	"github.com/trawl-media/trawl/style"
)

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringP("app", "a", "", "Application to open the item with")
}

var openCmd = &cobra.Command{
	Use:               "open <source> <id>",
	Short:             "Open the url of an item with the system handler",
	Example:           "  trawl open vimeo 76979871 --app mpv",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completionSources,
	Run: func(cmd *cobra.Command, args []string) {
		m := &media.Media{Source: args[0], ID: args[1]}

		ctx, cancel := interruptible()
		defer cancel()

		resolveWith(m, []media.Key{media.KeyURL}, []string{args[0]}, func(r source.Resolver) error {
			return r.Resolve(ctx, m, []media.Key{media.KeyURL})
		})
		if m.URL == "" {
			handleErr(fmt.Errorf("%s has no url", m))
		}

		handleErr(open.Start(m.URL, lo.Must(cmd.Flags().GetString("app"))))
		fmt.Printf("%s opened %s\n", icon.Get(icon.Link), style.Faint(m.URL))
	},
}
