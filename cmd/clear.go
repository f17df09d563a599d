package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/trawl-media/trawl/icon"
	"github.com/trawl-media/trawl/util"
	"github.com/trawl-media/trawl/where"
)

// clearTarget is a file or directory the clear command can remove.
type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	location func() string
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), where.Cache},
	{"queries history", "queries", mo.Some("q"), where.Queries},
	{"anilist ids", "anilist", mo.Some("a"), where.AnilistIDs},
	{"tmdb ids", "tmdb", mo.Some("t"), where.TMDBIDs},
	{"podcasts database", "podcasts", mo.None[string](), where.Podcasts},
	{"bookmarks database", "bookmarks", mo.None[string](), where.Bookmarks},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove caches and local databases",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		doClear := func(what string) bool {
			return lo.Must(cmd.Flags().GetBool(what))
		}

		for _, target := range clearTargets {
			if doClear(target.argLong) {
				anyCleared = true
				e := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
				err := util.Delete(target.location())
				e()
				if err != nil && !errors.Is(err, fs.ErrNotExist) {
					handleErr(err)
				}
				fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
			}
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
