package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/trawl-media/trawl/bookmarks"
	"github.com/trawl-media/trawl/color"
	"github.com/trawl-media/trawl/icon"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/podcasts"
	"github.com/trawl-media/trawl/source"
	"github.com/trawl-media/trawl/style"
	"github.com/trawl-media/trawl/util"
)

// storer opens a writable source.
func storer(id string) source.Storer {
	src, err := openSource(id)
	handleErr(err)

	s, ok := src.(source.Storer)
	if !ok {
		closeSource(src)
		handleErr(fmt.Errorf("%s: %w", id, source.ErrUnsupported))
	}
	return s
}

func store(id string, parent, m *media.Media) {
	s := storer(id)
	defer closeSource(s)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Adding %s...", icon.Get(icon.Progress), lo.CoalesceOrEmpty(m.Title, m.URL)))
	err := s.Store(ctx, parent, m)
	erase()
	handleErr(err)

	fmt.Printf("%s added %s %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(m.Title), style.Faint(m.Source+":"+m.ID))
}

func remove(id string, ids []string) {
	s := storer(id)
	defer closeSource(s)

	for _, itemID := range ids {
		handleErr(s.Remove(context.Background(), &media.Media{ID: itemID, Source: id}))
		fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Faint(id+":"+itemID))
	}
}

func init() {
	rootCmd.AddCommand(podcastsCmd)
	podcastsCmd.AddCommand(podcastsAddCmd, podcastsRemoveCmd)

	podcastsAddCmd.Flags().StringP("title", "t", "", "Title to use instead of the feed title")
}

var podcastsCmd = &cobra.Command{
	Use:   "podcasts",
	Short: "Manage podcast subscriptions",
	Long:  "Manage podcast subscriptions. Use \"trawl browse podcasts\" to list them.",
}

var podcastsAddCmd = &cobra.Command{
	Use:     "add <feed url>",
	Short:   "Subscribe to a podcast feed",
	Example: "  trawl podcasts add https://feeds.example.com/science.xml",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store(podcasts.ID, nil, &media.Media{
			URL:   args[0],
			Title: lo.Must(cmd.Flags().GetString("title")),
		})
	},
}

var podcastsRemoveCmd = &cobra.Command{
	Use:   "remove <id>...",
	Short: "Unsubscribe from podcasts or drop single streams",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		remove(podcasts.ID, args)
	},
}

func init() {
	rootCmd.AddCommand(bookmarksCmd)
	bookmarksCmd.AddCommand(bookmarksAddCmd, bookmarksMkdirCmd, bookmarksRemoveCmd)

	for _, c := range []*cobra.Command{bookmarksAddCmd, bookmarksMkdirCmd} {
		c.Flags().StringP("parent", "p", "", "Id of the parent folder, the root when empty")
		c.Flags().StringP("description", "d", "", "Description")
	}
	bookmarksAddCmd.Flags().StringP("title", "t", "", "Title of the stream")
	bookmarksAddCmd.Flags().String("mime", "", "MIME type of the stream")
}

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "Manage bookmarked streams and folders",
	Long:  "Manage bookmarked streams and folders. Use \"trawl browse bookmarks\" to list them.",
}

func parentFolder(cmd *cobra.Command) *media.Media {
	if id := lo.Must(cmd.Flags().GetString("parent")); id != "" {
		return media.NewContainer(bookmarks.ID, id, "")
	}
	return nil
}

var bookmarksAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Bookmark a stream",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mime := lo.Must(cmd.Flags().GetString("mime"))
		store(bookmarks.ID, parentFolder(cmd), &media.Media{
			Kind:        media.KindFromMIME(mime),
			URL:         args[0],
			Title:       lo.CoalesceOrEmpty(lo.Must(cmd.Flags().GetString("title")), args[0]),
			Description: lo.Must(cmd.Flags().GetString("description")),
			MIME:        mime,
		})
	},
}

var bookmarksMkdirCmd = &cobra.Command{
	Use:   "mkdir <title>",
	Short: "Create a bookmark folder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		folder := media.NewContainer("", "", args[0])
		folder.Description = lo.Must(cmd.Flags().GetString("description"))
		store(bookmarks.ID, parentFolder(cmd), folder)
	},
}

var bookmarksRemoveCmd = &cobra.Command{
	Use:   "remove <id>...",
	Short: "Remove bookmarks, folders with everything inside",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		remove(bookmarks.ID, args)
	},
}
