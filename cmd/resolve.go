package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/trawl-media/trawl/localfs"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/provider"
	"github.com/trawl-media/trawl/source"
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	addOutputFlags(resolveCmd)

	f := resolveCmd.Flags()
	f.StringSliceP("with", "w", []string{}, "Resolvers to try in order, defaults to every source that can resolve the item")
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("with", completionSources))

	f.String("file", "", "Describe a local file instead of a source item")
	f.String("title", "", "Title of the item")
	f.String("url", "", "URL of the item")
	f.String("kind", "", "Kind of the item (container, audio, video, image, text)")
	f.String("show", "", "Show the item belongs to")
	f.Int("season", 0, "Season number")
	f.Int("episode", 0, "Episode number")
	f.String("hash", "", "OpenSubtitles movie hash")
	f.Int64("size", 0, "Size in bytes")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [<source> <id>]",
	Short: "Fill in missing metadata of an item",
	Long: `Fill in missing metadata of an item.

The item is either a source item given by source and id, a local file given
with --file, or described only by flags. Every resolver that accepts the item
is tried in turn until the requested keys are known.`,
	Example: `  trawl resolve tmdb 603 --keys description,thumbnail
  trawl resolve --title Alien --kind video -w tmdb
  trawl resolve --file ~/Videos/alien.mkv --keys subtitles`,
	Args: cobra.MatchAll(cobra.MaximumNArgs(2), func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return errors.New("an item id is required after the source")
		}
		return nil
	}),
	ValidArgsFunction: completionSources,
	Run: func(cmd *cobra.Command, args []string) {
		if printSchema(cmd) {
			return
		}

		m := itemFromFlags(cmd)
		if len(args) == 2 {
			m.Source, m.ID = args[0], args[1]
		}

		if path := lo.Must(cmd.Flags().GetString("file")); path != "" {
			abs, err := filepath.Abs(path)
			handleErr(err)

			described, err := localfs.Describe(abs)
			handleErr(err)

			m.Source, m.ID = localfs.ID, abs
			m.Merge(described)
		}

		if m.Source == "" && m.Title == "" && m.URL == "" {
			handleErr(errors.New("nothing to resolve, pass a source and id, --file or --title"))
		}

		p := newPrinter(cmd)
		keys := p.keys
		if len(keys) == 0 {
			keys = media.Keys
		}

		ctx, cancel := interruptible()
		defer cancel()

		with := lo.Must(cmd.Flags().GetStringSlice("with"))
		resolved := resolveWith(m, keys, resolverIDs(m, with), func(r source.Resolver) error {
			return r.Resolve(ctx, m, keys)
		})

		if ctx.Err() != nil {
			handleErr(errInterrupted)
		}
		if resolved == 0 && len(with) > 0 {
			handleErr(fmt.Errorf("no resolver accepted %s", m))
		}

		p.Item(m)
	},
}

func itemFromFlags(cmd *cobra.Command) *media.Media {
	f := cmd.Flags()
	return &media.Media{
		Kind:    media.ParseKind(lo.Must(f.GetString("kind"))),
		Title:   lo.Must(f.GetString("title")),
		URL:     lo.Must(f.GetString("url")),
		Show:    lo.Must(f.GetString("show")),
		Season:  lo.Must(f.GetInt("season")),
		Episode: lo.Must(f.GetInt("episode")),
		Hash:    lo.Must(f.GetString("hash")),
		Size:    lo.Must(f.GetInt64("size")),
	}
}

// resolverIDs returns the explicit resolvers, or the item's own source followed by every other provider.
func resolverIDs(m *media.Media, with []string) []string {
	if len(with) > 0 {
		return with
	}

	ids := lo.Map(provider.All(), func(p *provider.Provider, _ int) string {
		return p.ID
	})
	if m.Source != "" {
		ids = append([]string{m.Source}, lo.Without(ids, m.Source)...)
	}
	return ids
}

// resolveWith runs resolve against each accepting source until no key is missing.
// It returns how many resolvers ran.
func resolveWith(m *media.Media, keys []media.Key, ids []string, resolve func(source.Resolver) error) int {
	var ran int

	for _, id := range ids {
		if len(m.Missing(keys)) == 0 {
			break
		}

		src, err := openSource(id)
		if err != nil {
			log.Warn(err)
			continue
		}

		func() {
			defer closeSource(src)

			r, ok := src.(source.Resolver)
			if !ok || !r.MayResolve(m, keys) {
				return
			}

			ran++
			log.Infof("resolving %s with %s", m, id)
			if err := resolve(r); err != nil {
				log.Warnf("%s: %v", id, err)
			}
		}()
	}

	return ran
}
