package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/trawl-media/trawl/color"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/icon"
	"github.com/trawl-media/trawl/key"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/media"
	"github.com/trawl-media/trawl/query"
	"github.com/trawl-media/trawl/source"
	"github.com/trawl-media/trawl/style"
)

func init() {
	rootCmd.AddCommand(searchCmd)

	addOutputFlags(searchCmd)
	addWindowFlags(searchCmd)

	searchCmd.Flags().StringSliceP("source", "S", []string{}, "Sources to search, defaults to "+key.DefaultSources)
	lo.Must0(searchCmd.RegisterFlagCompletionFunc("source", completionSources))
	lo.Must0(viper.BindPFlag(key.DefaultSources, searchCmd.Flags().Lookup("source")))
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search one or more sources",
	Example: `  trawl search "big buck bunny" -S vimeo,tmdb
  trawl search jazz -S jamendo --count 5 --json`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if printSchema(cmd) {
			return
		}

		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			handleErr(cmd.Help())
			return
		}

		ids := lo.Uniq(viper.GetStringSlice(key.DefaultSources))
		if len(ids) == 0 {
			handleErr(fmt.Errorf("no sources selected, pass --source or set %s", key.DefaultSources))
		}

		ctx, cancel := interruptible()
		defer cancel()

		p := newPrinter(cmd)
		total := searchSources(ctx, ids, text, windowOptions(cmd), p)

		if err := query.Remember(text, 1); err != nil {
			log.Warn(err)
		}

		if total == 0 {
			p.Empty("results for " + text)

			if viper.GetBool(key.SearchShowQuerySuggestions) && !p.json {
				if suggestion, ok := query.Suggest(text).Get(); ok {
					fmt.Printf("%s did you mean %s?\n", icon.Get(icon.Search), style.Fg(color.Yellow)(suggestion))
				}
			}
		}
	},
}

// searchSources queries every source concurrently. Text output is grouped per source
// in the order given, JSON lines are printed as they arrive.
func searchSources(ctx context.Context, ids []string, text string, opts source.Options, p *printer) int {
	type result struct {
		items []*media.Media
		count int
		err   error
	}

	var (
		wg      sync.WaitGroup
		results = make([]result, len(ids))
	)

	for i, id := range ids {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()

			src, err := openSource(id)
			if err != nil {
				results[i].err = err
				return
			}
			defer closeSource(src)

			searcher, ok := src.(source.Searcher)
			if !ok {
				results[i].err = fmt.Errorf("%s: %w", id, source.ErrUnsupported)
				return
			}

			results[i].count, results[i].err = stream(ctx, src, func(cb source.Callback) fetch.OperationID {
				return searcher.Search(text, opts, cb)
			}, func(m *media.Media) {
				if p.json {
					p.Item(m)
					return
				}
				results[i].items = append(results[i].items, m)
			})
			if results[i].err != nil {
				results[i].err = fmt.Errorf("%s: %w", id, results[i].err)
			}
		}()
	}
	wg.Wait()

	var total int
	for i, r := range results {
		if r.err != nil {
			log.Error(r.err)
			p.Warn(r.err)
		}

		total += r.count
		if p.json || len(r.items) == 0 {
			continue
		}

		if len(ids) > 1 {
			fmt.Fprintln(p.out, style.Title(ids[i]))
		}
		for _, m := range r.items {
			p.Item(m)
		}
	}

	return total
}
