// Package provider is the registry of built-in and custom sources.
package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/trawl-media/trawl/anilist"
	"github.com/trawl-media/trawl/auth"
	"github.com/trawl-media/trawl/bookmarks"
	"github.com/trawl-media/trawl/filesystem"
	"github.com/trawl-media/trawl/flickr"
	"github.com/trawl-media/trawl/jamendo"
	"github.com/trawl-media/trawl/key"
	"github.com/trawl-media/trawl/localfs"
	"github.com/trawl-media/trawl/opensubtitles"
	"github.com/trawl-media/trawl/podcasts"
	"github.com/trawl-media/trawl/provider/custom"
	"github.com/trawl-media/trawl/source"
	"github.com/trawl-media/trawl/tmdb"
	"github.com/trawl-media/trawl/util"
	"github.com/trawl-media/trawl/vimeo"
	"github.com/trawl-media/trawl/where"
)

// Provider describes a source that can be created on demand.
type Provider struct {
	ID          string
	Name        string
	Description string

	// IsCustom is set for Lua scripts.
	IsCustom bool

	// NeedsLogin is set for sources whose credentials live in the keyring.
	NeedsLogin bool

	CreateSource func() (source.Source, error)
}

func (p *Provider) String() string {
	return p.Name
}

// Builtins returns the providers compiled into the binary, sorted by id.
func Builtins() []*Provider {
	return []*Provider{
		{
			ID:          anilist.ID,
			Name:        "Anilist",
			Description: "Anime catalog and metadata",
			CreateSource: func() (source.Source, error) {
				return anilist.New(anilist.Config{}), nil
			},
		},
		{
			ID:          bookmarks.ID,
			Name:        "Bookmarks",
			Description: "Folders of saved streams",
			CreateSource: func() (source.Source, error) {
				return bookmarks.New(bookmarks.Config{Path: where.Bookmarks()})
			},
		},
		{
			ID:          flickr.ID,
			Name:        "Flickr",
			Description: "Photos by tag and text",
			CreateSource: func() (source.Source, error) {
				return flickr.New(flickr.Config{APIKey: viper.GetString(key.FlickrAPIKey)}), nil
			},
		},
		{
			ID:          jamendo.ID,
			Name:        "Jamendo",
			Description: "Free music by artist and album",
			CreateSource: func() (source.Source, error) {
				return jamendo.New(jamendo.Config{}), nil
			},
		},
		{
			ID:          localfs.ID,
			Name:        "Local files",
			Description: "Media files in local directories",
			CreateSource: func() (source.Source, error) {
				return localfs.New(localfs.Config{
					Roots:      LocalRoots(),
					ShowHidden: viper.GetBool(key.LocalfsShowHidden),
				}), nil
			},
		},
		{
			ID:          opensubtitles.ID,
			Name:        "OpenSubtitles",
			Description: "Subtitles by movie hash",
			NeedsLogin:  true,
			CreateSource: func() (source.Source, error) {
				credentials, err := auth.Get(opensubtitles.ID)
				if err != nil {
					return nil, err
				}

				return opensubtitles.New(opensubtitles.Config{
					UserAgent:   viper.GetString(key.OpenSubtitlesUserAgent),
					Languages:   viper.GetStringSlice(key.OpenSubtitlesLanguages),
					Credentials: credentials.OrEmpty(),
				}), nil
			},
		},
		{
			ID:          podcasts.ID,
			Name:        "Podcasts",
			Description: "Subscribed podcast feeds",
			CreateSource: func() (source.Source, error) {
				return podcasts.New(podcasts.Config{
					Path:            where.Podcasts(),
					RefreshInterval: time.Duration(viper.GetInt(key.PodcastsRefreshInterval)) * time.Hour,
				})
			},
		},
		{
			ID:          tmdb.ID,
			Name:        "TMDb",
			Description: "Movie metadata",
			CreateSource: func() (source.Source, error) {
				return tmdb.New(tmdb.Config{
					APIKey:   viper.GetString(key.TMDBAPIKey),
					Language: viper.GetString(key.TMDBLanguage),
				}), nil
			},
		},
		{
			ID:          vimeo.ID,
			Name:        "Vimeo",
			Description: "Video search",
			CreateSource: func() (source.Source, error) {
				return vimeo.New(vimeo.Config{Token: viper.GetString(key.VimeoToken)}), nil
			},
		},
	}
}

// LocalRoots returns the configured localfs roots, or the usual media
// directories of the home directory when none are set.
func LocalRoots() []string {
	if roots := viper.GetStringSlice(key.LocalfsRoots); len(roots) > 0 {
		return roots
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return lo.Map([]string{"Music", "Videos", "Pictures"}, func(dir string, _ int) string {
		return filepath.Join(home, dir)
	})
}

// Customs returns the Lua scripts found in the sources directory.
func Customs() []*Provider {
	providers, _ := CustomProviders()
	return providers
}

// CustomProviders lists the scripts of where.Sources(). Files starting with an
// underscore are libraries and are skipped.
func CustomProviders() ([]*Provider, error) {
	dir := where.Sources()
	files, err := filesystem.API().ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var providers []*Provider
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".lua" || strings.HasPrefix(f.Name(), "_") {
			continue
		}

		path := filepath.Join(dir, f.Name())
		name := util.FileStem(f.Name())

		providers = append(providers, &Provider{
			ID:          custom.IDfromName(name),
			Name:        name,
			Description: "Lua script " + f.Name(),
			IsCustom:    true,
			CreateSource: func() (source.Source, error) {
				return custom.LoadSource(path)
			},
		})
	}

	return providers, nil
}

// All returns builtins followed by custom scripts. A script cannot shadow a builtin.
func All() []*Provider {
	builtins := Builtins()
	ids := lo.SliceToMap(builtins, func(p *Provider) (string, struct{}) {
		return p.ID, struct{}{}
	})

	customs := lo.Filter(Customs(), func(p *Provider, _ int) bool {
		_, taken := ids[p.ID]
		return !taken
	})
	sort.Slice(customs, func(i, j int) bool {
		return customs[i].ID < customs[j].ID
	})

	return append(builtins, customs...)
}

// Get finds a provider by id.
func Get(id string) (*Provider, bool) {
	return lo.Find(All(), func(p *Provider) bool {
		return p.ID == id
	})
}

// MustFind is Get with an error that suggests the closest known id.
func MustFind(id string) (*Provider, error) {
	if p, ok := Get(id); ok {
		return p, nil
	}

	ids := lo.Map(All(), func(p *Provider, _ int) string { return p.ID })
	msg := fmt.Sprintf("unknown source %q", id)
	if len(ids) > 0 {
		closest := lo.MinBy(ids, func(a, b string) bool {
			return levenshtein.Distance(a, id) < levenshtein.Distance(b, id)
		})
		if levenshtein.Distance(closest, id) <= 3 {
			msg += fmt.Sprintf(", did you mean %q?", closest)
		}
	}
	return nil, fmt.Errorf("%s", msg)
}

// Capabilities lists the verbs src supports.
func Capabilities(src source.Source) []string {
	var caps []string
	if _, ok := src.(source.Browser); ok {
		caps = append(caps, "browse")
	}
	if _, ok := src.(source.Searcher); ok {
		caps = append(caps, "search")
	}
	if _, ok := src.(source.Resolver); ok {
		caps = append(caps, "resolve")
	}
	if _, ok := src.(source.Storer); ok {
		caps = append(caps, "store")
	}
	return caps
}
