package anilist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/trawl-media/trawl/fetch"
	"github.com/trawl-media/trawl/log"
	"github.com/trawl-media/trawl/util"
)

// ErrNotFound is returned when no anime matches a name.
var ErrNotFound = errors.New("no results found on Anilist")

// notFound marks names known to have no match.
const notFound = -1

// maxTries bounds how many shortened names are searched.
const maxTries = 3

// normalizedName returns a lowercased, trimmed string for consistent comparison.
func normalizedName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindClosest returns the anime whose name is closest to name.
// Names without results are searched again with their last word dropped.
func (s *Source) FindClosest(ctx context.Context, name string) (*Anime, error) {
	name = normalizedName(name)
	return s.findClosest(ctx, name, name, 0)
}

func (s *Source) findClosest(ctx context.Context, name, originalName string, try int) (*Anime, error) {
	if try >= maxTries {
		_ = s.config.Relations.Set(originalName, notFound)
		return nil, fmt.Errorf("%w for %q", ErrNotFound, originalName)
	}

	id := s.config.Relations.Get(name)
	if id.IsPresent() {
		if id.MustGet() == notFound {
			return nil, fmt.Errorf("%w for %q", ErrNotFound, name)
		}

		anime, err := s.GetByID(ctx, id.MustGet())
		if err == nil {
			if try > 0 {
				_ = s.config.Relations.Set(originalName, anime.ID)
			}
			return anime, nil
		}
		if ctx.Err() != nil {
			return nil, fetch.TransportError(ctx.Err())
		}

		// the anime was removed from Anilist
		log.Infof("Anime with id %d is gone from Anilist", id.MustGet())
		_ = s.config.Relations.Delete(name)
	}

	animes, err := s.searchPage(ctx, name, 1, pageSize)
	if err != nil {
		return nil, err
	}

	animes = lo.Compact(animes)
	if len(animes) == 0 {
		words := strings.Fields(name)
		if len(words) <= 1 {
			return s.findClosest(ctx, name, originalName, maxTries)
		}

		alternateName := strings.Join(words[:util.Max(len(words)-1, 1)], " ")
		log.Infof(`No results found on Anilist for anime "%s", trying "%s"`, name, alternateName)
		return s.findClosest(ctx, alternateName, originalName, try+1)
	}

	closest := lo.MinBy(animes, func(a, b *Anime) bool {
		return distance(originalName, a) < distance(originalName, b)
	})

	log.Info("Found closest match: " + closest.Name())

	if id := s.config.Relations.Get(originalName); id.IsAbsent() {
		_ = s.config.Relations.Set(originalName, closest.ID)
	}

	return closest, nil
}

// distance is the smallest edit distance between name and any title of a.
func distance(name string, a *Anime) int {
	titles := append([]string{a.Name(), a.Title.Romaji, a.Title.Native}, a.Synonyms...)
	titles = lo.Compact(titles)

	return lo.Min(lo.Map(titles, func(title string, _ int) int {
		return levenshtein.Distance(name, normalizedName(title))
	}))
}
