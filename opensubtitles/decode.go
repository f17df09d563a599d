package opensubtitles

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/trawl-media/trawl/internal/xmlrpc"
	"github.com/trawl-media/trawl/media"
)

const dateLayout = "2006-01-02 15:04:05"

// Scores follow the popcorn-opensubtitles ranking.
const (
	scoreHash    = 100
	scoreTag     = 50
	scoreTrusted = 100
)

func decodeSubtitles(data []any) ([]*media.Media, error) {
	items := make([]*media.Media, 0, len(data))
	for _, v := range data {
		rec := xmlrpc.Struct(v)
		if rec == nil {
			return nil, errors.New("subtitle record is not a struct")
		}
		items = append(items, subtitleMedia(rec))
	}
	return items, nil
}

func subtitleMedia(rec map[string]any) *media.Media {
	str := func(name string) string { return xmlrpc.String(rec[name]) }
	num := func(name string) int { return xmlrpc.Int(rec[name]) }

	m := &media.Media{
		ID:          str("IDSubtitleFile"),
		Kind:        media.Text,
		Title:       str("SubFileName"),
		Description: str("MovieReleaseName"),
		URL:         fixupURL(str("SubDownloadLink")),
		Site:        str("SubtitlesLink"),
		Hash:        str("MovieHash"),
		Size:        int64(num("SubSize")),
		MIME:        "application/x-subrip",
		Subtitles: []media.Subtitle{{
			Language: str("ISO639"),
			Name:     str("LanguageName"),
			URL:      fixupURL(str("SubDownloadLink")),
			Score:    score(rec),
		}},
	}

	if season := num("SeriesSeason"); season > 0 {
		m.Show = str("MovieName")
		m.Season = season
		m.Episode = num("SeriesEpisode")
	}

	if rating, err := strconv.ParseFloat(str("SubRating"), 64); err == nil {
		m.Rating = rating
	}
	if published, err := time.Parse(dateLayout, str("SubAddDate")); err == nil {
		m.Published = published
	}

	return m
}

func score(rec map[string]any) int {
	var total int

	switch xmlrpc.String(rec["MatchedBy"]) {
	case "moviehash":
		total += scoreHash
	case "tag":
		total += scoreTag
	}

	if xmlrpc.String(rec["UserRank"]) == "trusted" {
		total += scoreTrusted
	}

	return total
}

// fixupURL points gzipped download links at the plain srt file.
func fixupURL(url string) string {
	if !strings.HasSuffix(url, ".gz") {
		return url
	}
	return strings.TrimSuffix(url, ".gz") + ".srt"
}

// bestPerLanguage keeps the highest scored subtitle of each language, breaking ties by downloads.
// Episode subtitles of another season or episode than m are skipped.
func bestPerLanguage(m *media.Media, data []any) []media.Subtitle {
	type candidate struct {
		sub       media.Subtitle
		downloads int
	}

	best := make(map[string]candidate)
	for _, v := range data {
		rec := xmlrpc.Struct(v)
		if rec == nil {
			continue
		}

		if m.Show != "" {
			if xmlrpc.Int(rec["SeriesSeason"]) != m.Season || xmlrpc.Int(rec["SeriesEpisode"]) != m.Episode {
				continue
			}
		}

		c := candidate{
			sub: media.Subtitle{
				Language: xmlrpc.String(rec["ISO639"]),
				Name:     xmlrpc.String(rec["LanguageName"]),
				URL:      fixupURL(xmlrpc.String(rec["SubDownloadLink"])),
				Score:    score(rec),
			},
			downloads: xmlrpc.Int(rec["SubDownloadsCnt"]),
		}
		if c.sub.Language == "" || c.sub.URL == "" {
			continue
		}

		old, ok := best[c.sub.Language]
		if !ok || c.sub.Score > old.sub.Score || (c.sub.Score == old.sub.Score && c.downloads > old.downloads) {
			best[c.sub.Language] = c
		}
	}

	subs := make([]media.Subtitle, 0, len(best))
	for _, c := range best {
		subs = append(subs, c.sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Language < subs[j].Language
	})
	return subs
}
