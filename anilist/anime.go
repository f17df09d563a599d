// Package anilist searches the Anilist anime catalog through its GraphQL API.
package anilist

import (
	"strconv"
	"time"

	"github.com/trawl-media/trawl/media"
)

// date represents a calendar date in the Anilist GraphQL API.
type date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d date) time() time.Time {
	if d.Year == 0 {
		return time.Time{}
	}
	return time.Date(d.Year, time.Month(max(d.Month, 1)), max(d.Day, 1), 0, 0, 0, 0, time.UTC)
}

type Anime struct {
	ID    int `json:"id"`
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
		Native  string `json:"native"`
	} `json:"title"`
	// Description is plain text, the query asks for asHtml: false.
	Description string `json:"description"`
	CoverImage  struct {
		ExtraLarge string `json:"extraLarge"`
		Large      string `json:"large"`
	} `json:"coverImage"`
	Tags []struct {
		Name string `json:"name"`
		// Rank is how relevant the tag is, from 1 to 100.
		Rank int `json:"rank"`
	} `json:"tags"`
	Genres       []string `json:"genres"`
	StartDate    date     `json:"startDate"`
	Synonyms     []string `json:"synonyms"`
	Episodes     int      `json:"episodes"`
	Duration     int      `json:"duration"`
	SiteURL      string   `json:"siteUrl"`
	AverageScore int      `json:"averageScore"`
}

// Name returns the english title when there is one, the romanized title otherwise.
func (a *Anime) Name() string {
	if a.Title.English == "" {
		return a.Title.Romaji
	}

	return a.Title.English
}

// minTagRank filters out tags barely related to the anime.
const minTagRank = 60

func (a *Anime) media() *media.Media {
	if a == nil {
		return nil
	}

	m := &media.Media{
		ID:          strconv.Itoa(a.ID),
		Kind:        media.Video,
		Title:       a.Name(),
		Show:        a.Name(),
		Description: a.Description,
		Thumbnail:   a.CoverImage.ExtraLarge,
		Site:        a.SiteURL,
		Published:   a.StartDate.time(),
		Duration:    time.Duration(a.Duration) * time.Minute,
		Rating:      float64(a.AverageScore) / 10,
	}

	if m.Thumbnail == "" {
		m.Thumbnail = a.CoverImage.Large
	}
	if len(a.Genres) > 0 {
		m.Genre = a.Genres[0]
	}

	m.Keywords = append(m.Keywords, a.Genres...)
	for _, tag := range a.Tags {
		if tag.Rank >= minTagRank {
			m.Keywords = append(m.Keywords, tag.Name)
		}
	}

	return m
}
