package tmdb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/trawl-media/trawl/media"
)

type result struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
}

type searchResponse struct {
	Page         int      `json:"page"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
	Results      []result `json:"results"`
}

func poster(base, path string) string {
	if base == "" || path == "" {
		return ""
	}
	return base + posterSize + path
}

func releaseDate(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func (r result) media(base string) *media.Media {
	return &media.Media{
		ID:          strconv.Itoa(r.ID),
		Kind:        media.Video,
		Title:       r.Title,
		Description: r.Overview,
		Thumbnail:   poster(base, r.PosterPath),
		Rating:      r.VoteAverage,
		Published:   releaseDate(r.ReleaseDate),
		Site:        fmt.Sprintf("https://www.themoviedb.org/movie/%d", r.ID),
	}
}

type details struct {
	result

	Runtime int `json:"runtime"`
	Genres  []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Keywords struct {
		Keywords []struct {
			Name string `json:"name"`
		} `json:"keywords"`
	} `json:"keywords"`
}

func (d details) media(base string) *media.Media {
	m := d.result.media(base)
	m.Duration = time.Duration(d.Runtime) * time.Minute

	if len(d.Genres) > 0 {
		m.Genre = d.Genres[0].Name
	}
	for _, k := range d.Keywords.Keywords {
		m.Keywords = append(m.Keywords, k.Name)
	}

	return m
}
