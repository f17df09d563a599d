// Package media defines the item record shared by every source.
package media

import (
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
)

// Kind classifies an item.
type Kind int

const (
	Unknown Kind = iota
	Container
	Audio
	Video
	Image
	Text
)

var kindNames = map[Kind]string{
	Unknown:   "unknown",
	Container: "container",
	Audio:     "audio",
	Video:     "video",
	Image:     "image",
	Text:      "text",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String. Unrecognised names map to Unknown.
func ParseKind(s string) Kind {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return Unknown
}

// KindFromMIME guesses the kind from a MIME type.
func KindFromMIME(mime string) Kind {
	switch {
	case strings.HasPrefix(mime, "audio/"):
		return Audio
	case strings.HasPrefix(mime, "video/"):
		return Video
	case strings.HasPrefix(mime, "image/"):
		return Image
	case strings.HasPrefix(mime, "text/"), mime == "application/x-subrip":
		return Text
	default:
		return Unknown
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	*k = ParseKind(string(text))
	return nil
}

// JSONSchema describes the textual encoding of Kind.
func (Kind) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: []any{"unknown", "container", "audio", "video", "image", "text"},
	}
}

// Subtitle is one subtitle track attached to a video.
type Subtitle struct {
	Language string `json:"language"`
	Name     string `json:"name,omitempty"`
	URL      string `json:"url"`
	Score    int    `json:"score,omitempty"`
}

// Media is a generic catalog entry. Zero values mean "not known".
type Media struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Kind   Kind   `json:"kind"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Site        string `json:"site,omitempty"`
	MIME        string `json:"mime,omitempty"`

	Author      string `json:"author,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	Genre       string `json:"genre,omitempty"`
	TrackNumber int    `json:"track_number,omitempty"`

	Show    string `json:"show,omitempty"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`

	Published time.Time     `json:"published,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Width     int           `json:"width,omitempty"`
	Height    int           `json:"height,omitempty"`
	Size      int64         `json:"size,omitempty"`
	Hash      string        `json:"hash,omitempty"`
	Rating    float64       `json:"rating,omitempty"`

	// ChildCount is the number of children of a container, -1 when not known.
	ChildCount int `json:"child_count,omitempty"`

	Keywords  []string   `json:"keywords,omitempty"`
	Subtitles []Subtitle `json:"subtitles,omitempty"`
}

// NewContainer returns a container with an unknown child count.
func NewContainer(source, id, title string) *Media {
	return &Media{
		ID:         id,
		Source:     source,
		Kind:       Container,
		Title:      title,
		ChildCount: -1,
	}
}

// IsContainer reports whether the item can be browsed.
func (m *Media) IsContainer() bool {
	return m != nil && m.Kind == Container
}

func (m *Media) String() string {
	if m == nil {
		return "<nil>"
	}
	if m.Title == "" {
		return fmt.Sprintf("%s:%s", m.Source, m.ID)
	}
	return fmt.Sprintf("%s:%s (%s)", m.Source, m.ID, m.Title)
}

// Merge copies every non-zero field of other that is zero in m.
func (m *Media) Merge(other *Media) {
	if other == nil {
		return
	}

	str := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	num := func(dst *int, src int) {
		if *dst == 0 {
			*dst = src
		}
	}

	str(&m.ID, other.ID)
	str(&m.Title, other.Title)
	str(&m.Description, other.Description)
	str(&m.URL, other.URL)
	str(&m.Thumbnail, other.Thumbnail)
	str(&m.Site, other.Site)
	str(&m.MIME, other.MIME)
	str(&m.Author, other.Author)
	str(&m.Artist, other.Artist)
	str(&m.Album, other.Album)
	str(&m.Genre, other.Genre)
	str(&m.Show, other.Show)
	str(&m.Hash, other.Hash)
	num(&m.TrackNumber, other.TrackNumber)
	num(&m.Season, other.Season)
	num(&m.Episode, other.Episode)
	num(&m.Width, other.Width)
	num(&m.Height, other.Height)

	if m.Kind == Unknown {
		m.Kind = other.Kind
	}
	if m.Published.IsZero() {
		m.Published = other.Published
	}
	if m.Duration == 0 {
		m.Duration = other.Duration
	}
	if m.Size == 0 {
		m.Size = other.Size
	}
	if m.Rating == 0 {
		m.Rating = other.Rating
	}
	if m.ChildCount <= 0 && other.ChildCount > 0 {
		m.ChildCount = other.ChildCount
	}
	if len(m.Keywords) == 0 {
		m.Keywords = other.Keywords
	}
	if len(m.Subtitles) == 0 {
		m.Subtitles = other.Subtitles
	}
}
